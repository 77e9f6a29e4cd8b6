// Package model declares the catalog documents and the schema each one is
// served under.  Documents are plain bson structs; Kind describes how the
// generic CRUD handler and repository treat a collection.
package model

import "strings"

// Kind declares a catalog entity: where it is stored, how its routes and
// views are named and how a bound form is prepared before validation.
//
// The route set derived from a Kind mirrors the public URLs of the catalog:
//
//	GET      /get_<Plural>
//	GET,POST /add_<Singular>
//	GET,POST /edit_<Singular>/:id
//	GET      /delete_<Singular>/:id
type Kind[T any] struct {
	Collection      string // MongoDB collection name
	Singular        string // route/flash name for one entity ("show")
	Plural          string // route name for the listing ("shows")
	ListTemplate    string // view rendering the listing
	FormTemplate    string // view rendering the add/edit form
	SortField       string // ascending sort for listings; empty keeps natural order
	NeedsCategories bool   // form offers the category list for selection
	SearchPath      string // search page listing this kind, if any
	AddedMessage    string // flash after a create; defaults to "<Singular> successfully added"

	// Prepare normalizes a freshly bound document.  user is the session
	// username and is empty on edits, so stamped fields are left untouched.
	Prepare func(doc *T, user string)
	// Label returns the human name of a document, used in events.
	Label func(doc *T) string
}

func (k Kind[T]) ListPath() string  { return "/get_" + k.Plural }
func (k Kind[T]) AddPath() string   { return "/add_" + k.Singular }
func (k Kind[T]) EditRoute() string { return "/edit_" + k.Singular + "/:id" }
func (k Kind[T]) DeleteRoute() string {
	return "/delete_" + k.Singular + "/:id"
}

// Added returns the flash shown after a document is created.
func (k Kind[T]) Added() string {
	if k.AddedMessage != "" {
		return k.AddedMessage
	}
	return k.Singular + " successfully added"
}

// EditPath returns the concrete edit URL for id.
func (k Kind[T]) EditPath(id string) string { return "/edit_" + k.Singular + "/" + id }

// trim trims surrounding whitespace from every field in place.
func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
