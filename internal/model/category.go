package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Category groups shows, films and characters.  Other documents refer to a
// category by copying its name, so renaming or deleting one does not touch
// them.
type Category struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id" form:"-"`
	CategoryName string             `bson:"category_name" json:"category_name" form:"category_name" validate:"required,max=100"`
}

// CategoryKind serves the categories collection, listed alphabetically.
var CategoryKind = Kind[Category]{
	Collection:   "categories",
	Singular:     "category",
	Plural:       "categories",
	ListTemplate: "category.html",
	FormTemplate: "category_form.html",
	SortField:    "category_name",
	AddedMessage: "New category added",
	Prepare:      func(c *Category, _ string) { trim(&c.CategoryName) },
	Label:        func(c *Category) string { return c.CategoryName },
}
