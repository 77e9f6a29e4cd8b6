package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Show is a TV show entry.  PostedBy is stamped from the session on create
// and omitted from updates so edits never overwrite the original poster.
type Show struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id" form:"-"`
	CategoryName    string             `bson:"category_name" json:"category_name" form:"category_name" validate:"required,max=100"`
	ShowName        string             `bson:"show_name" json:"show_name" form:"show_name" validate:"required,max=200"`
	ShowDescription string             `bson:"show_description" json:"show_description" form:"show_description" validate:"max=5000"`
	ShowProducer    string             `bson:"show_producer" json:"show_producer" form:"show_producer" validate:"max=200"`
	BasedOn         string             `bson:"based_on" json:"based_on" form:"based_on" validate:"max=200"`
	PostedBy        string             `bson:"posted_by,omitempty" json:"posted_by,omitempty" form:"-"`
}

// ShowKind serves the shows collection.
var ShowKind = Kind[Show]{
	Collection:      "shows",
	Singular:        "show",
	Plural:          "shows",
	ListTemplate:    "tv.html",
	FormTemplate:    "show_form.html",
	NeedsCategories: true,
	Prepare: func(s *Show, user string) {
		trim(&s.CategoryName, &s.ShowName, &s.ShowDescription, &s.ShowProducer, &s.BasedOn)
		s.PostedBy = user
	},
	Label: func(s *Show) string { return s.ShowName },
}
