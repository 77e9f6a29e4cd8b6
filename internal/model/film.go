package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Film is a feature film entry.
type Film struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id" form:"-"`
	CategoryName    string             `bson:"category_name" json:"category_name" form:"category_name" validate:"required,max=100"`
	FilmName        string             `bson:"film_name" json:"film_name" form:"film_name" validate:"required,max=200"`
	FilmDescription string             `bson:"film_description" json:"film_description" form:"film_description" validate:"max=5000"`
	FilmCreator     string             `bson:"film_creator" json:"film_creator" form:"film_creator" validate:"max=200"`
}

// FilmKind serves the films collection.
var FilmKind = Kind[Film]{
	Collection:      "films",
	Singular:        "film",
	Plural:          "films",
	ListTemplate:    "films.html",
	FormTemplate:    "film_form.html",
	NeedsCategories: true,
	Prepare: func(f *Film, _ string) {
		trim(&f.CategoryName, &f.FilmName, &f.FilmDescription, &f.FilmCreator)
	},
	Label: func(f *Film) string { return f.FilmName },
}
