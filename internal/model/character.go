package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// Character is a character appearing in a film or show.  The text fields
// below are covered by the collection's text index and searchable via /search.
type Character struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id" form:"-"`
	CategoryName         string             `bson:"category_name" json:"category_name" form:"category_name" validate:"required,max=100"`
	CharacterName        string             `bson:"character_name" json:"character_name" form:"character_name" validate:"required,max=200"`
	CharacterDescription string             `bson:"character_description" json:"character_description" form:"character_description" validate:"max=5000"`
	CharacterFilm        string             `bson:"character_film" json:"character_film" form:"character_film" validate:"max=200"`
	CharacterActor       string             `bson:"character_actor" json:"character_actor" form:"character_actor" validate:"max=200"`
	FilmCreator          string             `bson:"film_creator" json:"film_creator" form:"film_creator" validate:"max=200"`
}

// CharacterTextFields are the fields indexed for full-text search.
var CharacterTextFields = []string{
	"character_name",
	"character_description",
	"character_film",
	"character_actor",
}

// CharacterKind serves the characters collection.
var CharacterKind = Kind[Character]{
	Collection:      "characters",
	Singular:        "character",
	Plural:          "characters",
	ListTemplate:    "characters.html",
	FormTemplate:    "character_form.html",
	NeedsCategories: true,
	SearchPath:      "/search",
	Prepare: func(c *Character, _ string) {
		trim(&c.CategoryName, &c.CharacterName, &c.CharacterDescription,
			&c.CharacterFilm, &c.CharacterActor, &c.FilmCreator)
	},
	Label: func(c *Character) string { return c.CharacterName },
}
