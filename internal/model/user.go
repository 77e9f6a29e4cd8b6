package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// User represents a registered account as stored in the `users`
// collection.  Username is stored trimmed and lower-cased; Password holds
// the bcrypt hash, never the plain text.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
}

// UsersCollection is the collection holding User documents.
const UsersCollection = "users"
