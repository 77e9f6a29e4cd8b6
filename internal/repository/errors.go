// Package repository defines error types that are reused across the
// repositories.  These sentinel values allow handlers to distinguish
// between failure scenarios with errors.Is and translate them into
// HTTP responses.
package repository

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrNotFound is returned when no document matches the requested id or
// username.  Handlers should translate this into an HTTP 404 response
// (or a generic credential failure on sign-in).
var ErrNotFound = errors.New("not found")

// ErrInvalidID is returned when an id is not a 24 character hex ObjectID.
// Handlers should translate this into an HTTP 400 response.
var ErrInvalidID = errors.New("invalid id")

// ErrUsernameExists is returned when registering a username that is
// already taken.
var ErrUsernameExists = errors.New("username already exists")

// parseID converts a hex id into an ObjectID.
func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}
