// Package user manages user records behind the users endpoints.
package user

import "errors"

// ErrNotFound is returned when no user exists for an id.
var ErrNotFound = errors.New("user not found")

// User is a stored user record.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Input is the client-supplied part of a user.
type Input struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}
