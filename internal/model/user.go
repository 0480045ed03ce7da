// Package model defines the data structures shared across the application.
package model

import "time"

// User is a registered account.
//
// PasswordHash is tagged `json:"-"` so it can never leak through any JSON
// response, no matter which handler serializes the struct. Every outward
// shape goes through Public() or Sender() instead.
//
// Color is an index into the frontend's avatar palette, not an RGB value —
// we store whatever integer the client picked.
type User struct {
	ID           string    `json:"id"           db:"id"`
	Email        string    `json:"email"        db:"email"`
	PasswordHash string    `json:"-"            db:"password_hash"`
	FirstName    string    `json:"firstName"    db:"first_name"`
	LastName     string    `json:"lastName"     db:"last_name"`
	Image        string    `json:"image"        db:"image"` // blob reference, may be empty
	Color        int       `json:"color"        db:"color"`
	ProfileSetup bool      `json:"profileSetup" db:"profile_setup"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`
}

// PublicUser is the projection of a User returned to authenticated callers.
type PublicUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Image        string `json:"image"`
	Color        int    `json:"color"`
	ProfileSetup bool   `json:"profileSetup"`
}

// Public returns the safe outward projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:           u.ID,
		Email:        u.Email,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		Image:        u.Image,
		Color:        u.Color,
		ProfileSetup: u.ProfileSetup,
	}
}

// Sender is the restricted projection embedded in enriched messages.
// Narrower than PublicUser: message history has no business knowing
// whether the sender finished profile setup.
type Sender struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Image     string `json:"image"`
	Color     int    `json:"color"`
}

// Sender returns the projection of the user used in message enrichment.
func (u *User) Sender() Sender {
	return Sender{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Image:     u.Image,
		Color:     u.Color,
	}
}
