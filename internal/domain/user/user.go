package user

import (
	"errors"
	"strings"
	"time"
)

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	City      string    `json:"city"`
	CreatedAt time.Time `json:"createdAt"`
}

var ErrNotFound = errors.New("user not found")

// unique email constraint violated
var ErrEmailTaken = errors.New("email already registered")

// SignupRequest is the wire shape of POST /user/signup. Coordinates are
// pointers so that an explicit 0 is distinguishable from a missing field.
type SignupRequest struct {
	Name      string   `json:"name" binding:"required,min=1,max=200"`
	Email     string   `json:"email" binding:"required,email,max=254"`
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
}

// Normalize trims the text fields so that validation sees what gets stored.
func (r *SignupRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

// SignupInput is a validated signup request.
type SignupInput struct {
	Name      string
	Email     string
	Latitude  float64
	Longitude float64
}

// Input converts a bound request. Call only after binding succeeded.
func (r SignupRequest) Input() SignupInput {
	in := SignupInput{
		Name:  strings.TrimSpace(r.Name),
		Email: strings.TrimSpace(r.Email),
	}
	if r.Latitude != nil {
		in.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		in.Longitude = *r.Longitude
	}
	return in
}

// UserProfile is the public projection of a User.
type UserProfile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	City  string `json:"city"`
}

func (u User) Profile() UserProfile {
	return UserProfile{
		Name:  u.Name,
		Email: u.Email,
		City:  u.City,
	}
}

// a factory building the row to insert; ID and CreatedAt are assigned by the store
func NewFromSignup(in SignupInput, city string) User {
	return User{
		Name:      in.Name,
		Email:     in.Email,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		City:      city,
	}
}
