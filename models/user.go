package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an authenticated CRM staff member. Team is the only axis of role-based access.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Team      Team      `json:"team" db:"team_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// NewUser creates a new User instance
func NewUser(email, firstName, lastName string, team Team) *User {
	now := time.Now()
	return &User{
		ID:        uuid.New(),
		Email:     email,
		FirstName: firstName,
		LastName:  lastName,
		Team:      team,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// InTeam reports whether the user belongs to team
func (u *User) InTeam(team Team) bool {
	return u != nil && u.Team == team
}

// Is reports whether id refers to this user. A nil id is never a match.
func (u *User) Is(id *uuid.UUID) bool {
	return u != nil && id != nil && *id == u.ID
}
