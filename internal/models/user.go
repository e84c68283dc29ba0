package models

import "time"

// User represents an account holder of the task service.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null" bson:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null" bson:"email"`
	PasswordHash string    `json:"-" gorm:"column:password;type:varchar(255);not null" bson:"password"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt" bson:"updatedAt"`
}

// UserChanges carries the profile fields to overwrite. Nil fields are left untouched.
type UserChanges struct {
	Name         *string
	Email        *string
	PasswordHash *string
}

// Empty reports whether no field is set.
func (c UserChanges) Empty() bool {
	return c.Name == nil && c.Email == nil && c.PasswordHash == nil
}

// UserSummary is the public view of a user returned next to a token.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Profile is the public view of a user returned by the profile endpoints.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary strips the user down to its public identity fields.
func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Profile returns the user without its password hash.
func (u *User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Identity is the authenticated caller resolved from a bearer token.
// It is created once per request and never mutated.
type Identity struct {
	UserID string
}
