package model

import "time"

// Contact is the data structure for a person that a user keeps in their
// address book. All fields with the exception of the Id and OwnerId fields
// are optional; pointer fields distinguish absent values from empty ones,
// which is what makes partial updates possible.
type Contact struct {
	Id             int64      `json:"id"                        db:"id"`
	FirstName      *string    `json:"first_name,omitempty"      db:"first_name"`
	LastName       *string    `json:"last_name,omitempty"       db:"last_name"`
	Email          *string    `json:"email,omitempty"           db:"email"`
	Phone          *string    `json:"phone,omitempty"           db:"phone"`
	Birthday       *time.Time `json:"birthday,omitempty"        db:"birthday"`
	AdditionalInfo *string    `json:"additional_info,omitempty" db:"additional_info"`
	OwnerId        int64      `json:"owner_id"                  db:"owner_id"`
}

// User is a registered account. The password is only ever stored as a bcrypt
// hash, and neither the hash nor the verification token appear in JSON
// responses.
type User struct {
	Id             int64   `json:"id"                   db:"id"`
	Email          string  `json:"email"                db:"email"`
	HashedPassword string  `json:"-"                    db:"hashed_password"`
	Verified       bool    `json:"verified"             db:"verified"`
	VerifyToken    string  `json:"-"                    db:"verify_token"`
	AvatarUrl      *string `json:"avatar_url,omitempty" db:"avatar_url"`
}
