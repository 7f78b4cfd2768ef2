package users

import (
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrEmailTaken   = errors.New("email already taken")
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

type User struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       int       `json:"age,omitempty"`
	Gender    string    `json:"gender"`
	Bio       string    `json:"bio"`
	AvatarURL string    `json:"avatarUrl"`
	CreatedAt time.Time `json:"-"`

	// never serialized
	PasswordHash string `json:"-"`
}

type CreateUserParams struct {
	Name         string
	Email        string
	PasswordHash string
	Age          int
	Gender       string
}

type UpdateProfileParams struct {
	Name      string
	Bio       string
	AvatarURL string
	Age       int
	Gender    string
}

func ValidGender(gender string) bool {
	switch gender {
	case GenderMale, GenderFemale, GenderOther:
		return true
	default:
		return false
	}
}
