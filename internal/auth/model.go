package auth

import (
	"fmt"
	"regexp"
	"time"

	appErrors "github.com/paisatrack/paisatrack/customErrors"
)

const (
	MAX_LENGTH_EMAIL    = 255
	MAX_PASSWORD_LENGTH = 72 // bcrypt input limit
)

// User is the stored identity record. Email is persisted exactly as the
// user typed it; lookups are case-sensitive.
type User struct {
	ID             string
	Email          string
	PasswordHashed string
	CreatedAt      time.Time
}

type NewUser struct {
	Email         string
	PasswordPlain string
}

type UserCredentialsPure struct {
	Email         string
	PasswordPlain string
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9](\.?[a-zA-Z0-9_%+-])*@[a-zA-Z0-9-]+(\.[a-zA-Z0-9-]+)*\.[a-zA-Z]{2,}$`)

func (newUser NewUser) ValidateUserFields() error {
	if newUser.Email == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Please enter all fields",
		}
	}
	if len(newUser.Email) > MAX_LENGTH_EMAIL {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Email so long, maximum length is %d", MAX_LENGTH_EMAIL),
		}
	}
	if !emailRegex.MatchString(newUser.Email) {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Invalid email format, example valid email: john.doe@gmail.com",
		}
	}
	if newUser.PasswordPlain == "" {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: "Please enter all fields",
		}
	}
	if len(newUser.PasswordPlain) > MAX_PASSWORD_LENGTH {
		return appErrors.ErrorResponse{
			Code:    appErrors.ErrInvalidInput,
			Message: fmt.Sprintf("Password so long, maximum length is %d", MAX_PASSWORD_LENGTH),
		}
	}
	return nil
}
