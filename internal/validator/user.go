package validator // import "jobwatch.app/internal/validator"

import (
	"errors"
	"regexp"

	"jobwatch.app/internal/model"
)

var usernameRe = regexp.MustCompile(`^\S+$`)

// ValidateUserCreation checks a user before it is stored.
func ValidateUserCreation(user *model.User) error {
	if user.Username == "" {
		return errors.New("validator: the username is mandatory")
	}
	if !usernameRe.MatchString(user.Username) {
		return errors.New("validator: the username is not valid")
	}
	return nil
}
