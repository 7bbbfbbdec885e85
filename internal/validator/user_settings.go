package validator // import "jobwatch.app/internal/validator"

import (
	"errors"
	"strings"

	"jobwatch.app/internal/model"
)

// ValidateUserSettingsModification validates user settings modification.
func ValidateUserSettingsModification(
	request *model.UserSettingsModificationRequest,
) error {
	if request.SMTPPort != nil {
		if port := *request.SMTPPort; port < 0 || port > 65535 {
			return errors.New("smtp port is out of range")
		}
	}
	if request.SMTPFrom != nil && *request.SMTPFrom != "" &&
		!strings.Contains(*request.SMTPFrom, "@") {
		return errors.New("smtp sender must be an email address")
	}
	return nil
}

// ValidateAPIKeyCreation validates API key creation.
func ValidateAPIKeyCreation(description string) error {
	if strings.TrimSpace(description) == "" {
		return errors.New("description is required")
	}
	return nil
}
