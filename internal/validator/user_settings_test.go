package validator // import "jobwatch.app/internal/validator"

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch.app/internal/model"
)

func TestValidateUserSettingsModification(t *testing.T) {
	assert.NoError(t, ValidateUserSettingsModification(
		&model.UserSettingsModificationRequest{}))

	assert.NoError(t, ValidateUserSettingsModification(
		&model.UserSettingsModificationRequest{
			SMTPPort: ptr(465),
			SMTPFrom: ptr("alerts@example.org"),
		}))

	require.ErrorContains(t, ValidateUserSettingsModification(
		&model.UserSettingsModificationRequest{SMTPPort: ptr(70000)}),
		"out of range")

	require.ErrorContains(t, ValidateUserSettingsModification(
		&model.UserSettingsModificationRequest{SMTPFrom: ptr("example.org")}),
		"email address")
}

func TestValidateAPIKeyCreation(t *testing.T) {
	assert.NoError(t, ValidateAPIKeyCreation("automation"))
	require.ErrorContains(t, ValidateAPIKeyCreation("  "),
		"description is required")
}

func TestValidateUserCreation(t *testing.T) {
	assert.NoError(t, ValidateUserCreation(&model.User{Username: "alice"}))

	require.ErrorContains(t,
		ValidateUserCreation(&model.User{}), "mandatory")
	require.ErrorContains(t,
		ValidateUserCreation(&model.User{Username: "a b"}), "not valid")
}
