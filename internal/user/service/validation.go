package service

import (
	"net/http"

	commonerrors "github.com/messagely/backend/internal/common/errors"
)

var (
	ErrMissingUsername = commonerrors.NewDomainError(
		"VALIDATION_USERNAME_REQUIRED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"username is required",
	)

	ErrMissingPassword = commonerrors.NewDomainError(
		"VALIDATION_PASSWORD_REQUIRED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"password is required",
	)

	ErrMissingProfile = commonerrors.NewDomainError(
		"VALIDATION_PROFILE_REQUIRED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"first_name, last_name and phone are required",
	)
)

// Registration requires every field to be present; no format rules beyond
// that.
func validateRegistration(input RegisterInput) error {
	if input.Username == "" {
		return ErrMissingUsername
	}
	if input.Password == "" {
		return ErrMissingPassword
	}
	if input.FirstName == "" || input.LastName == "" || input.Phone == "" {
		return ErrMissingProfile
	}
	return nil
}
