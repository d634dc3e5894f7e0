package service

import (
	"net/http"

	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
)

var (
	ErrValidation = commonerrors.NewDomainError(
		"VALIDATION_FAILED",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"validation failed",
	)

	ErrPasswordNotString = commonerrors.NewDomainError(
		"PASSWORD_NOT_STRING",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"Password must be a string",
	)

	ErrUsernameTaken = commonerrors.NewDomainError(
		"USERNAME_TAKEN",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"Username already exists",
	)

	ErrRegistrationFailed = commonerrors.NewDomainError(
		"REGISTRATION_FAILED",
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		"Failed to register user",
	)

	ErrLoginFailed = commonerrors.NewDomainError(
		"LOGIN_FAILED",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"Login failed",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryExternal,
		http.StatusServiceUnavailable,
		"service temporarily unavailable",
	)
)
