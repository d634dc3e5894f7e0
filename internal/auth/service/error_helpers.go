package service

import (
	"errors"

	userrepo "github.com/AlibekovAA/shotplot/backend/internal/user/repository"
)

// isExpectedStoreError reports store outcomes that are answers, not faults.
func isExpectedStoreError(err error) bool {
	return errors.Is(err, userrepo.ErrUserNotFound) || errors.Is(err, userrepo.ErrUsernameAlreadyExists)
}
