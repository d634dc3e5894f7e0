package repository

import (
	"context"

	commonerrors "github.com/AlibekovAA/shotplot/backend/internal/common/errors"
	"github.com/AlibekovAA/shotplot/backend/internal/user/domain"
)

// Repository is the User Directory. Create is an atomic insert-if-absent keyed
// by username: of two concurrent creates for the same username exactly one
// succeeds and the other gets ErrUsernameAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user domain.User) error
	FindByUsername(ctx context.Context, username string) (domain.User, error)
}

var (
	ErrUserNotFound          = commonerrors.ErrUserNotFound
	ErrUsernameAlreadyExists = commonerrors.ErrUsernameAlreadyExists
)
