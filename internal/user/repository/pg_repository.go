package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/AlibekovAA/shotplot/backend/internal/common/db"
	"github.com/AlibekovAA/shotplot/backend/internal/common/logger"
	"github.com/AlibekovAA/shotplot/backend/internal/user/domain"
)

const usersTable = "users"

type PgRepository struct {
	pool  *pgxpool.Pool
	log   *logger.Logger
	retry db.RetryConfig
}

func NewPgRepository(pool *pgxpool.Pool, log *logger.Logger) *PgRepository {
	return &PgRepository{pool: pool, log: log, retry: db.DefaultRetryConfig}
}

// Create never retries: a retried insert could observe its own first attempt
// as a duplicate.
func (r *PgRepository) Create(ctx context.Context, user domain.User) error {
	start := time.Now()
	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO users (id, username, password_hash, email, created_at) VALUES ($1, $2, $3, $4, $5)`,
		string(user.ID),
		user.Username,
		user.PasswordHash,
		user.Email,
		user.CreatedAt,
	)
	if err != nil && db.IsUniqueViolation(err) {
		db.MeasureQueryDuration("create user", usersTable, start)
		return ErrUsernameAlreadyExists.WithCause(err)
	}
	return db.HandleExecError(err, "create user", usersTable, start)
}

func (r *PgRepository) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	var user domain.User
	err := db.RetryWithBackoff(ctx, r.log, r.retry, func() error {
		start := time.Now()
		row := r.pool.QueryRow(
			ctx,
			`SELECT id, username, password_hash, email, created_at FROM users WHERE username = $1`,
			username,
		)
		err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Email, &user.CreatedAt)
		return db.HandleQueryError(err, ErrUserNotFound, "find user by username", usersTable, start)
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}
