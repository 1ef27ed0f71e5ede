package repository

import (
	"context"
	"errors"
	"fmt"

	"handmade-kart/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `id, username, email, password, phone_num, role, is_verified, verification_token, verification_expires_at, created_at`

type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.PhoneNum, &u.Role,
		&u.IsVerified, &u.VerificationToken, &u.VerificationExpiresAt, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.pool.Exec(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.PhoneNum, u.Role,
		u.IsVerified, u.VerificationToken, u.VerificationExpiresAt, u.CreatedAt)
	if err != nil {
		err = translateError(err)
		if !errors.Is(err, ErrDuplicate) {
			r.logger.Error().Err(err).Str("user_id", u.ID.String()).Msg("failed to create user")
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) get(ctx context.Context, where string, arg any) (*model.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return u, nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.get(ctx, `id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.get(ctx, `email = $1`, email)
}

func (r *userRepository) GetByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return r.get(ctx, `verification_token = $1`, token)
}

func (r *userRepository) FindConflict(ctx context.Context, email, username, phone string) (string, error) {
	query := `
		SELECT CASE
			WHEN email = $1 THEN 'email'
			WHEN username = $2 THEN 'username'
			ELSE 'phoneNum'
		END
		FROM users
		WHERE email = $1 OR username = $2 OR phone_num = $3
		LIMIT 1
	`
	var field string
	err := r.pool.QueryRow(ctx, query, email, username, phone).Scan(&field)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		r.logger.Error().Err(err).Msg("failed to check user uniqueness")
		return "", fmt.Errorf("failed to check user uniqueness: %w", err)
	}
	return field, nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, verification_token = NULL, verification_expires_at = NULL
		WHERE id = $1
	`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to verify user")
		return fmt.Errorf("failed to verify user: %w", err)
	}
	return nil
}

func (r *userRepository) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	if _, err := r.pool.Exec(ctx, `UPDATE users SET role = $2 WHERE id = $1`, id, role); err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to set user role")
		return fmt.Errorf("failed to set user role: %w", err)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to delete user")
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
