package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/princekumarofficial/atlasnap-service/internal/types/users"
)

const userColumns = `id, email, password, is_active, is_verified, created_at, updated_at`

func scanUser(row rowScanner) (*users.User, error) {
	var u users.User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.IsActive, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, email, passwordHash string) (*users.User, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	query := `
	INSERT INTO users (id, email, password)
	VALUES ($1, $2, $3)
	RETURNING ` + userColumns

	u, err := scanUser(p.Db.QueryRowContext(ctx, query, uuid.NewString(), strings.ToLower(email), passwordHash))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*users.User, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return scanUser(p.Db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", strings.ToLower(email)))
}

func (p *Postgres) GetUserByID(ctx context.Context, userID string) (*users.User, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, users.ErrUserNotFound
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return scanUser(p.Db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", userID))
}

func (p *Postgres) MarkUserVerified(ctx context.Context, userID string) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	res, err := p.Db.ExecContext(ctx,
		"UPDATE users SET is_verified = TRUE, updated_at = now() WHERE id = $1", userID)
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify user: %w", err)
	}
	if n == 0 {
		return users.ErrUserNotFound
	}
	return nil
}
