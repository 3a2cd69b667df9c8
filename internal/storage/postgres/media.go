package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/princekumarofficial/atlasnap-service/internal/types/media"
)

const mediaColumns = `id, owner_id, media_type, status, storage_key, storage_bucket,
	original_filename, file_size, mime_type, user_tags, description, is_favorite,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMedia(row rowScanner) (*media.Media, error) {
	var m media.Media
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.MediaType, &m.Status, &m.StorageKey, &m.StorageBucket,
		&m.OriginalFilename, &m.FileSize, &m.MimeType, pq.Array(&m.UserTags), &m.Description, &m.IsFavorite,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// InsertMedia stores a new row. ID is assigned when empty; the timestamps
// come from the database.
func (p *Postgres) InsertMedia(ctx context.Context, m *media.Media) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = media.StatusPending
	}

	query := `
	INSERT INTO media (id, owner_id, media_type, status, storage_key, storage_bucket,
		original_filename, file_size, mime_type, user_tags, description, is_favorite)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING created_at, updated_at
	`

	return p.inTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, query,
			m.ID, m.OwnerID, m.MediaType, m.Status, m.StorageKey, m.StorageBucket,
			m.OriginalFilename, m.FileSize, m.MimeType, pq.Array(m.UserTags), m.Description, m.IsFavorite,
		).Scan(&m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert media %s: %w", m.StorageKey, media.ErrConflict)
			}
			return fmt.Errorf("insert media: %w", err)
		}
		return nil
	})
}

// GetMedia returns the row only if it belongs to ownerID. A foreign row, a
// missing row and a malformed id all produce media.ErrNotFound.
func (p *Postgres) GetMedia(ctx context.Context, mediaID, ownerID string) (*media.Media, error) {
	if _, err := uuid.Parse(mediaID); err != nil {
		return nil, media.ErrNotFound
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	scope := scopedTo(ownerID).and("id", mediaID)
	row := p.Db.QueryRowContext(ctx, "SELECT "+mediaColumns+" FROM media"+scope.where(), scope.args...)

	m, err := scanMedia(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, media.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get media: %w", err)
	}
	return m, nil
}

// ListMedia returns one page of the owner's media, newest first, and the
// number of rows matching filters before pagination.
func (p *Postgres) ListMedia(ctx context.Context, ownerID string, filters media.Filters, page, size int) ([]media.Media, int, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	scope := scopedTo(ownerID)
	if filters.MediaType != nil {
		scope.and("media_type", *filters.MediaType)
	}
	if filters.Status != nil {
		scope.and("status", *filters.Status)
	}
	if filters.IsFavorite != nil {
		scope.and("is_favorite", *filters.IsFavorite)
	}

	var total int
	if err := p.Db.QueryRowContext(ctx, "SELECT COUNT(*) FROM media"+scope.where(), scope.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count media: %w", err)
	}

	items := make([]media.Media, 0)
	if total == 0 {
		return items, 0, nil
	}

	where := scope.where()
	limit := scope.arg(size)
	offset := scope.arg((page - 1) * size)
	query := "SELECT " + mediaColumns + " FROM media" + where +
		" ORDER BY created_at DESC, id DESC LIMIT " + limit + " OFFSET " + offset

	rows, err := p.Db.QueryContext(ctx, query, scope.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list media: %w", err)
	}

	return items, total, nil
}

// UpdateMedia locks the row, applies the fields present in patch and
// returns the stored result.
func (p *Postgres) UpdateMedia(ctx context.Context, m *media.Media, patch media.Patch) (*media.Media, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	var updated *media.Media
	err := p.inTx(ctx, func(tx *sql.Tx) error {
		scope := scopedTo(m.OwnerID).and("id", m.ID)
		current, err := scanMedia(tx.QueryRowContext(ctx,
			"SELECT "+mediaColumns+" FROM media"+scope.where()+" FOR UPDATE", scope.args...))
		if errors.Is(err, sql.ErrNoRows) {
			return media.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("lock media: %w", err)
		}

		patch.Apply(current)

		scope = scopedTo(m.OwnerID).and("id", m.ID)
		query := fmt.Sprintf(
			"UPDATE media SET description = %s, user_tags = %s, is_favorite = %s, updated_at = %s",
			scope.arg(current.Description), scope.arg(pq.Array(current.UserTags)),
			scope.arg(current.IsFavorite), scope.arg(time.Now().UTC()),
		) + scope.where() + " RETURNING " + mediaColumns

		updated, err = scanMedia(tx.QueryRowContext(ctx, query, scope.args...))
		if err != nil {
			return fmt.Errorf("update media: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteMedia removes the owner's row. Deleting a row that is already gone
// returns media.ErrNotFound.
func (p *Postgres) DeleteMedia(ctx context.Context, m *media.Media) error {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()

	return p.inTx(ctx, func(tx *sql.Tx) error {
		scope := scopedTo(m.OwnerID).and("id", m.ID)
		res, err := tx.ExecContext(ctx, "DELETE FROM media"+scope.where(), scope.args...)
		if err != nil {
			return fmt.Errorf("delete media: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete media: %w", err)
		}
		if n == 0 {
			return media.ErrNotFound
		}
		return nil
	})
}
