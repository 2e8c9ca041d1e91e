package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"kyccodes/internal/models"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var codeColumns = []string{
	"id", "user_id", "code_type", "category", "phone_number", "email",
	"code_hash", "status", "attempts", "expires_at", "validated_at",
	"created_at", "updated_at",
}

// CodeUpdateFunc mutates a locked code. Returning changed=false skips the
// UPDATE; a non-nil error rolls the transaction back.
type CodeUpdateFunc func(c *models.Code) (changed bool, err error)

type CodeRepository interface {
	// UpsertPending inserts c as the pending code for its natural key, or
	// refreshes the existing pending row in the same statement.
	UpsertPending(ctx context.Context, c *models.Code) (*models.Code, error)
	GetByID(ctx context.Context, id int64) (*models.Code, error)
	// UpdateLocked loads the code with a row lock and applies fn inside
	// one transaction.
	UpdateLocked(ctx context.Context, id int64, fn CodeUpdateFunc) (*models.Code, error)
}

type codeRepository struct {
	DB *sql.DB
}

func NewCodeRepository(db *sql.DB) CodeRepository {
	return &codeRepository{DB: db}
}

func (r *codeRepository) UpsertPending(ctx context.Context, c *models.Code) (*models.Code, error) {
	now := c.UpdatedAt
	if now.IsZero() {
		now = time.Now().UTC()
	}
	q, args, err := psql.Insert("codes").
		Columns("user_id", "code_type", "category", "phone_number", "email",
			"code_hash", "status", "attempts", "expires_at", "created_at", "updated_at").
		Values(c.UserID, c.Type, c.Category, nullString(c.PhoneNumber), nullString(c.Email),
			c.CodeHash, models.CodeStatusPending, c.Attempts, c.ExpiresAt, now, now).
		Suffix(`ON CONFLICT (user_id, code_type, category) WHERE status = 'pending'
			DO UPDATE SET
				code_hash = EXCLUDED.code_hash,
				attempts = EXCLUDED.attempts,
				expires_at = EXCLUDED.expires_at,
				phone_number = COALESCE(EXCLUDED.phone_number, codes.phone_number),
				email = COALESCE(EXCLUDED.email, codes.email),
				updated_at = EXCLUDED.updated_at
			RETURNING id, user_id, code_type, category, phone_number, email,
				code_hash, status, attempts, expires_at, validated_at, created_at, updated_at`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build upsert code: %w", err)
	}

	out, err := scanCode(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		return nil, fmt.Errorf("upsert pending code: %w", err)
	}
	return out, nil
}

func (r *codeRepository) GetByID(ctx context.Context, id int64) (*models.Code, error) {
	q, args, err := psql.Select(codeColumns...).From("codes").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get code: %w", err)
	}
	c, err := scanCode(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get code: %w", err)
	}
	return c, nil
}

func (r *codeRepository) UpdateLocked(ctx context.Context, id int64, fn CodeUpdateFunc) (*models.Code, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin code tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q, args, err := psql.Select(codeColumns...).From("codes").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build lock code: %w", err)
	}
	c, err := scanCode(tx.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("lock code: %w", err)
	}

	changed, err := fn(c)
	if err != nil {
		return c, err
	}

	if changed {
		c.UpdatedAt = time.Now().UTC()
		uq, uargs, err := psql.Update("codes").SetMap(map[string]any{
			"attempts":     c.Attempts,
			"status":       c.Status,
			"validated_at": nullTime(c.ValidatedAt),
			"updated_at":   c.UpdatedAt,
		}).Where(sq.Eq{"id": c.ID}).ToSql()
		if err != nil {
			return nil, fmt.Errorf("build update code: %w", err)
		}
		if _, err := tx.ExecContext(ctx, uq, uargs...); err != nil {
			return nil, fmt.Errorf("update code: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit code tx: %w", err)
	}
	return c, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCode(row rowScanner) (*models.Code, error) {
	var (
		c           models.Code
		phone       sql.NullString
		email       sql.NullString
		validatedAt sql.NullTime
	)
	if err := row.Scan(
		&c.ID, &c.UserID, &c.Type, &c.Category, &phone, &email,
		&c.CodeHash, &c.Status, &c.Attempts, &c.ExpiresAt, &validatedAt,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if phone.Valid {
		s := phone.String
		c.PhoneNumber = &s
	}
	if email.Valid {
		s := email.String
		c.Email = &s
	}
	if validatedAt.Valid {
		t := validatedAt.Time
		c.ValidatedAt = &t
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
