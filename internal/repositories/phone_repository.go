package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"kyccodes/internal/models"
)

type PhoneRepository interface {
	// GetByUserID returns the user's most recent phone.
	GetByUserID(ctx context.Context, userID int64) (*models.Phone, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Phone, error)
}

type phoneRepository struct {
	DB *sql.DB
}

func NewPhoneRepository(db *sql.DB) PhoneRepository {
	return &phoneRepository{DB: db}
}

func (r *phoneRepository) selectByUser(userID int64) sq.SelectBuilder {
	return psql.Select("id", "user_id", "code_id", "number", "created_at").
		From("phones").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
}

func (r *phoneRepository) GetByUserID(ctx context.Context, userID int64) (*models.Phone, error) {
	q, args, err := r.selectByUser(userID).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get phone: %w", err)
	}
	p, err := scanPhone(r.DB.QueryRowContext(ctx, q, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get phone by user: %w", err)
	}
	return p, nil
}

func (r *phoneRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Phone, error) {
	q, args, err := r.selectByUser(userID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list phones: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	defer rows.Close()

	var phones []*models.Phone
	for rows.Next() {
		p, err := scanPhone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan phone: %w", err)
		}
		phones = append(phones, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate phones: %w", err)
	}
	return phones, nil
}

func scanPhone(row rowScanner) (*models.Phone, error) {
	var (
		p      models.Phone
		codeID sql.NullInt64
	)
	if err := row.Scan(&p.ID, &p.UserID, &codeID, &p.Number, &p.CreatedAt); err != nil {
		return nil, err
	}
	if codeID.Valid {
		id := codeID.Int64
		p.CodeID = &id
	}
	return &p, nil
}
