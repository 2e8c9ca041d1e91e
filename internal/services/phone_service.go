package services

import (
	"context"
	"errors"

	"kyccodes/internal/models"
	"kyccodes/internal/repositories"
)

// PhoneRecord pairs a phone with the code that validates it (nil when the
// phone has none).
type PhoneRecord struct {
	Phone *models.Phone
	Code  *models.Code
}

type PhoneService interface {
	ListPhones(ctx context.Context, userID int64) ([]PhoneRecord, error)
}

type phoneService struct {
	phones repositories.PhoneRepository
	codes  repositories.CodeRepository
}

func NewPhoneService(phones repositories.PhoneRepository, codes repositories.CodeRepository) PhoneService {
	return &phoneService{phones: phones, codes: codes}
}

func (s *phoneService) ListPhones(ctx context.Context, userID int64) ([]PhoneRecord, error) {
	phones, err := s.phones.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	records := make([]PhoneRecord, 0, len(phones))
	for _, p := range phones {
		rec := PhoneRecord{Phone: p}
		if p.CodeID != nil {
			c, err := s.codes.GetByID(ctx, *p.CodeID)
			if err != nil && !errors.Is(err, repositories.ErrNotFound) {
				return nil, err
			}
			rec.Code = c
		}
		records = append(records, rec)
	}
	return records, nil
}
