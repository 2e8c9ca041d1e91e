package entities

import (
	"errors"
	"time"

	"kyccodes/internal/models"
	"kyccodes/internal/utils"
)

var ErrPhoneCodeMissing = errors.New("phone has no validation code")

// Phone is the API view of a phone record.
type Phone struct {
	Number      string     `json:"number"`
	ValidatedAt *time.Time `json:"validated_at"`
}

// PhonePresenter formats phones, masking numbers when MaskingEnabled is set.
type PhonePresenter struct {
	MaskingEnabled bool
}

func NewPhonePresenter(maskingEnabled bool) PhonePresenter {
	return PhonePresenter{MaskingEnabled: maskingEnabled}
}

func (p PhonePresenter) Present(phone *models.Phone, code *models.Code) (Phone, error) {
	if code == nil {
		return Phone{}, ErrPhoneCodeMissing
	}

	out := p.PresentUnvalidated(phone)
	out.ValidatedAt = code.ValidatedAt
	return out, nil
}

// PresentUnvalidated renders a phone that has no validating code on file.
func (p PhonePresenter) PresentUnvalidated(phone *models.Phone) Phone {
	number := phone.Number
	if p.MaskingEnabled {
		number = utils.SubMaskNumber(number)
	}
	return Phone{Number: number}
}
