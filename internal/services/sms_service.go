package services

import (
	"context"
	"fmt"

	"kyccodes/internal/utils"
)

type SMSSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

type SMSService struct {
	Client *utils.Client
}

func NewSMSService(client *utils.Client) *SMSService {
	return &SMSService{Client: client}
}

func (s *SMSService) SendCode(ctx context.Context, phone, code string) error {
	text := fmt.Sprintf("Verification code: %s", code)
	if _, err := s.Client.SendSMS(ctx, phone, text); err != nil {
		return fmt.Errorf("mobizon error: %w", err)
	}
	return nil
}
