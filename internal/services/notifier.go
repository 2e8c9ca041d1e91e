package services

import (
	"context"
	"errors"
	"fmt"

	"kyccodes/internal/models"
)

// CodeDelivery is a freshly generated secret on its way to the user.
type CodeDelivery struct {
	Code   *models.Code
	User   *models.User
	Secret string
}

type CodeNotifier interface {
	NotifyCode(ctx context.Context, d CodeDelivery) error
}

var errNoTarget = errors.New("code has no delivery target")

// directNotifier sends phone codes by SMS and e-mail codes by SMTP.
type directNotifier struct {
	sms   SMSSender
	email EmailService
}

func NewDirectNotifier(sms SMSSender, email EmailService) CodeNotifier {
	return &directNotifier{sms: sms, email: email}
}

func (n *directNotifier) NotifyCode(ctx context.Context, d CodeDelivery) error {
	switch d.Code.Type {
	case models.CodeTypePhone:
		if d.Code.PhoneNumber == nil {
			return errNoTarget
		}
		if n.sms == nil {
			return fmt.Errorf("sms delivery not configured")
		}
		return n.sms.SendCode(ctx, *d.Code.PhoneNumber, d.Secret)
	case models.CodeTypeEmail:
		to := ""
		if d.Code.Email != nil {
			to = *d.Code.Email
		} else if d.User != nil {
			to = d.User.Email
		}
		if to == "" {
			return errNoTarget
		}
		if n.email == nil {
			return fmt.Errorf("email delivery not configured")
		}
		return n.email.SendVerificationCode(to, d.Code.Category, d.Secret)
	default:
		return fmt.Errorf("unsupported code type %q", d.Code.Type)
	}
}

// eventNotifier hands the secret to downstream senders over the event stream.
type eventNotifier struct {
	events EventPublisher
}

func NewEventNotifier(events EventPublisher) CodeNotifier {
	return &eventNotifier{events: events}
}

func (n *eventNotifier) NotifyCode(ctx context.Context, d CodeDelivery) error {
	evt := CodeGeneratedEvent{
		CodeID:      d.Code.ID,
		UserID:      d.Code.UserID,
		Type:        d.Code.Type,
		Category:    d.Code.Category,
		PhoneNumber: d.Code.PhoneNumber,
		Email:       d.Code.Email,
		Code:        d.Secret,
		ExpiresAt:   d.Code.ExpiresAt,
	}
	if d.User != nil {
		evt.UserUID = d.User.UID
	}
	return n.events.PublishCodeGenerated(ctx, evt)
}
