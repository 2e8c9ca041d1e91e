package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kyccodes/internal/config"
	"kyccodes/internal/logger"
	"kyccodes/internal/models"
	"kyccodes/internal/repositories"
)

// SendLimiter is satisfied by repositories.SendLimitRepository.
type SendLimiter interface {
	Hit(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (bool, time.Duration, error)
}

type CreateCodeInput struct {
	UserUID     string
	Type        string
	Category    string
	PhoneNumber string
	Email       string
}

type CodeService interface {
	// CreateForUser issues a code for an active user (management API).
	CreateForUser(ctx context.Context, in CreateCodeInput) (*models.Code, error)
	GetCode(ctx context.Context, id int64) (*models.Code, error)
	VerifyCode(ctx context.Context, id int64, value string) (*models.Code, error)
	// RequestCode issues a code for the caller (self-service). A nil code
	// with a nil error means there was nothing to verify.
	RequestCode(ctx context.Context, userID int64, codeType, category string) (*models.Code, error)
	Status(c *models.Code) string
}

type codeService struct {
	codes     repositories.CodeRepository
	users     repositories.UserRepository
	phones    repositories.PhoneRepository
	lifecycle *CodeLifecycle
	notifier  CodeNotifier
	events    EventPublisher
	limiter   SendLimiter
	metrics   *CodeMetrics
	sendCfg   config.CodesConfig
	log       *zap.Logger
}

type CodeServiceDeps struct {
	Codes     repositories.CodeRepository
	Users     repositories.UserRepository
	Phones    repositories.PhoneRepository
	Lifecycle *CodeLifecycle
	Notifier  CodeNotifier
	Events    EventPublisher
	Limiter   SendLimiter
	Metrics   *CodeMetrics
	Config    config.CodesConfig
	Logger    *zap.Logger
}

func NewCodeService(d CodeServiceDeps) CodeService {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &codeService{
		codes:     d.Codes,
		users:     d.Users,
		phones:    d.Phones,
		lifecycle: d.Lifecycle,
		notifier:  d.Notifier,
		events:    d.Events,
		limiter:   d.Limiter,
		metrics:   d.Metrics,
		sendCfg:   d.Config,
		log:       log,
	}
}

func (s *codeService) CreateForUser(ctx context.Context, in CreateCodeInput) (*models.Code, error) {
	user, err := s.users.GetActiveByUID(ctx, in.UserUID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.issue(ctx, user, in.Type, in.Category, optional(in.PhoneNumber), optional(in.Email))
}

func (s *codeService) GetCode(ctx context.Context, id int64) (*models.Code, error) {
	c, err := s.codes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *codeService) VerifyCode(ctx context.Context, id int64, value string) (*models.Code, error) {
	var mismatch bool
	c, err := s.codes.UpdateLocked(ctx, id, func(c *models.Code) (bool, error) {
		switch {
		case c.Status == models.CodeStatusVerified:
			return false, ErrCodeAlreadyVerified
		case s.lifecycle.IsExpired(c):
			return false, ErrCodeExpired
		case s.lifecycle.IsOutOfAttempts(c):
			return false, ErrCodeOutOfAttempts
		}
		mismatch = !s.lifecycle.Verify(c, value)
		return true, nil
	})

	log := logger.WithContext(ctx, s.log).With(zap.Int64("code_id", id))
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return nil, ErrCodeNotFound
	case err != nil:
		s.metrics.verified(verifyResult(err))
		log.Info("code verification rejected", zap.Error(err))
		return c, err
	case mismatch:
		s.metrics.verified("invalid")
		log.Info("code verification mismatch", zap.Int("attempts", c.Attempts))
		return c, ErrCodeInvalid
	}

	s.metrics.verified("ok")
	log.Info("code verified", zap.Int64("user_id", c.UserID), zap.String("type", c.Type), zap.String("category", c.Category))
	if s.events != nil {
		evt := CodeVerifiedEvent{
			CodeID:     c.ID,
			UserID:     c.UserID,
			Type:       c.Type,
			Category:   c.Category,
			VerifiedAt: *c.ValidatedAt,
		}
		if err := s.events.PublishCodeVerified(ctx, evt); err != nil {
			log.Warn("publish code verified failed", zap.Error(err))
		}
	}
	return c, nil
}

func (s *codeService) RequestCode(ctx context.Context, userID int64, codeType, category string) (*models.Code, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var phoneNumber, email *string
	switch codeType {
	case models.CodeTypePhone:
		phone, err := s.phones.GetByUserID(ctx, user.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		phoneNumber = optional(phone.Number)
	case models.CodeTypeEmail:
		email = optional(user.Email)
	}

	if err := s.throttle(ctx, user.ID, codeType); err != nil {
		return nil, err
	}

	return s.issue(ctx, user, codeType, category, phoneNumber, email)
}

func (s *codeService) Status(c *models.Code) string {
	return s.lifecycle.Status(c)
}

// issue generates a secret and upserts it onto the single pending code for
// (user, type, category), then hands the secret to the notifier.
func (s *codeService) issue(ctx context.Context, user *models.User, codeType, category string, phone, email *string) (*models.Code, error) {
	draft := &models.Code{
		UserID:      user.ID,
		Type:        codeType,
		Category:    category,
		PhoneNumber: phone,
		Email:       email,
	}
	secret, err := s.lifecycle.Generate(draft)
	if err != nil {
		return nil, fmt.Errorf("generate code: %w", err)
	}

	saved, err := s.codes.UpsertPending(ctx, draft)
	if err != nil {
		return nil, err
	}
	s.metrics.generated(codeType, category)

	log := logger.WithContext(ctx, s.log).With(
		zap.Int64("code_id", saved.ID),
		zap.Int64("user_id", user.ID),
		zap.String("type", codeType),
		zap.String("category", category),
	)
	log.Info("code generated")

	if s.notifier != nil {
		if err := s.notifier.NotifyCode(ctx, CodeDelivery{Code: saved, User: user, Secret: secret}); err != nil {
			log.Warn("code delivery failed", zap.Error(err))
		}
	}
	return saved, nil
}

func (s *codeService) throttle(ctx context.Context, userID int64, codeType string) error {
	if s.limiter == nil {
		return nil
	}
	key := fmt.Sprintf("%d:%s", userID, codeType)
	allowed, retryAfter, err := s.limiter.Hit(ctx, key, s.sendCfg.SendLimit, s.sendCfg.SendWindow, s.lifecycle.Now())
	if err != nil {
		// Redis outage: let the request through.
		logger.WithContext(ctx, s.log).Warn("send limiter unavailable", zap.Error(err))
		return nil
	}
	if !allowed {
		return &SendThrottledError{RetryAfter: retryAfter}
	}
	return nil
}

func verifyResult(err error) string {
	switch {
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrCodeOutOfAttempts):
		return "out_of_attempts"
	case errors.Is(err, ErrCodeAlreadyVerified):
		return "already_verified"
	default:
		return "error"
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
