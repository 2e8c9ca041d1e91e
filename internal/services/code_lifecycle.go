package services

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"kyccodes/internal/config"
	"kyccodes/internal/models"
	"kyccodes/internal/utils"
)

// bcrypt ignores input past 72 bytes.
const maxCandidateLen = 72

// CodeLifecycle generates, expires, counts attempts on and verifies a single
// code. It never touches storage.
type CodeLifecycle struct {
	ttl         time.Duration
	maxAttempts int
	length      int
	hashCost    int
	now         func() time.Time
}

func NewCodeLifecycle(cfg config.CodesConfig) *CodeLifecycle {
	return &CodeLifecycle{
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
		length:      cfg.Length,
		hashCost:    bcrypt.DefaultCost,
		now:         time.Now,
	}
}

// WithClock overrides the clock, used in tests.
func (l *CodeLifecycle) WithClock(clock func() time.Time) *CodeLifecycle {
	if clock != nil {
		l.now = clock
	}
	return l
}

func (l *CodeLifecycle) WithHashCost(cost int) *CodeLifecycle {
	l.hashCost = cost
	return l
}

func (l *CodeLifecycle) Now() time.Time { return l.now().UTC() }

// Generate issues a fresh secret for c: stores its hash, restarts the expiry
// window and resets attempts. The plaintext secret is returned for delivery.
func (l *CodeLifecycle) Generate(c *models.Code) (string, error) {
	secret, err := utils.NewNumericCode(l.length)
	if err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), l.hashCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}

	now := l.Now()
	c.CodeHash = string(hash)
	c.Status = models.CodeStatusPending
	c.Attempts = 0
	c.ExpiresAt = now.Add(l.ttl)
	c.UpdatedAt = now
	return secret, nil
}

func (l *CodeLifecycle) IsExpired(c *models.Code) bool {
	return l.Now().After(c.ExpiresAt)
}

func (l *CodeLifecycle) IsOutOfAttempts(c *models.Code) bool {
	return c.Attempts >= l.maxAttempts
}

// Verify counts one attempt and compares candidate against the stored hash.
// On match the code becomes verified. Callers check expiry and attempts first.
func (l *CodeLifecycle) Verify(c *models.Code, candidate string) bool {
	c.Attempts++

	if len(candidate) == 0 || len(candidate) > maxCandidateLen {
		return false
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.CodeHash), []byte(candidate)); err != nil {
		return false
	}

	now := l.Now()
	c.Status = models.CodeStatusVerified
	c.ValidatedAt = &now
	return true
}

// Status reports the effective state, deriving expired and exhausted.
func (l *CodeLifecycle) Status(c *models.Code) string {
	switch {
	case c.Status == models.CodeStatusVerified || c.ValidatedAt != nil:
		return models.CodeStatusVerified
	case l.IsExpired(c):
		return models.CodeStatusExpired
	case l.IsOutOfAttempts(c):
		return models.CodeStatusExhausted
	default:
		return models.CodeStatusPending
	}
}
