package services

import (
	"context"
	"sync"
	"time"

	"kyccodes/internal/models"
	"kyccodes/internal/repositories"
)

// fakeCodeRepo mimics the partial unique index on pending codes and the row
// lock taken by UpdateLocked.
type fakeCodeRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*models.Code
}

func newFakeCodeRepo() *fakeCodeRepo {
	return &fakeCodeRepo{rows: map[int64]*models.Code{}}
}

func (r *fakeCodeRepo) UpsertPending(_ context.Context, c *models.Code) (*models.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Status == models.CodeStatusPending && sameKey(row, c) {
			row.CodeHash = c.CodeHash
			row.Attempts = c.Attempts
			row.ExpiresAt = c.ExpiresAt
			row.UpdatedAt = c.UpdatedAt
			if c.PhoneNumber != nil {
				row.PhoneNumber = c.PhoneNumber
			}
			if c.Email != nil {
				row.Email = c.Email
			}
			cp := *row
			return &cp, nil
		}
	}

	r.nextID++
	row := *c
	row.ID = r.nextID
	row.Status = models.CodeStatusPending
	row.CreatedAt = c.UpdatedAt
	r.rows[row.ID] = &row
	cp := row
	return &cp, nil
}

func (r *fakeCodeRepo) GetByID(_ context.Context, id int64) (*models.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *row
	return &cp, nil
}

func (r *fakeCodeRepo) UpdateLocked(_ context.Context, id int64, fn repositories.CodeUpdateFunc) (*models.Code, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *row
	changed, err := fn(&cp)
	if err != nil {
		return &cp, err
	}
	if changed {
		stored := cp
		r.rows[id] = &stored
	}
	return &cp, nil
}

func (r *fakeCodeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeUserRepo struct {
	users map[int64]*models.User
}

func (r *fakeUserRepo) GetActiveByUID(_ context.Context, uid string) (*models.User, error) {
	for _, u := range r.users {
		if u.UID == uid && u.IsActive() {
			return u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, repositories.ErrNotFound
}

type fakePhoneRepo struct {
	phones map[int64][]*models.Phone
}

func (r *fakePhoneRepo) GetByUserID(_ context.Context, userID int64) (*models.Phone, error) {
	list := r.phones[userID]
	if len(list) == 0 {
		return nil, repositories.ErrNotFound
	}
	return list[0], nil
}

func (r *fakePhoneRepo) ListByUserID(_ context.Context, userID int64) ([]*models.Phone, error) {
	return r.phones[userID], nil
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []CodeDelivery
	err        error
}

func (n *recordingNotifier) NotifyCode(_ context.Context, d CodeDelivery) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, d)
	return n.err
}

func (n *recordingNotifier) last() CodeDelivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.deliveries[len(n.deliveries)-1]
}

type fakeLimiter struct {
	mu         sync.Mutex
	allowed    bool
	retryAfter time.Duration
	err        error
	keys       []string
}

func (l *fakeLimiter) Hit(_ context.Context, key string, _ int, _ time.Duration, _ time.Time) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return l.allowed, l.retryAfter, l.err
}

type recordingPublisher struct {
	mu        sync.Mutex
	generated []CodeGeneratedEvent
	verified  []CodeVerifiedEvent
}

func (p *recordingPublisher) PublishCodeGenerated(_ context.Context, evt CodeGeneratedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generated = append(p.generated, evt)
	return nil
}

func (p *recordingPublisher) PublishCodeVerified(_ context.Context, evt CodeVerifiedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.verified = append(p.verified, evt)
	return nil
}

func sameKey(a, b *models.Code) bool {
	return a.UserID == b.UserID && a.Type == b.Type && a.Category == b.Category
}
