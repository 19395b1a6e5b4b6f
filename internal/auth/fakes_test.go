package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/jobprep/internal/model"
	"github.com/hitoshi/jobprep/internal/repository"
)

// --- インメモリのリポジトリ ---

type memSessionRepo struct {
	mu       sync.Mutex
	byHash   map[string]*model.Session
	extends  int
	createFn func(ctx context.Context, session *model.Session) error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byHash: make(map[string]*model.Session)}
}

func (m *memSessionRepo) Create(ctx context.Context, s *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, s)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *s
	stored.Token = ""
	m.byHash[s.TokenHash] = &stored
	return nil
}

func (m *memSessionRepo) FindByTokenHash(_ context.Context, hash string) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byHash[hash]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) ExtendExpiry(_ context.Context, id string, expiresAt time.Time) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.byHash {
		if s.ID == id {
			if expiresAt.After(s.ExpiresAt) {
				s.ExpiresAt = expiresAt
			}
			m.extends++
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSessionRepo) ListActiveByUserID(_ context.Context, userID string, now time.Time) ([]*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Session
	for _, s := range m.byHash {
		if s.UserID == userID && now.Before(s.ExpiresAt) {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memSessionRepo) DeleteByTokenHash(_ context.Context, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byHash, hash)
	return nil
}

func (m *memSessionRepo) DeleteByUserID(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for h, s := range m.byHash {
		if s.UserID == userID {
			delete(m.byHash, h)
		}
	}
	return nil
}

func (m *memSessionRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for h, s := range m.byHash {
		if !s.ExpiresAt.After(before) {
			delete(m.byHash, h)
			n++
		}
	}
	return n, nil
}

func (m *memSessionRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byHash)
}

type memUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	finds   int
	findErr error
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{byID: make(map[string]*model.User)}
}

func (m *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finds++
	if m.findErr != nil {
		return nil, m.findErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUserRepo) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	cp := *user
	m.byID[user.ID] = &cp
	return nil
}

func (m *memUserRepo) UpdateProfile(_ context.Context, id, name string, image *string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	u.Name, u.Image = name, image
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) UpdatePlan(_ context.Context, id string, plan model.Plan) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	u.Plan = plan
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) DeleteByID(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

func (m *memUserRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

// --- compile-time interface checks ---
var _ repository.SessionRepository = (*memSessionRepo)(nil)
var _ repository.UserRepository = (*memUserRepo)(nil)

// fakeClock はテストで進められる時計。
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
