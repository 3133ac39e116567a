package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/messagely/backend/internal/user/domain"
	userrepo "github.com/messagely/backend/internal/user/repository"
)

type mockRepo struct {
	createFunc          func(ctx context.Context, user domain.User) error
	findByUsernameFunc  func(ctx context.Context, username string) (domain.User, error)
	getFunc             func(ctx context.Context, username string) (domain.Public, error)
	listFunc            func(ctx context.Context) ([]domain.Public, error)
	updateLastLoginFunc func(ctx context.Context, username string, at time.Time) error
}

func (m *mockRepo) Create(ctx context.Context, user domain.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return domain.User{}, userrepo.ErrUserNotFound
}

func (m *mockRepo) Get(ctx context.Context, username string) (domain.Public, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, username)
	}
	return domain.Public{}, userrepo.ErrUserNotFound
}

func (m *mockRepo) List(ctx context.Context) ([]domain.Public, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx)
	}
	return nil, nil
}

func (m *mockRepo) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	if m.updateLastLoginFunc != nil {
		return m.updateLastLoginFunc(ctx, username, at)
	}
	return nil
}

type mockHasher struct {
	hashFunc    func(password string) (string, error)
	compareFunc func(hash, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	return nil
}

// memoryRepo is a map-backed repository for the flows that need real
// storage semantics (duplicate detection, read-back after register).
type memoryRepo struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]domain.User)}
}

func (r *memoryRepo) Create(ctx context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.Username]; exists {
		return userrepo.ErrUsernameAlreadyExists
	}
	r.users[user.Username] = user
	return nil
}

func (r *memoryRepo) FindByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[username]
	if !ok {
		return domain.User{}, userrepo.ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepo) Get(ctx context.Context, username string) (domain.Public, error) {
	user, err := r.FindByUsername(ctx, username)
	if err != nil {
		return domain.Public{}, err
	}
	return user.Public(), nil
}

func (r *memoryRepo) List(ctx context.Context) ([]domain.Public, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	users := make([]domain.Public, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u.Public())
	}
	return users, nil
}

func (r *memoryRepo) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[username]; ok {
		user.LastLoginAt = at
		r.users[username] = user
	}
	return nil
}
