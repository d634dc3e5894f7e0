package service_test

import (
	"context"
	"sync"

	userdomain "github.com/AlibekovAA/shotplot/backend/internal/user/domain"
)

type mockUserRepo struct {
	mu                 sync.Mutex
	created            []userdomain.User
	createFunc         func(ctx context.Context, user userdomain.User) error
	findByUsernameFunc func(ctx context.Context, username string) (userdomain.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user userdomain.User) error {
	m.mu.Lock()
	m.created = append(m.created, user)
	m.mu.Unlock()
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (userdomain.User, error) {
	if m.findByUsernameFunc != nil {
		return m.findByUsernameFunc(ctx, username)
	}
	return userdomain.User{}, nil
}

type mockHasher struct {
	hashFunc   func(ctx context.Context, password string) (string, error)
	verifyFunc func(ctx context.Context, password, hash string) (bool, error)
}

func (m *mockHasher) Hash(ctx context.Context, password string) (string, error) {
	if m.hashFunc != nil {
		return m.hashFunc(ctx, password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Verify(ctx context.Context, password, hash string) (bool, error) {
	if m.verifyFunc != nil {
		return m.verifyFunc(ctx, password, hash)
	}
	return hash == "hashed:"+password, nil
}

type mockIDGenerator struct {
	newIDFunc func() (string, error)
}

func (m *mockIDGenerator) NewID() (string, error) {
	if m.newIDFunc != nil {
		return m.newIDFunc()
	}
	return "user-123", nil
}
