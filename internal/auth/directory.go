package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"billed/internal/cache"
	"billed/internal/core"
	"billed/internal/store"
)

const directoryTTL = 5 * time.Minute

// Directory is a UserStorage that caches account lookups.
type Directory struct {
	next  UserStorage
	cache *cache.LRUCache[core.Account]
}

func NewDirectory(next UserStorage, maxSize int) *Directory {
	return &Directory{
		next:  next,
		cache: cache.NewLRUCache[core.Account](maxSize, directoryTTL),
	}
}

// Cache exposes the underlying cache for cleanup registration.
func (d *Directory) Cache() *cache.LRUCache[core.Account] {
	return d.cache
}

func (d *Directory) GetUserByEmail(ctx context.Context, email string) (core.Account, error) {
	if acc, ok := d.cache.Get(email); ok {
		return acc, nil
	}
	acc, err := d.next.GetUserByEmail(ctx, email)
	if err != nil {
		return core.Account{}, err
	}
	d.cache.Set(email, acc)
	return acc, nil
}

func (d *Directory) CreateUser(ctx context.Context, a core.Account) error {
	if err := d.next.CreateUser(ctx, a); err != nil {
		return err
	}
	d.cache.Delete(a.User.Email)
	return nil
}

// MemoryUsers is an in-process UserStorage.
type MemoryUsers struct {
	mu       sync.RWMutex
	accounts map[string]core.Account
}

func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{accounts: make(map[string]core.Account)}
}

func (m *MemoryUsers) CreateUser(_ context.Context, a core.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.User.Email] = a
	return nil
}

func (m *MemoryUsers) GetUserByEmail(_ context.Context, email string) (core.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[email]
	if !ok {
		return core.Account{}, fmt.Errorf("get user %s: %w", email, store.ErrNotFound)
	}
	return acc, nil
}

// DemoAccounts are registered on startup when no account exists yet.
var DemoAccounts = []struct {
	User     core.User
	Password string
}{
	{User: core.User{Type: core.Employee, Email: "a@a"}, Password: "employee"},
	{User: core.User{Type: core.Employee, Email: "employee@test.tld"}, Password: "employee"},
	{User: core.User{Type: core.Admin, Email: "admin@test.tld"}, Password: "admin"},
}

// SeedDemoAccounts registers DemoAccounts that are missing from the storage.
func SeedDemoAccounts(ctx context.Context, a *PasswordAuthenticator) error {
	for _, demo := range DemoAccounts {
		if _, err := a.storage.GetUserByEmail(ctx, demo.User.Email); err == nil {
			continue
		}
		if err := a.Register(ctx, demo.User, demo.Password); err != nil {
			return fmt.Errorf("seed %s: %w", demo.User.Email, err)
		}
	}
	return nil
}
