package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"devicesession/backend/internal/identity/domain"
)

var _ Repository = (*MemoryRepository)(nil)
var _ Repository = (*PostgresRepository)(nil)

func cred(id, username, email string) *domain.Credential {
	return &domain.Credential{ID: id, Username: username, Email: email, Hash: "h", Salt: "s", CreatedAt: time.Now().UTC()}
}

func TestMemoryRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	if err := r.Create(ctx, cred("1", "alice", "a@x.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := r.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername: %v", err)
	}
	if got == nil || got.ID != "1" || got.Email != "a@x.com" {
		t.Fatalf("GetByUsername = %+v", got)
	}

	// Returned values are copies.
	got.Hash = "changed"
	again, _ := r.GetByUsername(ctx, "alice")
	if again.Hash != "h" {
		t.Error("mutating a returned credential changed the stored one")
	}
}

func TestMemoryRepository_NotFound(t *testing.T) {
	got, err := NewMemoryRepository().GetByUsername(context.Background(), "nobody")
	if err != nil || got != nil {
		t.Errorf("GetByUsername = %v, %v; want nil, nil", got, err)
	}
}

func TestMemoryRepository_Duplicates(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	if err := r.Create(ctx, cred("1", "alice", "A@x.com")); err != nil {
		t.Fatalf("Create: %v", err)
	}
	tests := []struct {
		name string
		c    *domain.Credential
	}{
		{"username", cred("2", "alice", "other@x.com")},
		{"email case-insensitive", cred("3", "alice2", "a@X.COM")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := r.Create(ctx, tt.c); !errors.Is(err, ErrDuplicate) {
				t.Errorf("Create err = %v, want ErrDuplicate", err)
			}
		})
	}
	// Usernames are case-sensitive, like the unique index.
	if err := r.Create(ctx, cred("4", "Alice", "b@x.com")); err != nil {
		t.Errorf("Create with different-case username: %v", err)
	}
}

func TestMemoryRepository_ConcurrentSignupsOneWinner(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepository()
	const n = 20
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := r.Create(ctx, cred(fmt.Sprint(i), "race", fmt.Sprintf("%d@x.com", i))); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	if wins != 1 {
		t.Errorf("%d concurrent creates succeeded, want 1", wins)
	}
}
