package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/geocoder89/funapp/internal/domain/user"
)

func TestUsersRepo_InsertAssignsIDAndTimestamp(t *testing.T) {
	repo := NewUsersRepo()
	ctx := context.Background()

	u, err := repo.Insert(ctx, user.User{Name: "John", Email: "john@example.com", City: "Cairo"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if u.ID == 0 || u.CreatedAt.IsZero() {
		t.Fatalf("expected id and created_at to be assigned, got %+v", u)
	}

	byID, err := repo.FindByID(ctx, u.ID)
	if err != nil || byID.Email != "john@example.com" {
		t.Fatalf("find by id: %+v, %v", byID, err)
	}

	byEmail, err := repo.FindByEmail(ctx, "john@example.com")
	if err != nil || byEmail.ID != u.ID {
		t.Fatalf("find by email: %+v, %v", byEmail, err)
	}
}

func TestUsersRepo_NotFound(t *testing.T) {
	repo := NewUsersRepo()

	if _, err := repo.FindByID(context.Background(), 99); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.FindByEmail(context.Background(), "nobody@example.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUsersRepo_ConcurrentDuplicateEmail(t *testing.T) {
	repo := NewUsersRepo()

	const attempts = 16
	var wg sync.WaitGroup
	errs := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Insert(context.Background(), user.User{Name: "Dup", Email: "dup@example.com"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, taken := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, user.ErrEmailTaken):
			taken++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if ok != 1 || taken != attempts-1 || repo.Len() != 1 {
		t.Fatalf("ok=%d taken=%d len=%d", ok, taken, repo.Len())
	}
}
