package usecase

import (
	"context"
	"errors"
	"testing"

	"telegram-video-access/internal/domain"
)

func TestCatalogUseCase_Seed(t *testing.T) {
	ctx := context.Background()
	repo := newMemVideoRepo()
	uc := NewCatalogUseCase(repo, newTestLogger())

	if err := uc.Seed(ctx, []string{"f1", "f2"}); err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}
	if len(repo.store) != CatalogSize {
		t.Fatalf("expected %d lessons, got %d", CatalogSize, len(repo.store))
	}
	if repo.store[3].Title != "Урок 3" {
		t.Errorf("unexpected title %q", repo.store[3].Title)
	}
	forSale, _ := uc.ListForSale(ctx)
	if len(forSale) != 2 {
		t.Errorf("expected 2 lessons for sale, got %d", len(forSale))
	}
}

func TestCatalogUseCase_AttachFile(t *testing.T) {
	ctx := context.Background()
	repo := newMemVideoRepo()
	uc := NewCatalogUseCase(repo, newTestLogger())
	if err := uc.Seed(ctx, nil); err != nil {
		t.Fatalf("expected no error, but got: %v", err)
	}

	t.Run("should put a lesson on sale with a new title", func(t *testing.T) {
		v, err := uc.AttachFile(ctx, 4, " BAACAgI4 ", "Растяжка")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if v.FileID != "BAACAgI4" || v.Title != "Растяжка" {
			t.Errorf("unexpected lesson %+v", v)
		}
		forSale, _ := uc.ListForSale(ctx)
		if len(forSale) != 1 || forSale[0].ID != 4 {
			t.Errorf("expected lesson 4 for sale, got %v", forSale)
		}
	})

	t.Run("should keep the title when none is given", func(t *testing.T) {
		v, err := uc.AttachFile(ctx, 4, "BAACAgI5", "")
		if err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		if v.Title != "Растяжка" || repo.store[4].FileID != "BAACAgI5" {
			t.Errorf("unexpected lesson %+v", repo.store[4])
		}
	})

	t.Run("should reject lessons outside the catalog and empty files", func(t *testing.T) {
		for _, id := range []int{0, CatalogSize + 1} {
			if _, err := uc.AttachFile(ctx, id, "f", ""); !errors.Is(err, domain.ErrInvalidArgument) {
				t.Errorf("lesson %d: expected ErrInvalidArgument, got %v", id, err)
			}
		}
		if _, err := uc.AttachFile(ctx, 2, "  ", ""); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("should take a lesson off sale on withdraw", func(t *testing.T) {
		if err := uc.Withdraw(ctx, 4); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		forSale, _ := uc.ListForSale(ctx)
		if len(forSale) != 0 {
			t.Errorf("expected nothing for sale, got %d", len(forSale))
		}
		all, _ := uc.List(ctx)
		if len(all) != CatalogSize || all[3].Title != "Растяжка" {
			t.Errorf("withdraw must keep the lesson row, got %d rows", len(all))
		}
	})

	t.Run("should report a missing lesson", func(t *testing.T) {
		empty := NewCatalogUseCase(newMemVideoRepo(), newTestLogger())
		if err := empty.Withdraw(ctx, 1); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserUseCase(t *testing.T) {
	ctx := context.Background()
	repo := newMemUserRepo()
	uc := NewUserUseCase(repo, newTestLogger())

	t.Run("should register on first contact", func(t *testing.T) {
		u, err := uc.RegisterOrFetch(ctx, 42)
		if err != nil || u.ID != 42 {
			t.Fatalf("unexpected result %+v (%v)", u, err)
		}
	})

	t.Run("should toggle privilege", func(t *testing.T) {
		if err := uc.SetPrivileged(ctx, 42, true); err != nil {
			t.Fatalf("expected no error, but got: %v", err)
		}
		u, _ := uc.RegisterOrFetch(ctx, 42)
		if !u.IsPrivileged {
			t.Error("expected a privileged user")
		}
	})

	t.Run("should reject invalid ids", func(t *testing.T) {
		if _, err := uc.RegisterOrFetch(ctx, 0); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
