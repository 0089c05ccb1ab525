//go:build integration

package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"telegram-video-access/internal/domain"
	"telegram-video-access/internal/domain/model"
	"telegram-video-access/internal/domain/ports/repository"
)

func TestPaymentRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewPaymentRepo(testPool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	newPending := func(t *testing.T, userID int64, label string, createdAt time.Time) *model.Payment {
		t.Helper()
		p, err := model.NewPayment(uuid.NewString(), userID, label, 1200, []int{5, 1, 3}, model.DurationMonth, createdAt)
		if err != nil {
			t.Fatalf("NewPayment failed: %v", err)
		}
		if err := repo.Save(ctx, nil, p); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		return p
	}

	t.Run("should save and find a payment", func(t *testing.T) {
		cleanup(t)
		p := newPending(t, 42, "42-abcdefgh", now)

		found, err := repo.FindByID(ctx, nil, p.ID)
		if err != nil {
			t.Fatalf("FindByID failed: %v", err)
		}
		if found.Label != "42-abcdefgh" || found.Amount != 1200 || found.DurationDays != 30 {
			t.Errorf("unexpected payment: %+v", found)
		}
		if len(found.VideoIDs) != 3 || found.VideoIDs[0] != 1 || found.VideoIDs[2] != 5 {
			t.Errorf("expected sorted video ids [1 3 5], got %v", found.VideoIDs)
		}
		if !found.IsPending() || found.PaidAt != nil {
			t.Errorf("expected a pending payment without paid_at, got %+v", found)
		}
	})

	t.Run("should reject a duplicate label", func(t *testing.T) {
		cleanup(t)
		newPending(t, 42, "42-dupdupdu", now)
		dup, _ := model.NewPayment(uuid.NewString(), 42, "42-dupdupdu", 300, []int{1}, model.DurationWeek, now)
		if err := repo.Save(ctx, nil, dup); !errors.Is(err, domain.ErrLabelConflict) {
			t.Fatalf("expected ErrLabelConflict, got %v", err)
		}
	})

	t.Run("should return ErrNotFound for an unknown id", func(t *testing.T) {
		cleanup(t)
		if _, err := repo.FindByID(ctx, nil, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("should find the latest pending payment of a user", func(t *testing.T) {
		cleanup(t)
		newPending(t, 7, "7-older000", now.Add(-time.Hour))
		latest := newPending(t, 7, "7-newer000", now)
		newPending(t, 8, "8-other000", now.Add(time.Minute))

		found, err := repo.FindLatestPendingByUser(ctx, nil, 7)
		if err != nil {
			t.Fatalf("FindLatestPendingByUser failed: %v", err)
		}
		if found.ID != latest.ID {
			t.Errorf("expected %s, got %s", latest.ID, found.ID)
		}
	})

	t.Run("should list pending oldest first and skip finalized", func(t *testing.T) {
		cleanup(t)
		a := newPending(t, 1, "1-aaaaaaaa", now.Add(-2*time.Hour))
		b := newPending(t, 2, "2-bbbbbbbb", now.Add(-time.Hour))
		c := newPending(t, 3, "3-cccccccc", now)
		if _, err := repo.MarkSuccess(ctx, nil, b.ID, now); err != nil {
			t.Fatalf("MarkSuccess failed: %v", err)
		}

		list, err := repo.ListPending(ctx, nil, nil, 10)
		if err != nil {
			t.Fatalf("ListPending failed: %v", err)
		}
		if len(list) != 2 || list[0].ID != a.ID || list[1].ID != c.ID {
			t.Fatalf("unexpected pending list: %+v", list)
		}
	})

	t.Run("should page pending payments by keyset", func(t *testing.T) {
		cleanup(t)
		var want []string
		for i := 0; i < 5; i++ {
			// Two payments per timestamp force the id tie-break.
			p := newPending(t, int64(20+i), fmt.Sprintf("%d-keyset00", 20+i), now.Add(time.Duration(i/2)*time.Second))
			want = append(want, p.ID)
		}

		var (
			got   []string
			after *repository.PendingCursor
		)
		for pages := 0; pages < 10; pages++ {
			page, err := repo.ListPending(ctx, nil, after, 2)
			if err != nil {
				t.Fatalf("ListPending failed: %v", err)
			}
			for _, p := range page {
				got = append(got, p.ID)
			}
			if len(page) < 2 {
				break
			}
			after = repository.CursorAfter(page[len(page)-1])
		}
		if len(got) != len(want) {
			t.Fatalf("expected %d payments across pages, got %d", len(want), len(got))
		}
		seen := map[string]bool{}
		for _, id := range got {
			if seen[id] {
				t.Fatalf("payment %s returned twice", id)
			}
			seen[id] = true
		}
	})

	t.Run("should count payments by status", func(t *testing.T) {
		cleanup(t)
		a := newPending(t, 1, "1-count000", now)
		newPending(t, 2, "2-count000", now)
		if _, err := repo.MarkSuccess(ctx, nil, a.ID, now); err != nil {
			t.Fatalf("MarkSuccess failed: %v", err)
		}
		counts, err := repo.CountByStatus(ctx, nil)
		if err != nil {
			t.Fatalf("CountByStatus failed: %v", err)
		}
		if counts[model.PaymentStatusPending] != 1 || counts[model.PaymentStatusSuccess] != 1 {
			t.Errorf("unexpected counts %v", counts)
		}
	})

	t.Run("should finalize exactly once under concurrency", func(t *testing.T) {
		cleanup(t)
		p := newPending(t, 9, "9-racerace", now)

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan bool, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				ok, err := repo.MarkSuccess(ctx, nil, p.ID, now)
				if err != nil {
					t.Errorf("MarkSuccess failed: %v", err)
				}
				results <- ok
			}()
		}
		wg.Wait()
		close(results)

		wins := 0
		for ok := range results {
			if ok {
				wins++
			}
		}
		if wins != 1 {
			t.Fatalf("expected exactly one successful finalize, got %d", wins)
		}

		found, _ := repo.FindByID(ctx, nil, p.ID)
		if found.Status != model.PaymentStatusSuccess || found.PaidAt == nil {
			t.Errorf("expected success with paid_at, got %+v", found)
		}
	})
}
