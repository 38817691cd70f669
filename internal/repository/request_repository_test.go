//go:build integration
// +build integration

package repository_test

import (
	"context"
	"fmt"
	"testing"

	"case-service/internal/models"
	"case-service/internal/repository"

	trmpgx "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/avito-tech/go-transaction-manager/trm/v2/manager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRequestRepository(t *testing.T) {
	ctx := t.Context()
	trManager := manager.Must(trmpgx.NewDefaultFactory(db))

	repo := repository.NewRequestRepository(db, trmpgx.DefaultCtxGetter, retrier)
	categoryRepo := repository.NewCategoryRepository(db, trmpgx.DefaultCtxGetter, retrier)

	_ = trManager.Do(ctx, func(ctx context.Context) error {
		category := &models.Category{ID: uuid.New(), Name: "groceries"}
		require.NoError(t, categoryRepo.Create(ctx, category))

		pinID := uuid.New()
		csr1 := uuid.New()
		csr2 := uuid.New()
		desc := "weekly shopping"

		req := &models.Request{
			ID:          uuid.New(),
			PinUserID:   pinID,
			Title:       "Need groceries",
			Description: &desc,
			Status:      models.RequestStatusPending,
			CategoryID:  &category.ID,
		}

		t.Run("Create", func(t *testing.T) {
			require.NoError(t, repo.Create(ctx, req))
			require.False(t, req.CreatedAt.IsZero())
		})

		t.Run("GetByID", func(t *testing.T) {
			actual, err := repo.GetByID(ctx, req.ID)
			require.NoError(t, err)
			require.Equal(t, req.Title, actual.Title)
			require.Equal(t, models.RequestStatusPending, actual.Status)
			require.NotNil(t, actual.CategoryName)
			require.Equal(t, "groceries", *actual.CategoryName)
			require.Nil(t, actual.AssignedTo)
			require.Nil(t, actual.CompletedAt)
			require.Empty(t, actual.Shortlist)
		})

		t.Run("GetByID NotFound", func(t *testing.T) {
			_, err := repo.GetByID(ctx, uuid.New())
			require.ErrorIs(t, err, repository.ErrNotFound)
		})

		t.Run("Shortlist add and remove", func(t *testing.T) {
			added, err := repo.AddShortlistee(ctx, req.ID, csr1)
			require.NoError(t, err)
			require.True(t, added)

			added, err = repo.AddShortlistee(ctx, req.ID, csr1)
			require.NoError(t, err)
			require.False(t, added)

			added, err = repo.AddShortlistee(ctx, req.ID, csr2)
			require.NoError(t, err)
			require.True(t, added)

			fetched, err := repo.GetByID(ctx, req.ID)
			require.NoError(t, err)
			require.Len(t, fetched.Shortlist, 2)
			require.True(t, fetched.IsShortlisted(csr1))

			removed, err := repo.RemoveShortlistee(ctx, req.ID, csr2)
			require.NoError(t, err)
			require.True(t, removed)

			removed, err = repo.RemoveShortlistee(ctx, req.ID, csr2)
			require.NoError(t, err)
			require.False(t, removed)
		})

		t.Run("List filters", func(t *testing.T) {
			status := models.RequestStatusPending
			list, err := repo.List(ctx, models.RequestFilter{Status: &status, PinUserID: &pinID})
			require.NoError(t, err)
			require.Len(t, list, 1)
			require.Len(t, list[0].Shortlist, 1)

			list, err = repo.List(ctx, models.RequestFilter{Scope: models.ScopeShortlisted, CSRID: &csr1})
			require.NoError(t, err)
			require.Len(t, list, 1)

			list, err = repo.List(ctx, models.RequestFilter{Query: "GROCER"})
			require.NoError(t, err)
			require.NotEmpty(t, list)

			list, err = repo.List(ctx, models.RequestFilter{Query: "nothing-matches-this"})
			require.NoError(t, err)
			require.Empty(t, list)
		})

		t.Run("IncrementView", func(t *testing.T) {
			require.NoError(t, repo.IncrementView(ctx, req.ID))
			require.NoError(t, repo.IncrementView(ctx, req.ID))

			fetched, err := repo.GetByID(ctx, req.ID)
			require.NoError(t, err)
			require.EqualValues(t, 2, fetched.ViewCount)
		})

		t.Run("Assign clears shortlist and rejects second assign", func(t *testing.T) {
			locked, err := repo.GetByIDForUpdate(ctx, req.ID)
			require.NoError(t, err)
			require.Equal(t, req.ID, locked.ID)

			require.NoError(t, repo.Assign(ctx, req.ID, csr1))
			require.NoError(t, repo.ClearShortlist(ctx, req.ID))

			fetched, err := repo.GetByID(ctx, req.ID)
			require.NoError(t, err)
			require.Equal(t, models.RequestStatusAssigned, fetched.Status)
			require.Equal(t, csr1, *fetched.AssignedTo)
			require.Empty(t, fetched.Shortlist)

			require.ErrorIs(t, repo.Assign(ctx, req.ID, csr2), repository.ErrNotFound)
		})

		t.Run("Edit and delete only while pending", func(t *testing.T) {
			err := repo.Update(ctx, req.ID, models.RequestEdit{Title: "changed"})
			require.ErrorIs(t, err, repository.ErrNotFound)

			require.ErrorIs(t, repo.Delete(ctx, req.ID), repository.ErrNotFound)
		})

		t.Run("Complete", func(t *testing.T) {
			completedAt, err := repo.Complete(ctx, req.ID)
			require.NoError(t, err)
			require.False(t, completedAt.IsZero())

			fetched, err := repo.GetByID(ctx, req.ID)
			require.NoError(t, err)
			require.Equal(t, models.RequestStatusCompleted, fetched.Status)
			require.NotNil(t, fetched.CompletedAt)

			_, err = repo.Complete(ctx, req.ID)
			require.ErrorIs(t, err, repository.ErrNotFound)
		})

		t.Run("Delete pending", func(t *testing.T) {
			other := &models.Request{
				ID:        uuid.New(),
				PinUserID: pinID,
				Title:     "temporary",
				Status:    models.RequestStatusPending,
			}
			require.NoError(t, repo.Create(ctx, other))
			require.NoError(t, repo.Delete(ctx, other.ID))

			_, err := repo.GetByID(ctx, other.ID)
			require.ErrorIs(t, err, repository.ErrNotFound)
		})

		return fmt.Errorf("rollback transaction")
	})
}

// replayRetrier runs every statement twice, as a retry after a commit whose
// acknowledgement was lost would.
type replayRetrier struct{}

func (replayRetrier) Do(_ context.Context, fn func() error) error {
	if err := fn(); err != nil {
		return err
	}
	return fn()
}

func TestRequestRepository_IncrementViewRunsOnce(t *testing.T) {
	ctx := t.Context()

	repo := repository.NewRequestRepository(db, trmpgx.DefaultCtxGetter, replayRetrier{})
	plain := repository.NewRequestRepository(db, trmpgx.DefaultCtxGetter, retrier)

	req := &models.Request{
		ID:        uuid.New(),
		PinUserID: uuid.New(),
		Title:     "Ride to the clinic",
		Status:    models.RequestStatusPending,
	}
	require.NoError(t, plain.Create(ctx, req))
	defer func() {
		_ = plain.Delete(ctx, req.ID)
	}()

	require.NoError(t, repo.IncrementView(ctx, req.ID))

	fetched, err := plain.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, fetched.ViewCount)

	require.ErrorIs(t, repo.IncrementView(ctx, uuid.New()), repository.ErrNotFound)
}
