package client_test

import (
	"context"
	"testing"
	"time"

	"case-service/internal/client"
	"case-service/internal/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func pending(title string, shortlist ...uuid.UUID) client.Request {
	return client.Request{
		ID:             uuid.New(),
		RequesterID:    uuid.New(),
		Title:          title,
		Status:         client.StatusPending,
		Shortlist:      shortlist,
		ShortlistCount: len(shortlist),
		CreatedAt:      time.Now(),
	}
}

func assigned(r client.Request, csrID uuid.UUID) client.Request {
	r.Status = client.StatusAssigned
	r.AssignedCSRID = &csrID
	r.Shortlist = nil
	r.ShortlistCount = 0
	return r
}

func completed(r client.Request) client.Request {
	now := time.Now()
	r.Status = client.StatusCompleted
	r.CompletedAt = &now
	return r
}

// loadedStore returns a store that already holds records for filter f.
func loadedStore(t *testing.T, remote *mocks.MockRemote, f client.Filter, records ...client.Request) *client.Store {
	t.Helper()

	store := client.NewStore(remote, zap.NewNop())

	remote.EXPECT().
		List(gomock.Any(), f, 0, client.DefaultPageSize).
		Return(records, nil)

	_, err := store.Load(t.Context(), f)
	require.NoError(t, err)

	return store
}

// checkInvariants asserts the per-record invariants on every record.
func checkInvariants(t *testing.T, records []client.Request) {
	t.Helper()

	for _, r := range records {
		hasAssignee := r.AssignedCSRID != nil
		require.Equal(t, r.Status == client.StatusAssigned || r.Status == client.StatusCompleted, hasAssignee,
			"assignee of %s in status %s", r.ID, r.Status)
		require.Equal(t, r.Status == client.StatusCompleted, r.CompletedAt != nil,
			"completed_at of %s in status %s", r.ID, r.Status)
		require.Equal(t, len(r.Shortlist), r.ShortlistCount, "shortlist count of %s", r.ID)
		if r.Status != client.StatusPending {
			require.Empty(t, r.Shortlist)
		}
	}
}

func waitFor(ch <-chan struct{}) func(context.Context) {
	return func(ctx context.Context) {
		select {
		case <-ch:
		case <-ctx.Done():
		}
	}
}
