package client_test

import (
	"context"
	"math/rand/v2"
	"sync"
	"testing"

	"case-service/internal/client"
	"case-service/internal/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestStore_LoadAndLoadMore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	ctx := t.Context()
	f := client.Filter{Status: "pending", PageSize: 2}

	r1, r2, r3 := pending("one"), pending("two"), pending("three")

	store := client.NewStore(remote, zap.NewNop())

	remote.EXPECT().
		List(gomock.Any(), f, 0, 2).
		Return([]client.Request{r1, r2}, nil)

	got, err := store.Load(ctx, f)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.True(t, store.Snapshot().HasMore)

	updated := r2
	updated.Title = "two, edited elsewhere"

	remote.EXPECT().
		List(gomock.Any(), f, 2, 2).
		Return([]client.Request{updated, r3}, nil)

	page, err := store.LoadMore(ctx)
	require.NoError(t, err)
	require.Len(t, page, 2)

	snap := store.Snapshot()
	require.Len(t, snap.Records, 3)
	require.Equal(t, "two, edited elsewhere", snap.Records[1].Title)
	require.Equal(t, r3.ID, snap.Records[2].ID)
	require.True(t, snap.HasMore)

	remote.EXPECT().
		List(gomock.Any(), f, 3, 2).
		Return([]client.Request{}, nil)

	_, err = store.LoadMore(ctx)
	require.NoError(t, err)
	require.False(t, store.Snapshot().HasMore)
	require.Len(t, store.Snapshot().Records, 3)
}

func TestStore_LoadFailureKeepsRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	f := client.Filter{}
	store := loadedStore(t, remote, f, pending("one"))

	remote.EXPECT().
		List(gomock.Any(), client.Filter{Status: "assigned"}, 0, client.DefaultPageSize).
		Return(nil, &client.HTTPError{StatusCode: 500})

	_, err := store.Load(t.Context(), client.Filter{Status: "assigned"})

	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Len(t, store.Snapshot().Records, 1)
	require.Equal(t, f, store.Snapshot().Filter)
}

func TestStore_SearchDisablesPagination(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	csrID := uuid.New()
	f := client.Filter{Status: "pending", CSRID: &csrID}
	store := loadedStore(t, remote, f, pending("one"), pending("two"))

	hit := pending("ride to clinic")
	remote.EXPECT().
		Search(gomock.Any(), "ride", &csrID).
		Return([]client.Request{hit}, nil)

	found, err := store.Search(t.Context(), "  ride ")
	require.NoError(t, err)
	require.Len(t, found, 1)

	snap := store.Snapshot()
	require.True(t, snap.Searching)
	require.Equal(t, "ride", snap.Query)
	require.Len(t, snap.Records, 1)
	require.Equal(t, hit.ID, snap.Records[0].ID)

	_, err = store.LoadMore(t.Context())
	require.ErrorIs(t, err, client.ErrPaginationDisabled)

	// reload re-runs the search rather than the listing
	remote.EXPECT().
		Search(gomock.Any(), "ride", &csrID).
		Return([]client.Request{hit}, nil)
	require.NoError(t, store.InvalidateAndReload(t.Context()))
	require.True(t, store.Snapshot().Searching)

	// an empty query goes back to the listing
	remote.EXPECT().
		List(gomock.Any(), f, 0, client.DefaultPageSize).
		Return([]client.Request{pending("one")}, nil)
	_, err = store.Search(t.Context(), "")
	require.NoError(t, err)
	require.False(t, store.Snapshot().Searching)
}

func TestStore_NewerLoadSupersedesOlder(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	store := client.NewStore(remote, zap.NewNop())

	slow := client.Filter{Status: "pending"}
	fast := client.Filter{Status: "assigned"}
	started := make(chan struct{})

	remote.EXPECT().
		List(gomock.Any(), slow, 0, client.DefaultPageSize).
		DoAndReturn(func(ctx context.Context, _ client.Filter, _, _ int) ([]client.Request, error) {
			close(started)
			<-ctx.Done()
			return nil, &client.TransportError{Op: "GET /requests", Err: ctx.Err()}
		})

	winner := assigned(pending("fast"), uuid.New())
	remote.EXPECT().
		List(gomock.Any(), fast, 0, client.DefaultPageSize).
		Return([]client.Request{winner}, nil)

	var (
		wg      sync.WaitGroup
		slowErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, slowErr = store.Load(t.Context(), slow)
	}()

	<-started
	_, err := store.Load(t.Context(), fast)
	require.NoError(t, err)

	wg.Wait()
	require.ErrorIs(t, slowErr, client.ErrSuperseded)

	snap := store.Snapshot()
	require.Equal(t, fast, snap.Filter)
	require.Len(t, snap.Records, 1)
	require.Equal(t, winner.ID, snap.Records[0].ID)
}

func TestStore_ApplyLocalPatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	csrID := uuid.New()
	other := uuid.New()
	r := pending("one", other)
	store := loadedStore(t, remote, client.Filter{CSRID: &csrID}, r)

	t.Run("unknown record", func(t *testing.T) {
		err := store.ApplyLocalPatch(uuid.New(), client.Patch{ViewDelta: 1})
		require.ErrorIs(t, err, client.ErrNotInStore)
	})

	t.Run("shortlist add updates set, count and flag together", func(t *testing.T) {
		require.NoError(t, store.ApplyLocalPatch(r.ID, client.Patch{
			Shortlist: &client.ShortlistChange{CSRID: csrID, Member: true},
		}))

		got, ok := store.Get(r.ID)
		require.True(t, ok)
		require.ElementsMatch(t, []uuid.UUID{other, csrID}, got.Shortlist)
		require.Equal(t, 2, got.ShortlistCount)
		require.True(t, got.MyShortlisted)

		require.Len(t, store.ShortlistedBy(csrID), 1)
		require.Empty(t, store.AvailableTo(csrID))
	})

	t.Run("repeated add is a no-op", func(t *testing.T) {
		require.NoError(t, store.ApplyLocalPatch(r.ID, client.Patch{
			Shortlist: &client.ShortlistChange{CSRID: csrID, Member: true},
		}))

		got, _ := store.Get(r.ID)
		require.Equal(t, 2, got.ShortlistCount)
		require.Len(t, got.Shortlist, 2)
	})

	t.Run("shortlist remove", func(t *testing.T) {
		require.NoError(t, store.ApplyLocalPatch(r.ID, client.Patch{
			Shortlist: &client.ShortlistChange{CSRID: csrID, Member: false},
		}))

		got, _ := store.Get(r.ID)
		require.Equal(t, []uuid.UUID{other}, got.Shortlist)
		require.Equal(t, 1, got.ShortlistCount)
		require.False(t, got.MyShortlisted)

		require.Empty(t, store.ShortlistedBy(csrID))
		require.Len(t, store.AvailableTo(csrID), 1)
	})

	t.Run("edit and view", func(t *testing.T) {
		categoryID := uuid.New()
		desc := "details"
		require.NoError(t, store.ApplyLocalPatch(r.ID, client.Patch{
			Edit:      &client.Edit{Title: "renamed", Description: &desc, CategoryID: &categoryID},
			ViewDelta: 1,
		}))

		got, _ := store.Get(r.ID)
		require.Equal(t, "renamed", got.Title)
		require.Equal(t, &desc, got.Description)
		require.Equal(t, &categoryID, got.CategoryID)
		require.Equal(t, int64(1), got.ViewCount)
		require.Equal(t, client.StatusPending, got.Status)
		require.Equal(t, 1, store.Counts().ByCategory[categoryID])
	})

	t.Run("records handed out are copies", func(t *testing.T) {
		got, _ := store.Get(r.ID)
		got.Shortlist[0] = uuid.New()
		got.Title = "mutated"

		again, _ := store.Get(r.ID)
		require.Equal(t, other, again.Shortlist[0])
		require.Equal(t, "renamed", again.Title)
	})
}

// Shortlist membership and count never drift apart, whatever the order of
// toggles from several CSRs.
func TestStore_ShortlistCountMatchesMembership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	records := []client.Request{pending("a"), pending("b"), pending("c")}
	store := loadedStore(t, remote, client.Filter{}, records...)

	csrs := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	rng := rand.New(rand.NewPCG(1, 2))

	for range 500 {
		r := records[rng.IntN(len(records))]
		csr := csrs[rng.IntN(len(csrs))]
		require.NoError(t, store.ApplyLocalPatch(r.ID, client.Patch{
			Shortlist: &client.ShortlistChange{CSRID: csr, Member: rng.IntN(2) == 0},
		}))

		got, _ := store.Get(r.ID)
		require.Equal(t, len(got.Shortlist), got.ShortlistCount)
	}

	checkInvariants(t, store.Snapshot().Records)
}

func TestStore_RemoveAndCounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	categoryID := uuid.New()

	a := pending("a")
	a.CategoryID = &categoryID
	b := assigned(pending("b"), uuid.New())
	c := completed(assigned(pending("c"), uuid.New()))

	store := loadedStore(t, remote, client.Filter{}, a, b, c)

	counts := store.Counts()
	require.Equal(t, 2, counts.Active)
	require.Equal(t, 1, counts.Past)
	require.Equal(t, 1, counts.ByCategory[categoryID])
	require.Equal(t, 2, counts.Uncategorized)

	require.Len(t, store.ByStatus(client.StatusPending), 1)
	require.Len(t, store.ByStatus(client.StatusCompleted), 1)

	require.True(t, store.Remove(a.ID))
	require.False(t, store.Remove(a.ID))

	_, ok := store.Get(a.ID)
	require.False(t, ok)

	got, ok := store.Get(c.ID)
	require.True(t, ok)
	require.Equal(t, c.ID, got.ID)
	require.Equal(t, 1, store.Counts().Active)
}

func TestStore_Subscribe(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	a, b := pending("a"), pending("b")
	store := loadedStore(t, remote, client.Filter{}, a, b)

	var snaps []client.Snapshot
	unsubscribe := store.Subscribe(func(s client.Snapshot) {
		snaps = append(snaps, s)
	})

	require.NoError(t, store.ApplyLocalPatch(a.ID, client.Patch{ViewDelta: 1}))
	require.True(t, store.Remove(a.ID))

	require.Len(t, snaps, 2)
	require.Equal(t, int64(1), snaps[0].Records[0].ViewCount)
	require.Len(t, snaps[1].Records, 1)
	require.Equal(t, b.ID, snaps[1].Records[0].ID)

	unsubscribe()
	require.NoError(t, store.ApplyLocalPatch(b.ID, client.Patch{ViewDelta: 1}))
	require.Len(t, snaps, 2)
}

// After a reload no pending record carries an assignee.
func TestStore_ReloadPendingHasNoAssignee(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	f := client.Filter{}
	a, b := pending("a", uuid.New()), pending("b")
	store := loadedStore(t, remote, f, a, b)

	remote.EXPECT().
		List(gomock.Any(), f, 0, client.DefaultPageSize).
		Return([]client.Request{assigned(a, a.Shortlist[0]), b}, nil)

	require.NoError(t, store.InvalidateAndReload(t.Context()))

	for _, r := range store.ByStatus(client.StatusPending) {
		require.Nil(t, r.AssignedCSRID)
	}
	checkInvariants(t, store.Snapshot().Records)
}

func TestStore_FailedReloadKeepsRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := mocks.NewMockRemote(ctrl)
	f := client.Filter{}
	r := pending("a")
	store := loadedStore(t, remote, f, r)

	remote.EXPECT().
		List(gomock.Any(), f, 0, client.DefaultPageSize).
		Return(nil, &client.TransportError{Op: "GET /requests", Err: context.DeadlineExceeded})

	require.Error(t, store.InvalidateAndReload(t.Context()))

	snap := store.Snapshot()
	require.True(t, snap.Stale)
	require.Len(t, snap.Records, 1)
	require.Equal(t, r.ID, snap.Records[0].ID)

	remote.EXPECT().
		List(gomock.Any(), f, 0, client.DefaultPageSize).
		Return([]client.Request{r}, nil)

	require.NoError(t, store.InvalidateAndReload(t.Context()))
	require.False(t, store.Snapshot().Stale)
}
