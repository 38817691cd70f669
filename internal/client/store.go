package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Snapshot is an immutable copy of the store contents.
type Snapshot struct {
	Records   []Request
	Filter    Filter
	Query     string
	Searching bool
	HasMore   bool

	// Stale is set when the last reload failed; Records still hold the
	// results from before it.
	Stale bool
}

// Store is the local working set of requests for one viewer context. List
// loads are cancellable: starting a new one cancels the one in flight and the
// older result is dropped with ErrSuperseded.
type Store struct {
	remote Remote
	log    *zap.Logger

	mu        sync.Mutex
	records   []Request
	index     map[uuid.UUID]int
	filter    Filter
	query     string
	searching bool
	hasMore   bool
	stale     bool

	// version counts committed remote results.
	version uint64

	gen    uint64
	cancel context.CancelFunc

	subs   map[int]func(Snapshot)
	nextID int
}

func NewStore(remote Remote, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{
		remote: remote,
		log:    log,
		index:  make(map[uuid.UUID]int),
		subs:   make(map[int]func(Snapshot)),
	}
}

// Load replaces the store with the first page matching f.
func (s *Store) Load(ctx context.Context, f Filter) ([]Request, error) {
	ctx, gen, done := s.begin(ctx)
	defer done()

	page, err := s.remote.List(ctx, f, 0, f.pageSize())

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("failed to load requests", zap.Error(err))
		return nil, err
	}

	s.filter = f
	s.query = ""
	s.searching = false
	s.hasMore = len(page) == f.pageSize()
	s.stale = false
	s.version++
	s.replaceLocked(page)

	return s.commit().Records, nil
}

// LoadMore appends the next page of the current listing. Records already in
// the store are updated in place rather than duplicated.
func (s *Store) LoadMore(ctx context.Context) ([]Request, error) {
	s.mu.Lock()
	if s.searching {
		s.mu.Unlock()
		return nil, ErrPaginationDisabled
	}
	f := s.filter
	offset := len(s.records)
	s.mu.Unlock()

	ctx, gen, done := s.begin(ctx)
	defer done()

	page, err := s.remote.List(ctx, f, offset, f.pageSize())

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("failed to load more requests", zap.Error(err), zap.Int("offset", offset))
		return nil, err
	}

	for _, r := range page {
		r = r.clone()
		if idx, ok := s.index[r.ID]; ok {
			s.records[idx] = r
			continue
		}
		s.index[r.ID] = len(s.records)
		s.records = append(s.records, r)
	}
	s.hasMore = len(page) == f.pageSize()
	s.version++
	s.commit()

	return page, nil
}

// Search replaces the store with every request matching query and disables
// LoadMore until the next Load. An empty query goes back to the listing.
func (s *Store) Search(ctx context.Context, query string) ([]Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		s.mu.Lock()
		f := s.filter
		s.mu.Unlock()
		return s.Load(ctx, f)
	}

	s.mu.Lock()
	csrID := s.filter.CSRID
	s.mu.Unlock()

	ctx, gen, done := s.begin(ctx)
	defer done()

	found, err := s.remote.Search(ctx, query, csrID)

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return nil, ErrSuperseded
	}
	if err != nil {
		s.mu.Unlock()
		s.log.Warn("failed to search requests", zap.Error(err), zap.String("query", query))
		return nil, err
	}

	s.query = query
	s.searching = true
	s.hasMore = false
	s.stale = false
	s.version++
	s.replaceLocked(found)

	return s.commit().Records, nil
}

// InvalidateAndReload re-runs the current listing or search from the start
// and replaces every record with the result. If the reload fails the old
// records are kept and the snapshot is marked stale.
func (s *Store) InvalidateAndReload(ctx context.Context) error {
	s.mu.Lock()
	f := s.filter
	query := s.query
	searching := s.searching
	s.mu.Unlock()

	var err error
	if searching {
		_, err = s.Search(ctx, query)
	} else {
		_, err = s.Load(ctx, f)
	}
	if err != nil && !errors.Is(err, ErrSuperseded) {
		s.mu.Lock()
		s.stale = true
		s.commit()
	}
	return err
}

// ApplyLocalPatch updates one record without a round trip.
func (s *Store) ApplyLocalPatch(id uuid.UUID, p Patch) error {
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return ErrNotInStore
	}

	s.records[idx].apply(p, s.filter.CSRID)
	s.commit()

	return nil
}

// applyPatchSince applies p only if no remote results were committed after
// version since, which would already reflect the change. It reports whether
// the patch was applied.
func (s *Store) applyPatchSince(id uuid.UUID, p Patch, since uint64) (bool, error) {
	s.mu.Lock()
	if s.version != since {
		s.mu.Unlock()
		return false, nil
	}
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false, ErrNotInStore
	}

	s.records[idx].apply(p, s.filter.CSRID)
	s.commit()

	return true, nil
}

func (s *Store) currentVersion() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// filtersOn reports whether the current listing selects records by a field p
// changes. Such a patch can move a record out of the server's result set, so
// it has to be followed by a reload to keep paging offsets aligned.
func (s *Store) filtersOn(p Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.Shortlist != nil && !s.searching && s.filter.Status == FilterShortlisted {
		return true
	}
	if p.Edit != nil && (s.searching || s.filter.Query != "" || s.filter.CategoryID != nil) {
		return true
	}
	return false
}

// Remove drops a record locally. It reports whether the record was present.
func (s *Store) Remove(id uuid.UUID) bool {
	s.mu.Lock()
	idx, ok := s.index[id]
	if !ok {
		s.mu.Unlock()
		return false
	}

	s.records = append(s.records[:idx], s.records[idx+1:]...)
	s.reindexLocked()
	s.commit()

	return true
}

func (s *Store) Get(id uuid.UUID) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return Request{}, false
	}
	return s.records[idx].clone(), true
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn to receive every new snapshot. The returned func
// unregisters it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) ByStatus(status Status) []Request {
	return s.Snapshot().ByStatus(status)
}

func (s *Store) ShortlistedBy(csrID uuid.UUID) []Request {
	return s.Snapshot().ShortlistedBy(csrID)
}

func (s *Store) AvailableTo(csrID uuid.UUID) []Request {
	return s.Snapshot().AvailableTo(csrID)
}

func (s *Store) Counts() Counts {
	return s.Snapshot().Counts()
}

// begin cancels the load in flight and starts a new generation.
func (s *Store) begin(ctx context.Context) (context.Context, uint64, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	s.gen++
	gen := s.gen
	s.cancel = cancel

	return ctx, gen, func() {
		cancel()
		s.mu.Lock()
		if s.gen == gen {
			s.cancel = nil
		}
		s.mu.Unlock()
	}
}

func (s *Store) replaceLocked(page []Request) {
	s.records = make([]Request, 0, len(page))
	for _, r := range page {
		s.records = append(s.records, r.clone())
	}
	s.reindexLocked()
}

func (s *Store) reindexLocked() {
	s.index = make(map[uuid.UUID]int, len(s.records))
	for i, r := range s.records {
		s.index[r.ID] = i
	}
}

func (s *Store) snapshotLocked() Snapshot {
	records := make([]Request, 0, len(s.records))
	for _, r := range s.records {
		records = append(records, r.clone())
	}

	return Snapshot{
		Records:   records,
		Filter:    s.filter,
		Query:     s.query,
		Searching: s.searching,
		HasMore:   s.hasMore,
		Stale:     s.stale,
	}
}

// commit must be called with mu held. It releases the lock and publishes the
// new snapshot.
func (s *Store) commit() Snapshot {
	snap := s.snapshotLocked()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}

	return snap
}
