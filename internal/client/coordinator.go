//go:generate mockgen -source=coordinator.go -destination=../mocks/coordinator.go -package=mocks .

package client

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Role string

const (
	RolePIN Role = "pin"
	RoleCSR Role = "csr"
	RolePM  Role = "pm"
	RoleUA  Role = "ua"
)

// Viewer is the user on whose behalf an action runs.
type Viewer struct {
	ID   uuid.UUID
	Role Role
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Coordinator runs the request lifecycle actions against the remote and keeps
// the store in sync with their results. At most one action per request is in
// flight; a second one fails with ErrBusy.
type Coordinator struct {
	store   *Store
	remote  Remote
	confirm Confirmer
	pick    func(n int) int

	viewTimeout time.Duration

	mu   sync.Mutex
	busy map[uuid.UUID]struct{}

	views sync.WaitGroup

	log *zap.Logger
}

type Option func(*Coordinator)

// WithConfirmer sets the approval prompt used by Complete. Without one every
// completion is declined.
func WithConfirmer(c Confirmer) Option {
	return func(co *Coordinator) {
		co.confirm = c
	}
}

// WithPicker replaces the uniform random choice of assignee. pick(n) must
// return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(co *Coordinator) {
		co.pick = pick
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(co *Coordinator) {
		co.log = log
	}
}

func WithViewTimeout(d time.Duration) Option {
	return func(co *Coordinator) {
		co.viewTimeout = d
	}
}

func NewCoordinator(store *Store, remote Remote, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:       store,
		remote:      remote,
		confirm:     ConfirmFunc(func(context.Context, string) bool { return false }),
		pick:        rand.IntN,
		viewTimeout: 10 * time.Second,
		busy:        make(map[uuid.UUID]struct{}),
		log:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Coordinator) Store() *Store {
	return c.store
}

// Create submits a new request for a PIN viewer and reloads the store.
func (c *Coordinator) Create(ctx context.Context, viewer Viewer, req NewRequest) error {
	if viewer.Role != RolePIN {
		return ErrForbidden
	}

	req.Title = strings.TrimSpace(req.Title)

	if err := c.remote.Create(ctx, viewer.ID, req); err != nil {
		c.log.Warn("create failed", zap.Error(err))
		return err
	}

	c.reload(ctx)
	return nil
}

// Edit replaces the editable fields of the viewer's own pending request.
func (c *Coordinator) Edit(ctx context.Context, viewer Viewer, id uuid.UUID, edit Edit) error {
	release, err := c.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	rec, err := c.record(id)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return ErrInvalidTransition
	}
	if !ownedBy(rec, viewer) {
		return ErrForbidden
	}

	edit.Title = strings.TrimSpace(edit.Title)
	edit.Description = trimmed(edit.Description)

	if err := c.remote.Edit(ctx, id, edit); err != nil {
		c.log.Warn("edit failed", zap.Error(err), zap.String("request_id", id.String()))
		return err
	}

	return c.patchOrReload(ctx, id, Patch{Edit: &edit})
}

// Delete removes the viewer's own pending request. Non-pending requests are
// rejected before anything is sent.
func (c *Coordinator) Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error {
	release, err := c.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	rec, err := c.record(id)
	if err != nil {
		return err
	}
	if rec.Status != StatusPending {
		return ErrInvalidTransition
	}
	if !ownedBy(rec, viewer) {
		return ErrForbidden
	}

	if err := c.remote.Delete(ctx, id); err != nil {
		c.log.Warn("delete failed", zap.Error(err), zap.String("request_id", id.String()))
		return err
	}

	c.store.Remove(id)
	return nil
}

// ToggleShortlist adds the CSR viewer to the request's shortlist or removes
// them, depending on current membership. It returns the new membership.
func (c *Coordinator) ToggleShortlist(ctx context.Context, viewer Viewer, id uuid.UUID) (bool, error) {
	if viewer.Role != RoleCSR {
		return false, ErrForbidden
	}

	release, err := c.acquire(id)
	if err != nil {
		return false, err
	}
	defer release()

	rec, err := c.record(id)
	if err != nil {
		return false, err
	}
	if rec.Status != StatusPending {
		return rec.IsShortlisted(viewer.ID), ErrInvalidTransition
	}

	member := rec.IsShortlisted(viewer.ID)
	if member {
		err = c.remote.RemoveShortlist(ctx, id, viewer.ID)
	} else {
		err = c.remote.AddShortlist(ctx, id, viewer.ID)
	}
	if err != nil {
		c.log.Warn("shortlist toggle failed",
			zap.Error(err),
			zap.String("request_id", id.String()),
			zap.Bool("was_member", member),
		)
		return member, err
	}

	change := &ShortlistChange{CSRID: viewer.ID, Member: !member}
	if err := c.patchOrReload(ctx, id, Patch{Shortlist: change}); err != nil {
		return !member, err
	}

	return !member, nil
}

// Assign moves a pending request to assigned, choosing the assignee uniformly
// at random among its current shortlist. The choice is made on every call.
func (c *Coordinator) Assign(ctx context.Context, viewer Viewer, id uuid.UUID) (uuid.UUID, error) {
	if viewer.Role == RolePIN {
		return uuid.Nil, ErrForbidden
	}

	release, err := c.acquire(id)
	if err != nil {
		return uuid.Nil, err
	}
	defer release()

	rec, err := c.record(id)
	if err != nil {
		return uuid.Nil, err
	}
	if rec.Status != StatusPending {
		return uuid.Nil, ErrInvalidTransition
	}

	detail, err := c.remote.Get(ctx, id)
	if err != nil {
		c.log.Warn("failed to fetch request before assignment", zap.Error(err), zap.String("request_id", id.String()))
		return uuid.Nil, err
	}
	if detail.Status != StatusPending {
		return uuid.Nil, ErrInvalidTransition
	}
	if len(detail.Shortlist) == 0 {
		return uuid.Nil, ErrNoShortlistees
	}

	chosen := detail.Shortlist[c.pick(len(detail.Shortlist))]

	if err := c.remote.Transition(ctx, id, StatusAssigned, &chosen); err != nil {
		c.log.Warn("assign failed",
			zap.Error(err),
			zap.String("request_id", id.String()),
			zap.String("csr_id", chosen.String()),
		)
		return uuid.Nil, err
	}

	c.log.Info("request assigned",
		zap.String("request_id", id.String()),
		zap.String("csr_id", chosen.String()),
	)

	c.reload(ctx)
	return chosen, nil
}

// Complete finalizes an assigned request after the user confirms it.
func (c *Coordinator) Complete(ctx context.Context, viewer Viewer, id uuid.UUID) error {
	if viewer.Role == RolePIN {
		return ErrForbidden
	}

	release, err := c.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	rec, err := c.record(id)
	if err != nil {
		return err
	}
	if rec.Status != StatusAssigned {
		return ErrInvalidTransition
	}

	if !c.confirm.Confirm(ctx, "Mark \""+rec.Title+"\" as completed? This cannot be undone.") {
		return ErrCancelled
	}

	if err := c.remote.Transition(ctx, id, StatusCompleted, nil); err != nil {
		c.log.Warn("complete failed", zap.Error(err), zap.String("request_id", id.String()))
		return err
	}

	c.log.Info("request completed", zap.String("request_id", id.String()))

	c.reload(ctx)
	return nil
}

// RecordView counts a detail view in the background. Failures are logged and
// otherwise ignored; on success the local count goes up by one.
func (c *Coordinator) RecordView(ctx context.Context, id uuid.UUID) {
	ctx = context.WithoutCancel(ctx)
	since := c.store.currentVersion()

	c.views.Add(1)
	go func() {
		defer c.views.Done()

		ctx, cancel := context.WithTimeout(ctx, c.viewTimeout)
		defer cancel()

		if err := c.remote.RecordView(ctx, id); err != nil {
			c.log.Warn("failed to record view", zap.Error(err), zap.String("request_id", id.String()))
			return
		}

		// a reload since the call started already carries the new count
		applied, err := c.store.applyPatchSince(id, Patch{ViewDelta: 1}, since)
		if err != nil && !errors.Is(err, ErrNotInStore) {
			c.log.Warn("failed to patch view count", zap.Error(err), zap.String("request_id", id.String()))
		}
		if err == nil && !applied {
			c.log.Debug("view count left to the reloaded record", zap.String("request_id", id.String()))
		}
	}()
}

// Wait blocks until every pending RecordView call has finished.
func (c *Coordinator) Wait() {
	c.views.Wait()
}

// Busy reports whether an action on id is in flight.
func (c *Coordinator) Busy(id uuid.UUID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.busy[id]
	return ok
}

func (c *Coordinator) acquire(id uuid.UUID) (func(), error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.busy[id]; ok {
		return nil, ErrBusy
	}
	c.busy[id] = struct{}{}

	return func() {
		c.mu.Lock()
		delete(c.busy, id)
		c.mu.Unlock()
	}, nil
}

func (c *Coordinator) record(id uuid.UUID) (Request, error) {
	rec, ok := c.store.Get(id)
	if !ok {
		return Request{}, ErrNotInStore
	}
	return rec, nil
}

// patchOrReload applies a confirmed change locally, unless the current listing
// filters on the changed field; then the listing is reloaded instead.
func (c *Coordinator) patchOrReload(ctx context.Context, id uuid.UUID, p Patch) error {
	if c.store.filtersOn(p) {
		c.reload(ctx)
		return nil
	}
	return c.store.ApplyLocalPatch(id, p)
}

// reload refreshes the store after a status change. The mutation has already
// succeeded, so a failed reload is only logged; the store keeps its previous
// records and reports them as stale.
func (c *Coordinator) reload(ctx context.Context) {
	if err := c.store.InvalidateAndReload(ctx); err != nil && !errors.Is(err, ErrSuperseded) {
		c.log.Warn("failed to reload requests", zap.Error(err))
	}
}

func ownedBy(r Request, viewer Viewer) bool {
	return viewer.Role == RolePIN && r.RequesterID == viewer.ID
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
