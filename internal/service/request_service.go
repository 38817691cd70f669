//go:generate mockgen -source=request_service.go -destination=../mocks/request_service.go -package=mocks .

package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"time"

	"case-service/internal/metrics"
	"case-service/internal/models"
	"case-service/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestRepository interface {
	// Create a pending request
	Create(ctx context.Context, req *models.Request) error

	// Get a request with its shortlist
	GetByID(ctx context.Context, id uuid.UUID) (*models.Request, error)

	// Same as GetByID, but locks the row until the transaction ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Request, error)

	// List requests matching the filter, newest first
	List(ctx context.Context, f models.RequestFilter) ([]*models.Request, error)

	// Edit title, description and category of a pending request
	Update(ctx context.Context, id uuid.UUID, edit models.RequestEdit) error

	// Delete a pending request
	Delete(ctx context.Context, id uuid.UUID) error

	// Move a pending request to assigned
	Assign(ctx context.Context, id, csrID uuid.UUID) error

	// Move an assigned request to completed, returns the completion time
	Complete(ctx context.Context, id uuid.UUID) (time.Time, error)

	// Drop every shortlist entry of a request
	ClearShortlist(ctx context.Context, id uuid.UUID) error

	// Add a CSR to the shortlist, false if already present
	AddShortlistee(ctx context.Context, id, csrID uuid.UUID) (bool, error)

	// Remove a CSR from the shortlist, false if absent
	RemoveShortlistee(ctx context.Context, id, csrID uuid.UUID) (bool, error)

	// Increment the view counter
	IncrementView(ctx context.Context, id uuid.UUID) error
}

type CategoryLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type TxManagerStub struct{}

func (TxManagerStub) Do(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

type RequestService struct {
	requestRepo RequestRepository
	categories  CategoryLookup

	trManager TxManager

	pick func(n int) int

	log *zap.Logger
}

type RequestServiceOption func(*RequestService)

// WithPicker replaces the uniform random choice used when an assignment does
// not name a CSR. pick(n) must return a value in [0, n).
func WithPicker(pick func(n int) int) RequestServiceOption {
	return func(s *RequestService) {
		s.pick = pick
	}
}

func NewRequestService(
	requestRepo RequestRepository,
	categories CategoryLookup,
	trManager TxManager,
	log *zap.Logger,
	opts ...RequestServiceOption,
) *RequestService {
	s := &RequestService{
		requestRepo: requestRepo,
		categories:  categories,
		trManager:   trManager,
		pick:        rand.IntN,
		log:         log,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *RequestService) CreateRequest(ctx context.Context, req *models.Request) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return ErrEmptyTitle
	}
	req.Description = trimOptional(req.Description)

	return s.trManager.Do(ctx, func(ctx context.Context) error {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return err
		}

		req.ID = uuid.New()
		req.Status = models.RequestStatusPending
		req.AssignedTo = nil
		req.CompletedAt = nil
		req.Shortlist = make([]*models.Shortlistee, 0)

		if err := s.requestRepo.Create(ctx, req); err != nil {
			s.log.Error("failed to create request",
				zap.Error(err),
				zap.String("pin_user_id", req.PinUserID.String()),
			)
			return err
		}

		s.log.Info("request created",
			zap.String("request_id", req.ID.String()),
			zap.String("pin_user_id", req.PinUserID.String()),
		)

		return nil
	})
}

func (s *RequestService) GetRequest(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "failed to get request", id)
	}
	return req, nil
}

func (s *RequestService) ListRequests(ctx context.Context, f models.RequestFilter) ([]*models.Request, error) {
	requests, err := s.requestRepo.List(ctx, f)
	if err != nil {
		s.log.Error("failed to list requests", zap.Error(err))
		return nil, err
	}
	return requests, nil
}

// SearchRequests matches the keyword against title and description across all
// statuses. It is never paginated.
func (s *RequestService) SearchRequests(ctx context.Context, query string) ([]*models.Request, error) {
	return s.ListRequests(ctx, models.RequestFilter{Query: strings.TrimSpace(query)})
}

func (s *RequestService) EditRequest(ctx context.Context, id uuid.UUID, edit models.RequestEdit) error {
	edit.Title = strings.TrimSpace(edit.Title)
	if edit.Title == "" {
		return ErrEmptyTitle
	}
	edit.Description = trimOptional(edit.Description)

	return s.trManager.Do(ctx, func(ctx context.Context) error {
		req, err := s.lock(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != models.RequestStatusPending {
			return errNotPending("update", req.Status)
		}

		if err := s.checkCategory(ctx, edit.CategoryID); err != nil {
			return err
		}

		if err := s.requestRepo.Update(ctx, id, edit); err != nil {
			return s.notFoundOr(err, "failed to update request", id)
		}

		s.log.Info("request updated",
			zap.String("request_id", id.String()),
		)

		return nil
	})
}

func (s *RequestService) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	return s.trManager.Do(ctx, func(ctx context.Context) error {
		req, err := s.lock(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != models.RequestStatusPending {
			return errNotPending("delete", req.Status)
		}

		if err := s.requestRepo.Delete(ctx, id); err != nil {
			return s.notFoundOr(err, "failed to delete request", id)
		}

		s.log.Info("request deleted",
			zap.String("request_id", id.String()),
		)

		return nil
	})
}

func (s *RequestService) AddToShortlist(ctx context.Context, id, csrID uuid.UUID) error {
	return s.trManager.Do(ctx, func(ctx context.Context) error {
		req, err := s.lock(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != models.RequestStatusPending {
			return ErrNotShortlistable
		}

		added, err := s.requestRepo.AddShortlistee(ctx, id, csrID)
		if err != nil {
			s.log.Error("failed to add to shortlist",
				zap.Error(err),
				zap.String("request_id", id.String()),
				zap.String("csr_id", csrID.String()),
			)
			return err
		}

		if !added {
			s.log.Warn("request already shortlisted",
				zap.String("request_id", id.String()),
				zap.String("csr_id", csrID.String()),
			)
			return ErrAlreadyShortlisted
		}

		metrics.ShortlistChanges.WithLabelValues("add").Inc()
		s.log.Info("request shortlisted",
			zap.String("request_id", id.String()),
			zap.String("csr_id", csrID.String()),
		)

		return nil
	})
}

func (s *RequestService) RemoveFromShortlist(ctx context.Context, id, csrID uuid.UUID) error {
	return s.trManager.Do(ctx, func(ctx context.Context) error {
		if _, err := s.lock(ctx, id); err != nil {
			return err
		}

		removed, err := s.requestRepo.RemoveShortlistee(ctx, id, csrID)
		if err != nil {
			s.log.Error("failed to remove from shortlist",
				zap.Error(err),
				zap.String("request_id", id.String()),
				zap.String("csr_id", csrID.String()),
			)
			return err
		}

		if !removed {
			return ErrNotShortlisted
		}

		metrics.ShortlistChanges.WithLabelValues("remove").Inc()
		s.log.Info("removed from shortlist",
			zap.String("request_id", id.String()),
			zap.String("csr_id", csrID.String()),
		)

		return nil
	})
}

// Transition applies a status change requested through the generic update
// endpoint.
func (s *RequestService) Transition(ctx context.Context, id uuid.UUID, to models.RequestStatus, assignTo *uuid.UUID) error {
	switch to {
	case models.RequestStatusAssigned:
		_, err := s.Assign(ctx, id, assignTo)
		return err
	case models.RequestStatusCompleted:
		return s.Complete(ctx, id)
	case models.RequestStatusPending:
		req, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}
		return errInvalidTransition(req.Status, to)
	default:
		return ErrInvalidStatus
	}
}

// Assign binds one shortlisted CSR to a pending request and clears the
// shortlist. With a nil csrID the CSR is picked uniformly at random.
func (s *RequestService) Assign(ctx context.Context, id uuid.UUID, csrID *uuid.UUID) (uuid.UUID, error) {
	var assignee uuid.UUID

	err := s.trManager.Do(ctx, func(ctx context.Context) error {
		req, err := s.lock(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != models.RequestStatusPending {
			return errInvalidTransition(req.Status, models.RequestStatusAssigned)
		}

		if len(req.Shortlist) == 0 {
			return ErrNoShortlistees
		}

		if csrID != nil {
			if !req.IsShortlisted(*csrID) {
				s.log.Warn("assignee not on shortlist",
					zap.String("request_id", id.String()),
					zap.String("csr_id", csrID.String()),
				)
				return ErrCSRUnavailable
			}
			assignee = *csrID
		} else {
			assignee = req.Shortlist[s.pick(len(req.Shortlist))].CSRID
		}

		if err := s.requestRepo.Assign(ctx, id, assignee); err != nil {
			return s.notFoundOr(err, "failed to assign request", id)
		}

		if err := s.requestRepo.ClearShortlist(ctx, id); err != nil {
			s.log.Error("failed to clear shortlist",
				zap.Error(err),
				zap.String("request_id", id.String()),
			)
			return err
		}

		return nil
	})
	if err != nil {
		return uuid.Nil, err
	}

	metrics.RequestTransitions.WithLabelValues(string(models.RequestStatusAssigned)).Inc()
	s.log.Info("request assigned",
		zap.String("request_id", id.String()),
		zap.String("csr_id", assignee.String()),
	)

	return assignee, nil
}

func (s *RequestService) Complete(ctx context.Context, id uuid.UUID) error {
	err := s.trManager.Do(ctx, func(ctx context.Context) error {
		req, err := s.lock(ctx, id)
		if err != nil {
			return err
		}

		if req.Status != models.RequestStatusAssigned {
			return errInvalidTransition(req.Status, models.RequestStatusCompleted)
		}

		completedAt, err := s.requestRepo.Complete(ctx, id)
		if err != nil {
			return s.notFoundOr(err, "failed to complete request", id)
		}

		s.log.Info("request completed",
			zap.String("request_id", id.String()),
			zap.Time("completed_at", completedAt),
		)

		return nil
	})
	if err != nil {
		return err
	}

	metrics.RequestTransitions.WithLabelValues(string(models.RequestStatusCompleted)).Inc()
	return nil
}

// RecordView bumps the view counter. It is independent of the request status.
func (s *RequestService) RecordView(ctx context.Context, id uuid.UUID) error {
	if err := s.requestRepo.IncrementView(ctx, id); err != nil {
		return s.notFoundOr(err, "failed to record view", id)
	}

	metrics.RequestViews.Inc()
	return nil
}

func (s *RequestService) lock(ctx context.Context, id uuid.UUID) (*models.Request, error) {
	req, err := s.requestRepo.GetByIDForUpdate(ctx, id)
	if err != nil {
		return nil, s.notFoundOr(err, "failed to get request", id)
	}
	return req, nil
}

func (s *RequestService) checkCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}

	if _, err := s.categories.GetByID(ctx, *categoryID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errCategoryMissing(*categoryID)
		}
		s.log.Error("failed to get category",
			zap.Error(err),
			zap.String("category_id", categoryID.String()),
		)
		return err
	}

	return nil
}

func (s *RequestService) notFoundOr(err error, msg string, id uuid.UUID) error {
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn("request not found",
			zap.String("request_id", id.String()),
		)
		return ErrRequestNotFound
	}

	s.log.Error(msg,
		zap.Error(err),
		zap.String("request_id", id.String()),
	)
	return err
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
