package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"case-service/internal/mocks"
	"case-service/internal/models"
	"case-service/internal/repository"
	"case-service/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func pendingRequest(id uuid.UUID, shortlist ...uuid.UUID) *models.Request {
	req := &models.Request{
		ID:        id,
		PinUserID: uuid.New(),
		Title:     "Need groceries",
		Status:    models.RequestStatusPending,
		Shortlist: make([]*models.Shortlistee, 0, len(shortlist)),
	}
	for _, csrID := range shortlist {
		req.Shortlist = append(req.Shortlist, &models.Shortlistee{CSRID: csrID, RequestID: id})
	}
	return req
}

func TestRequestService_CreateRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)

	svc := service.NewRequestService(requestRepo, categories, service.TxManagerStub{}, zap.NewNop())

	ctx := t.Context()
	categoryID := uuid.New()

	t.Run("blank title", func(t *testing.T) {
		err := svc.CreateRequest(ctx, &models.Request{PinUserID: uuid.New(), Title: "   "})
		require.ErrorIs(t, err, service.ErrEmptyTitle)
	})

	t.Run("unknown category", func(t *testing.T) {
		categories.EXPECT().
			GetByID(ctx, categoryID).
			Return(nil, repository.ErrNotFound)

		err := svc.CreateRequest(ctx, &models.Request{PinUserID: uuid.New(), Title: "Ride", CategoryID: &categoryID})
		require.Error(t, err)
		require.True(t, service.IsLogical(err))
		require.Equal(t, "Category with ID "+categoryID.String()+" does not exist", err.Error())
	})

	t.Run("repository fails", func(t *testing.T) {
		requestRepo.EXPECT().
			Create(ctx, gomock.Any()).
			Return(errors.New("db error"))

		err := svc.CreateRequest(ctx, &models.Request{PinUserID: uuid.New(), Title: "Ride"})
		require.Error(t, err)
		require.False(t, service.IsLogical(err))
	})

	t.Run("success", func(t *testing.T) {
		desc := "  "
		req := &models.Request{
			PinUserID:   uuid.New(),
			Title:       "  Ride to clinic ",
			Description: &desc,
			CategoryID:  &categoryID,
			Status:      models.RequestStatusCompleted,
		}

		categories.EXPECT().
			GetByID(ctx, categoryID).
			Return(&models.Category{ID: categoryID, Name: "Transport"}, nil)
		requestRepo.EXPECT().
			Create(ctx, req).
			Return(nil)

		err := svc.CreateRequest(ctx, req)
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, req.ID)
		require.Equal(t, "Ride to clinic", req.Title)
		require.Nil(t, req.Description)
		require.Equal(t, models.RequestStatusPending, req.Status)
		require.Nil(t, req.AssignedTo)
		require.Empty(t, req.Shortlist)
	})
}

func TestRequestService_EditAndDelete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)

	svc := service.NewRequestService(requestRepo, categories, service.TxManagerStub{}, zap.NewNop())

	ctx := t.Context()
	id := uuid.New()

	t.Run("edit not found", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(nil, repository.ErrNotFound)

		err := svc.EditRequest(ctx, id, models.RequestEdit{Title: "x"})
		require.ErrorIs(t, err, service.ErrRequestNotFound)
	})

	t.Run("edit assigned request", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusAssigned
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(req, nil)

		err := svc.EditRequest(ctx, id, models.RequestEdit{Title: "x"})
		require.EqualError(t, err, "Cannot update a 'assigned' request")
	})

	t.Run("edit blank title", func(t *testing.T) {
		err := svc.EditRequest(ctx, id, models.RequestEdit{Title: ""})
		require.ErrorIs(t, err, service.ErrEmptyTitle)
	})

	t.Run("edit success", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id), nil)
		requestRepo.EXPECT().
			Update(ctx, id, models.RequestEdit{Title: "New title"}).
			Return(nil)

		err := svc.EditRequest(ctx, id, models.RequestEdit{Title: " New title "})
		require.NoError(t, err)
	})

	t.Run("delete completed request", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusCompleted
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(req, nil)

		err := svc.DeleteRequest(ctx, id)
		require.EqualError(t, err, "Cannot delete a 'completed' request")
	})

	t.Run("delete success", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id), nil)
		requestRepo.EXPECT().
			Delete(ctx, id).
			Return(nil)

		require.NoError(t, svc.DeleteRequest(ctx, id))
	})
}

func TestRequestService_Shortlist(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)

	svc := service.NewRequestService(requestRepo, categories, service.TxManagerStub{}, zap.NewNop())

	ctx := t.Context()
	id := uuid.New()
	csrID := uuid.New()

	t.Run("add to assigned request", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusAssigned
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(req, nil)

		err := svc.AddToShortlist(ctx, id, csrID)
		require.ErrorIs(t, err, service.ErrNotShortlistable)
	})

	t.Run("add twice", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id, csrID), nil)
		requestRepo.EXPECT().
			AddShortlistee(ctx, id, csrID).
			Return(false, nil)

		err := svc.AddToShortlist(ctx, id, csrID)
		require.ErrorIs(t, err, service.ErrAlreadyShortlisted)
		require.Equal(t, "Request already shortlisted", err.Error())
	})

	t.Run("add success", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id), nil)
		requestRepo.EXPECT().
			AddShortlistee(ctx, id, csrID).
			Return(true, nil)

		require.NoError(t, svc.AddToShortlist(ctx, id, csrID))
	})

	t.Run("remove absent", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id), nil)
		requestRepo.EXPECT().
			RemoveShortlistee(ctx, id, csrID).
			Return(false, nil)

		err := svc.RemoveFromShortlist(ctx, id, csrID)
		require.ErrorIs(t, err, service.ErrNotShortlisted)
	})

	t.Run("remove success", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id, csrID), nil)
		requestRepo.EXPECT().
			RemoveShortlistee(ctx, id, csrID).
			Return(true, nil)

		require.NoError(t, svc.RemoveFromShortlist(ctx, id, csrID))
	})
}

func TestRequestService_Assign(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)

	svc := service.NewRequestService(
		requestRepo,
		categories,
		service.TxManagerStub{},
		zap.NewNop(),
		service.WithPicker(func(n int) int { return n - 1 }),
	)

	ctx := t.Context()
	id := uuid.New()
	c1, c2 := uuid.New(), uuid.New()

	t.Run("not pending", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusAssigned
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(req, nil)

		_, err := svc.Assign(ctx, id, nil)
		require.EqualError(t, err, "Cannot move a 'assigned' request to 'assigned'")
	})

	t.Run("empty shortlist", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id), nil)

		_, err := svc.Assign(ctx, id, nil)
		require.ErrorIs(t, err, service.ErrNoShortlistees)
	})

	t.Run("csr not on shortlist", func(t *testing.T) {
		stranger := uuid.New()
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id, c1, c2), nil)

		_, err := svc.Assign(ctx, id, &stranger)
		require.ErrorIs(t, err, service.ErrCSRUnavailable)
		require.Equal(t, "CSR no longer available", err.Error())
	})

	t.Run("given csr", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id, c1, c2), nil)
		requestRepo.EXPECT().
			Assign(ctx, id, c1).
			Return(nil)
		requestRepo.EXPECT().
			ClearShortlist(ctx, id).
			Return(nil)

		assignee, err := svc.Assign(ctx, id, &c1)
		require.NoError(t, err)
		require.Equal(t, c1, assignee)
	})

	t.Run("picked csr", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id, c1, c2), nil)
		requestRepo.EXPECT().
			Assign(ctx, id, c2).
			Return(nil)
		requestRepo.EXPECT().
			ClearShortlist(ctx, id).
			Return(nil)

		assignee, err := svc.Assign(ctx, id, nil)
		require.NoError(t, err)
		require.Equal(t, c2, assignee)
	})

	t.Run("clear shortlist fails", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id, c1), nil)
		requestRepo.EXPECT().
			Assign(ctx, id, c1).
			Return(nil)
		requestRepo.EXPECT().
			ClearShortlist(ctx, id).
			Return(errors.New("db error"))

		assignee, err := svc.Assign(ctx, id, nil)
		require.Error(t, err)
		require.Equal(t, uuid.Nil, assignee)
	})
}

func TestRequestService_AssignUsesTransaction(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)
	trManager := mocks.NewMockTxManager(ctrl)

	svc := service.NewRequestService(requestRepo, categories, trManager, zap.NewNop())

	ctx := t.Context()
	id := uuid.New()

	trManager.EXPECT().
		Do(ctx, gomock.Any()).
		Return(errors.New("tx error"))

	_, err := svc.Assign(ctx, id, nil)
	require.EqualError(t, err, "tx error")
}

func TestRequestService_Complete(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)

	svc := service.NewRequestService(requestRepo, categories, service.TxManagerStub{}, zap.NewNop())

	ctx := t.Context()
	id := uuid.New()

	t.Run("pending cannot be completed", func(t *testing.T) {
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(pendingRequest(id), nil)

		err := svc.Complete(ctx, id)
		require.EqualError(t, err, "Cannot move a 'pending' request to 'completed'")
	})

	t.Run("completed is terminal", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusCompleted
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(req, nil)

		require.Error(t, svc.Complete(ctx, id))
	})

	t.Run("success", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusAssigned
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(req, nil)
		requestRepo.EXPECT().
			Complete(ctx, id).
			Return(time.Now(), nil)

		require.NoError(t, svc.Complete(ctx, id))
	})
}

func TestRequestService_Transition(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)

	svc := service.NewRequestService(requestRepo, categories, service.TxManagerStub{}, zap.NewNop())

	ctx := t.Context()
	id := uuid.New()

	t.Run("unknown status", func(t *testing.T) {
		err := svc.Transition(ctx, id, models.RequestStatus("archived"), nil)
		require.ErrorIs(t, err, service.ErrInvalidStatus)
	})

	t.Run("back to pending", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusAssigned
		requestRepo.EXPECT().
			GetByID(ctx, id).
			Return(req, nil)

		err := svc.Transition(ctx, id, models.RequestStatusPending, nil)
		require.EqualError(t, err, "Cannot move a 'assigned' request to 'pending'")
	})

	t.Run("complete", func(t *testing.T) {
		req := pendingRequest(id)
		req.Status = models.RequestStatusAssigned
		requestRepo.EXPECT().
			GetByIDForUpdate(ctx, id).
			Return(req, nil)
		requestRepo.EXPECT().
			Complete(ctx, id).
			Return(time.Now(), nil)

		require.NoError(t, svc.Transition(ctx, id, models.RequestStatusCompleted, nil))
	})
}

func TestRequestService_RecordView(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	requestRepo := mocks.NewMockRequestRepository(ctrl)
	categories := mocks.NewMockCategoryLookup(ctrl)

	svc := service.NewRequestService(requestRepo, categories, service.TxManagerStub{}, zap.NewNop())

	ctx := context.Background()
	id := uuid.New()

	t.Run("not found", func(t *testing.T) {
		requestRepo.EXPECT().
			IncrementView(ctx, id).
			Return(repository.ErrNotFound)

		require.ErrorIs(t, svc.RecordView(ctx, id), service.ErrRequestNotFound)
	})

	t.Run("success", func(t *testing.T) {
		requestRepo.EXPECT().
			IncrementView(ctx, id).
			Return(nil)

		require.NoError(t, svc.RecordView(ctx, id))
	})
}
