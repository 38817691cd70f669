package handler

import (
	"errors"
	"net/http"

	"case-service/internal/api"
	"case-service/internal/metrics"
	"case-service/internal/models"
	"case-service/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CaseHandler answers mutations with a literal true on success and a JSON
// string on a logical failure, both with status 200.
type CaseHandler struct {
	requestService  *service.RequestService
	categoryService *service.CategoryService
	log             *zap.Logger
}

var _ api.ServerInterface = (*CaseHandler)(nil)

func NewCaseHandler(requestService *service.RequestService, categoryService *service.CategoryService, log *zap.Logger) *CaseHandler {
	return &CaseHandler{
		requestService:  requestService,
		categoryService: categoryService,
		log:             log,
	}
}

func ok(c echo.Context) error {
	return c.JSON(http.StatusOK, true)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, msg)
}

// fail maps a service error to the response the client expects.
func (h *CaseHandler) fail(c echo.Context, err error) error {
	var logical *service.LogicalError
	if errors.As(err, &logical) {
		metrics.LogicalFailures.WithLabelValues(c.Path()).Inc()
		return c.JSON(http.StatusOK, logical.Message)
	}

	h.log.Error("request failed",
		zap.Error(err),
		zap.String("method", c.Request().Method),
		zap.String("path", c.Path()),
	)
	return c.JSON(http.StatusInternalServerError, "internal error")
}

func parseOptionalID(raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toAPIRequest(req *models.Request, viewer *uuid.UUID) api.Request {
	resp := api.Request{
		Id:                req.ID.String(),
		PinUserId:         req.PinUserID.String(),
		Title:             req.Title,
		Description:       req.Description,
		Status:            api.RequestStatus(req.Status),
		CategoryId:        idString(req.CategoryID),
		CategoryName:      req.CategoryName,
		AssignedTo:        idString(req.AssignedTo),
		Shortlist:         make([]string, 0, len(req.Shortlist)),
		ShortlisteesCount: len(req.Shortlist),
		View:              req.ViewCount,
		CreatedAt:         req.CreatedAt,
		UpdatedAt:         req.UpdatedAt,
		CompletedAt:       req.CompletedAt,
	}

	for _, s := range req.Shortlist {
		resp.Shortlist = append(resp.Shortlist, s.CSRID.String())
	}

	if viewer != nil {
		mine := req.IsShortlisted(*viewer)
		resp.MyShortlisted = &mine
	}

	return resp
}

func toAPIRequests(requests []*models.Request, viewer *uuid.UUID) []api.Request {
	resp := make([]api.Request, 0, len(requests))
	for _, req := range requests {
		resp = append(resp, toAPIRequest(req, viewer))
	}
	return resp
}

func toAPICategory(c *models.Category) api.Category {
	return api.Category{
		Id:        c.ID.String(),
		Name:      c.Name,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
