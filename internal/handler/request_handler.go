package handler

import (
	"net/http"
	"strings"

	"case-service/internal/api"
	"case-service/internal/models"
	"case-service/internal/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const maxPageSize = 100

func (h *CaseHandler) ListRequests(c echo.Context, params api.ListRequestsParams) error {
	f := models.RequestFilter{}

	csrID, err := parseOptionalID(params.CsrId)
	if err != nil {
		return badRequest(c, "invalid csr_id")
	}
	f.CSRID = csrID

	if params.Status != nil && *params.Status != "" {
		if *params.Status == api.StatusShortlisted {
			if csrID == nil {
				return badRequest(c, "csr_id is required for the shortlisted filter")
			}
			f.Scope = models.ScopeShortlisted
		} else {
			status := models.RequestStatus(*params.Status)
			if !status.Valid() {
				return h.fail(c, service.ErrInvalidStatus)
			}
			f.Status = &status
		}
	}

	if f.CategoryID, err = parseOptionalID(params.Category); err != nil {
		return badRequest(c, "invalid category")
	}
	if f.PinUserID, err = parseOptionalID(params.Owner); err != nil {
		return badRequest(c, "invalid owner")
	}
	if params.Q != nil {
		f.Query = strings.TrimSpace(*params.Q)
	}
	f.From = params.From
	f.To = params.To

	if params.Offset != nil {
		if *params.Offset < 0 {
			return badRequest(c, "invalid offset")
		}
		f.Offset = uint64(*params.Offset)
	}
	f.Limit = maxPageSize
	if params.Limit != nil {
		if *params.Limit < 0 {
			return badRequest(c, "invalid limit")
		}
		if *params.Limit > 0 {
			f.Limit = uint64(min(*params.Limit, maxPageSize))
		}
	}

	requests, err := h.requestService.ListRequests(c.Request().Context(), f)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, toAPIRequests(requests, csrID))
}

func (h *CaseHandler) SearchRequests(c echo.Context, params api.SearchRequestsParams) error {
	csrID, err := parseOptionalID(params.CsrId)
	if err != nil {
		return badRequest(c, "invalid csr_id")
	}

	query := ""
	if params.Q != nil {
		query = *params.Q
	}

	requests, err := h.requestService.SearchRequests(c.Request().Context(), query)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, toAPIRequests(requests, csrID))
}

func (h *CaseHandler) CreateRequest(c echo.Context) error {
	body := api.CreateRequestJSONBody{}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad request")
	}

	pinUserID, err := uuid.Parse(body.PinUserId)
	if err != nil {
		return badRequest(c, "invalid pin_user_id")
	}

	categoryID, err := parseOptionalID(body.CategoryId)
	if err != nil {
		return badRequest(c, "invalid category_id")
	}

	req := &models.Request{
		PinUserID:   pinUserID,
		Title:       body.Title,
		Description: body.Description,
		CategoryID:  categoryID,
	}

	if err := h.requestService.CreateRequest(c.Request().Context(), req); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func (h *CaseHandler) GetRequest(c echo.Context, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	req, err := h.requestService.GetRequest(c.Request().Context(), requestID)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, toAPIRequest(req, nil))
}

func (h *CaseHandler) UpdateRequest(c echo.Context, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	body := api.UpdateRequestJSONBody{}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad request")
	}

	ctx := c.Request().Context()

	if body.Status != nil {
		assignTo, err := parseOptionalID(body.AssignedTo)
		if err != nil {
			return badRequest(c, "invalid assigned_to")
		}

		if err := h.requestService.Transition(ctx, requestID, models.RequestStatus(*body.Status), assignTo); err != nil {
			return h.fail(c, err)
		}
		return ok(c)
	}

	current, err := h.requestService.GetRequest(ctx, requestID)
	if err != nil {
		return h.fail(c, err)
	}

	edit := models.RequestEdit{
		Title:       current.Title,
		Description: current.Description,
		CategoryID:  current.CategoryID,
	}
	if body.Title != nil {
		edit.Title = *body.Title
	}
	if body.Description != nil {
		edit.Description = body.Description
	}
	if body.CategoryId != nil {
		if edit.CategoryID, err = parseOptionalID(body.CategoryId); err != nil {
			return badRequest(c, "invalid category_id")
		}
	}

	if err := h.requestService.EditRequest(ctx, requestID, edit); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func (h *CaseHandler) DeleteRequest(c echo.Context, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	if err := h.requestService.DeleteRequest(c.Request().Context(), requestID); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func (h *CaseHandler) AddShortlist(c echo.Context, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	body := api.ShortlistJSONBody{}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad request")
	}

	csrID, err := uuid.Parse(body.CsrId)
	if err != nil {
		return badRequest(c, "invalid csr_id")
	}

	if err := h.requestService.AddToShortlist(c.Request().Context(), requestID, csrID); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func (h *CaseHandler) RemoveShortlist(c echo.Context, id string, params api.RemoveShortlistParams) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	csrID, err := uuid.Parse(params.CsrId)
	if err != nil {
		return badRequest(c, "invalid csr_id")
	}

	if err := h.requestService.RemoveFromShortlist(c.Request().Context(), requestID, csrID); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func (h *CaseHandler) RecordView(c echo.Context, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	if err := h.requestService.RecordView(c.Request().Context(), requestID); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}
