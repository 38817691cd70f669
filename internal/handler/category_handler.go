package handler

import (
	"net/http"

	"case-service/internal/api"
	"case-service/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func (h *CaseHandler) ListCategories(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, toAPICategories(categories))
}

func (h *CaseHandler) SearchCategories(c echo.Context, params api.SearchCategoriesParams) error {
	query := ""
	if params.Q != nil {
		query = *params.Q
	}

	categories, err := h.categoryService.SearchCategories(c.Request().Context(), query)
	if err != nil {
		return h.fail(c, err)
	}

	return c.JSON(http.StatusOK, toAPICategories(categories))
}

func (h *CaseHandler) CreateCategory(c echo.Context) error {
	body := api.CategoryJSONBody{}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad request")
	}

	if _, err := h.categoryService.CreateCategory(c.Request().Context(), body.Name); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func (h *CaseHandler) RenameCategory(c echo.Context, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	body := api.CategoryJSONBody{}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "bad request")
	}

	if err := h.categoryService.RenameCategory(c.Request().Context(), categoryID, body.Name); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func (h *CaseHandler) DeleteCategory(c echo.Context, id string) error {
	categoryID, err := uuid.Parse(id)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	if err := h.categoryService.DeleteCategory(c.Request().Context(), categoryID); err != nil {
		return h.fail(c, err)
	}

	return ok(c)
}

func toAPICategories(categories []*models.Category) []api.Category {
	resp := make([]api.Category, 0, len(categories))
	for _, c := range categories {
		resp = append(resp, toAPICategory(c))
	}
	return resp
}
