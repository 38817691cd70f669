// Package api holds the wire types of the case-service HTTP API and the echo
// glue that binds path and query parameters before calling a ServerInterface.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAssigned  RequestStatus = "assigned"
	RequestStatusCompleted RequestStatus = "completed"
)

// StatusShortlisted is accepted only as a list filter, together with csr_id.
const StatusShortlisted = "shortlisted"

type Request struct {
	Id                string        `json:"id"`
	PinUserId         string        `json:"pin_user_id"`
	Title             string        `json:"title"`
	Description       *string       `json:"description"`
	Status            RequestStatus `json:"status"`
	CategoryId        *string       `json:"category_id"`
	CategoryName      *string       `json:"category_name"`
	AssignedTo        *string       `json:"assigned_to"`
	Shortlist         []string      `json:"shortlist"`
	ShortlisteesCount int           `json:"shortlistees_count"`
	MyShortlisted     *bool         `json:"my_shortlisted,omitempty"`
	View              int64         `json:"view"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
	CompletedAt       *time.Time    `json:"completed_at"`
}

type Category struct {
	Id        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateRequestJSONBody struct {
	PinUserId   string  `json:"pin_user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	CategoryId  *string `json:"category_id,omitempty"`
}

// UpdateRequestJSONBody is either a transition (status, assigned_to) or an
// edit (title, description, category_id). An empty category_id or description
// clears the field.
type UpdateRequestJSONBody struct {
	Status      *string `json:"status,omitempty"`
	AssignedTo  *string `json:"assigned_to,omitempty"`
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	CategoryId  *string `json:"category_id,omitempty"`
}

type ShortlistJSONBody struct {
	CsrId string `json:"csr_id"`
}

type CategoryJSONBody struct {
	Name string `json:"name"`
}

type ListRequestsParams struct {
	Status   *string    `form:"status,omitempty" json:"status,omitempty"`
	Q        *string    `form:"q,omitempty" json:"q,omitempty"`
	Category *string    `form:"category,omitempty" json:"category,omitempty"`
	Owner    *string    `form:"owner,omitempty" json:"owner,omitempty"`
	CsrId    *string    `form:"csr_id,omitempty" json:"csr_id,omitempty"`
	From     *time.Time `form:"from,omitempty" json:"from,omitempty"`
	To       *time.Time `form:"to,omitempty" json:"to,omitempty"`
	Offset   *int       `form:"offset,omitempty" json:"offset,omitempty"`
	Limit    *int       `form:"limit,omitempty" json:"limit,omitempty"`
}

type SearchRequestsParams struct {
	Q     *string `form:"q,omitempty" json:"q,omitempty"`
	CsrId *string `form:"csr_id,omitempty" json:"csr_id,omitempty"`
}

type RemoveShortlistParams struct {
	CsrId string `form:"csr_id" json:"csr_id"`
}

type SearchCategoriesParams struct {
	Q *string `form:"q,omitempty" json:"q,omitempty"`
}

type ServerInterface interface {
	// (GET /requests)
	ListRequests(ctx echo.Context, params ListRequestsParams) error
	// (GET /requests/search)
	SearchRequests(ctx echo.Context, params SearchRequestsParams) error
	// (POST /requests)
	CreateRequest(ctx echo.Context) error
	// (GET /requests/{id})
	GetRequest(ctx echo.Context, id string) error
	// (PUT /requests/{id})
	UpdateRequest(ctx echo.Context, id string) error
	// (DELETE /requests/{id})
	DeleteRequest(ctx echo.Context, id string) error
	// (POST /requests/{id}/shortlist)
	AddShortlist(ctx echo.Context, id string) error
	// (DELETE /requests/{id}/shortlist)
	RemoveShortlist(ctx echo.Context, id string, params RemoveShortlistParams) error
	// (POST /requests/{id}/view)
	RecordView(ctx echo.Context, id string) error
	// (GET /categories)
	ListCategories(ctx echo.Context) error
	// (GET /categories/search)
	SearchCategories(ctx echo.Context, params SearchCategoriesParams) error
	// (POST /categories)
	CreateCategory(ctx echo.Context) error
	// (PUT /categories/{id})
	RenameCategory(ctx echo.Context, id string) error
	// (DELETE /categories/{id})
	DeleteCategory(ctx echo.Context, id string) error
}

// ServerInterfaceWrapper converts echo contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func bindPathID(ctx echo.Context) (string, error) {
	var id string

	err := runtime.BindStyledParameterWithOptions("simple", "id", ctx.Param("id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter id: %s", err))
	}

	return id, nil
}

func bindQuery(ctx echo.Context, name string, required bool, dest any) error {
	err := runtime.BindQueryParameter("form", true, required, name, ctx.QueryParams(), dest)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid format for parameter %s: %s", name, err))
	}
	return nil
}

func (w *ServerInterfaceWrapper) ListRequests(ctx echo.Context) error {
	var params ListRequestsParams

	if err := bindQuery(ctx, "status", false, &params.Status); err != nil {
		return err
	}
	if err := bindQuery(ctx, "q", false, &params.Q); err != nil {
		return err
	}
	if err := bindQuery(ctx, "category", false, &params.Category); err != nil {
		return err
	}
	if err := bindQuery(ctx, "owner", false, &params.Owner); err != nil {
		return err
	}
	if err := bindQuery(ctx, "csr_id", false, &params.CsrId); err != nil {
		return err
	}
	if err := bindQuery(ctx, "from", false, &params.From); err != nil {
		return err
	}
	if err := bindQuery(ctx, "to", false, &params.To); err != nil {
		return err
	}
	if err := bindQuery(ctx, "offset", false, &params.Offset); err != nil {
		return err
	}
	if err := bindQuery(ctx, "limit", false, &params.Limit); err != nil {
		return err
	}

	return w.Handler.ListRequests(ctx, params)
}

func (w *ServerInterfaceWrapper) SearchRequests(ctx echo.Context) error {
	var params SearchRequestsParams

	if err := bindQuery(ctx, "q", false, &params.Q); err != nil {
		return err
	}
	if err := bindQuery(ctx, "csr_id", false, &params.CsrId); err != nil {
		return err
	}

	return w.Handler.SearchRequests(ctx, params)
}

func (w *ServerInterfaceWrapper) CreateRequest(ctx echo.Context) error {
	return w.Handler.CreateRequest(ctx)
}

func (w *ServerInterfaceWrapper) GetRequest(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.GetRequest(ctx, id)
}

func (w *ServerInterfaceWrapper) UpdateRequest(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.UpdateRequest(ctx, id)
}

func (w *ServerInterfaceWrapper) DeleteRequest(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteRequest(ctx, id)
}

func (w *ServerInterfaceWrapper) AddShortlist(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.AddShortlist(ctx, id)
}

func (w *ServerInterfaceWrapper) RemoveShortlist(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}

	var params RemoveShortlistParams
	if err := bindQuery(ctx, "csr_id", true, &params.CsrId); err != nil {
		return err
	}

	return w.Handler.RemoveShortlist(ctx, id, params)
}

func (w *ServerInterfaceWrapper) RecordView(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RecordView(ctx, id)
}

func (w *ServerInterfaceWrapper) ListCategories(ctx echo.Context) error {
	return w.Handler.ListCategories(ctx)
}

func (w *ServerInterfaceWrapper) SearchCategories(ctx echo.Context) error {
	var params SearchCategoriesParams

	if err := bindQuery(ctx, "q", false, &params.Q); err != nil {
		return err
	}

	return w.Handler.SearchCategories(ctx, params)
}

func (w *ServerInterfaceWrapper) CreateCategory(ctx echo.Context) error {
	return w.Handler.CreateCategory(ctx)
}

func (w *ServerInterfaceWrapper) RenameCategory(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.RenameCategory(ctx, id)
}

func (w *ServerInterfaceWrapper) DeleteCategory(ctx echo.Context) error {
	id, err := bindPathID(ctx)
	if err != nil {
		return err
	}
	return w.Handler.DeleteCategory(ctx, id)
}

// EchoRouter is satisfied by both *echo.Echo and *echo.Group.
type EchoRouter interface {
	CONNECT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	DELETE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	GET(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	HEAD(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	OPTIONS(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PATCH(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	POST(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	PUT(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
	TRACE(path string, h echo.HandlerFunc, m ...echo.MiddlewareFunc) *echo.Route
}

func RegisterHandlers(router EchoRouter, si ServerInterface) {
	RegisterHandlersWithBaseURL(router, si, "")
}

func RegisterHandlersWithBaseURL(router EchoRouter, si ServerInterface, baseURL string) {
	w := ServerInterfaceWrapper{
		Handler: si,
	}

	router.GET(baseURL+"/requests", w.ListRequests)
	router.GET(baseURL+"/requests/search", w.SearchRequests)
	router.POST(baseURL+"/requests", w.CreateRequest)
	router.GET(baseURL+"/requests/:id", w.GetRequest)
	router.PUT(baseURL+"/requests/:id", w.UpdateRequest)
	router.DELETE(baseURL+"/requests/:id", w.DeleteRequest)
	router.POST(baseURL+"/requests/:id/shortlist", w.AddShortlist)
	router.DELETE(baseURL+"/requests/:id/shortlist", w.RemoveShortlist)
	router.POST(baseURL+"/requests/:id/view", w.RecordView)
	router.GET(baseURL+"/categories", w.ListCategories)
	router.GET(baseURL+"/categories/search", w.SearchCategories)
	router.POST(baseURL+"/categories", w.CreateCategory)
	router.PUT(baseURL+"/categories/:id", w.RenameCategory)
	router.DELETE(baseURL+"/categories/:id", w.DeleteCategory)
}
