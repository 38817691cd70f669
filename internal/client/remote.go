//go:generate mockgen -source=remote.go -destination=../mocks/remote.go -package=mocks .

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Remote is the authoritative request store. Mutations return nil on success,
// a *LogicalFailure on a logical rejection and a transport or HTTP error
// otherwise.
type Remote interface {
	List(ctx context.Context, f Filter, offset, limit int) ([]Request, error)
	Search(ctx context.Context, query string, csrID *uuid.UUID) ([]Request, error)
	Get(ctx context.Context, id uuid.UUID) (*Request, error)
	Create(ctx context.Context, requesterID uuid.UUID, req NewRequest) error
	Edit(ctx context.Context, id uuid.UUID, edit Edit) error
	Transition(ctx context.Context, id uuid.UUID, to Status, assignTo *uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddShortlist(ctx context.Context, id, csrID uuid.UUID) error
	RemoveShortlist(ctx context.Context, id, csrID uuid.UUID) error
	RecordView(ctx context.Context, id uuid.UUID) error
}

const maxBodySize = 4 << 20

type HTTPRemote struct {
	baseURL string
	client  *http.Client
}

var _ Remote = (*HTTPRemote)(nil)

type HTTPRemoteOption func(*HTTPRemote)

func WithHTTPClient(c *http.Client) HTTPRemoteOption {
	return func(r *HTTPRemote) {
		r.client = c
	}
}

// NewHTTPRemote talks to the API mounted at baseURL, e.g.
// http://localhost:8080/api.
func NewHTTPRemote(baseURL string, opts ...HTTPRemoteOption) *HTTPRemote {
	r := &HTTPRemote{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func (r *HTTPRemote) List(ctx context.Context, f Filter, offset, limit int) ([]Request, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", f.Status)
	}
	if f.Query != "" {
		q.Set("q", f.Query)
	}
	setID(q, "category", f.CategoryID)
	setID(q, "owner", f.OwnerID)
	setID(q, "csr_id", f.CSRID)
	if f.From != nil {
		q.Set("from", f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		q.Set("to", f.To.UTC().Format(time.RFC3339))
	}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(limit))

	body, err := r.do(ctx, http.MethodGet, "/requests", q, nil)
	if err != nil {
		return nil, err
	}

	requests := make([]Request, 0)
	if err := decodeResult(body, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *HTTPRemote) Search(ctx context.Context, query string, csrID *uuid.UUID) ([]Request, error) {
	q := url.Values{}
	q.Set("q", query)
	setID(q, "csr_id", csrID)

	body, err := r.do(ctx, http.MethodGet, "/requests/search", q, nil)
	if err != nil {
		return nil, err
	}

	requests := make([]Request, 0)
	if err := decodeResult(body, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *HTTPRemote) Get(ctx context.Context, id uuid.UUID) (*Request, error) {
	body, err := r.do(ctx, http.MethodGet, "/requests/"+id.String(), nil, nil)
	if err != nil {
		return nil, err
	}

	req := &Request{}
	if err := decodeResult(body, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *HTTPRemote) Create(ctx context.Context, requesterID uuid.UUID, req NewRequest) error {
	payload := map[string]any{
		"pin_user_id": requesterID.String(),
		"title":       req.Title,
	}
	if req.Description != nil {
		payload["description"] = *req.Description
	}
	if req.CategoryID != nil {
		payload["category_id"] = req.CategoryID.String()
	}

	return r.mutate(ctx, http.MethodPost, "/requests", nil, payload)
}

func (r *HTTPRemote) Edit(ctx context.Context, id uuid.UUID, edit Edit) error {
	payload := map[string]any{
		"title":       edit.Title,
		"description": "",
		"category_id": "",
	}
	if edit.Description != nil {
		payload["description"] = *edit.Description
	}
	if edit.CategoryID != nil {
		payload["category_id"] = edit.CategoryID.String()
	}

	return r.mutate(ctx, http.MethodPut, "/requests/"+id.String(), nil, payload)
}

func (r *HTTPRemote) Transition(ctx context.Context, id uuid.UUID, to Status, assignTo *uuid.UUID) error {
	payload := map[string]any{
		"status": string(to),
	}
	if assignTo != nil {
		payload["assigned_to"] = assignTo.String()
	}

	return r.mutate(ctx, http.MethodPut, "/requests/"+id.String(), nil, payload)
}

func (r *HTTPRemote) Delete(ctx context.Context, id uuid.UUID) error {
	return r.mutate(ctx, http.MethodDelete, "/requests/"+id.String(), nil, nil)
}

func (r *HTTPRemote) AddShortlist(ctx context.Context, id, csrID uuid.UUID) error {
	payload := map[string]any{
		"csr_id": csrID.String(),
	}
	return r.mutate(ctx, http.MethodPost, "/requests/"+id.String()+"/shortlist", nil, payload)
}

func (r *HTTPRemote) RemoveShortlist(ctx context.Context, id, csrID uuid.UUID) error {
	q := url.Values{}
	q.Set("csr_id", csrID.String())
	return r.mutate(ctx, http.MethodDelete, "/requests/"+id.String()+"/shortlist", q, nil)
}

func (r *HTTPRemote) RecordView(ctx context.Context, id uuid.UUID) error {
	return r.mutate(ctx, http.MethodPost, "/requests/"+id.String()+"/view", nil, nil)
}

func (r *HTTPRemote) mutate(ctx context.Context, method, path string, q url.Values, payload any) error {
	body, err := r.do(ctx, method, path, q, payload)
	if err != nil {
		return err
	}

	outcome, err := DecodeOutcome(body)
	if err != nil {
		return err
	}
	return outcome.Err()
}

func (r *HTTPRemote) do(ctx context.Context, method, path string, q url.Values, payload any) ([]byte, error) {
	op := method + " " + path

	endpoint := r.baseURL + path
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: httpErrorText(body)}
	}

	return body, nil
}

// httpErrorText unwraps a JSON string or echo's {"message": ...} body.
func httpErrorText(body []byte) string {
	trimmed := bytes.TrimSpace(body)

	var msg string
	if err := json.Unmarshal(trimmed, &msg); err == nil {
		return msg
	}

	var echoErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &echoErr); err == nil && echoErr.Message != "" {
		return echoErr.Message
	}

	return truncate(trimmed)
}

func setID(q url.Values, key string, id *uuid.UUID) {
	if id != nil {
		q.Set(key, id.String())
	}
}
