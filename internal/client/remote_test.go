package client_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"case-service/internal/client"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestHTTPRemote_List(t *testing.T) {
	csrID := uuid.New()
	from := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	want := []client.Request{pending("one", csrID)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/requests", r.URL.Path)

		q := r.URL.Query()
		require.Equal(t, "shortlisted", q.Get("status"))
		require.Equal(t, csrID.String(), q.Get("csr_id"))
		require.Equal(t, "2026-01-02T03:04:05Z", q.Get("from"))
		require.Equal(t, "24", q.Get("offset"))
		require.Equal(t, "24", q.Get("limit"))
		require.Empty(t, q.Get("category"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(want)
	}))
	defer srv.Close()

	remote := client.NewHTTPRemote(srv.URL + "/api/")
	got, err := remote.List(t.Context(), client.Filter{
		Status: client.FilterShortlisted,
		CSRID:  &csrID,
		From:   &from,
	}, 24, 24)

	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, want[0].ID, got[0].ID)
	require.Equal(t, []uuid.UUID{csrID}, got[0].Shortlist)
	require.Equal(t, 1, got[0].ShortlistCount)
}

func TestHTTPRemote_Mutations(t *testing.T) {
	id, csrID := uuid.New(), uuid.New()

	tests := []struct {
		name       string
		call       func(r *client.HTTPRemote) error
		wantMethod string
		wantPath   string
		wantBody   map[string]any
		wantQuery  string
		respond    string
		check      func(t *testing.T, err error)
	}{
		{
			name: "assign",
			call: func(r *client.HTTPRemote) error {
				return r.Transition(t.Context(), id, client.StatusAssigned, &csrID)
			},
			wantMethod: http.MethodPut,
			wantPath:   "/requests/" + id.String(),
			wantBody:   map[string]any{"status": "assigned", "assigned_to": csrID.String()},
			respond:    "true",
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "complete rejected",
			call: func(r *client.HTTPRemote) error {
				return r.Transition(t.Context(), id, client.StatusCompleted, nil)
			},
			wantMethod: http.MethodPut,
			wantPath:   "/requests/" + id.String(),
			wantBody:   map[string]any{"status": "completed"},
			respond:    `"Request is not assigned"`,
			check: func(t *testing.T, err error) {
				var logical *client.LogicalFailure
				require.ErrorAs(t, err, &logical)
				require.Equal(t, "Request is not assigned", logical.Message)
			},
		},
		{
			name: "edit clears missing fields",
			call: func(r *client.HTTPRemote) error {
				return r.Edit(t.Context(), id, client.Edit{Title: "new"})
			},
			wantMethod: http.MethodPut,
			wantPath:   "/requests/" + id.String(),
			wantBody:   map[string]any{"title": "new", "description": "", "category_id": ""},
			respond:    "true",
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "shortlist add",
			call: func(r *client.HTTPRemote) error {
				return r.AddShortlist(t.Context(), id, csrID)
			},
			wantMethod: http.MethodPost,
			wantPath:   "/requests/" + id.String() + "/shortlist",
			wantBody:   map[string]any{"csr_id": csrID.String()},
			respond:    "true",
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "shortlist remove",
			call: func(r *client.HTTPRemote) error {
				return r.RemoveShortlist(t.Context(), id, csrID)
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/requests/" + id.String() + "/shortlist",
			wantQuery:  "csr_id=" + csrID.String(),
			respond:    "true",
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "delete with unexpected body",
			call: func(r *client.HTTPRemote) error {
				return r.Delete(t.Context(), id)
			},
			wantMethod: http.MethodDelete,
			wantPath:   "/requests/" + id.String(),
			respond:    `{"ok":true}`,
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, client.ErrUnexpectedResponse)
				require.Equal(t, "Unexpected response from server", client.UserMessage(err))
			},
		},
		{
			name: "view",
			call: func(r *client.HTTPRemote) error {
				return r.RecordView(t.Context(), id)
			},
			wantMethod: http.MethodPost,
			wantPath:   "/requests/" + id.String() + "/view",
			respond:    "true",
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, tt.wantMethod, r.Method)
				require.Equal(t, tt.wantPath, r.URL.Path)
				require.Equal(t, tt.wantQuery, r.URL.RawQuery)

				raw, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				if tt.wantBody == nil {
					require.Empty(t, raw)
				} else {
					var body map[string]any
					require.NoError(t, json.Unmarshal(raw, &body))
					require.Equal(t, tt.wantBody, body)
				}

				_, _ = io.WriteString(w, tt.respond)
			}))
			defer srv.Close()

			tt.check(t, tt.call(client.NewHTTPRemote(srv.URL)))
		})
	}
}

func TestHTTPRemote_Errors(t *testing.T) {
	id := uuid.New()

	t.Run("server error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"message":"Internal Server Error"}`)
		}))
		defer srv.Close()

		_, err := client.NewHTTPRemote(srv.URL).Get(t.Context(), id)

		var httpErr *client.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
		require.Equal(t, "Internal Server Error", httpErr.Body)
		require.Equal(t, "Server error (500): Internal Server Error", client.UserMessage(err))
	})

	t.Run("bad request", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `"invalid request id"`)
		}))
		defer srv.Close()

		err := client.NewHTTPRemote(srv.URL).Delete(t.Context(), id)

		var httpErr *client.HTTPError
		require.ErrorAs(t, err, &httpErr)
		require.Equal(t, "invalid request id", httpErr.Body)
	})

	t.Run("logical failure on a read", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `"Request not found"`)
		}))
		defer srv.Close()

		_, err := client.NewHTTPRemote(srv.URL).Get(t.Context(), id)

		var logical *client.LogicalFailure
		require.ErrorAs(t, err, &logical)
		require.Equal(t, "Request not found", client.UserMessage(err))
	})

	t.Run("unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := client.NewHTTPRemote(url).Search(t.Context(), "x", nil)

		var transport *client.TransportError
		require.ErrorAs(t, err, &transport)
		require.Contains(t, client.UserMessage(err), "Network error")
	})

	t.Run("timeout", func(t *testing.T) {
		block := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			<-block
		}))
		defer srv.Close()
		defer close(block)

		remote := client.NewHTTPRemote(srv.URL, client.WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
		err := remote.RecordView(t.Context(), id)

		var transport *client.TransportError
		require.ErrorAs(t, err, &transport)
		require.False(t, errors.Is(err, client.ErrUnexpectedResponse))
	})
}
