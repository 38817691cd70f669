package models

import (
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAssigned  RequestStatus = "assigned"
	RequestStatusCompleted RequestStatus = "completed"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusAssigned, RequestStatusCompleted:
		return true
	}
	return false
}

// Next is the only status s may move to; completed is terminal.
func (s RequestStatus) Next() (RequestStatus, bool) {
	switch s {
	case RequestStatusPending:
		return RequestStatusAssigned, true
	case RequestStatusAssigned:
		return RequestStatusCompleted, true
	}
	return "", false
}

type Request struct {
	ID           uuid.UUID
	PinUserID    uuid.UUID
	Title        string
	Description  *string
	Status       RequestStatus
	CategoryID   *uuid.UUID
	CategoryName *string
	AssignedTo   *uuid.UUID
	ViewCount    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CompletedAt  *time.Time
	Shortlist    []*Shortlistee
}

func (r *Request) IsShortlisted(csrID uuid.UUID) bool {
	for _, s := range r.Shortlist {
		if s.CSRID == csrID {
			return true
		}
	}
	return false
}

type Shortlistee struct {
	CSRID         uuid.UUID
	RequestID     uuid.UUID
	ShortlistedAt time.Time
}

type Category struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RequestScope narrows a listing beyond plain status: shortlisted means
// "pending requests the given CSR has shortlisted".
type RequestScope string

const (
	ScopeShortlisted RequestScope = "shortlisted"
)

type RequestFilter struct {
	Status     *RequestStatus
	Scope      RequestScope
	PinUserID  *uuid.UUID
	CSRID      *uuid.UUID
	CategoryID *uuid.UUID
	Query      string
	From       *time.Time
	To         *time.Time
	Offset     uint64
	Limit      uint64
}

type RequestEdit struct {
	Title       string
	Description *string
	CategoryID  *uuid.UUID
}
