package client

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
)

// Active is true for requests that still count as open work.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusAssigned
}

type Request struct {
	ID             uuid.UUID   `json:"id"`
	RequesterID    uuid.UUID   `json:"pin_user_id"`
	Title          string      `json:"title"`
	Description    *string     `json:"description"`
	CategoryID     *uuid.UUID  `json:"category_id"`
	CategoryName   *string     `json:"category_name"`
	Status         Status      `json:"status"`
	AssignedCSRID  *uuid.UUID  `json:"assigned_to"`
	Shortlist      []uuid.UUID `json:"shortlist"`
	ShortlistCount int         `json:"shortlistees_count"`
	MyShortlisted  bool        `json:"my_shortlisted"`
	ViewCount      int64       `json:"view"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	CompletedAt    *time.Time  `json:"completed_at"`
}

func (r Request) IsShortlisted(csrID uuid.UUID) bool {
	return slices.Contains(r.Shortlist, csrID)
}

func (r Request) clone() Request {
	r.Shortlist = slices.Clone(r.Shortlist)
	return r
}

const (
	DefaultPageSize = 24

	// FilterShortlisted lists the pending requests the filter's CSR has
	// shortlisted.
	FilterShortlisted = "shortlisted"
)

type Filter struct {
	// One of the statuses, FilterShortlisted or empty for any.
	Status     string
	Query      string
	CategoryID *uuid.UUID
	OwnerID    *uuid.UUID
	CSRID      *uuid.UUID
	From       *time.Time
	To         *time.Time
	PageSize   int
}

func (f Filter) pageSize() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return f.PageSize
}

type NewRequest struct {
	Title       string
	Description *string
	CategoryID  *uuid.UUID
}

// Edit replaces every editable field; a nil field is cleared.
type Edit struct {
	Title       string
	Description *string
	CategoryID  *uuid.UUID
}

type ShortlistChange struct {
	CSRID  uuid.UUID
	Member bool
}

// Patch is a local change confirmed by the server with a bare success. It
// cannot express a status change; those always go through a reload.
type Patch struct {
	Edit      *Edit
	Shortlist *ShortlistChange
	ViewDelta int64
}

// apply mutates r. viewer is the CSR the listing was loaded for, if any.
func (r *Request) apply(p Patch, viewer *uuid.UUID) {
	if p.Edit != nil {
		r.Title = p.Edit.Title
		r.Description = p.Edit.Description
		if !sameID(r.CategoryID, p.Edit.CategoryID) {
			r.CategoryID = p.Edit.CategoryID
			r.CategoryName = nil
		}
	}

	if ch := p.Shortlist; ch != nil {
		idx := slices.Index(r.Shortlist, ch.CSRID)
		switch {
		case ch.Member && idx < 0:
			r.Shortlist = append(r.Shortlist, ch.CSRID)
			r.ShortlistCount++
		case !ch.Member && idx >= 0:
			r.Shortlist = slices.Delete(r.Shortlist, idx, idx+1)
			r.ShortlistCount--
		}
		if viewer != nil && *viewer == ch.CSRID {
			r.MyShortlisted = ch.Member
		}
	}

	r.ViewCount += p.ViewDelta
}

func sameID(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
