package client

import (
	"github.com/google/uuid"
)

type Counts struct {
	Active        int
	Past          int
	ByCategory    map[uuid.UUID]int
	Uncategorized int
}

func (s Snapshot) Find(id uuid.UUID) (Request, bool) {
	for _, r := range s.Records {
		if r.ID == id {
			return r, true
		}
	}
	return Request{}, false
}

func (s Snapshot) ByStatus(status Status) []Request {
	return s.where(func(r Request) bool {
		return r.Status == status
	})
}

// ShortlistedBy lists the pending requests csrID has shortlisted.
func (s Snapshot) ShortlistedBy(csrID uuid.UUID) []Request {
	return s.where(func(r Request) bool {
		return r.Status == StatusPending && r.IsShortlisted(csrID)
	})
}

// AvailableTo lists the pending requests csrID could still shortlist.
func (s Snapshot) AvailableTo(csrID uuid.UUID) []Request {
	return s.where(func(r Request) bool {
		return r.Status == StatusPending && !r.IsShortlisted(csrID)
	})
}

func (s Snapshot) Counts() Counts {
	c := Counts{ByCategory: make(map[uuid.UUID]int)}

	for _, r := range s.Records {
		if r.Status.Active() {
			c.Active++
		} else {
			c.Past++
		}

		if r.CategoryID == nil {
			c.Uncategorized++
		} else {
			c.ByCategory[*r.CategoryID]++
		}
	}

	return c
}

func (s Snapshot) where(keep func(Request) bool) []Request {
	out := make([]Request, 0)
	for _, r := range s.Records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
