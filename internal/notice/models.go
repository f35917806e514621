// Package notice implements the campus notice board: a global feed of
// admin-posted announcements with live delivery and relative timestamps.
package notice

import (
	"fmt"
	"time"

	"campusboard/internal/docstore"
)

const (
	fieldTitle     = "title"
	fieldContent   = "content"
	fieldPostedBy  = "postedBy"
	fieldCreatedAt = "createdAt"
)

const (
	// MaxTitleLen bounds the notice title after trimming.
	MaxTitleLen = 120
	// MaxContentLen bounds the notice body after trimming.
	MaxContentLen = 3000
)

// Notice is one board announcement. Pending notices have been accepted but
// not yet committed by the store; their CreatedAt is zero until the
// subscription delivers the committed snapshot.
type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	PostedBy  string    `json:"postedBy"`
	CreatedAt time.Time `json:"createdAt"`
	Pending   bool      `json:"pending"`
}

// FromDocument builds a Notice from its stored document.
func FromDocument(doc docstore.Document) Notice {
	n := Notice{
		ID:       doc.ID,
		Title:    doc.String(fieldTitle),
		Content:  doc.String(fieldContent),
		PostedBy: doc.String(fieldPostedBy),
		Pending:  doc.Pending(),
	}
	if t, ok := doc.Time(fieldCreatedAt); ok {
		n.CreatedAt = t
	} else {
		n.Pending = true
	}
	return n
}

// PostedRelative renders when the notice was posted relative to now.
func (n Notice) PostedRelative(now time.Time) string {
	if n.Pending || n.CreatedAt.IsZero() {
		return "posting..."
	}
	return FormatRelative(now, n.CreatedAt)
}

// FormatRelative renders t relative to now in coarse buckets, falling back
// to a plain date once the notice is older than two days.
func FormatRelative(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%d min ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%d hr ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return t.Format("1/2/2006")
	}
}
