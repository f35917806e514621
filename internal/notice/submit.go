package notice

import (
	"context"
	"log/slog"
	"strings"

	"campusboard/internal/docstore"
	"campusboard/internal/notice/metrics"
	"campusboard/internal/platform/validate"
	"campusboard/internal/session"
	dErrors "campusboard/pkg/domain-errors"
	"campusboard/pkg/platform/audit"
	"campusboard/pkg/platform/sentinel"
	"campusboard/pkg/requestcontext"
)

// Input is the caller-supplied payload for a new notice.
type Input struct {
	Title   string `json:"title"   validate:"required,max=120"`
	Content string `json:"content" validate:"required,max=3000"`
}

// Submitter posts notices to the board. Posting is gated by an email
// allow-list resolved from configuration. The gate is a convenience for the
// UI; the store's own access rules remain the authority on writes.
type Submitter struct {
	store       docstore.Store
	adminEmails map[string]struct{}
	publisher   audit.Publisher
	log         *slog.Logger
	metrics     *metrics.Metrics
}

func NewSubmitter(store docstore.Store, adminEmails []string, publisher audit.Publisher, log *slog.Logger, m *metrics.Metrics) *Submitter {
	set := make(map[string]struct{}, len(adminEmails))
	for _, e := range adminEmails {
		set[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &Submitter{store: store, adminEmails: set, publisher: publisher, log: log, metrics: m}
}

// CanPost reports whether the identity's email is on the admin allow-list.
func (s *Submitter) CanPost(id session.Identity) bool {
	if !id.Resolved() || id.Email == "" {
		return false
	}
	_, ok := s.adminEmails[strings.ToLower(id.Email)]
	return ok
}

// Post validates in and creates the notice document. The poster's display
// name is denormalized onto the document so the feed never joins back to the
// identity provider.
func (s *Submitter) Post(ctx context.Context, in Input) (Notice, error) {
	id := session.FromContext(ctx)
	if !id.Resolved() {
		return Notice{}, sentinel.ErrNoIdentity
	}
	if !s.CanPost(id) {
		s.metrics.IncAllowListDenied()
		return Notice{}, dErrors.New(dErrors.CodeForbidden, "only administrators can post notices")
	}

	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if err := validate.Struct(in); err != nil {
		s.metrics.IncSubmissionsRejected()
		return Notice{}, err
	}

	// Identities without any name post as "Unknown" rather than the
	// greeting fallback used elsewhere in the UI.
	postedBy := "Unknown"
	if id.FullName != "" || id.FirstName != "" || id.LastName != "" {
		postedBy = id.DisplayName()
	}

	doc, err := s.store.Create(ctx, docstore.CollectionNotices, map[string]any{
		fieldTitle:     in.Title,
		fieldContent:   in.Content,
		fieldPostedBy:  postedBy,
		fieldCreatedAt: docstore.ServerTimestamp,
	})
	if err != nil {
		return Notice{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to post notice")
	}

	s.metrics.IncNoticesPosted()
	s.logAudit(ctx, audit.NoticePosted,
		"user_id", id.ID,
		"notice_id", doc.ID,
		"title", in.Title,
	)
	return FromDocument(doc), nil
}

func (s *Submitter) logAudit(ctx context.Context, action string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", action, "log_type", "audit")
	if s.log != nil {
		s.log.InfoContext(ctx, action, args...)
	}
	if s.publisher == nil {
		return
	}
	id := session.FromContext(ctx)
	_ = s.publisher.Emit(ctx, audit.Event{
		UserID:  id.ID,
		Subject: id.ID,
		Action:  action,
	})
}
