// Package session supplies the authenticated identity resolved from the
// external auth provider's session token. The core never implements auth; the
// middleware resolves the identity once per request and injects it into the
// context, and user-scoped operations read it from there.
package session

import "context"

// Identity is the resolved session identity. The zero value means "not
// resolved": user-scoped reads and writes are skipped, not failed, until a
// real identity is present.
type Identity struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	// FullName is the provider's preferred display name when it supplies one.
	FullName string
}

// Resolved reports whether an identity is present.
func (id Identity) Resolved() bool { return id.ID != "" }

// DisplayName derives the name shown in the UI and stamped on notices:
// the provider's full name, else first+last, else a generic fallback.
func (id Identity) DisplayName() string {
	if id.FullName != "" {
		return id.FullName
	}
	switch {
	case id.FirstName != "" && id.LastName != "":
		return id.FirstName + " " + id.LastName
	case id.FirstName != "":
		return id.FirstName
	case id.LastName != "":
		return id.LastName
	}
	return "Student"
}

type identityKey struct{}

// WithContext injects an identity into the context. Set by the auth
// middleware; tests inject directly.
func WithContext(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext retrieves the identity, zero when unresolved.
func FromContext(ctx context.Context) Identity {
	if id, ok := ctx.Value(identityKey{}).(Identity); ok {
		return id
	}
	return Identity{}
}
