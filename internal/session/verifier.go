package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	dErrors "campusboard/pkg/domain-errors"
)

// Verifier validates session tokens minted by the auth provider and extracts
// the identity claims the dashboard needs.
type Verifier struct {
	key []byte
}

func NewVerifier(signingKey string) *Verifier {
	return &Verifier{key: []byte(signingKey)}
}

// claims mirrors the provider's session token payload.
type claims struct {
	jwt.RegisteredClaims
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	FullName  string `json:"full_name,omitempty"`
	Email     string `json:"email,omitempty"`
}

// Verify parses and validates a bearer token, returning the identity it
// asserts.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return Identity{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid session token")
	}
	if !token.Valid || c.Subject == "" {
		return Identity{}, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	return Identity{
		ID:        c.Subject,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		FullName:  c.FullName,
		Email:     c.Email,
	}, nil
}

// Mint signs an identity into a session token. Used by tests and local
// tooling; production tokens come from the auth provider.
func (v *Verifier) Mint(id Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.ID},
		FirstName:        id.FirstName,
		LastName:         id.LastName,
		FullName:         id.FullName,
		Email:            id.Email,
	})
	return token.SignedString(v.key)
}
