package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusboard/internal/contact"
	dummymail "campusboard/internal/platform/email/dummy"
	"campusboard/internal/session"
	httptransport "campusboard/internal/transport/http"
)

func newServer(t *testing.T) (*httptest.Server, *dummymail.Service) {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	mailSvc := dummymail.NewService()
	svc := contact.NewService(mailSvc, mail.Address{Address: "staff@campus.edu"}, nil, log)
	h := New(svc, session.NewVerifier("test-secret"), log)
	server := httptest.NewServer(httptransport.NewRouter(h))
	t.Cleanup(server.Close)
	return server, mailSvc
}

func TestContactSendAnonymous(t *testing.T) {
	server, mailSvc := newServer(t)

	payload, _ := json.Marshal(map[string]string{
		"name":    "Alice Wu",
		"email":   "alice@campus.edu",
		"message": "The projector is broken.",
	})
	res, err := http.Post(server.URL+"/api/contact", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusAccepted, res.StatusCode)
	require.Len(t, mailSvc.Sent(), 1)
	assert.Equal(t, "alice@campus.edu", mailSvc.Sent()[0].ReplyTo.Address)
}

func TestContactValidationError(t *testing.T) {
	server, mailSvc := newServer(t)

	payload, _ := json.Marshal(map[string]string{
		"name":    "Alice Wu",
		"email":   "not-an-email",
		"message": "hi",
	})
	res, err := http.Post(server.URL+"/api/contact", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Empty(t, mailSvc.Sent())
}

func TestContactUnknownFieldsRejected(t *testing.T) {
	server, _ := newServer(t)

	res, err := http.Post(server.URL+"/api/contact", "application/json",
		bytes.NewReader([]byte(`{"name":"A","email":"a@b.c","message":"hi","extra":1}`)))
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}
