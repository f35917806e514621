package handler

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campusboard/internal/docstore"
	"campusboard/internal/docstore/memory"
	"campusboard/internal/event"
	"campusboard/internal/session"
	httptransport "campusboard/internal/transport/http"
	"campusboard/pkg/platform/dedupe"
)

type HandlerSuite struct {
	suite.Suite

	store    *memory.Store
	verifier *session.Verifier
	server   *httptest.Server
	token    string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := slog.New(slog.DiscardHandler)
	s.store = memory.New()
	s.verifier = session.NewVerifier("test-secret")

	watcher := event.NewWatcher(s.store, log, nil)
	submitter := event.NewSubmitter(s.store, dedupe.NewInMemory(0), nil, log, nil)
	h := New(watcher, submitter, s.verifier, log)
	s.server = httptest.NewServer(httptransport.NewRouter(h))

	token, err := s.verifier.Mint(session.Identity{ID: "alice", Email: "alice@campus.edu"})
	s.Require().NoError(err)
	s.token = token
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) post(path string, body any, token string) *http.Response {
	s.T().Helper()
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPost, s.server.URL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	return res
}

func (s *HandlerSuite) futureInput() map[string]string {
	future := time.Now().Add(48 * time.Hour)
	return map[string]string{
		"title": "Career fair",
		"date":  future.Format("2006-01-02"),
		"time":  future.Format("15:04"),
	}
}

func (s *HandlerSuite) TestSubmitCreated() {
	res := s.post("/api/events", s.futureInput(), s.token)
	defer res.Body.Close()
	s.Equal(http.StatusCreated, res.StatusCode)

	var body struct {
		Event struct {
			ID     string `json:"id"`
			Title  string `json:"title"`
			Status string `json:"status"`
		} `json:"event"`
		NavigateTo string `json:"navigateTo"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
	s.NotEmpty(body.Event.ID)
	s.Equal("Career fair", body.Event.Title)
	s.Equal("upcoming", body.Event.Status)
	s.Equal("/calendar", body.NavigateTo)
}

func (s *HandlerSuite) TestSubmitRequiresAuth() {
	res := s.post("/api/events", s.futureInput(), "")
	defer res.Body.Close()
	s.Equal(http.StatusUnauthorized, res.StatusCode)
}

func (s *HandlerSuite) TestSubmitValidationError() {
	res := s.post("/api/events", map[string]string{"title": " ", "date": "2020-01-01", "time": "09:00"}, s.token)
	defer res.Body.Close()
	s.Equal(http.StatusUnprocessableEntity, res.StatusCode)

	var body struct {
		Error  string `json:"error"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
	s.NotEmpty(body.Fields)
}

func (s *HandlerSuite) TestIdenticalResubmitAfterSuccess() {
	in := s.futureInput()

	res := s.post("/api/events", in, s.token)
	res.Body.Close()
	s.Equal(http.StatusCreated, res.StatusCode)

	// The duplicate guard only covers in-flight submissions, so an
	// intentional identical submission afterwards creates a second document.
	res = s.post("/api/events", in, s.token)
	defer res.Body.Close()
	s.Equal(http.StatusCreated, res.StatusCode)

	docs, err := s.store.Query(s.T().Context(), docstore.Query{Collection: docstore.CollectionEvents})
	s.Require().NoError(err)
	s.Len(docs, 2)
}

func (s *HandlerSuite) TestValidateDoesNotCreate() {
	res := s.post("/api/events/validate", s.futureInput(), s.token)
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)

	docs, err := s.store.Query(s.T().Context(), docstore.Query{Collection: docstore.CollectionEvents})
	s.Require().NoError(err)
	s.Empty(docs)
}

func (s *HandlerSuite) TestTodayStreamsSnapshots() {
	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/events/today", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "text/event-stream")

	res, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	frame := s.nextFrame(reader)

	var snapshot struct {
		Events []json.RawMessage `json:"events"`
	}
	s.Require().NoError(json.Unmarshal(frame, &snapshot))
	s.Empty(snapshot.Events)
}

func (s *HandlerSuite) TestTodayOneShotWithoutStreamAccept() {
	res := s.post("/api/events", s.futureInput(), s.token)
	res.Body.Close()
	s.Require().Equal(http.StatusCreated, res.StatusCode)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/events/today", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+s.token)

	res, err = s.server.Client().Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
	s.Contains(res.Header.Get("Content-Type"), "application/json")

	var body struct {
		Events []struct {
			Title string `json:"title"`
		} `json:"events"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
	// The created event starts in two days, so the today view is an empty
	// but well-formed single snapshot.
	s.NotNil(body.Events)
	s.Empty(body.Events)
}

func (s *HandlerSuite) nextFrame(reader *bufio.Reader) []byte {
	s.T().Helper()
	for {
		line, err := reader.ReadString('\n')
		s.Require().NoError(err)
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			return []byte(strings.TrimSpace(data))
		}
	}
}
