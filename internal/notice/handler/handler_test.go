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

	"github.com/stretchr/testify/suite"

	"campusboard/internal/docstore/memory"
	"campusboard/internal/notice"
	"campusboard/internal/session"
	httptransport "campusboard/internal/transport/http"
)

type HandlerSuite struct {
	suite.Suite

	store    *memory.Store
	verifier *session.Verifier
	server   *httptest.Server
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	log := slog.New(slog.DiscardHandler)
	s.store = memory.New()
	s.verifier = session.NewVerifier("test-secret")

	watcher := notice.NewWatcher(s.store, log, nil)
	submitter := notice.NewSubmitter(s.store, []string{"admin@campus.edu"}, nil, log, nil)
	h := New(watcher, submitter, s.verifier, log)
	s.server = httptest.NewServer(httptransport.NewRouter(h))
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) mint(id session.Identity) string {
	s.T().Helper()
	token, err := s.verifier.Mint(id)
	s.Require().NoError(err)
	return token
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

func (s *HandlerSuite) TestPostAsAdmin() {
	token := s.mint(session.Identity{ID: "admin-1", FullName: "Dana Ives", Email: "admin@campus.edu"})
	res := s.post("/api/notices", map[string]string{"title": "Library hours", "content": "Open late."}, token)
	defer res.Body.Close()
	s.Equal(http.StatusCreated, res.StatusCode)

	var body struct {
		Title    string `json:"title"`
		PostedBy string `json:"postedBy"`
		Posted   string `json:"posted"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
	s.Equal("Library hours", body.Title)
	s.Equal("Dana Ives", body.PostedBy)
	s.Equal("just now", body.Posted)
}

func (s *HandlerSuite) TestPostAsStudentForbidden() {
	token := s.mint(session.Identity{ID: "student-1", Email: "student@campus.edu"})
	res := s.post("/api/notices", map[string]string{"title": "x", "content": "y"}, token)
	defer res.Body.Close()
	s.Equal(http.StatusForbidden, res.StatusCode)
}

func (s *HandlerSuite) TestPostRequiresAuth() {
	res := s.post("/api/notices", map[string]string{"title": "x", "content": "y"}, "")
	defer res.Body.Close()
	s.Equal(http.StatusUnauthorized, res.StatusCode)
}

func (s *HandlerSuite) TestCanPost() {
	token := s.mint(session.Identity{ID: "admin-1", Email: "admin@campus.edu"})
	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/notices/can-post", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	res, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()

	var body map[string]bool
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&body))
	s.True(body["canPost"])
}

func (s *HandlerSuite) TestFeedIsPublicAndStreams() {
	admin := s.mint(session.Identity{ID: "admin-1", Email: "admin@campus.edu"})
	res := s.post("/api/notices", map[string]string{"title": "Gym closure", "content": "Closed Saturday."}, admin)
	res.Body.Close()
	s.Require().Equal(http.StatusCreated, res.StatusCode)

	req, err := http.NewRequest(http.MethodGet, s.server.URL+"/api/notices", nil)
	s.Require().NoError(err)
	req.Header.Set("Accept", "text/event-stream")
	res, err = s.server.Client().Do(req)
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
	s.Equal("text/event-stream", res.Header.Get("Content-Type"))

	reader := bufio.NewReader(res.Body)
	line := s.nextFrame(reader)

	var feed struct {
		Notices []struct {
			Title  string `json:"title"`
			Posted string `json:"posted"`
		} `json:"notices"`
	}
	s.Require().NoError(json.Unmarshal(line, &feed))
	s.Require().Len(feed.Notices, 1)
	s.Equal("Gym closure", feed.Notices[0].Title)
}

func (s *HandlerSuite) TestFeedOneShotWithoutStreamAccept() {
	admin := s.mint(session.Identity{ID: "admin-1", Email: "admin@campus.edu"})
	res := s.post("/api/notices", map[string]string{"title": "Gym closure", "content": "Closed Saturday."}, admin)
	res.Body.Close()
	s.Require().Equal(http.StatusCreated, res.StatusCode)

	res, err := s.server.Client().Get(s.server.URL + "/api/notices")
	s.Require().NoError(err)
	defer res.Body.Close()
	s.Equal(http.StatusOK, res.StatusCode)
	s.Contains(res.Header.Get("Content-Type"), "application/json")

	var feed struct {
		Notices []struct {
			Title string `json:"title"`
		} `json:"notices"`
	}
	s.Require().NoError(json.NewDecoder(res.Body).Decode(&feed))
	s.Require().Len(feed.Notices, 1)
	s.Equal("Gym closure", feed.Notices[0].Title)
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
