package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/sushihentaime/nanoblog/internal/bloggerservice"
	"github.com/sushihentaime/nanoblog/internal/blogservice"
	"github.com/sushihentaime/nanoblog/internal/common"
	"github.com/sushihentaime/nanoblog/internal/storage"
	"github.com/sushihentaime/nanoblog/internal/userservice"
)

// recordingProducer stands in for the message broker and keeps every user.created
// message so tests can read the confirmation token.
type recordingProducer struct {
	mu   sync.Mutex
	msgs []common.UserCreatedMessage
	err  error
}

func (p *recordingProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}

	var m common.UserCreatedMessage
	if err := json.Unmarshal(msg, &m); err != nil {
		return err
	}
	p.msgs = append(p.msgs, m)

	return nil
}

func (p *recordingProducer) tokenFor(username string) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := len(p.msgs) - 1; i >= 0; i-- {
		if p.msgs[i].Username == username {
			return p.msgs[i].Token
		}
	}
	return ""
}

func (p *recordingProducer) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

type testEnv struct {
	app   *application
	db    *sql.DB
	mb    *recordingProducer
	store *storage.MockObjectStore
}

func newTestApplication(t *testing.T) *testEnv {
	db := common.TestDB("file://../../migrations", t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := common.NewCache(5*time.Minute, 10*time.Minute)
	mb := &recordingProducer{}
	store := new(storage.MockObjectStore)

	cfg := &Config{
		Port:        "4000",
		Environment: "testing",
		Version:     "1.0.0",
		BaseURL:     "http://localhost:4000",
	}

	bloggerService := bloggerservice.NewBloggerService(db, store, cache, logger)

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userservice.NewUserService(db, mb, cache, bloggerService),
		bloggerService: bloggerService,
		blogService:    blogservice.NewBlogService(db),
	}

	return &testEnv{app: app, db: db, mb: mb, store: store}
}

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	ts.Client().CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

// readResponse decodes JSON bodies; redirects and other bodies give a nil envelope.
func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(res.Header.Get("Content-Type"), "application/json") {
		return res.StatusCode, res.Header, nil
	}

	var env envelope
	err = json.Unmarshal(responseBody, &env)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, env
}

func (ts *testServer) send(t *testing.T, method, path string, token string, body io.Reader, contentType string) (int, http.Header, envelope) {
	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token string) (int, http.Header, envelope) {
	return ts.send(t, http.MethodGet, path, token, nil, "")
}

func (ts *testServer) post(t *testing.T, path string, token string, data any) (int, http.Header, envelope) {
	jsonPayload, err := json.Marshal(data)
	if err != nil {
		t.Fatal(err)
	}

	return ts.send(t, http.MethodPost, path, token, bytes.NewReader(jsonPayload), "application/json")
}

func registerInput(username string) map[string]any {
	return map[string]any{
		"first_name": "Test",
		"last_name":  "User",
		"email":      username + "@example.com",
		"username":   username,
		"password1":  "Test_1234!",
		"password2":  "Test_1234!",
	}
}

// signUp registers, confirms and logs in username and returns the access token.
func (env *testEnv) signUp(t *testing.T, ts *testServer, username string) string {
	status, _, _ := ts.post(t, "/register", "", registerInput(username))
	assert.Equal(t, http.StatusCreated, status)

	status, _, _ = ts.get(t, "/confirm-registration/"+username+"/"+env.mb.tokenFor(username), "")
	assert.Equal(t, http.StatusOK, status)

	status, _, body := ts.post(t, "/login", "", map[string]any{"username": username, "password": "Test_1234!"})
	assert.Equal(t, http.StatusOK, status)

	token, ok := body["token"].(map[string]any)
	if !ok {
		t.Fatalf("login response has no token: %v", body)
	}

	return token["access_token"].(string)
}

func (env *testEnv) cleanup(t *testing.T) {
	_, err := env.db.Exec("DELETE FROM users")
	assert.NoError(t, err)
	env.mb.fail(nil)
	env.store.ExpectedCalls = nil
	env.store.Calls = nil
}

// feedPostTexts returns the post texts of a feed envelope in order.
func feedPostTexts(t *testing.T, body envelope) []string {
	feed, ok := body["feed"].(map[string]any)
	if !ok {
		t.Fatalf("response has no feed: %v", body)
	}

	items, _ := feed["items"].([]any)

	texts := []string{}
	for _, item := range items {
		post := item.(map[string]any)["post"].(map[string]any)
		texts = append(texts, post["text"].(string))
	}
	return texts
}
