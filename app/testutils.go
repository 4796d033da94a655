package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/socialnet/internal/blogservice"
	"github.com/sushihentaime/socialnet/internal/commentservice"
	"github.com/sushihentaime/socialnet/internal/common"
	"github.com/sushihentaime/socialnet/internal/mailservice"
	"github.com/sushihentaime/socialnet/internal/postservice"
	"github.com/sushihentaime/socialnet/internal/userservice"
)

const testPassword = "Test_1234!"

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func testConfig() *Config {
	return &Config{
		Port:           "4000",
		Environment:    "testing",
		Version:        "test",
		TrustedOrigins: []string{"http://example.com"},
		RateLimitRPS:   2,
		RateLimitBurst: 4,
		CacheTTL:       time.Minute,
	}
}

// newTestApplication wires every service against fresh Postgres and
// RabbitMQ containers.
func newTestApplication(t *testing.T) (*application, *sql.DB) {
	db := common.TestDB("file://../migrations", t)

	broker, err := common.NewMessageBroker(common.TestRabbitMQ(t))
	assert.NoError(t, err)
	t.Cleanup(func() { broker.Close() })

	err = broker.Declare(common.UserBindings)
	assert.NoError(t, err)

	cfg := testConfig()
	logger := zerolog.New(io.Discard)

	blogs := blogservice.NewBlogService(db)
	posts := postservice.NewPostService(db, blogs)

	app := &application{
		config:         cfg,
		logger:         logger,
		userService:    userservice.NewUserService(db, broker, common.NewCache(cfg.CacheTTL, cfg.CacheTTL), blogs),
		blogService:    blogs,
		postService:    posts,
		commentService: commentservice.NewCommentService(db, posts),
		mailService:    mailservice.NewMailService(broker, mailservice.Config{Host: "localhost", Port: 2525}, logger),
		broker:         broker,
	}

	return app, db
}

// createActiveUser registers, activates and logs a user in. It returns the
// access token.
func createActiveUser(t *testing.T, app *application, username string) string {
	t.Helper()
	ctx := context.Background()

	_, token, err := app.userService.CreateUser(ctx, username, username+"@example.com", testPassword)
	if err != nil {
		t.Fatalf("could not create user: %v", err)
	}

	if err := app.userService.ActivateUser(ctx, token.Plain); err != nil {
		t.Fatalf("could not activate user: %v", err)
	}

	auth, err := app.userService.LoginUser(ctx, username, testPassword)
	if err != nil {
		t.Fatalf("could not login user: %v", err)
	}

	return auth.AccessTokenPlain
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var env envelope
	if len(responseBody) > 0 {
		if err := json.Unmarshal(responseBody, &env); err != nil {
			t.Fatal(err)
		}
	}

	return res.StatusCode, res.Header, env
}

// do sends a JSON request. An empty token sends no Authorization header.
func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, http.Header, envelope) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		js, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(js)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path, token string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) post(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) patch(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPatch, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path, token string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, token, payload)
}

// slugsOf extracts the slug of every object listed under key.
func slugsOf(t *testing.T, env envelope, key string) []string {
	t.Helper()

	items, ok := env[key].([]any)
	if !ok {
		t.Fatalf("response has no %q list: %v", key, env)
	}

	slugs := make([]string, len(items))
	for i, item := range items {
		slugs[i] = item.(map[string]any)["slug"].(string)
	}
	return slugs
}
