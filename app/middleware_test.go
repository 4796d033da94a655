package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/sushihentaime/socialnet/internal/userservice"
)

func strptr(s string) *string {
	return &s
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRecoverPanic(t *testing.T) {
	app := &application{config: testConfig(), logger: zerolog.Nop()}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	})

	middleware := app.recoverPanic(handler)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()

	middleware.ServeHTTP(res, req)

	assert.Equal(t, http.StatusInternalServerError, res.Code)
	assert.Equal(t, "close", res.Header().Get("Connection"))
}

func TestRequestID(t *testing.T) {
	app := &application{config: testConfig(), logger: zerolog.Nop()}

	provided := uuid.NewString()

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "Missing Header", header: ""},
		{name: "Valid Header", header: provided, keep: true},
		{name: "Invalid Header", header: "not-a-uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = getRequestID(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			res := httptest.NewRecorder()

			app.requestID(handler).ServeHTTP(res, req)

			got := res.Header().Get("X-Request-ID")
			assert.Equal(t, seen, got)
			if tt.keep {
				assert.Equal(t, tt.header, got)
			} else {
				_, err := uuid.Parse(got)
				assert.NoError(t, err)
				assert.NotEqual(t, tt.header, got)
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	app, _ := newTestApplication(t)

	token := createActiveUser(t, app, "testuser")

	tests := []struct {
		name           string
		authHeader     *string
		wantUser       string
		expectedStatus int
	}{
		{
			name:           "No Authentication Header",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Malformed Authentication Header",
			authHeader:     strptr("Token " + token),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Authentication Token",
			authHeader:     strptr("Bearer invalid-token"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Unknown Authentication Token",
			authHeader:     strptr("Bearer ABCDEFGHIJKLMNOPQRSTUVWXYZ"),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Valid Authentication Header",
			authHeader:     strptr("Bearer " + token),
			wantUser:       "testuser",
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var user *userservice.User
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user = app.getUserContext(r)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.authHeader != nil {
				req.Header.Set("Authorization", *tt.authHeader)
			}
			res := httptest.NewRecorder()

			app.authenticate(handler).ServeHTTP(res, req)

			assert.Equal(t, tt.expectedStatus, res.Code)
			if tt.expectedStatus != http.StatusOK {
				assert.Equal(t, "Bearer", res.Header().Get("WWW-Authenticate"))
				return
			}

			if tt.wantUser == "" {
				assert.True(t, user.IsAnonymous())
			} else {
				assert.Equal(t, tt.wantUser, user.Username)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	app := &application{config: testConfig(), logger: zerolog.Nop()}

	tests := []struct {
		name           string
		user           *userservice.User
		expectedStatus int
	}{
		{
			name:           "Anonymous",
			user:           &userservice.AnonymousUser,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Inactive",
			user:           &userservice.User{ID: 1, Permissions: userservice.Permissions{userservice.PermissionWriteBlog}},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Missing Permission",
			user:           &userservice.User{ID: 1, Activated: true},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "Granted Permission",
			user:           &userservice.User{ID: 1, Activated: true, Permissions: userservice.Permissions{userservice.PermissionWriteBlog}},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Admin Without Permission",
			user:           &userservice.User{ID: 1, Activated: true, Admin: true},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := app.requirePermission(okHandler, userservice.PermissionWriteBlog)

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req = app.createUserContext(req, tt.user)
			res := httptest.NewRecorder()

			handler.ServeHTTP(res, req)

			assert.Equal(t, tt.expectedStatus, res.Code)
		})
	}
}

func TestEnableCORS(t *testing.T) {
	app := &application{
		config: &Config{
			TrustedOrigins: []string{"http://example.com"},
		},
	}

	middleware := app.enableCORS(http.HandlerFunc(okHandler))

	tests := []struct {
		name                       string
		origin                     string
		method                     string
		accessControlRequestMethod *string
		expectedStatus             int
	}{
		{
			name:           "Valid Origin and Method",
			origin:         "http://example.com",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:                       "Valid Origin and Preflight Request",
			origin:                     "http://example.com",
			method:                     http.MethodOptions,
			accessControlRequestMethod: strptr(http.MethodPut),
			expectedStatus:             http.StatusOK,
		},
		{
			name:           "Invalid Origin",
			origin:         "http://invalid.com",
			method:         http.MethodGet,
			expectedStatus: http.StatusOK,
		},
		{
			name:                       "Invalid Origin and Preflight Request",
			origin:                     "http://invalid.com",
			method:                     http.MethodOptions,
			accessControlRequestMethod: strptr(http.MethodDelete),
			expectedStatus:             http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", nil)
			req.Header.Set("Origin", tt.origin)
			if tt.accessControlRequestMethod != nil {
				req.Header.Set("Access-Control-Request-Method", *tt.accessControlRequestMethod)
			}

			res := httptest.NewRecorder()

			middleware.ServeHTTP(res, req)

			assert.Equal(t, tt.expectedStatus, res.Code)

			trusted := tt.origin == "http://example.com"
			if trusted {
				assert.Equal(t, tt.origin, res.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, res.Header().Get("Access-Control-Allow-Origin"))
			}

			if trusted && tt.accessControlRequestMethod != nil {
				assert.Equal(t, "OPTIONS, PUT, PATCH, DELETE", res.Header().Get("Access-Control-Allow-Methods"))
				assert.Equal(t, "Content-Type, Authorization", res.Header().Get("Access-Control-Allow-Headers"))
			} else {
				assert.Empty(t, res.Header().Get("Access-Control-Allow-Methods"))
				assert.Empty(t, res.Header().Get("Access-Control-Allow-Headers"))
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	app := &application{
		config: &Config{
			RateLimitRPS:     2,
			RateLimitBurst:   4,
			RateLimitEnabled: true,
		},
		logger: zerolog.Nop(),
	}

	server := httptest.NewServer(app.rateLimit(http.HandlerFunc(okHandler)))
	defer server.Close()

	tests := []struct {
		name           string
		requests       int
		expectedStatus int
	}{
		{
			name:           "Within Limit",
			requests:       4,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Over Limit",
			requests:       6,
			expectedStatus: http.StatusTooManyRequests,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var lastStatusCode int

			for i := 0; i < tt.requests; i++ {
				res, err := http.Get(server.URL)
				assert.NoError(t, err)
				res.Body.Close()

				lastStatusCode = res.StatusCode
			}

			assert.Equal(t, tt.expectedStatus, lastStatusCode)
		})
	}
}
