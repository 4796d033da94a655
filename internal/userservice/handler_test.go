package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/sushihentaime/socialnet/internal/common"
)

const testPassword = "TestPassword123!"

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Publish(ctx context.Context, msg []byte, key common.BindingKey, exchange common.Exchange) error {
	args := m.Called(msg, key, exchange)
	return args.Error(0)
}

type recordingCascade struct {
	calls []string
	err   error
}

func (c *recordingCascade) RegenerateOwnerSlugs(ctx context.Context, ownerID int, username string) error {
	c.calls = append(c.calls, username)
	return c.err
}

func setupTestEnvironment(t *testing.T) (*UserService, *mockProducer, *sql.DB) {
	db := common.TestDB("file://../../migrations", t)
	mb := new(mockProducer)
	mb.On("Publish", mock.Anything, common.UserCreatedKey, common.UserExchange).Return(nil)

	return NewUserService(db, mb, common.NewCache(time.Minute, time.Minute), nil), mb, db
}

// createActiveUser registers and activates a user and opens a session.
func createActiveUser(t *testing.T, s *UserService, username string) (*User, *AuthToken) {
	t.Helper()
	ctx := context.Background()

	u, token, err := s.CreateUser(ctx, username, username+"@example.com", testPassword)
	if err != nil {
		t.Fatalf("could not create user: %v", err)
	}

	if err := s.ActivateUser(ctx, token.Plain); err != nil {
		t.Fatalf("could not activate user: %v", err)
	}

	auth, err := s.LoginUser(ctx, username, testPassword)
	if err != nil {
		t.Fatalf("could not login user: %v", err)
	}

	u, err = s.GetUserByAccessToken(ctx, auth.AccessTokenPlain)
	if err != nil {
		t.Fatalf("could not authenticate user: %v", err)
	}

	return u, auth
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var count int
	if err := db.QueryRow(query, args...).Scan(&count); err != nil {
		t.Fatalf("could not count rows: %v", err)
	}
	return count
}

func TestCreateUser(t *testing.T) {
	s, mb, db := setupTestEnvironment(t)

	testCases := []struct {
		name     string
		username string
		email    string
		password string
		wantErr  error
	}{
		{
			name:     "empty username",
			email:    "testuser@example.com",
			password: testPassword,
			wantErr:  common.ValidationError{Kind: common.ErrInvalidInput, Errors: map[string]string{"username": "must be provided"}},
		},
		{
			name: "empty payload",
			wantErr: common.ValidationError{Kind: common.ErrInvalidInput, Errors: map[string]string{
				"username": "must be provided",
				"email":    "must be provided",
				"password": "must be provided",
			}},
		},
		{
			name:     "weak password",
			username: "testuser",
			email:    "testuser@example.com",
			password: "password",
			wantErr: common.ValidationError{Kind: common.ErrInvalidInput, Errors: map[string]string{
				"password": "must be between 8 and 72 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one symbol",
			}},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			u, token, err := s.CreateUser(context.Background(), tc.username, tc.email, tc.password)
			assert.Equal(t, tc.wantErr, err)
			assert.Nil(t, u)
			assert.Nil(t, token)
			assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM users"))
		})
	}

	t.Run("valid user", func(t *testing.T) {
		u, token, err := s.CreateUser(context.Background(), "testuser", "TestUser@Example.com", testPassword)
		assert.NoError(t, err)
		assert.NotZero(t, u.ID)
		assert.Equal(t, "testuser@example.com", u.Email)
		assert.Len(t, token.Plain, 26)
		assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM tokens WHERE user_id = $1", u.ID))

		var event common.UserCreatedEvent
		published := mb.Calls[len(mb.Calls)-1].Arguments.Get(0).([]byte)
		assert.NoError(t, json.Unmarshal(published, &event))
		assert.Equal(t, common.UserCreatedEvent{Email: "testuser@example.com", Username: "testuser", Token: token.Plain}, event)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, _, err := s.CreateUser(context.Background(), "testuser", "other@example.com", testPassword)
		assert.Equal(t, common.FieldError(common.ErrConflict, "username", usernameTakenMsg), err)
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, _, err := s.CreateUser(context.Background(), "otheruser", "testuser@example.com", testPassword)
		assert.Equal(t, common.FieldError(common.ErrConflict, "email", emailTakenMsg), err)
	})

	t.Run("publish failure rolls nothing back", func(t *testing.T) {
		failing := new(mockProducer)
		failing.On("Publish", mock.Anything, common.UserCreatedKey, common.UserExchange).Return(errors.New("broker down"))
		fs := NewUserService(db, failing, nil, nil)

		_, _, err := fs.CreateUser(context.Background(), "brokeruser", "broker@example.com", testPassword)
		assert.EqualError(t, err, "broker down")
		assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM users WHERE username = 'brokeruser'"))
	})
}

func TestActivateUser(t *testing.T) {
	s, _, db := setupTestEnvironment(t)
	ctx := context.Background()

	u, token, err := s.CreateUser(ctx, "testuser", "testuser@example.com", testPassword)
	assert.NoError(t, err)

	testCases := []struct {
		name    string
		token   string
		wantErr error
	}{
		{
			name:    "empty token",
			token:   "",
			wantErr: common.ValidationError{Kind: common.ErrInvalidInput, Errors: map[string]string{"token": "must be provided"}},
		},
		{
			name:    "malformed token",
			token:   "invalid token",
			wantErr: common.ValidationError{Kind: common.ErrInvalidInput, Errors: map[string]string{"token": "invalid token"}},
		},
		{
			name:    "unknown token",
			token:   "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
			wantErr: common.ErrRecordNotFound,
		},
		{
			name:  "valid token",
			token: token.Plain,
		},
		{
			name:    "token is single use",
			token:   token.Plain,
			wantErr: common.ErrRecordNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.ActivateUser(ctx, tc.token)
			assert.Equal(t, tc.wantErr, err)
		})
	}

	assert.Equal(t, 0, countRows(t, db, "SELECT COUNT(*) FROM tokens"))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM users WHERE id = $1 AND activated", u.ID))
	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM user_permissions WHERE user_id = $1 AND permission = $2", u.ID, PermissionWriteBlog))
}

func TestLoginAndAuthenticate(t *testing.T) {
	s, _, _ := setupTestEnvironment(t)
	ctx := context.Background()

	u, auth := createActiveUser(t, s, "testuser")

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.LoginUser(ctx, "testuser", "WrongPassword1!")
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.LoginUser(ctx, "nobody", testPassword)
		assert.ErrorIs(t, err, ErrAuthenticationFailure)
	})

	t.Run("access token resolves the user", func(t *testing.T) {
		got, err := s.GetUserByAccessToken(ctx, auth.AccessTokenPlain)
		assert.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.True(t, got.Activated)
		assert.False(t, got.IsAdmin())
		assert.True(t, got.HasPermission(PermissionWriteBlog))

		_, cached := s.c.Get(common.CacheKeyUserByAccessToken(hashToken(auth.AccessTokenPlain)))
		assert.True(t, cached)
	})

	t.Run("refresh token is not an access token", func(t *testing.T) {
		_, err := s.GetUserByAccessToken(ctx, auth.RefreshTokenPlain)
		assert.ErrorIs(t, err, common.ErrRecordNotFound)
	})

	t.Run("logout revokes the session and the cache entry", func(t *testing.T) {
		assert.NoError(t, s.LogoutUser(ctx, u.ID))

		_, cached := s.c.Get(common.CacheKeyUserByAccessToken(hashToken(auth.AccessTokenPlain)))
		assert.False(t, cached)

		_, err := s.GetUserByAccessToken(ctx, auth.AccessTokenPlain)
		assert.ErrorIs(t, err, common.ErrRecordNotFound)
	})
}

func TestRenameUser(t *testing.T) {
	s, _, db := setupTestEnvironment(t)
	ctx := context.Background()

	alice, auth := createActiveUser(t, s, "alice")
	createActiveUser(t, s, "bob")

	t.Run("anonymous user", func(t *testing.T) {
		_, err := s.RenameUser(ctx, &AnonymousUser, "carol")
		assert.ErrorIs(t, err, common.ErrForbidden)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.RenameUser(ctx, alice, "bob")
		assert.ErrorIs(t, err, common.ErrConflict)
	})

	t.Run("stale version", func(t *testing.T) {
		stale := *alice
		stale.Version--
		_, err := s.RenameUser(ctx, &stale, "carol")
		assert.ErrorIs(t, err, ErrEditConflict)
	})

	t.Run("cascade failure rolls back the rename", func(t *testing.T) {
		cascade := &recordingCascade{err: common.FieldError(common.ErrConflict, "title", "taken")}
		cs := NewUserService(db, nil, nil, cascade)

		_, err := cs.RenameUser(ctx, alice, "carol")
		assert.ErrorIs(t, err, common.ErrConflict)
		assert.Equal(t, []string{"carol"}, cascade.calls)
		assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM users WHERE username = 'alice'"))
	})

	t.Run("rename runs the cascade and evicts the session", func(t *testing.T) {
		cascade := &recordingCascade{}
		cs := NewUserService(db, nil, s.c, cascade)

		_, err := s.GetUserByAccessToken(ctx, auth.AccessTokenPlain)
		assert.NoError(t, err)

		renamed, err := cs.RenameUser(ctx, alice, "dave")
		assert.NoError(t, err)
		assert.Equal(t, "dave", renamed.Username)
		assert.Equal(t, alice.Version+1, renamed.Version)
		assert.Equal(t, []string{"dave"}, cascade.calls)

		_, cached := s.c.Get(common.CacheKeyUserByAccessToken(hashToken(auth.AccessTokenPlain)))
		assert.False(t, cached)

		got, err := s.GetUserByAccessToken(ctx, auth.AccessTokenPlain)
		assert.NoError(t, err)
		assert.Equal(t, "dave", got.Username)
	})
}

func TestEnsureAdmin(t *testing.T) {
	s, _, db := setupTestEnvironment(t)
	ctx := context.Background()

	created, err := s.EnsureAdmin(ctx, "admin", "admin@example.com", testPassword)
	assert.NoError(t, err)
	assert.True(t, created)

	created, err = s.EnsureAdmin(ctx, "admin2", "admin2@example.com", testPassword)
	assert.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, 1, countRows(t, db, "SELECT COUNT(*) FROM users WHERE is_admin AND activated"))

	auth, err := s.LoginUser(ctx, "admin", testPassword)
	assert.NoError(t, err)

	admin, err := s.GetUserByAccessToken(ctx, auth.AccessTokenPlain)
	assert.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}
