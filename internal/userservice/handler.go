package userservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sushihentaime/socialnet/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
	ErrEditConflict          = fmt.Errorf("%w: unable to update the record due to an edit conflict, please try again", common.ErrConflict)
)

// NewUserService wires the user service. c and cascade may be nil: without
// a cache every authentication hits the database, without a cascade a
// rename leaves derived slugs alone.
func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache, cascade RenameCascade) *UserService {
	return &UserService{
		m:       newUserModel(db),
		mb:      mb,
		c:       c,
		cascade: cascade,
	}
}

// CreateUser creates a new user account and publishes a user.created event
// carrying the activation token.
func (s *UserService) CreateUser(ctx context.Context, username, email, password string) (*User, *Token, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return nil, nil, v.ValidationError()
	}

	u := User{
		Username: username,
		Email:    strings.ToLower(email),
	}

	err := u.Password.set(password)
	if err != nil {
		return nil, nil, err
	}

	var token *Token
	err = common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		if err := s.m.insertUser(ctx, &u); err != nil {
			return err
		}

		token, err = s.m.createToken(ctx, u.ID, ActivationTokenTime, TokenScopeActivate)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	event := common.UserCreatedEvent{
		Email:    u.Email,
		Username: u.Username,
		Token:    token.Plain,
	}

	err = common.PublishJSON(ctx, s.mb, event, common.UserCreatedKey, common.UserExchange)
	if err != nil {
		return nil, nil, err
	}

	return &u, token, nil
}

// ActivateUser activates a user account using the token, deletes the token
// and grants the permission to write blogs.
func (s *UserService) ActivateUser(ctx context.Context, token string) error {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return v.ValidationError()
	}

	hash := hashToken(token)

	user, err := s.m.getUserByToken(ctx, TokenScopeActivate, hash)
	if err != nil {
		return err
	}

	err = common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		if err := s.m.activateUserAccount(ctx, user.ID, user.Version); err != nil {
			return err
		}

		if err := s.m.deleteTokens(ctx, user.ID, TokenScopeActivate); err != nil {
			return err
		}

		return s.m.addUserPermission(ctx, user.ID, PermissionWriteBlog)
	})
	if err != nil {
		return err
	}

	s.evict(user.ID)
	return nil
}

// LoginUser checks the credentials and opens a new session.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrRecordNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.compare(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	if user.Password.needsRehash() {
		if err := user.Password.set(password); err != nil {
			return nil, err
		}

		if err := s.m.updateUserPassword(ctx, user.Password, user.ID); err != nil {
			return nil, err
		}
	}

	return s.m.createAuthToken(ctx, user.ID)
}

// GetUserByAccessToken resolves the bearer token of a request. Results are
// cached under the token hash.
func (s *UserService) GetUserByAccessToken(ctx context.Context, token string) (*User, error) {
	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	hash := hashToken(token)
	key := common.CacheKeyUserByAccessToken(hash)

	if s.c != nil {
		if cached, ok := s.c.Get(key); ok {
			if u, ok := cached.(*User); ok {
				return u, nil
			}
		}
	}

	user, err := s.m.getUserByAccessToken(ctx, hash)
	if err != nil {
		return nil, err
	}

	if s.c != nil {
		s.c.Set(key, user)
	}

	return user, nil
}

// LogoutUser revokes every session of the user.
func (s *UserService) LogoutUser(ctx context.Context, userID int) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	_, err := s.m.deleteAuthTokens(ctx, userID)
	if err != nil {
		return err
	}

	s.evict(userID)
	return nil
}

// RenameUser changes the username and, in the same transaction, rebuilds
// the slugs of every blog the user owns. A duplicate username or a slug
// collision rolls back both.
func (s *UserService) RenameUser(ctx context.Context, user *User, username string) (*User, error) {
	if user == nil || user.IsAnonymous() {
		return nil, common.ErrForbidden
	}

	v := common.NewValidator()
	validateUsername(v, username)
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	if username == user.Username {
		return user, nil
	}

	renamed := *user
	err := common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		if err := s.m.renameUser(ctx, &renamed, username); err != nil {
			return err
		}

		if s.cascade == nil {
			return nil
		}
		return s.cascade.RegenerateOwnerSlugs(ctx, renamed.ID, renamed.Username)
	})
	if err != nil {
		return nil, err
	}

	s.evict(renamed.ID)
	return &renamed, nil
}

// EnsureAdmin creates an activated admin account unless an admin already
// exists. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	v := common.NewValidator()
	validateUsername(v, username)
	validateEmail(v, email)
	validatePassword(v, password)
	if !v.Valid() {
		return false, v.ValidationError()
	}

	created := false
	err := common.RunInTransaction(ctx, s.m.db, func(ctx context.Context) error {
		exists, err := s.m.adminExists(ctx)
		if err != nil || exists {
			return err
		}

		u := User{
			Username:  username,
			Email:     strings.ToLower(email),
			Activated: true,
			Admin:     true,
		}
		if err := u.Password.set(password); err != nil {
			return err
		}

		if err := s.m.insertUser(ctx, &u); err != nil {
			return err
		}

		created = true
		return s.m.addUserPermission(ctx, u.ID, PermissionWriteBlog)
	})

	return created, err
}

// evict drops every cached session of the user.
func (s *UserService) evict(userID int) {
	if s.c == nil {
		return
	}

	s.c.DeleteFunc(func(_ string, value interface{}) bool {
		u, ok := value.(*User)
		return ok && u.ID == userID
	})
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func (u *User) IsActivated() bool {
	return u.Activated
}

func (u *User) ActorID() int {
	if u == nil {
		return 0
	}
	return u.ID
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Admin
}
