package userservice

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sushihentaime/nanoblog/internal/common"
)

var (
	ErrAuthenticationFailure = fmt.Errorf("unauthorized access")
	ErrInactiveAccount       = errors.New("account has not been confirmed")
)

func NewUserService(db *sql.DB, mb common.MessageProducer, c *common.Cache, bloggers BloggerCreator) *UserService {
	return &UserService{
		db:       db,
		m:        newUserModel(db),
		mb:       mb,
		c:        c,
		bloggers: bloggers,
	}
}

// CreateUser registers an inactive account with its blogger profile and publishes a
// user.created event carrying the confirmation token. Nothing is persisted unless
// the event was published.
func (s *UserService) CreateUser(ctx context.Context, in RegisterInput) (*User, error) {
	v := common.NewValidator()
	ValidateRegistration(v, in)

	_, badUsername := v.Errors["username"]
	_, badEmail := v.Errors["email"]
	if !badUsername || !badEmail {
		usernameTaken, emailTaken, err := s.m.taken(ctx, in.Username, in.Email)
		if err != nil {
			return nil, err
		}
		if !badUsername {
			v.Check(!usernameTaken, "username", "username is already taken")
		}
		if !badEmail {
			v.Check(!emailTaken, "email", "an account with that email already exists")
		}
	}

	if !v.Valid() {
		return nil, v.ValidationError()
	}

	u := &User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	}

	err := u.Password.set(in.Password1)
	if err != nil {
		return nil, err
	}

	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.m.insertUser(tx, ctx, u); err != nil {
			return err
		}

		if err := s.bloggers.CreateBlogger(tx, ctx, u.ID); err != nil {
			return err
		}

		token, err := s.m.createToken(tx, ctx, u.ID, ActivationTokenTime, TokenScopeActivate)
		if err != nil {
			return err
		}

		msg, err := json.Marshal(common.UserCreatedMessage{
			Email:    u.Email,
			Username: u.Username,
			Token:    token.Plain,
		})
		if err != nil {
			return err
		}

		if err := s.mb.Publish(ctx, msg, common.UserCreatedKey, common.UserExchange); err != nil {
			return common.UpstreamError{Service: "message broker", Err: err}
		}

		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicateUsername):
			return nil, common.FieldError("username", "username is already taken")
		case errors.Is(err, ErrDuplicateEmail):
			return nil, common.FieldError("email", "an account with that email already exists")
		default:
			return nil, err
		}
	}

	return u, nil
}

// ConfirmUser activates the account of username when token is its live activation
// token. The token is consumed and the user is granted permission to post.
func (s *UserService) ConfirmUser(ctx context.Context, username, token string) error {
	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		return err
	}

	v := common.NewValidator()
	ValidateToken(v, token)
	if !v.Valid() {
		return ErrInvalidToken
	}

	ok, err := s.m.checkToken(ctx, user, TokenScopeActivate, token)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidToken
	}

	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.m.activateUserAccount(tx, ctx, user.ID, user.Version); err != nil {
			return err
		}

		if err := s.m.deleteTokens(tx, ctx, user.ID, TokenScopeActivate); err != nil {
			return err
		}

		return s.m.addUserPermission(tx, ctx, user.ID, PermissionWritePost)
	})
	if err != nil {
		return err
	}

	if s.c != nil {
		s.c.Delete(common.CacheKeyUserByUsername(username))
	}

	return nil
}

// LoginUser checks the credentials of an activated user and issues a fresh access
// and refresh token, replacing any previous pair.
func (s *UserService) LoginUser(ctx context.Context, username, password string) (*AuthToken, error) {
	v := common.NewValidator()
	v.Check(username != "", "username", "must be provided")
	v.Check(password != "", "password", "must be provided")
	if !v.Valid() {
		return nil, v.ValidationError()
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			return nil, ErrAuthenticationFailure
		default:
			return nil, err
		}
	}

	ok, err := user.Password.matches(password)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAuthenticationFailure
	}

	if !user.Activated {
		return nil, ErrInactiveAccount
	}

	previous, err := s.m.getAuthToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	var authToken *AuthToken
	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.m.deleteAuthToken(tx, ctx, user.ID); err != nil {
			return err
		}

		authToken, err = s.m.createAuthToken(tx, ctx, user.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if previous != nil && s.c != nil {
		s.c.Delete(common.CacheKeyUserByAccessToken(previous.AccessTokenHash))
	}

	return authToken, nil
}

// GetUserByAccessToken resolves a bearer token to its user, permissions included.
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
			return cached.(*User), nil
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

// GetUserByUsername returns the public identity of username.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	key := common.CacheKeyUserByUsername(username)

	if s.c != nil {
		if cached, ok := s.c.Get(key); ok {
			return cached.(*User), nil
		}
	}

	user, err := s.m.getUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	user.Password = Password{}

	if s.c != nil {
		s.c.Set(key, user)
	}

	return user, nil
}

func (s *UserService) LogoutUser(ctx context.Context, userID int) error {
	v := common.NewValidator()
	validateInt(v, userID, "user_id")
	if !v.Valid() {
		return v.ValidationError()
	}

	authToken, err := s.m.getAuthToken(ctx, userID)
	if err != nil {
		return err
	}

	err = common.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.m.deleteAuthToken(tx, ctx, userID)
	})
	if err != nil {
		return err
	}

	if authToken != nil && s.c != nil {
		s.c.Delete(common.CacheKeyUserByAccessToken(authToken.AccessTokenHash))
	}

	return nil
}

func (u *User) IsAnonymous() bool {
	return u == &AnonymousUser
}

func (u *User) IsActivated() bool {
	return u.Activated
}
