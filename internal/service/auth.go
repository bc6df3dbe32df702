package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// registration holds the sign-up form. Bounds follow the users table;
// bcrypt only accepts passwords up to 72 bytes.
type registration struct {
	Username string `json:"username" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"min=4,maxbytes=72"`
}

// Session is the result of a successful login. Token is the signed value
// stored in the session cookie.
type Session struct {
	Token     string
	User      *model.User
	ExpiresAt time.Time
}

// AuthService registers users and manages their login sessions.
type AuthService struct {
	Users    *repository.UserRepo
	Sessions *repository.SessionRepo
	Log      *logrus.Logger

	secret      string
	ttl         time.Duration
	bcryptCost  int
	adminEmails map[string]bool
}

func NewAuthService(cfg config.Config, users *repository.UserRepo, sessions *repository.SessionRepo, log *logrus.Logger) *AuthService {
	admins := make(map[string]bool, len(cfg.AdminEmails))
	for _, e := range cfg.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = true
	}
	return &AuthService{
		Users:       users,
		Sessions:    sessions,
		Log:         log,
		secret:      cfg.SessionSecret,
		ttl:         cfg.SessionTTL,
		bcryptCost:  cfg.BcryptCost,
		adminEmails: admins,
	}
}

// Register creates a user with a hashed password. Emails listed in
// ADMIN_EMAILS receive the ADMIN role.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if err := check(registration{Username: username, Email: email, Password: password}); err != nil {
		return nil, err
	}

	taken, err := s.Users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check identity: %w", err)
	}
	if taken {
		return nil, ErrDuplicateIdentity
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{Username: username, Email: email, PasswordHash: hash, Role: model.RoleUser}
	if s.adminEmails[email] {
		u.Role = model.RoleAdmin
	}
	if err := s.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.Log.WithFields(logrus.Fields{"user_id": u.ID, "email": u.Email, "role": u.Role}).Info("user registered")
	return u, nil
}

// Authenticate checks the credentials and opens a new session.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		s.Log.WithField("user_id", u.ID).Info("login rejected")
		return nil, ErrInvalidCredentials
	}

	tok, err := utils.NewSessionToken(s.secret, u.ID, u.Role, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	if err := s.Sessions.Store(ctx, u.ID, utils.HashToken(tok.SID), tok.Exp); err != nil {
		return nil, fmt.Errorf("store session: %w", err)
	}
	s.Log.WithField("user_id", u.ID).Info("user logged in")
	return &Session{Token: tok.Token, User: u, ExpiresAt: tok.Exp}, nil
}

// Authorize returns ErrUnauthenticated when u is nil and ErrForbidden when
// u holds none of roles.
func Authorize(u *model.User, roles ...string) error {
	if u == nil {
		return ErrUnauthenticated
	}
	if !slices.Contains(roles, u.Role) {
		return ErrForbidden
	}
	return nil
}

// TokenSubject returns the user id signed into token. Only the signature
// and expiry are checked; revocation is left to ResolveSession.
func (s *AuthService) TokenSubject(token string) (uint64, bool) {
	claims, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// ResolveSession returns the user owning a live session token.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	uid, err := s.Sessions.Validate(ctx, utils.HashToken(claims.SID))
	if err != nil {
		if errors.Is(err, repository.ErrSessionInvalid) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if uid != claims.UserID {
		return nil, ErrUnauthenticated
	}
	u, err := s.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

// Logout revokes the session behind token. Unknown, expired or already
// revoked tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := utils.ParseSessionToken(s.secret, token)
	if err != nil {
		return nil
	}
	if err := s.Sessions.RevokeByHash(ctx, utils.HashToken(claims.SID)); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.Log.WithField("user_id", claims.UserID).Info("user logged out")
	return nil
}
