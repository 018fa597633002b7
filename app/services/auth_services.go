package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/meetup/app/models"
	"github.com/shashiranjanraj/meetup/app/repositories"
	"github.com/shashiranjanraj/meetup/pkg/apperr"
	"github.com/shashiranjanraj/meetup/pkg/auth"
	"github.com/shashiranjanraj/meetup/pkg/logger"
	"github.com/shashiranjanraj/meetup/pkg/middleware"
)

const (
	PasswordMinLen = 6
	PasswordMaxLen = 20

	msgWeakPassword   = "Password is too weak. Should be between 6 and 20 characters."
	msgBadCredentials = "User with those credentials does not exist."
	msgInvalidToken   = "Invalid token."
	msgUserNotFound   = "User not found."
	msgUserInactive   = "User inactive or deleted."
)

type AuthService struct {
	store  repositories.Store
	users  *UserCache
	google ProfileFetcher
}

// NewAuthService wires the credential service. google may be nil when social
// login is not configured.
func NewAuthService(store repositories.Store, users *UserCache, google ProfileFetcher) *AuthService {
	return &AuthService{store: store, users: users, google: google}
}

type SignupInput struct {
	Email       string
	Password    string
	DisplayName string
	FirstName   string
	LastName    string
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validPassword(p string) bool {
	n := utf8.RuneCountInString(p)
	return n >= PasswordMinLen && n <= PasswordMaxLen
}

// Signup registers a local account with the default user membership. No
// token is issued; the client logs in afterwards.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := NormalizeEmail(in.Email)

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict(msgEmailTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal("signup: find email", err)
	}
	if !validPassword(in.Password) {
		return nil, apperr.Validation(msgWeakPassword)
	}
	if _, err := s.store.Users().FindByDisplayName(ctx, in.DisplayName); err == nil {
		return nil, apperr.Conflict(msgDisplayNameTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internal("signup: find display name", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, internal("signup: hash", err)
	}

	u := models.NewUser(email, in.DisplayName, models.MethodLocal)
	u.Password = hash
	u.FirstName = in.FirstName
	u.LastName = in.LastName

	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, apperr.Conflict(msgEmailTaken)
		}
		return nil, internal("signup: create", err)
	}
	logger.WithCtx(ctx).Info("user registered", "user_id", u.ID)
	return u, nil
}

// Login checks local credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.store.Users().FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", apperr.Validation(msgBadCredentials)
		}
		return "", internal("login: find", err)
	}
	if u.Method != models.MethodLocal || !auth.CheckPassword(u.Password, password) {
		return "", apperr.Validation(msgBadCredentials)
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (string, error) {
	token, err := auth.GenerateToken(u.ID)
	if err != nil {
		return "", internal("issue token", err)
	}
	return token, nil
}

// Authenticate resolves a bearer token to an active user. It satisfies
// middleware.Authenticator.
func (s *AuthService) Authenticate(ctx context.Context, token string) (middleware.Identity, error) {
	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, apperr.Unauthorized(msgInvalidToken)
	}

	u, ok := s.users.Get(ctx, claims.UserID())
	if !ok {
		u, err = s.store.Users().FindByID(ctx, claims.UserID())
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, apperr.Unauthorized(msgUserNotFound)
			}
			return nil, internal("authenticate: find", err)
		}
		s.users.Put(ctx, u)
	}
	if !u.Active {
		return nil, apperr.Unauthorized(msgUserInactive)
	}
	return u, nil
}

// GoogleLogin signs in with a Google access token, creating the account on
// first use. An email already registered locally is a conflict.
func (s *AuthService) GoogleLogin(ctx context.Context, accessToken string) (string, error) {
	if s.google == nil {
		return "", apperr.Validation("Google login is not configured.")
	}
	profile, err := s.google.FetchProfile(ctx, accessToken)
	if err != nil {
		return "", err
	}
	email := NormalizeEmail(profile.Email)

	u, err := s.store.Users().FindByEmail(ctx, email)
	switch {
	case err == nil:
		if u.Method != models.MethodGoogle {
			return "", apperr.Conflict(msgEmailTaken)
		}
		if !u.Active {
			return "", apperr.Unauthorized(msgUserInactive)
		}
		return s.issue(u)
	case !errors.Is(err, repositories.ErrNotFound):
		return "", internal("google login: find", err)
	}

	name, err := s.freeDisplayName(ctx, email)
	if err != nil {
		return "", err
	}
	u = models.NewUser(email, name, models.MethodGoogle)
	u.GoogleID = profile.Sub
	u.FirstName = truncate(profile.GivenName, 20)
	u.LastName = truncate(profile.FamilyName, 30)

	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return "", apperr.Conflict(msgEmailTaken)
		}
		return "", internal("google login: create", err)
	}
	logger.WithCtx(ctx).Info("user registered", "user_id", u.ID, "method", models.MethodGoogle)
	return s.issue(u)
}

// freeDisplayName derives a display name from the email's local part and
// adds a random suffix until it is unused.
func (s *AuthService) freeDisplayName(ctx context.Context, email string) (string, error) {
	base := displayNameBase(email)
	name := base
	for attempt := 0; attempt < 5; attempt++ {
		_, err := s.store.Users().FindByDisplayName(ctx, name)
		if errors.Is(err, repositories.ErrNotFound) {
			return name, nil
		}
		if err != nil {
			return "", internal("google login: find display name", err)
		}
		name = base + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:5]
	}
	return "", apperr.Conflict(msgDisplayNameTaken)
}

func displayNameBase(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range local {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_' || r == '.' {
			b.WriteRune(r)
		}
	}
	name := b.String()
	if len(name) < 3 {
		name = "user" + name
	}
	return truncate(name, 14)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
