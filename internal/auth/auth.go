package auth

import (
	"context"
	"encoding/gob"
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"golang.org/x/crypto/bcrypt"

	"arbor/internal/models"
)

const sessionName = "arbor-session"

// Store will hold the session store.
var Store *sessions.CookieStore

func InitSessionStore(sessionKey string) error {
	if len(sessionKey) < 32 {
		return errors.New("session key must be at least 32 characters long")
	}
	Store = sessions.NewCookieStore([]byte(sessionKey))
	Store.Options.HttpOnly = true
	Store.Options.Path = "/"
	Store.Options.SameSite = http.SameSiteLaxMode // Protect against CSRF
	return nil
}

func init() {
	gob.Register(&models.User{})
}

// Service provides authentication-related services.
type Service struct {
	Repo *Repository
}

// NewService creates a new authentication service.
func NewService(repo *Repository) *Service {
	return &Service{Repo: repo}
}

// RegisterUser creates a new editor account.
func (s *Service) RegisterUser(username, displayName, password string) (*models.User, error) {
	if _, err := s.Repo.FindUserByUsername(username); err == nil {
		return nil, errors.New("user already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	passwordHash := string(hashedPassword)

	user := &models.User{
		Username:    username,
		DisplayName: displayName,
	}
	identity := &models.Identity{
		Provider:       "local",
		ProviderUserID: username,
		PasswordHash:   &passwordHash,
	}

	if err := s.Repo.CreateUser(user, identity); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and creates a session.
func (s *Service) Login(w http.ResponseWriter, r *http.Request, username, password string) (*models.User, error) {
	user, err := s.Repo.FindUserByUsername(username)
	if err != nil {
		return nil, err
	}

	identity, err := s.Repo.FindIdentityByProvider("local", username)
	if err != nil {
		return nil, err
	}

	if identity.PasswordHash == nil {
		return nil, errors.New("user has no password set")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(*identity.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}

	session, _ := Store.Get(r, sessionName)
	session.Values["user"] = user

	// Set Secure based on request scheme or X-Forwarded-Proto so the cookie
	// behaves behind reverse proxies.
	session.Options.Secure = r.URL.Scheme == "https" || r.Header.Get("X-Forwarded-Proto") == "https"

	session.Save(r, w)

	return user, nil
}

// Logout destroys a user's session.
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := Store.Get(r, sessionName)
	delete(session.Values, "user")
	session.Options.Secure = r.URL.Scheme == "https" || r.Header.Get("X-Forwarded-Proto") == "https"
	session.Save(r, w)
}

// GetCurrentUser returns the currently logged-in user.
func (s *Service) GetCurrentUser(r *http.Request) *models.User {
	session, _ := Store.Get(r, sessionName)
	if user, ok := session.Values["user"].(*models.User); ok {
		return user
	}
	return nil
}

type contextKey string

// UserContextKey is the request context key holding the current user.
const UserContextKey contextKey = "user"

// UserFromContext returns the user stored by the WithUser middleware.
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(UserContextKey).(*models.User)
	return user
}
