package service

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/souqly/marketplace-system/internal/core/domain"
	"github.com/souqly/marketplace-system/internal/core/ports"
)

// SessionProvider resolves the current authenticated principal and exposes
// session changes as an observable value. Dependent components (role
// watcher, favorites cache) register via OnChange and re-initialize whenever
// the principal changes, including transitions to and from signed-out.
type SessionProvider struct {
	users     ports.UserRepository
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger

	mu        sync.RWMutex
	current   *domain.Principal
	listeners map[int]func(*domain.Principal)
	nextID    int
}

func NewSessionProvider(users ports.UserRepository, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *SessionProvider {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &SessionProvider{
		users:     users,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
		listeners: make(map[int]func(*domain.Principal)),
	}
}

// Current returns the signed-in principal, or nil.
func (p *SessionProvider) Current() *domain.Principal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.current
}

// OnChange registers a listener fired synchronously on every session
// transition. The returned function unregisters it.
func (p *SessionProvider) OnChange(fn func(*domain.Principal)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// SignUp registers a new account. The session is not established; callers
// follow with SignIn.
func (p *SessionProvider) SignUp(ctx context.Context, email, password, displayName string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := p.users.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	p.log.Info().Str("user_id", created.ID).Msg("account created")
	return created, nil
}

// SignIn authenticates, establishes the session, and returns a signed token.
func (p *SessionProvider) SignIn(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := p.users.FindByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := p.issueToken(user)
	if err != nil {
		return "", nil, err
	}

	p.setCurrent(user.Principal())
	return token, user, nil
}

// SignOut clears the session.
func (p *SessionProvider) SignOut() {
	p.setCurrent(nil)
}

// Restore re-establishes the session from a previously issued token, the
// cold-start equivalent of the remote auth service's currentSession call.
func (p *SessionProvider) Restore(token string) (*domain.Principal, error) {
	principal, err := p.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	p.setCurrent(principal)
	return principal, nil
}

// VerifyToken validates a session token and extracts its principal without
// touching the held session.
func (p *SessionProvider) VerifyToken(token string) (*domain.Principal, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(p.jwtSecret), nil
	})
	if err != nil || !tkn.Valid {
		return nil, domain.ErrNoSession
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, domain.ErrNoSession
	}
	email, _ := claims["email"].(string)
	return &domain.Principal{ID: sub, Email: email}, nil
}

func (p *SessionProvider) issueToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"email": user.Email,
		"exp":   time.Now().Add(p.tokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(p.jwtSecret))
}

// setCurrent replaces the held principal and notifies listeners. Listeners
// run synchronously, outside the lock, in registration-independent order.
func (p *SessionProvider) setCurrent(principal *domain.Principal) {
	p.mu.Lock()
	p.current = principal
	fns := make([]func(*domain.Principal), 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(principal)
	}
}
