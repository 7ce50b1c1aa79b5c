package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tfrhyde/vaquero-marketplace/internal/listing/domain"
	"github.com/tfrhyde/vaquero-marketplace/internal/platform/logger"
)

// Claims is the payload of an access token. RegisteredClaims.ID carries the session id.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Config struct {
	JWTSecret  string
	SessionTTL time.Duration
	BcryptCost int
}

// Provider is a self-hosted identity provider: bcrypt passwords, HS256 tokens and a
// server-side session registry so that sign-out and account deletion revoke tokens.
type Provider struct {
	users    domain.UserRepository
	sessions domain.SessionStore
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
	logger   *logger.Logger
}

func NewProvider(cfg Config, users domain.UserRepository, sessions domain.SessionStore, log *logger.Logger) *Provider {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Provider{
		users:    users,
		sessions: sessions,
		secret:   []byte(cfg.JWTSecret),
		ttl:      ttl,
		cost:     cost,
		now:      time.Now,
		logger:   log.Named("IdentityProvider"),
	}
}

func (p *Provider) SignUp(ctx context.Context, email, password string, profile domain.Profile) (*domain.Session, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    profile.FirstName,
		LastName:     profile.LastName,
		CreatedAt:    p.now().UTC(),
	}
	if err := p.users.Create(ctx, user); err != nil {
		return nil, err
	}
	p.logger.Info("User registered", zap.String("user_id", user.ID))
	return p.issue(ctx, user)
}

func (p *Provider) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := p.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, &domain.AuthError{Reason: "Invalid email or password."}
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, &domain.AuthError{Reason: "Invalid email or password."}
	}
	return p.issue(ctx, user)
}

func (p *Provider) issue(ctx context.Context, user *domain.User) (*domain.Session, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	if err := p.sessions.Register(ctx, claims.ID, user.ID, p.ttl); err != nil {
		return nil, fmt.Errorf("failed to register session: %w", err)
	}
	return &domain.Session{AccessToken: signed, ExpiresAt: expiresAt.UTC(), User: user}, nil
}

func (p *Provider) parse(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	if claims.ID == "" || claims.UserID == "" {
		return nil, fmt.Errorf("%w: token without session", domain.ErrUnauthorized)
	}
	return claims, nil
}

// SignOut revokes the session of token. Tokens that no longer parse are already signed out.
func (p *Provider) SignOut(ctx context.Context, token string) error {
	claims, err := p.parse(token)
	if err != nil {
		return nil
	}
	return p.sessions.Revoke(ctx, claims.ID)
}

func (p *Provider) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := p.parse(token)
	if err != nil {
		return nil, err
	}
	active, err := p.sessions.IsActive(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check session: %w", err)
	}
	if !active {
		return nil, fmt.Errorf("%w: session revoked", domain.ErrUnauthorized)
	}
	user, err := p.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user no longer exists", domain.ErrUnauthorized)
		}
		return nil, err
	}
	return user, nil
}

func (p *Provider) DeleteUser(ctx context.Context, userID string) error {
	if err := p.users.Delete(ctx, userID); err != nil {
		return err
	}
	if err := p.sessions.RevokeAll(ctx, userID); err != nil {
		p.logger.Warn("Failed to revoke sessions of deleted user", zap.String("user_id", userID), zap.Error(err))
	}
	p.logger.Info("User deleted", zap.String("user_id", userID))
	return nil
}
