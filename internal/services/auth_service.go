package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/farellandr/eventreg/internal/apperrors"
	"github.com/farellandr/eventreg/internal/helpers"
	"github.com/farellandr/eventreg/internal/models"
	"github.com/farellandr/eventreg/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// Claims are carried by staff access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type LoginResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type AuthService struct {
	store  repository.Store
	secret []byte
	ttl    time.Duration
	log    *zerolog.Logger
}

func NewAuthService(store repository.Store, secret string, ttl time.Duration, log *zerolog.Logger) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{store: store, secret: []byte(secret), ttl: ttl, log: log}
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.store.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal(err)
		}
		helpers.CheckPassword("", password)
		return nil, apperrors.New(apperrors.KindUnauthorized, "Invalid credentials.")
	}
	if !helpers.CheckPassword(user.Password, password) {
		return nil, apperrors.New(apperrors.KindUnauthorized, "Invalid credentials.")
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: user.ID.String(),
		Role:   user.Role.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &LoginResult{Token: tokenString, User: user}, nil
}

// ParseToken validates an HS256 access token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, apperrors.New(apperrors.KindUnauthorized, "Invalid or expired token.")
	}
	return &claims, nil
}

// SeedRoles creates the staff roles when missing.
func (s *AuthService) SeedRoles(ctx context.Context) error {
	for _, name := range []string{models.RoleAdmin, models.RoleOrganizer} {
		if _, err := s.store.Users().FindRole(ctx, name); err == nil {
			continue
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		if err := s.store.Users().CreateRole(ctx, &models.Role{Name: name}); err != nil && !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
	}
	return nil
}

// SeedAdmin creates the roles and, when email is set, an admin account
// unless one already exists under that address.
func (s *AuthService) SeedAdmin(ctx context.Context, email, password string) error {
	if err := s.SeedRoles(ctx); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	if _, err := s.store.Users().FindByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	role, err := s.store.Users().FindRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		return err
	}
	if err := s.store.Users().Create(ctx, &models.User{Email: email, Password: hash, RoleID: role.ID}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return err
	}
	s.log.Info().Str("email", email).Msg("admin account created")
	return nil
}
