package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsline/fieldreport-server/internal/models"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
// Deliberately indistinguishable between the two.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService verifies credentials and mints JWTs carrying the caller's
// id, name, and role claims.
type AuthService struct {
	db       *pgxpool.Pool
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.SugaredLogger
	now      func() time.Time
}

// NewAuthService creates a new auth service
func NewAuthService(db *pgxpool.Pool, secret string, tokenTTL time.Duration, logger *zap.SugaredLogger) *AuthService {
	return &AuthService{
		db:       db,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Login checks the password against the stored bcrypt hash and returns a
// signed token plus the user record.
func (s *AuthService) Login(ctx context.Context, name, password string) (string, *models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, role, password_hash FROM users WHERE name = $1`, name,
	).Scan(&u.ID, &u.Name, &u.Role, &u.PasswordHash)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil, ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.MapClaims{
		"sub":  u.ID.String(),
		"name": u.Name,
		"role": u.Role,
		"iat":  now.Unix(),
		"exp":  now.Add(s.tokenTTL).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Infow("User logged in", "user", u.ID, "role", u.Role)
	return token, &u, nil
}
