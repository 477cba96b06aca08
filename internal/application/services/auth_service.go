package services

import (
	"errors"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/postpal/postpal-go/internal/infrastructure/observability/logging"
	"github.com/postpal/postpal-go/internal/infrastructure/security"
	"github.com/postpal/postpal-go/pkg/config"
)

// ErrInvalidCredentials rejects a login attempt.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AdminRole is the only role the dashboard issues.
const AdminRole = "admin"

// AuthService issues and validates admin JWTs for the analytics dashboard.
type AuthService struct {
	passwordHash string
	jwtSecret    string
	logger       *logging.ChanneledLogger
}

// NewAuthService reads auth material from the environment. A missing
// JWT_SECRET gets an ephemeral secret, which invalidates sessions on restart.
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		generated, err := security.GenerateSecureKey(64)
		if err != nil {
			logger.Auth().Error("Failed to generate ephemeral JWT secret, admin auth disabled", "error", err.Error())
		} else {
			jwtSecret = generated
			logger.Auth().Warn("JWT_SECRET not set, using ephemeral secret; admin sessions will not survive restarts")
		}
	}

	passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if passwordHash == "" {
		logger.Auth().Warn("ADMIN_PASSWORD_HASH not set, admin login disabled")
	}

	return &AuthService{
		passwordHash: passwordHash,
		jwtSecret:    jwtSecret,
		logger:       logger,
	}
}

// Enabled reports whether admin login is configured.
func (s *AuthService) Enabled() bool {
	return s.passwordHash != ""
}

// AuthenticateAdmin checks the password and issues a signed admin token.
func (s *AuthService) AuthenticateAdmin(password string) (string, error) {
	if s.passwordHash == "" || s.jwtSecret == "" || password == "" {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := security.GenerateAdminToken(AdminRole, s.jwtSecret, config.AdminTokenTTL)
	if err != nil {
		s.logger.Auth().Error("Admin token generation failed", "error", err.Error())
		return "", err
	}

	s.logger.Auth().Info("Admin authenticated")
	return token, nil
}

// ValidateToken checks a presented token and reports its role.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	if s.jwtSecret == "" {
		return "", errors.New("admin auth not configured")
	}
	claims, err := security.ValidateJWT(tokenString, s.jwtSecret)
	if err != nil {
		return "", err
	}
	return security.RoleFromClaims(claims), nil
}
