package service

import (
	"errors"
	"strings"
	"time"

	"github.com/somar/dispatch/internal/config"
	"github.com/somar/dispatch/internal/constants"
	"github.com/somar/dispatch/internal/logger"
	"github.com/somar/dispatch/internal/models"
	"github.com/somar/dispatch/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// AuthService authenticates dispatchers and riders and issues JWTs. Rider
// accounts are provisioned lazily: the first authenticated profile fetch for
// an unknown identity creates the rider row.
type AuthService struct {
	cfg            *config.Config
	dispatcherRepo repository.DispatcherRepository
	riderRepo      repository.RiderRepository
}

// NewAuthService creates the auth service.
func NewAuthService(cfg *config.Config, dispatcherRepo repository.DispatcherRepository, riderRepo repository.RiderRepository) *AuthService {
	return &AuthService{
		cfg:            cfg,
		dispatcherRepo: dispatcherRepo,
		riderRepo:      riderRepo,
	}
}

// HashPassword hashes a password with bcrypt.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword checks a password against its hash.
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// JWTClaims carries the authenticated principal.
type JWTClaims struct {
	SubjectID    uint   `json:"subject_id"`
	Role         string `json:"role"`
	Name         string `json:"name"`
	AuthUID      string `json:"auth_uid,omitempty"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// GenerateJWT signs a token for the given principal.
func (s *AuthService) GenerateJWT(subjectID uint, role, name, authUID string, tokenVersion uint64) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)

	claims := JWTClaims{
		SubjectID:    subjectID,
		Role:         role,
		Name:         name,
		AuthUID:      authUID,
		TokenVersion: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseJWT parses and validates a token.
func (s *AuthService) ParseJWT(tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// LoginDispatcher authenticates a dashboard operator.
func (s *AuthService) LoginDispatcher(username, password string) (*models.Dispatcher, string, time.Time, error) {
	dispatcher, err := s.dispatcherRepo.GetByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if dispatcher == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(dispatcher.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateJWT(dispatcher.ID, constants.RoleDispatcher, dispatcher.Username, "", dispatcher.TokenVersion)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	dispatcher.LastLoginAt = &now
	if err := s.dispatcherRepo.Update(dispatcher); err != nil {
		logger.Warnw("dispatcher_last_login_update_failed", "dispatcher_id", dispatcher.ID, "error", err)
	}
	return dispatcher, token, expiresAt, nil
}

// LoginRider authenticates a rider by email.
func (s *AuthService) LoginRider(email, password string) (*models.Rider, string, time.Time, error) {
	rider, err := s.riderRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if rider == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := s.VerifyPassword(rider.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if !rider.Active {
		return nil, "", time.Time{}, ErrAccountDisabled
	}

	token, expiresAt, err := s.GenerateJWT(rider.ID, constants.RoleRider, rider.Name, rider.AuthUID, 0)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	rider.LastLoginAt = &now
	if err := s.riderRepo.Update(rider); err != nil {
		logger.Warnw("rider_last_login_update_failed", "rider_id", rider.ID, "error", err)
	}
	return rider, token, expiresAt, nil
}

// ProvisionRiderInput describes an external identity to back a rider row.
type ProvisionRiderInput struct {
	AuthUID string
	Name    string
	Phone   string
	Email   string
}

// GetOrProvisionRider returns the rider for an external identity, creating
// the row on first sight.
func (s *AuthService) GetOrProvisionRider(input ProvisionRiderInput) (*models.Rider, error) {
	authUID := strings.TrimSpace(input.AuthUID)
	if authUID == "" {
		return nil, ErrInvalidCredentials
	}
	rider, err := s.riderRepo.GetByAuthUID(authUID)
	if err != nil {
		return nil, err
	}
	if rider != nil {
		return rider, nil
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Rider"
	}
	now := time.Now()
	rider = &models.Rider{
		AuthUID:   authUID,
		Name:      name,
		Phone:     strings.TrimSpace(input.Phone),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Active:    true,
		Verified:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.riderRepo.Create(rider); err != nil {
		// Lost a provisioning race; the row exists now.
		existing, queryErr := s.riderRepo.GetByAuthUID(authUID)
		if queryErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	logger.Infow("rider_provisioned", "rider_id", rider.ID, "auth_uid", authUID)
	return rider, nil
}
