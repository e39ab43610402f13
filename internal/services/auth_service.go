package services

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/levelpap/training-backend/internal/database"
	"github.com/levelpap/training-backend/internal/models"
	"github.com/levelpap/training-backend/pkg/jwt"
	"github.com/mssola/user_agent"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// passwordResetTTL is how long a password reset token stays valid
const passwordResetTTL = 1 * time.Hour

// ErrInvalidCredentials is returned on a failed login. Deliberately vague
// so callers cannot probe which emails are registered.
var ErrInvalidCredentials = errors.New("invalid email or password")

// LoginResponse is returned after a successful login or token refresh
type LoginResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         *models.User `json:"user"`
}

// AuthService handles registration, login and account recovery
type AuthService struct {
	userRepo            *database.UserRepository
	userSessionRepo     *database.UserSessionRepository
	jwtService          *jwt.Service
	accessTokenDuration time.Duration
	bcryptCost          int
	logger              *logrus.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo *database.UserRepository,
	userSessionRepo *database.UserSessionRepository,
	jwtService *jwt.Service,
	accessTokenDuration time.Duration,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo:            userRepo,
		userSessionRepo:     userSessionRepo,
		jwtService:          jwtService,
		accessTokenDuration: accessTokenDuration,
		bcryptCost:          bcryptCost,
		logger:              logger,
	}
}

// Register creates a new user account. Self-registration is always a
// student; elevated roles are assigned by an admin afterwards.
func (s *AuthService) Register(req *models.RegisterRequest) (*models.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	existing, err := s.userRepo.GetByEmail(req.Email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: email is already registered", ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	verificationToken, err := generateToken()
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:                  req.Email,
		PasswordHash:           string(hash),
		Name:                   req.Name,
		Phone:                  req.Phone,
		Role:                   models.RoleStudent,
		EmailVerificationToken: &verificationToken,
		IsActive:               true,
	}

	if err := s.userRepo.Create(user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email is already registered", ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User registered")

	return user, nil
}

// Login authenticates a user and issues a token pair. The device the user
// signed in from is recorded for the login audit trail.
func (s *AuthService) Login(req *models.LoginRequest, ipAddress, userAgent string) (*LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", ErrForbidden)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	response, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.recordLoginSession(user, ipAddress, userAgent)

	if err := s.userRepo.UpdateLastLogin(user.ID, time.Now()); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to update last login")
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("User logged in")

	return response, nil
}

// RefreshToken issues a fresh token pair from a valid refresh token
func (s *AuthService) RefreshToken(refreshToken string) (*LoginResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid refresh token", ErrForbidden)
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user no longer exists", ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is deactivated", ErrForbidden)
	}

	return s.issueTokens(user)
}

// GetProfile returns a user's own profile
func (s *AuthService) GetProfile(userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// UpdateProfile updates a user's own name and phone
func (s *AuthService) UpdateProfile(userID uuid.UUID, req *models.UpdateProfileRequest) (*models.User, error) {
	if err := s.userRepo.UpdateProfile(userID, req.Name, req.Phone); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return s.GetProfile(userID)
}

// ListUsers retrieves registered users with pagination (admin only)
func (s *AuthService) ListUsers(limit, offset int) ([]models.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.userRepo.List(limit, offset)
}

// ForgotPassword issues a password reset token. The token is returned to
// the caller for delivery; the response to the end user is identical
// whether or not the email exists.
func (s *AuthService) ForgotPassword(email string) (string, error) {
	user, err := s.userRepo.GetByEmail(email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	if err := s.userRepo.SetResetToken(user.ID, token, time.Now().Add(passwordResetTTL)); err != nil {
		return "", fmt.Errorf("failed to set reset token: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset token issued")
	return token, nil
}

// ResetPassword sets a new password using a valid reset token
func (s *AuthService) ResetPassword(req *models.ResetPasswordRequest) error {
	user, err := s.userRepo.GetByResetToken(req.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: invalid or expired reset token", ErrInvalidRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to look up reset token: %w", err)
	}

	if user.PasswordResetExpires == nil || user.PasswordResetExpires.Before(time.Now()) {
		return fmt.Errorf("%w: invalid or expired reset token", ErrInvalidRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(user.ID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Password reset completed")
	return nil
}

// VerifyEmail marks an email address verified using its token
func (s *AuthService) VerifyEmail(token string) error {
	user, err := s.userRepo.GetByVerificationToken(token)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: invalid verification token", ErrInvalidRequest)
	}
	if err != nil {
		return fmt.Errorf("failed to look up verification token: %w", err)
	}

	if err := s.userRepo.MarkEmailVerified(user.ID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("Email verified")
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*LoginResponse, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.accessTokenDuration.Seconds()),
		User:         user,
	}, nil
}

// recordLoginSession stores the device fingerprint for the login audit.
// Failures are logged and never block the login.
func (s *AuthService) recordLoginSession(user *models.User, ipAddress, userAgent string) {
	ua := user_agent.New(userAgent)
	browser, _ := ua.Browser()

	session := &models.UserSession{
		UserID:    user.ID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Browser:   browser,
		OS:        ua.OS(),
		IsMobile:  ua.Mobile(),
	}

	if err := s.userSessionRepo.Create(session); err != nil {
		s.logger.WithError(err).WithField("user_id", user.ID).Warn("Failed to record login session")
	}
}

// generateToken returns 32 hex characters of randomness for email
// verification and password reset tokens
func generateToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
