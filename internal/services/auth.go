package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"timebank-backend/internal/models"
	"timebank-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	sessionTokenDays = 30
	resetTokenTTL    = 15 * time.Minute
	purposeSession   = "session"
	purposeReset     = "reset"
)

// ErrValidation marks a form-input error caught before any external call.
var ErrValidation = errors.New("validation failed")

// ErrInvalidCredentials is returned on a failed sign-in.
var ErrInvalidCredentials = errors.New("invalid email or password")

var (
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	birthDateRe = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[01])/(0[1-9]|1[0-2])/\d{4}$`)
	nifRe       = regexp.MustCompile(`^\d{9}$`)
	upperRe     = regexp.MustCompile(`[A-Z]`)
	specialRe   = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// AuthService handles sign-up, sign-in and password resets
type AuthService struct {
	profiles  *repository.ProfileRepository
	jwtSecret string
}

// NewAuthService creates a new auth service
func NewAuthService(profiles *repository.ProfileRepository, jwtSecret string) *AuthService {
	return &AuthService{
		profiles:  profiles,
		jwtSecret: jwtSecret,
	}
}

// SignUpRequest carries the signup form fields
type SignUpRequest struct {
	FullName        string `json:"full_name"`
	BirthDate       string `json:"birth_date"`
	NIF             string `json:"nif"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	Skill           string `json:"skill"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	TermsAccepted   bool   `json:"terms_accepted"`
}

// Validate checks the signup form the way the mobile client did, before
// touching any external collaborator.
func (r *SignUpRequest) Validate() error {
	if len(r.FullName) < 3 {
		return fmt.Errorf("%w: full name must have at least 3 characters", ErrValidation)
	}
	if !birthDateRe.MatchString(r.BirthDate) {
		return fmt.Errorf("%w: birth date must use format DD/MM/YYYY", ErrValidation)
	}
	if !nifRe.MatchString(r.NIF) {
		return fmt.Errorf("%w: nif must be 9 digits", ErrValidation)
	}
	if r.Address == "" {
		return fmt.Errorf("%w: address is required", ErrValidation)
	}
	if r.Phone == "" {
		return fmt.Errorf("%w: phone is required", ErrValidation)
	}
	if r.Skill == "" {
		return fmt.Errorf("%w: skill is required", ErrValidation)
	}
	if !emailRe.MatchString(r.Email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	if err := validPassword(r.Password); err != nil {
		return err
	}
	if r.Password != r.ConfirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrValidation)
	}
	if !r.TermsAccepted {
		return fmt.Errorf("%w: terms must be accepted", ErrValidation)
	}
	return nil
}

func validPassword(pw string) error {
	if len(pw) < 6 || !upperRe.MatchString(pw) || !specialRe.MatchString(pw) {
		return fmt.Errorf("%w: password must be at least 6 characters with an uppercase letter and a special character", ErrValidation)
	}
	return nil
}

// SignUp validates the form, creates the profile and returns a session.
func (s *AuthService) SignUp(ctx context.Context, req SignUpRequest) (*models.Session, *models.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}

	exists, err := s.profiles.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, nil, fmt.Errorf("%w: email already registered", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	profile := &models.Profile{
		ID:        uuid.New().String(),
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		Address:   req.Address,
		BirthDate: req.BirthDate,
		NIF:       req.NIF,
		Skill:     req.Skill,
		Favorites: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.profiles.Create(ctx, profile, string(hash)); err != nil {
		return nil, nil, fmt.Errorf("failed to create profile: %w", err)
	}

	token, err := s.GenerateJWT(profile.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session := &models.Session{
		UserID: profile.ID,
		Email:  profile.Email,
		Token:  token,
	}
	return session, profile, nil
}

// SignIn verifies the credentials and returns a session.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	hash, err := s.profiles.PasswordHash(ctx, email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	token, err := s.GenerateJWT(profile.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &models.Session{
		UserID: profile.ID,
		Email:  profile.Email,
		Token:  token,
	}, nil
}

// IssueResetToken returns a short-lived token for a password reset. The
// caller is responsible for delivering it to the user; the service only
// confirms the email is registered.
func (s *AuthService) IssueResetToken(ctx context.Context, email string) (string, error) {
	profile, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("email not registered: %w", err)
	}
	return s.signToken(profile.ID, purposeReset, resetTokenTTL)
}

// ResetPassword consumes a reset token and stores the new password.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if err := validPassword(newPassword); err != nil {
		return err
	}

	userID, err := s.parseToken(token, purposeReset)
	if err != nil {
		return fmt.Errorf("invalid reset token: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.profiles.UpdatePassword(ctx, userID, string(hash))
}

// GenerateJWT generates a session token for a user
func (s *AuthService) GenerateJWT(userID string) (string, error) {
	return s.signToken(userID, purposeSession, sessionTokenDays*24*time.Hour)
}

// ValidateJWT validates a session token and returns the user ID
func (s *AuthService) ValidateJWT(tokenString string) (string, error) {
	return s.parseToken(tokenString, purposeSession)
}

func (s *AuthService) signToken(userID, purpose string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"purpose": purpose,
		"exp":     time.Now().Add(ttl).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) parseToken(tokenString, purpose string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}
	if p, _ := claims["purpose"].(string); p != purpose {
		return "", fmt.Errorf("wrong token purpose")
	}
	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}
	return userID, nil
}
