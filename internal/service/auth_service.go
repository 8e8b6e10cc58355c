package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	"github.com/noah-isme/cosmos-learn-api/internal/repository"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
)

const (
	minPhoneLength = 10
	minBioLength   = 50
)

type authUserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type authSessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
	RefreshUser(ctx context.Context, user models.SessionUser) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessTokenSecret string
	AccessTokenExpiry time.Duration
	SessionTTL        time.Duration
	Issuer            string
	BcryptCost        int
	RolePolicy        RolePolicy
}

// AuthService owns accounts, sessions and the instructor application workflow.
type AuthService struct {
	users     authUserRepository
	sessions  authSessionRepository
	publisher events.Publisher
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, sessions authSessionRepository, publisher events.Publisher, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if config.RolePolicy == nil {
		config.RolePolicy = EmailRolePolicy
	}
	if config.AccessTokenExpiry <= 0 {
		config.AccessTokenExpiry = 24 * time.Hour
	}
	if config.SessionTTL <= 0 {
		config.SessionTTL = 7 * 24 * time.Hour
	}
	if config.BcryptCost <= 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		publisher: publisher,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Register creates a password account and signs it in.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid registration payload")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}

	now := s.now()
	user := &models.User{
		ID:              uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		PasswordHash:    string(hash),
		Role:            s.config.RolePolicy(req.Email),
		EnrolledCourses: []int64{},
		AuthProvider:    models.AuthProviderPassword,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create user")
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.startSession(ctx, user, "", "")
}

// Login authenticates a user and returns an access token bound to a new session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if user.PasswordHash == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	return s.startSession(ctx, user, req.IP, req.UserAgent)
}

// LoginWithOAuth signs in with a provider ID token, creating the account on first use.
// The token signature is not verified against the provider keys.
func (s *AuthService) LoginWithOAuth(ctx context.Context, req models.OAuthLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid oauth payload")
	}

	profile := &models.OAuthProfile{}
	if _, _, err := jwt.NewParser().ParseUnverified(req.Credential, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid oauth credential")
	}
	if strings.TrimSpace(profile.Email) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "oauth credential has no email")
	}

	user, err := s.users.FindByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		if profile.Picture != "" && profile.Picture != user.ProfilePicture {
			user, err = s.users.Update(ctx, user.ID, func(u *models.User) error {
				u.ProfilePicture = profile.Picture
				u.UpdatedAt = s.now()
				return nil
			})
			if err != nil {
				return nil, appErrors.Internal(err, "failed to update user")
			}
		}
	case errors.Is(err, repository.ErrNotFound):
		now := s.now()
		name := profile.Name
		if name == "" {
			name = strings.Split(profile.Email, "@")[0]
		}
		user = &models.User{
			ID:              uuid.NewString(),
			Name:            name,
			Email:           strings.TrimSpace(profile.Email),
			Role:            s.config.RolePolicy(profile.Email),
			EnrolledCourses: []int64{},
			ProfilePicture:  profile.Picture,
			AuthProvider:    models.AuthProviderGoogle,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, appErrors.Internal(err, "failed to create user")
		}
		s.logger.Info("user registered via oauth", zap.String("user_id", user.ID))
	default:
		return nil, appErrors.Internal(err, "failed to fetch user")
	}

	return s.startSession(ctx, user, "", "")
}

// Logout ends the session.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "session not found")
		}
		return appErrors.Internal(err, "failed to delete session")
	}
	return nil
}

// GetCurrentUser returns the signed-in user of the session, without any credential.
func (s *AuthService) GetCurrentUser(ctx context.Context, sessionID string) (*models.SessionUser, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active session")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}

	user, err := s.users.FindByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active session")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	public := user.Public()
	return &public, nil
}

// Authenticate validates an access token and the session it names.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.JWTClaims, error) {
	claims, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or logged out")
		}
		return nil, appErrors.Internal(err, "failed to load session")
	}
	if session.UserID != claims.UserID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session does not match token")
	}
	return claims, nil
}

// ValidateToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessTokenSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// UpdateProfile changes the caller's name and email.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req models.UpdateProfileRequest) (*models.SessionUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		u.Name = strings.TrimSpace(req.Name)
		u.Email = strings.TrimSpace(req.Email)
		u.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return nil, s.mapUserErr(err, "failed to update profile")
	}
	public := user.Public()
	s.refreshSessions(ctx, public)
	return &public, nil
}

// RegisterInstructor records an instructor application. No session is created.
func (s *AuthService) RegisterInstructor(ctx context.Context, req models.InstructorApplicationRequest) (*models.SessionUser, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid instructor application")
	}
	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, appErrors.Internal(err, "failed to fetch user")
	}
	if len(strings.TrimSpace(req.Phone)) < minPhoneLength {
		return nil, appErrors.Clone(appErrors.ErrInvalidPhone, "please enter a valid phone number")
	}
	if len(strings.TrimSpace(req.Bio)) < minBioLength {
		return nil, appErrors.Clone(appErrors.ErrBioTooShort, fmt.Sprintf("professional bio must be at least %d characters", minBioLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.BcryptCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	now := s.now()
	user := &models.User{
		ID:                uuid.NewString(),
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.TrimSpace(req.Email),
		PasswordHash:      string(hash),
		Role:              models.RoleInstructorPending,
		EnrolledCourses:   []int64{},
		AuthProvider:      models.AuthProviderPassword,
		Phone:             strings.TrimSpace(req.Phone),
		ProfessionalTitle: req.ProfessionalTitle,
		Experience:        req.Experience,
		Expertise:         req.Expertise,
		Bio:               strings.TrimSpace(req.Bio),
		Documents:         req.Documents,
		ApplicationStatus: models.ApplicationPending,
		AppliedAt:         &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateEmail, "email already registered")
		}
		return nil, appErrors.Internal(err, "failed to create instructor application")
	}

	s.logger.Info("instructor application submitted", zap.String("user_id", user.ID))
	public := user.Public()
	return &public, nil
}

// ListInstructorApplications returns applicants, optionally filtered by status.
func (s *AuthService) ListInstructorApplications(ctx context.Context, actor models.Actor, status models.ApplicationStatus) ([]models.SessionUser, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list users")
	}
	out := make([]models.SessionUser, 0)
	for i := range users {
		if users[i].ApplicationStatus == "" {
			continue
		}
		if status != "" && users[i].ApplicationStatus != status {
			continue
		}
		out = append(out, users[i].Public())
	}
	return out, nil
}

// ApproveInstructorApplication promotes a pending applicant to teacher.
func (s *AuthService) ApproveInstructorApplication(ctx context.Context, actor models.Actor, userID string) (*models.SessionUser, error) {
	return s.decideApplication(ctx, actor, userID, func(u *models.User, now time.Time) {
		u.Role = models.RoleTeacher
		u.ApplicationStatus = models.ApplicationApproved
		u.ApprovedAt = &now
	}, events.TypeInstructorApproved)
}

// RejectInstructorApplication declines a pending application. The applicant keeps a
// student account.
func (s *AuthService) RejectInstructorApplication(ctx context.Context, actor models.Actor, userID, reason string) (*models.SessionUser, error) {
	return s.decideApplication(ctx, actor, userID, func(u *models.User, now time.Time) {
		if u.Role == models.RoleInstructorPending {
			u.Role = models.RoleStudent
		}
		u.ApplicationStatus = models.ApplicationRejected
		u.RejectedAt = &now
		u.RejectionReason = strings.TrimSpace(reason)
	}, events.TypeInstructorRejected)
}

func (s *AuthService) decideApplication(ctx context.Context, actor models.Actor, userID string, apply func(*models.User, time.Time), eventType string) (*models.SessionUser, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	user, err := s.users.Update(ctx, userID, func(u *models.User) error {
		switch {
		case u.ApplicationStatus == "":
			return appErrors.Clone(appErrors.ErrPreconditionFailed, "user has no instructor application")
		case u.ApplicationStatus.Terminal():
			return appErrors.Clone(appErrors.ErrTerminalState, fmt.Sprintf("application already %s", u.ApplicationStatus))
		}
		now := s.now()
		apply(u, now)
		u.UpdatedAt = now
		return nil
	})
	if err != nil {
		return nil, s.mapUserErr(err, "failed to update application")
	}

	s.logger.Info("instructor application decided",
		zap.String("user_id", user.ID),
		zap.String("status", string(user.ApplicationStatus)),
		zap.String("admin_id", actor.UserID))
	publishEvent(ctx, s.publisher, s.logger, eventType, map[string]interface{}{
		"user_id": user.ID,
		"status":  user.ApplicationStatus,
		"reason":  user.RejectionReason,
	})
	public := user.Public()
	s.refreshSessions(ctx, public)
	return &public, nil
}

// ListUsers returns every account for the admin panel.
func (s *AuthService) ListUsers(ctx context.Context, actor models.Actor) ([]models.SessionUser, error) {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list users")
	}
	out := make([]models.SessionUser, 0, len(users))
	for i := range users {
		out = append(out, users[i].Public())
	}
	return out, nil
}

// DeleteUser removes an account and its sessions. Seed accounts are recreated on the
// next read.
func (s *AuthService) DeleteUser(ctx context.Context, actor models.Actor, userID string) error {
	if err := authorize(actor, models.RoleAdmin); err != nil {
		return err
	}
	if actor.UserID == userID {
		return appErrors.Clone(appErrors.ErrValidation, "admins cannot delete their own account")
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return s.mapUserErr(err, "failed to delete user")
	}
	if err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		s.logger.Warn("failed to drop sessions of deleted user", zap.String("user_id", userID), zap.Error(err))
	}
	s.logger.Info("user deleted", zap.String("user_id", userID), zap.String("admin_id", actor.UserID))
	return nil
}

// refreshSessions keeps the user snapshot stored with each session in step with the
// account. A failure only leaves the snapshot stale, so it is logged.
func (s *AuthService) refreshSessions(ctx context.Context, user models.SessionUser) {
	if err := s.sessions.RefreshUser(ctx, user); err != nil {
		s.logger.Warn("failed to refresh session snapshots", zap.String("user_id", user.ID), zap.Error(err))
	}
}

func (s *AuthService) startSession(ctx context.Context, user *models.User, ip, userAgent string) (*models.LoginResponse, error) {
	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		User:      user.Public(),
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.SessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, appErrors.Internal(err, "failed to persist session")
	}

	token, err := s.generateAccessToken(user, session.ID, now)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to create access token")
	}

	return &models.LoginResponse{
		AccessToken: token,
		SessionID:   session.ID,
		ExpiresIn:   int64(s.config.AccessTokenExpiry.Seconds()),
		User:        session.User,
		IssuedAt:    now,
	}, nil
}

func (s *AuthService) generateAccessToken(user *models.User, sessionID string, issuedAt time.Time) (string, error) {
	claims := &models.JWTClaims{
		UserID:    user.ID,
		SessionID: sessionID,
		Role:      user.Role,
		Email:     user.Email,
		Name:      user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessTokenExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessTokenSecret))
}

func (s *AuthService) mapUserErr(err error, message string) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, repository.ErrNotFound):
		return appErrors.Clone(appErrors.ErrUserNotFound, "user not found")
	case errors.Is(err, repository.ErrDuplicate):
		return appErrors.Clone(appErrors.ErrDuplicateEmail, "email already registered")
	default:
		return appErrors.Internal(err, message)
	}
}
