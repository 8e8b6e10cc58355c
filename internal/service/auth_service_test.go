package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/cosmos-learn-api/internal/models"
	appErrors "github.com/noah-isme/cosmos-learn-api/pkg/errors"
	"github.com/noah-isme/cosmos-learn-api/pkg/events"
)

func newAuthService(f *fixture) *AuthService {
	return NewAuthService(f.users, f.sessions, f.events, nil, nil, AuthConfig{
		AccessTokenSecret: "secret",
		AccessTokenExpiry: time.Hour,
		SessionTTL:        24 * time.Hour,
		Issuer:            "cosmos-test",
		BcryptCost:        bcrypt.MinCost,
	})
}

func validApplication(email string) models.InstructorApplicationRequest {
	return models.InstructorApplicationRequest{
		Name:     "Ivy Instructor",
		Email:    email,
		Password: "secret-pass",
		Phone:    "+1 555 0100 200",
		Bio:      strings.Repeat("I have taught distributed systems for years. ", 2),
	}
}

func TestAuthServiceRegisterThenDuplicate(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	res, err := svc.Register(ctx, models.RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, res.User.Role)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.SessionID)

	_, err = svc.Register(ctx, models.RegisterRequest{Name: "Ann", Email: "ANN@x.com", Password: "pw"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterRolePolicy(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	admin, err := svc.Register(ctx, models.RegisterRequest{Name: "Root", Email: "site-admin@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.User.Role)

	both, err := svc.Register(ctx, models.RegisterRequest{Name: "Both", Email: "admin.teacher@x.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, both.User.Role)
}

func TestAuthServiceLoginAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	res, err := svc.Login(ctx, models.LoginRequest{Email: "admin@cosmos.com", Password: "admin"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)

	claims, err := svc.Authenticate(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "1", claims.UserID)
	assert.Equal(t, res.SessionID, claims.SessionID)

	me, err := svc.GetCurrentUser(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "admin@cosmos.com", me.Email)

	require.NoError(t, svc.Logout(ctx, res.SessionID))
	_, err = svc.Authenticate(ctx, res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	err = svc.Logout(ctx, res.SessionID)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@cosmos.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "nobody@cosmos.com", Password: "admin"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginWithOAuthCreatesAccountOnce(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, models.OAuthProfile{Email: "gina@example.com", Name: "Gina", Picture: "https://img/1.png"})
	credential, err := token.SignedString([]byte("provider-key"))
	require.NoError(t, err)

	first, err := svc.LoginWithOAuth(ctx, models.OAuthLoginRequest{Credential: credential})
	require.NoError(t, err)
	assert.Equal(t, "Gina", first.User.Name)

	second, err := svc.LoginWithOAuth(ctx, models.OAuthLoginRequest{Credential: credential})
	require.NoError(t, err)
	assert.Equal(t, first.User.ID, second.User.ID)

	_, err = svc.LoginWithOAuth(ctx, models.OAuthLoginRequest{Credential: "not-a-jwt"})
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForeignSecret(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "teacher@cosmos.com", Password: "teacher"})
	require.NoError(t, err)

	other := NewAuthService(f.users, f.sessions, nil, nil, nil, AuthConfig{AccessTokenSecret: "different"})
	_, err = other.ValidateToken(res.AccessToken)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterInstructorValidation(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	req := validApplication("ivy@example.com")
	req.Phone = "123"
	_, err := svc.RegisterInstructor(ctx, req)
	assert.Equal(t, appErrors.ErrInvalidPhone.Code, appErrors.FromError(err).Code)

	req = validApplication("ivy@example.com")
	req.Bio = "too short"
	_, err = svc.RegisterInstructor(ctx, req)
	assert.Equal(t, appErrors.ErrBioTooShort.Code, appErrors.FromError(err).Code)

	_, err = svc.RegisterInstructor(ctx, validApplication("admin@cosmos.com"))
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErrors.FromError(err).Code)

	applicant, err := svc.RegisterInstructor(ctx, validApplication("ivy@example.com"))
	require.NoError(t, err)
	assert.Equal(t, models.RoleInstructorPending, applicant.Role)
	assert.Equal(t, models.ApplicationPending, applicant.ApplicationStatus)
}

func TestAuthServiceApproveInstructorIsTerminal(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	applicant, err := svc.RegisterInstructor(ctx, validApplication("ivy@example.com"))
	require.NoError(t, err)

	_, err = svc.ApproveInstructorApplication(ctx, teacherActor, applicant.ID)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	approved, err := svc.ApproveInstructorApplication(ctx, adminActor, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, approved.Role)
	assert.Equal(t, models.ApplicationApproved, approved.ApplicationStatus)
	assert.Contains(t, f.events.types(), events.TypeInstructorApproved)

	_, err = svc.ApproveInstructorApplication(ctx, adminActor, applicant.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)

	_, err = svc.RejectInstructorApplication(ctx, adminActor, applicant.ID, "late")
	assert.Equal(t, appErrors.ErrTerminalState.Code, appErrors.FromError(err).Code)

	stored, err := f.users.FindByID(ctx, applicant.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, stored.Role)
}

func TestAuthServiceRejectInstructorDemotesToStudent(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	applicant, err := svc.RegisterInstructor(ctx, validApplication("ivy@example.com"))
	require.NoError(t, err)

	rejected, err := svc.RejectInstructorApplication(ctx, adminActor, applicant.ID, " not enough experience ")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, rejected.Role)
	assert.Equal(t, models.ApplicationRejected, rejected.ApplicationStatus)

	_, err = svc.ApproveInstructorApplication(ctx, adminActor, "2")
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.ApproveInstructorApplication(ctx, adminActor, "missing")
	assert.Equal(t, appErrors.ErrUserNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceDeleteUserDropsSessions(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	res, err := svc.Register(ctx, models.RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "pw"})
	require.NoError(t, err)

	err = svc.DeleteUser(ctx, adminActor, adminActor.UserID)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.DeleteUser(ctx, adminActor, res.User.ID))
	_, err = svc.Authenticate(ctx, res.AccessToken)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	users, err := svc.ListUsers(ctx, adminActor)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAuthServiceSeedAccountsRecovered(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	require.NoError(t, svc.DeleteUser(ctx, adminActor, "2"))
	_, err := svc.Login(ctx, models.LoginRequest{Email: "teacher@cosmos.com", Password: "teacher"})
	require.NoError(t, err)
}

func TestAuthServiceUpdateProfile(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()
	f.addStudent(t, "s1", "Sam")

	updated, err := svc.UpdateProfile(ctx, "s1", models.UpdateProfileRequest{Name: "Samuel", Email: "samuel@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Samuel", updated.Name)

	_, err = svc.UpdateProfile(ctx, "s1", models.UpdateProfileRequest{Name: "Samuel", Email: "admin@cosmos.com"})
	assert.Equal(t, appErrors.ErrDuplicateEmail.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceUpdateProfileRefreshesSessions(t *testing.T) {
	f := newFixture(t)
	svc := newAuthService(f)
	ctx := context.Background()

	res, err := svc.Register(ctx, models.RegisterRequest{Name: "Ann", Email: "ann@x.com", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, res.User.ID, models.UpdateProfileRequest{Name: "Annie", Email: "annie@x.com"})
	require.NoError(t, err)

	session, err := f.sessions.FindByID(ctx, res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "Annie", session.User.Name)
	assert.Equal(t, "annie@x.com", session.User.Email)
}
