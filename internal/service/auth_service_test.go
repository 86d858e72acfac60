package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/deens-academy/timetable-api/internal/models"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

type mockAccountRepo struct {
	byEmail       map[string]*models.Account
	refreshTokens map[string]*models.RefreshToken
	deleted       []string
}

func newMockAccountRepo() *mockAccountRepo {
	return &mockAccountRepo{
		byEmail:       make(map[string]*models.Account),
		refreshTokens: make(map[string]*models.RefreshToken),
	}
}

func (m *mockAccountRepo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	if account, ok := m.byEmail[email]; ok {
		cp := *account
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	for _, account := range m.byEmail {
		if account.ID == id {
			cp := *account
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) Create(ctx context.Context, account *models.Account) error {
	m.byEmail[account.Email] = account
	return nil
}

func (m *mockAccountRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	for email, account := range m.byEmail {
		if account.ID == id {
			delete(m.byEmail, email)
		}
	}
	return nil
}

func (m *mockAccountRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAccountRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.refreshTokens[token.Token] = &cp
	return nil
}

func (m *mockAccountRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if stored, ok := m.refreshTokens[token]; ok {
		cp := *stored
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAccountRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, stored := range m.refreshTokens {
		if stored.ID == id {
			stored.Revoked = true
			stored.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAccountRepo) RevokeAccountRefreshTokens(ctx context.Context, accountID string) error {
	now := time.Now()
	for _, stored := range m.refreshTokens {
		if stored.AccountID == accountID {
			stored.Revoked = true
			stored.RevokedAt = &now
		}
	}
	return nil
}

type mockAuthTeacherRepo struct {
	sections  map[string]bool
	handles   map[string]*models.Teacher
	emails    map[string]bool
	created   []models.Teacher
	createErr error
}

func newMockAuthTeacherRepo() *mockAuthTeacherRepo {
	return &mockAuthTeacherRepo{
		sections: make(map[string]bool),
		handles:  make(map[string]*models.Teacher),
		emails:   make(map[string]bool),
	}
}

func (m *mockAuthTeacherRepo) ExistsByClassSection(ctx context.Context, classSection string) (bool, error) {
	return m.sections[classSection], nil
}

func (m *mockAuthTeacherRepo) ExistsByLoginHandle(ctx context.Context, handle string) (bool, error) {
	_, ok := m.handles[handle]
	return ok, nil
}

func (m *mockAuthTeacherRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emails[email], nil
}

func (m *mockAuthTeacherRepo) FindByLoginHandle(ctx context.Context, handle string) (*models.Teacher, error) {
	if teacher, ok := m.handles[handle]; ok {
		cp := *teacher
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthTeacherRepo) Create(ctx context.Context, teacher *models.Teacher) error {
	if m.createErr != nil {
		return m.createErr
	}
	if teacher.ID == "" {
		teacher.ID = "generated"
	}
	m.created = append(m.created, *teacher)
	m.sections[teacher.ClassSection] = true
	m.handles[teacher.LoginHandle] = teacher
	m.emails[teacher.Email] = true
	return nil
}

type mockDenylist struct {
	revoked map[string]bool
}

func (m *mockDenylist) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if m.revoked == nil {
		m.revoked = make(map[string]bool)
	}
	m.revoked[tokenID] = true
	return nil
}

func (m *mockDenylist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return m.revoked[tokenID], nil
}

func newAuthFixture() (*AuthService, *mockAccountRepo, *mockAuthTeacherRepo, *mockDenylist) {
	accounts := newMockAccountRepo()
	teachers := newMockAuthTeacherRepo()
	denylist := &mockDenylist{}
	service := NewAuthService(accounts, teachers, denylist, nil, zap.NewNop(), AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "timetable-api",
	})
	return service, accounts, teachers, denylist
}

func teacherRegistration() RegisterTeacherRequest {
	return RegisterTeacherRequest{
		LoginHandle:     "khan",
		DisplayName:     "Ms. Khan",
		Email:           "khan@example.com",
		ClassSection:    "Grade 6 A",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	}
}

func TestAuthServiceRegisterTeacher(t *testing.T) {
	service, accounts, teachers, _ := newAuthFixture()

	teacher, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)
	assert.Equal(t, "Grade 6 A", teacher.ClassSection)
	assert.NotEmpty(t, teacher.AccountID)

	account, err := accounts.FindByEmail(context.Background(), "khan@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, account.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("secret123")))
	assert.Len(t, teachers.created, 1)
}

func TestAuthServiceRegisterTeacherDuplicateSection(t *testing.T) {
	service, _, teachers, _ := newAuthFixture()
	teachers.sections["Grade 6 A"] = true

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.Error(t, err)
	apiErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, apiErr.Code)
	assert.Contains(t, apiErr.Message, "class and section")
}

func TestAuthServiceRegisterTeacherDuplicateHandle(t *testing.T) {
	service, _, teachers, _ := newAuthFixture()
	teachers.handles["khan"] = &models.Teacher{LoginHandle: "khan"}

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "login handle")
}

func TestAuthServiceRegisterTeacherCleansUpAccountOnProfileFailure(t *testing.T) {
	service, accounts, teachers, _ := newAuthFixture()
	teachers.createErr = errors.New("insert failed")

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.Error(t, err)

	// The orphaned account is removed.
	require.Len(t, accounts.deleted, 1)
	_, err = accounts.FindByEmail(context.Background(), "khan@example.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestAuthServiceRegisterTeacherPasswordMismatch(t *testing.T) {
	service, _, _, _ := newAuthFixture()

	req := teacherRegistration()
	req.ConfirmPassword = "different"
	_, err := service.RegisterTeacher(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegisterStudent(t *testing.T) {
	service, accounts, _, _ := newAuthFixture()

	info, err := service.RegisterStudent(context.Background(), RegisterStudentRequest{
		Email:           "amina@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, info.Role)

	_, err = service.RegisterStudent(context.Background(), RegisterStudentRequest{
		Email:           "amina@example.com",
		Password:        "secret123",
		ConfirmPassword: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicate.Code, appErrors.FromError(err).Code)

	account, err := accounts.FindByEmail(context.Background(), "amina@example.com")
	require.NoError(t, err)
	assert.True(t, account.Active)
}

func TestAuthServiceLoginWithEmail(t *testing.T) {
	service, _, _, _ := newAuthFixture()

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)

	res, err := service.Login(context.Background(), models.LoginRequest{Login: "khan@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.Equal(t, models.RoleTeacher, res.Account.Role)
}

func TestAuthServiceLoginWithHandle(t *testing.T) {
	service, _, _, _ := newAuthFixture()

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)

	res, err := service.Login(context.Background(), models.LoginRequest{Login: "khan", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "khan@example.com", res.Account.Email)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	service, _, _, _ := newAuthFixture()

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)

	_, err = service.Login(context.Background(), models.LoginRequest{Login: "khan@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	_, err = service.Login(context.Background(), models.LoginRequest{Login: "nobody", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	service, accounts, _, _ := newAuthFixture()

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)
	accounts.byEmail["khan@example.com"].Active = false

	_, err = service.Login(context.Background(), models.LoginRequest{Login: "khan@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	service, accounts, _, _ := newAuthFixture()

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)
	login, err := service.Login(context.Background(), models.LoginRequest{Login: "khan@example.com", Password: "secret123"})
	require.NoError(t, err)

	res, err := service.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, res.RefreshToken)

	// The spent token is revoked and cannot be reused.
	stored := accounts.refreshTokens[login.RefreshToken]
	require.NotNil(t, stored)
	assert.True(t, stored.Revoked)

	_, err = service.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateToken(t *testing.T) {
	service, _, _, _ := newAuthFixture()

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)
	login, err := service.Login(context.Background(), models.LoginRequest{Login: "khan@example.com", Password: "secret123"})
	require.NoError(t, err)

	claims, err := service.ValidateToken(context.Background(), login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, claims.Role)
	assert.Equal(t, "khan@example.com", claims.Email)

	_, err = service.ValidateToken(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutDenylistsAccessToken(t *testing.T) {
	service, _, _, denylist := newAuthFixture()

	_, err := service.RegisterTeacher(context.Background(), teacherRegistration())
	require.NoError(t, err)
	login, err := service.Login(context.Background(), models.LoginRequest{Login: "khan@example.com", Password: "secret123"})
	require.NoError(t, err)

	claims, err := service.ValidateToken(context.Background(), login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, service.Logout(context.Background(), login.RefreshToken, claims))
	assert.True(t, denylist.revoked[claims.ID])

	_, err = service.ValidateToken(context.Background(), login.AccessToken)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "revoked")
}
