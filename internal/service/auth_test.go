package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gebeya/marketplace-api/internal/dto"
	"github.com/gebeya/marketplace-api/internal/model"
)

type mockUserRepo struct {
	users map[string]*model.User
	byID  map[uuid.UUID]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User), byID: make(map[uuid.UUID]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	return m.byID[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.users[email], nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()
	m.users[user.Email] = user
	m.byID[user.ID] = user
	return nil
}

func TestAuthService_Register(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "abeba@example.com", Password: "password123",
		FirstName: "Abeba", LastName: "Kebede",
		PhoneNumber: "+251911000000", Address: "Bole, Addis Ababa",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "abeba@example.com", resp.User.Email)
	assert.Equal(t, model.RoleCustomer, resp.User.Role)
	assert.Equal(t, "+251911000000", resp.User.PhoneNumber)
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	repo.users["abeba@example.com"] = &model.User{Email: "abeba@example.com"}

	_, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "abeba@example.com", Password: "password123",
		FirstName: "Abeba", LastName: "Kebede",
	})
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestAuthService_Login(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.users["abeba@example.com"] = &model.User{
		ID: uuid.New(), Email: "abeba@example.com", Password: string(hashed),
		Role: model.RoleCustomer, IsActive: true,
	}

	resp, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "abeba@example.com", Password: "password123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.users["abeba@example.com"] = &model.User{
		ID: uuid.New(), Email: "abeba@example.com", Password: string(hashed),
		Role: model.RoleCustomer, IsActive: false,
	}

	// The right password still does not get a deactivated account in.
	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "abeba@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.users["abeba@example.com"] = &model.User{
		ID: uuid.New(), Email: "abeba@example.com", Password: string(hashed),
	}

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "abeba@example.com", Password: "wrong",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	_, err := svc.Login(context.Background(), dto.LoginRequest{
		Email: "nobody@example.com", Password: "password123",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Profile(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	user := &model.User{
		Email: "abeba@example.com", FirstName: "Abeba", LastName: "Kebede",
		PhoneNumber: "+251911000000", Address: "Bole, Addis Ababa",
		Role: model.RoleCustomer, IsActive: true,
	}
	require.NoError(t, repo.Create(context.Background(), user))

	resp, err := svc.Profile(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "abeba@example.com", resp.Email)
	assert.Equal(t, "Bole, Addis Ababa", resp.Address)
}

func TestAuthService_Profile_UnknownUser(t *testing.T) {
	svc := NewAuthService(newMockUserRepo(), "test-secret", time.Hour)

	_, err := svc.Profile(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewAuthService(repo, "test-secret", time.Hour)

	user := &model.User{
		Email: "abeba@example.com", FirstName: "Abeba", LastName: "Kebede",
		PhoneNumber: "+251911000000", Address: "Bole, Addis Ababa",
		Role: model.RoleCustomer, IsActive: true,
	}
	require.NoError(t, repo.Create(context.Background(), user))

	newAddress := "Kazanchis, Addis Ababa"
	resp, err := svc.UpdateProfile(context.Background(), user.ID, dto.UpdateProfileRequest{
		Address: &newAddress,
	})
	require.NoError(t, err)

	// Only the submitted field changed.
	assert.Equal(t, "Kazanchis, Addis Ababa", resp.Address)
	assert.Equal(t, "Abeba", resp.FirstName)
	assert.Equal(t, "+251911000000", resp.PhoneNumber)
	assert.Equal(t, "Kazanchis, Addis Ababa", repo.byID[user.ID].Address)
}
