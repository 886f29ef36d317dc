package auth

import (
	"context"
	"testing"
	"time"

	"bustix/internal/shared/config"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) CreateUser(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *MockRepository) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func authConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:       "test-secret",
			JWTExpiresIn: 15 * time.Minute,
		},
	}
}

func TestRegister_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, authConfig())

	repo.On("GetUserByEmail", mock.Anything, "rider@example.com").Return(nil, gorm.ErrRecordNotFound)
	repo.On("CreateUser", mock.Anything, mock.AnythingOfType("*auth.User")).Return(nil)

	resp, err := svc.Register(context.Background(), &RegisterRequest{
		FullName: "Test Rider",
		Email:    "rider@example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "rider@example.com", resp.User.Email)
	assert.Equal(t, string(RoleUser), resp.User.Role)
	repo.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, authConfig())

	repo.On("GetUserByEmail", mock.Anything, "rider@example.com").Return(&User{
		ID:    uuid.New(),
		Email: "rider@example.com",
	}, nil)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		FullName: "Test Rider",
		Email:    "rider@example.com",
		Password: "password123",
	})

	assert.Error(t, err)
	repo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
}

func TestLogin_Success(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, authConfig())

	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	assert.NoError(t, err)

	repo.On("GetUserByEmail", mock.Anything, "rider@example.com").Return(&User{
		ID:       uuid.New(),
		Email:    "rider@example.com",
		Password: string(hashed),
		Role:     RoleUser,
	}, nil)

	resp, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "rider@example.com",
		Password: "password123",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, authConfig())

	hashed, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	repo.On("GetUserByEmail", mock.Anything, "rider@example.com").Return(&User{
		Email:    "rider@example.com",
		Password: string(hashed),
	}, nil)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "rider@example.com",
		Password: "wrong-password",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownEmail(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, authConfig())

	repo.On("GetUserByEmail", mock.Anything, "nobody@example.com").Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Login(context.Background(), &LoginRequest{
		Email:    "nobody@example.com",
		Password: "password123",
	})

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
