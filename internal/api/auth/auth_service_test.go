package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tradepost/go-marketplace/internal/types"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, user *types.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) GetUserByName(ctx context.Context, userName string) (*types.User, error) {
	args := m.Called(ctx, userName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.User), args.Error(1)
}

func (m *MockAuthRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func newTestService(t *testing.T, repo AuthRepo) *AuthServiceImpl {
	t.Helper()
	issuer, err := NewTokenIssuer(testJWTConfig())
	require.NoError(t, err)
	return NewAuthService(repo, NewPasswordHasher(bcrypt.MinCost), issuer, slog.Default())
}

func TestRegister(t *testing.T) {
	registerReq := types.RegisterRequest{
		UserName: "alice",
		Password: "password123",
		Phone:    "13312345678",
		Email:    "alice@example.com",
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		var createdID string
		mockRepo.On("EmailExists", mock.Anything, registerReq.Email).Return(false, nil).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*types.User")).
			Run(func(args mock.Arguments) {
				user := args.Get(1).(*types.User)
				createdID = user.ID
				assert.NotEmpty(t, user.ID)
				assert.Equal(t, types.RoleUser, user.Role)
				assert.NotEqual(t, registerReq.Password, user.PasswordHash)
			}).
			Return(nil).Once()
		mockRepo.On("GetUserByID", mock.Anything, mock.AnythingOfType("string")).
			Return(&types.User{
				ID:    "stored-id",
				Name:  registerReq.UserName,
				Phone: registerReq.Phone,
				Role:  types.RoleUser,
				Email: registerReq.Email,
			}, nil).Once()

		token, err := service.Register(ctx, registerReq)
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.NotEmpty(t, createdID)

		// The token reflects the persisted record, not the request echo.
		verifier, err := NewTokenVerifier(testJWTConfig())
		require.NoError(t, err)
		claims, err := verifier.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "stored-id", claims.UserID)
		assert.Equal(t, registerReq.Email, claims.Email)

		mockRepo.AssertExpectations(t)
	})

	t.Run("EmailTaken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("EmailExists", mock.Anything, registerReq.Email).Return(true, nil).Once()

		_, err := service.Register(ctx, registerReq)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrConflict)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("LostInsertRace", func(t *testing.T) {
		// The advisory check passes but a concurrent registration wins the
		// insert; the unique-violation conflict still surfaces.
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("EmailExists", mock.Anything, registerReq.Email).Return(false, nil).Once()
		mockRepo.On("CreateUser", mock.Anything, mock.AnythingOfType("*types.User")).
			Return(types.ErrConflict).Once()

		_, err := service.Register(ctx, registerReq)
		require.Error(t, err)
		assert.ErrorIs(t, err, types.ErrConflict)
		mockRepo.AssertExpectations(t)
	})

	t.Run("EmailCheckFails", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("EmailExists", mock.Anything, registerReq.Email).
			Return(false, errors.New("connection refused")).Once()

		_, err := service.Register(ctx, registerReq)
		assert.Error(t, err)
		mockRepo.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})
}

func TestServiceLogin(t *testing.T) {
	password := "password123"
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	storedUser := &types.User{
		ID:           "user-123",
		Name:         "alice",
		Role:         types.RoleUser,
		Email:        "alice@example.com",
		PasswordHash: string(hash),
	}

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("GetUserByName", mock.Anything, "alice").Return(storedUser, nil).Once()

		token, err := service.Login(ctx, types.LoginRequest{UserName: "alice", Password: password})
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("GetUserByName", mock.Anything, "nobody").Return(nil, types.ErrNotFound).Once()

		_, err := service.Login(ctx, types.LoginRequest{UserName: "nobody", Password: password})
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("GetUserByName", mock.Anything, "alice").Return(storedUser, nil).Once()

		_, err := service.Login(ctx, types.LoginRequest{UserName: "alice", Password: "wrong"})
		assert.ErrorIs(t, err, types.ErrUnauthenticated)
	})

	t.Run("FailuresAreIndistinguishable", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("GetUserByName", mock.Anything, "nobody").Return(nil, types.ErrNotFound).Once()
		mockRepo.On("GetUserByName", mock.Anything, "alice").Return(storedUser, nil).Once()

		_, unknownErr := service.Login(ctx, types.LoginRequest{UserName: "nobody", Password: password})
		_, badPassErr := service.Login(ctx, types.LoginRequest{UserName: "alice", Password: "wrong"})
		assert.Equal(t, unknownErr, badPassErr)
	})
}

func TestGetCurrentUser(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		stored := &types.User{ID: "user-123", Name: "alice", Role: types.RoleUser}
		mockRepo.On("GetUserByID", mock.Anything, "user-123").Return(stored, nil).Once()

		user, err := service.GetCurrentUser(ctx, "user-123")
		require.NoError(t, err)
		assert.Equal(t, stored, user)
	})

	t.Run("Gone", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := newTestService(t, mockRepo)
		ctx := context.Background()

		mockRepo.On("GetUserByID", mock.Anything, "deleted-user").Return(nil, types.ErrNotFound).Once()

		_, err := service.GetCurrentUser(ctx, "deleted-user")
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}
