package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alpha-ledger/internal/core/domain"
	"alpha-ledger/internal/core/ports"
	"alpha-ledger/internal/core/ports/mocks"
	"alpha-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func setupAuthService(t *testing.T) (
	*AuthServiceImpl,
	*mocks.MockUserRepository,
	*mocks.MockWalletRepository,
	*mocks.MockHashService,
	*mocks.MockTokenService,
	*gomock.Controller,
) {
	ctrl := gomock.NewController(t)
	userRepo := mocks.NewMockUserRepository(ctrl)
	walletRepo := mocks.NewMockWalletRepository(ctrl)
	hashSvc := mocks.NewMockHashService(ctrl)
	tokenSvc := mocks.NewMockTokenService(ctrl)

	svc := NewAuthService(userRepo, walletRepo, hashSvc, tokenSvc)
	return svc, userRepo, walletRepo, hashSvc, tokenSvc, ctrl
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, userRepo, walletRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{
		Username:    "new_user",
		Password:    "StrongP@ss123",
		DisplayName: "New User",
	}

	// Expect: check username uniqueness
	userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(nil, nil)
	// Expect: hash password
	hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)
	// Expect: create user
	userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	// Expect: one wallet per user-facing type
	created := make([]domain.WalletType, 0, len(domain.UserWalletTypes))
	walletRepo.EXPECT().Create(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, w *domain.Wallet) error {
			created = append(created, w.Type)
			assert.EqualValues(t, 0, w.Balance)
			return nil
		}).Times(len(domain.UserWalletTypes))

	resp, err := svc.Register(ctx, req)
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEqual(t, uuid.Nil, resp.UserID)
	assert.Len(t, resp.Wallets, len(domain.UserWalletTypes))
	assert.ElementsMatch(t, domain.UserWalletTypes, created)
	for _, w := range resp.Wallets {
		assert.Equal(t, resp.UserID, w.UserID)
	}
}

func TestAuthService_Register_DuplicateUsername(t *testing.T) {
	svc, userRepo, _, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{
		Username:    "existing_user",
		Password:    "password123",
		DisplayName: "Someone",
	}

	existing := &domain.User{Username: "existing_user"}
	userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(existing, nil)

	resp, err := svc.Register(ctx, req)
	assert.Nil(t, resp)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_AUTH_003", appErr.Code)
}

func TestAuthService_Register_WalletCreateFails(t *testing.T) {
	svc, userRepo, walletRepo, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	req := ports.RegisterRequest{
		Username:    "half_made",
		Password:    "password123",
		DisplayName: "Half Made",
	}

	userRepo.EXPECT().GetByUsername(ctx, req.Username).Return(nil, nil)
	hashSvc.EXPECT().Hash(req.Password).Return("$argon2id$hashed", nil)
	userRepo.EXPECT().Create(ctx, gomock.Any()).Return(nil)
	walletRepo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db down"))

	resp, err := svc.Register(ctx, req)
	assert.Nil(t, resp)
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_SYS_001", appErr.Code)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, userRepo, _, hashSvc, tokenSvc, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userID := uuid.New()

	user := &domain.User{
		ID:           userID,
		Username:     "test_user",
		PasswordHash: "$argon2id$hashed",
	}

	userRepo.EXPECT().GetByUsername(ctx, "test_user").Return(user, nil)
	hashSvc.EXPECT().Verify("correct_password", "$argon2id$hashed").Return(true, nil)
	tokenSvc.EXPECT().Generate(userID, "test_user").Return("jwt_token_here", time.Now().Add(24*time.Hour), nil)

	token, _, err := svc.Login(ctx, "test_user", "correct_password")
	require.NoError(t, err)
	assert.Equal(t, "jwt_token_here", token)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	svc, userRepo, _, _, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	userRepo.EXPECT().GetByUsername(ctx, "nonexistent").Return(nil, nil)

	_, _, err := svc.Login(ctx, "nonexistent", "password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_AUTH_001", appErr.Code)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, userRepo, _, hashSvc, _, ctrl := setupAuthService(t)
	defer ctrl.Finish()

	ctx := context.Background()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     "test_user",
		PasswordHash: "$argon2id$hashed",
	}

	userRepo.EXPECT().GetByUsername(ctx, "test_user").Return(user, nil)
	hashSvc.EXPECT().Verify("wrong_password", "$argon2id$hashed").Return(false, nil)

	_, _, err := svc.Login(ctx, "test_user", "wrong_password")
	require.Error(t, err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "ERR_AUTH_001", appErr.Code)
}
