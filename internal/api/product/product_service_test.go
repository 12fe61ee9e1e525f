package product

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/go-marketplace/internal/types"
)

// MockProductRepo is a mock implementation of the ProductRepository interface
type MockProductRepo struct {
	mock.Mock
}

func (m *MockProductRepo) Create(ctx context.Context, ownerID string, params types.CreateProductParams) error {
	args := m.Called(ctx, ownerID, params)
	return args.Error(0)
}

func (m *MockProductRepo) GetAll(ctx context.Context) ([]*types.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*types.Product), args.Error(1)
}

func (m *MockProductRepo) GetByID(ctx context.Context, productID int64) (*types.Product, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Product), args.Error(1)
}

func (m *MockProductRepo) Update(ctx context.Context, params types.UpdateProductParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}

func (m *MockProductRepo) Delete(ctx context.Context, productID int64) error {
	args := m.Called(ctx, productID)
	return args.Error(0)
}

func ownedProduct() *types.Product {
	return &types.Product{
		ID:           7,
		Name:         "vintage lamp",
		SellingPrice: 25.5,
		UserID:       "owner-1",
		CategoryID:   2,
		CategoryName: "furniture",
	}
}

func TestProductUpdate_Ownership(t *testing.T) {
	newName := "brass lamp"
	params := types.UpdateProductParams{ProductID: 7, Name: &newName}

	t.Run("OwnerCanUpdate", func(t *testing.T) {
		mockRepo := new(MockProductRepo)
		service := NewProductService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, int64(7)).Return(ownedProduct(), nil).Once()
		mockRepo.On("Update", mock.Anything, params).Return(nil).Once()

		err := service.Update(context.Background(), "owner-1", params)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NonOwnerRejectedUnchanged", func(t *testing.T) {
		mockRepo := new(MockProductRepo)
		service := NewProductService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, int64(7)).Return(ownedProduct(), nil).Once()

		err := service.Update(context.Background(), "intruder", params)
		assert.ErrorIs(t, err, types.ErrPermissionDenied)
		// The write never happens for a non-owner.
		mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("MissingProduct", func(t *testing.T) {
		mockRepo := new(MockProductRepo)
		service := NewProductService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, int64(7)).Return(nil, types.ErrNotFound).Once()

		err := service.Update(context.Background(), "owner-1", params)
		assert.ErrorIs(t, err, types.ErrNotFound)
	})
}

func TestProductDelete_Ownership(t *testing.T) {
	t.Run("OwnerCanDelete", func(t *testing.T) {
		mockRepo := new(MockProductRepo)
		service := NewProductService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, int64(7)).Return(ownedProduct(), nil).Once()
		mockRepo.On("Delete", mock.Anything, int64(7)).Return(nil).Once()

		err := service.Delete(context.Background(), "owner-1", 7)
		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("NonOwnerRejected", func(t *testing.T) {
		mockRepo := new(MockProductRepo)
		service := NewProductService(mockRepo, slog.Default())

		mockRepo.On("GetByID", mock.Anything, int64(7)).Return(ownedProduct(), nil).Once()

		err := service.Delete(context.Background(), "intruder", 7)
		assert.ErrorIs(t, err, types.ErrPermissionDenied)
		mockRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestProductCreate(t *testing.T) {
	mockRepo := new(MockProductRepo)
	service := NewProductService(mockRepo, slog.Default())

	params := types.CreateProductParams{
		Name:         "vintage lamp",
		Picture:      "lamp.png",
		SellingPrice: 25.5,
		Description:  "works",
		CategoryID:   2,
	}
	mockRepo.On("Create", mock.Anything, "owner-1", params).Return(nil).Once()

	err := service.Create(context.Background(), "owner-1", params)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestProductGetAll(t *testing.T) {
	mockRepo := new(MockProductRepo)
	service := NewProductService(mockRepo, slog.Default())

	mockRepo.On("GetAll", mock.Anything).Return([]*types.Product{ownedProduct()}, nil).Once()

	products, err := service.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "vintage lamp", products[0].Name)
}
