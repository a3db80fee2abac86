package service

import (
	"context"
	"errors"
	"testing"

	"area-resolver-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAreaResolver is a mock implementation of the AreaResolverInterface
type MockAreaResolver struct {
	mock.Mock
}

func (m *MockAreaResolver) Resolve(ctx context.Context, point models.Point) (*models.AreaResult, error) {
	args := m.Called(ctx, point)
	res, _ := args.Get(0).(*models.AreaResult)
	return res, args.Error(1)
}

// MockAreaCache is a mock implementation of the AreaCache interface
type MockAreaCache struct {
	mock.Mock
}

func (m *MockAreaCache) Get(ctx context.Context, point models.Point) (*models.AreaResult, error) {
	args := m.Called(ctx, point)
	res, _ := args.Get(0).(*models.AreaResult)
	return res, args.Error(1)
}

func (m *MockAreaCache) Set(ctx context.Context, point models.Point, result *models.AreaResult) error {
	args := m.Called(ctx, point, result)
	return args.Error(0)
}

func TestAreaService_ResolveArea(t *testing.T) {
	dhanbad := &models.AreaResult{
		AreaName:   "Dhanbad",
		AreaType:   models.AreaTypeDistrict,
		Confidence: models.ConfidenceHigh,
		Source:     "census-districts",
	}
	fallback := &models.AreaResult{
		AreaName:     "Dhanbad",
		AreaType:     models.AreaTypeDistrict,
		Confidence:   models.ConfidenceLow,
		Source:       models.SourceClientFallback,
		Alternatives: []models.AreaResult{},
	}
	point := models.Point{Lat: 23.7957, Lng: 86.4304}

	tests := []struct {
		name           string
		lat, lng       float64
		setupMocks     func(*MockAreaResolver, *MockAreaCache)
		expectedResult *models.AreaResult
		expectedError  error
		expectNoCache  bool
	}{
		{
			name:          "latitude out of range",
			lat:           91,
			lng:           86.4304,
			setupMocks:    func(*MockAreaResolver, *MockAreaCache) {},
			expectedError: ErrInvalidCoordinates,
		},
		{
			name:          "longitude out of range",
			lat:           23.7957,
			lng:           -180.5,
			setupMocks:    func(*MockAreaResolver, *MockAreaCache) {},
			expectedError: ErrInvalidCoordinates,
		},
		{
			name: "cache hit skips the resolver",
			lat:  point.Lat,
			lng:  point.Lng,
			setupMocks: func(_ *MockAreaResolver, c *MockAreaCache) {
				c.On("Get", mock.Anything, point).Return(dhanbad, nil)
			},
			expectedResult: dhanbad,
		},
		{
			name: "cache miss resolves and stores",
			lat:  point.Lat,
			lng:  point.Lng,
			setupMocks: func(r *MockAreaResolver, c *MockAreaCache) {
				c.On("Get", mock.Anything, point).Return(nil, nil)
				r.On("Resolve", mock.Anything, point).Return(dhanbad, nil)
				c.On("Set", mock.Anything, point, dhanbad).Return(nil)
			},
			expectedResult: dhanbad,
		},
		{
			name: "cache failures are not fatal",
			lat:  point.Lat,
			lng:  point.Lng,
			setupMocks: func(r *MockAreaResolver, c *MockAreaCache) {
				c.On("Get", mock.Anything, point).Return(nil, errors.New("redis down"))
				r.On("Resolve", mock.Anything, point).Return(dhanbad, nil)
				c.On("Set", mock.Anything, point, dhanbad).Return(errors.New("redis down"))
			},
			expectedResult: dhanbad,
		},
		{
			name: "client fallback result is not cached",
			lat:  point.Lat,
			lng:  point.Lng,
			setupMocks: func(r *MockAreaResolver, c *MockAreaCache) {
				c.On("Get", mock.Anything, point).Return(nil, nil)
				r.On("Resolve", mock.Anything, point).Return(fallback, nil)
			},
			expectedResult: fallback,
			expectNoCache:  true,
		},
		{
			name: "no data is propagated and not cached",
			lat:  point.Lat,
			lng:  point.Lng,
			setupMocks: func(r *MockAreaResolver, c *MockAreaCache) {
				c.On("Get", mock.Anything, point).Return(nil, nil)
				r.On("Resolve", mock.Anything, point).Return(nil, models.NewNoDataError("outside known administrative areas"))
			},
			expectedError: models.ErrNoData,
		},
		{
			name: "network error is propagated",
			lat:  point.Lat,
			lng:  point.Lng,
			setupMocks: func(r *MockAreaResolver, c *MockAreaCache) {
				c.On("Get", mock.Anything, point).Return(nil, nil)
				r.On("Resolve", mock.Anything, point).Return(nil, models.NewNetworkError("all layers unreachable", nil))
			},
			expectedError: models.ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockAreaResolver)
			cache := new(MockAreaCache)
			tt.setupMocks(resolver, cache)

			svc := NewAreaService(resolver, cache)
			result, err := svc.ResolveArea(context.Background(), tt.lat, tt.lng)

			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, result)
				cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedResult, result)
			}
			if tt.expectNoCache {
				cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything)
			}

			resolver.AssertExpectations(t)
			cache.AssertExpectations(t)
		})
	}
}

func TestAreaService_WithoutCache(t *testing.T) {
	resolver := new(MockAreaResolver)
	point := models.Point{Lat: 23.7957, Lng: 86.4304}
	expected := &models.AreaResult{AreaName: "Dhanbad", AreaType: models.AreaTypeDistrict, Confidence: models.ConfidenceHigh, Source: "census-districts"}
	resolver.On("Resolve", mock.Anything, point).Return(expected, nil).Twice()

	svc := NewAreaService(resolver, nil)
	for i := 0; i < 2; i++ {
		result, err := svc.ResolveArea(context.Background(), point.Lat, point.Lng)
		require.NoError(t, err)
		assert.Equal(t, expected, result)
	}
	resolver.AssertExpectations(t)
}
