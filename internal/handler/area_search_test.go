package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"area-resolver-api/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockAreaSearchService is a mock implementation of the AreaSearchService interface
type MockAreaSearchService struct {
	mock.Mock
}

func (m *MockAreaSearchService) SearchAreas(ctx context.Context, query string) ([]models.AreaSummary, error) {
	args := m.Called(ctx, query)
	areas, _ := args.Get(0).([]models.AreaSummary)
	return areas, args.Error(1)
}

func TestAreaSearchHandler_SearchAreas(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		query          string
		mockAreas      []models.AreaSummary
		mockError      error
		expectedStatus int
		expectedBody   interface{}
	}{
		{
			name:           "missing query parameter",
			query:          "",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]interface{}{"error": "missing required query parameter 'q'"},
		},
		{
			name:           "blank query parameter",
			query:          "   ",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   map[string]interface{}{"error": "missing required query parameter 'q'"},
		},
		{
			name:  "successful search with results",
			query: "dhan",
			mockAreas: []models.AreaSummary{
				{Layer: "census-districts", AreaName: "Dhanbad", AreaType: models.AreaTypeDistrict},
			},
			expectedStatus: http.StatusOK,
			expectedBody: []interface{}{
				map[string]interface{}{"layer": "census-districts", "areaName": "Dhanbad", "areaType": "District"},
			},
		},
		{
			name:           "successful search with no results",
			query:          "atlantis",
			mockAreas:      nil,
			expectedStatus: http.StatusOK,
			expectedBody:   []interface{}{},
		},
		{
			name:           "service error",
			query:          "dhan",
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   map[string]interface{}{"error": "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Setup
			mockSvc := new(MockAreaSearchService)
			handler := NewAreaSearchHandler(mockSvc)

			if tt.expectedStatus != http.StatusBadRequest {
				mockSvc.On("SearchAreas", mock.Anything, tt.query).Return(tt.mockAreas, tt.mockError)
			}

			// Create request
			req := httptest.NewRequest(http.MethodGet, "/areas?q="+url.QueryEscape(tt.query), nil)
			w := httptest.NewRecorder()

			// Create Gin context
			c, _ := gin.CreateTestContext(w)
			c.Request = req

			// Execute
			handler.SearchAreas(c)

			// Assert
			assert.Equal(t, tt.expectedStatus, w.Code)

			var actualBody interface{}
			err := json.Unmarshal(w.Body.Bytes(), &actualBody)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedBody, actualBody)

			mockSvc.AssertExpectations(t)
		})
	}
}

func TestAreaSearchHandler_NoDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/areas?q=dhan", nil)

	NewAreaSearchHandler(nil).SearchAreas(c)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAreaSearchHandler_LogsServiceError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	mockSvc := new(MockAreaSearchService)
	mockSvc.On("SearchAreas", mock.Anything, "dhan").Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/areas?q=dhan", nil)

	NewAreaSearchHandler(mockSvc).SearchAreas(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), "area search failed")
	assert.Contains(t, buf.String(), assert.AnError.Error())
}
