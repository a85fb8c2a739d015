package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/imeiguard/internal/errors"
	identityDomain "github.com/allisson/imeiguard/internal/identity/domain"
	identityHTTP "github.com/allisson/imeiguard/internal/identity/http"
	registryDomain "github.com/allisson/imeiguard/internal/registry/domain"
	tenantDomain "github.com/allisson/imeiguard/internal/tenant/domain"
	"github.com/allisson/imeiguard/internal/verification/domain"
	verificationUseCase "github.com/allisson/imeiguard/internal/verification/usecase"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockVerificationUseCase is a mock implementation of VerificationUseCase.
type mockVerificationUseCase struct {
	mock.Mock
}

func (m *mockVerificationUseCase) Verify(ctx context.Context, scope identityDomain.Scope, imei string) (*domain.Result, error) {
	args := m.Called(ctx, scope, imei)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Result), args.Error(1)
}

func (m *mockVerificationUseCase) SearchDevices(ctx context.Context, scope identityDomain.Scope, filter verificationUseCase.SearchFilter) ([]*verificationUseCase.DeviceMatch, error) {
	args := m.Called(ctx, scope, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*verificationUseCase.DeviceMatch), args.Error(1)
}

// injectClaims simulates the authentication middleware for handler tests.
func injectClaims(claims *identityDomain.Claims) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := identityHTTP.WithClaims(c.Request.Context(), claims)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func adminClaims() *identityDomain.Claims {
	return &identityDomain.Claims{
		AccountID: uuid.Must(uuid.NewV7()),
		Role:      identityDomain.RoleAdmin,
	}
}

func newRouter(handler *VerificationHandler, claims *identityDomain.Claims) *gin.Engine {
	router := gin.New()
	group := router.Group("/v1")
	if claims != nil {
		group.Use(injectClaims(claims))
	}
	group.POST("/verifications", handler.VerifyHandler)
	group.GET("/devices", handler.SearchHandler)
	return router
}

func TestVerificationHandler_Verify(t *testing.T) {
	t.Run("valid imei returns chain", func(t *testing.T) {
		tenantID := uuid.Must(uuid.NewV7())
		result := &domain.Result{
			Valid:   true,
			Message: domain.MessageVerified,
			Device:  &registryDomain.Device{ID: uuid.Must(uuid.NewV7()), IMEI: "123456789012345"},
			Person:  &registryDomain.Person{ID: uuid.Must(uuid.NewV7()), TenantID: tenantID, Name: "John Doe", Identification: "12345678901"},
			Tenant:  &tenantDomain.Tenant{ID: tenantID, Name: "acme"},
		}

		mockUC := &mockVerificationUseCase{}
		mockUC.On("Verify", mock.Anything, mock.Anything, "123456789012345").Return(result, nil).Once()

		handler := NewVerificationHandler(mockUC, testLogger())
		router := newRouter(handler, adminClaims())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/verifications",
			strings.NewReader(`{"imei": "123456789012345"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response VerificationResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.True(t, response.Valid)
		assert.Equal(t, "acme", response.Tenant.Name)
		assert.Equal(t, "123456789012345", response.Device.IMEI)
		mockUC.AssertExpectations(t)
	})

	t.Run("unknown imei returns valid=false without person", func(t *testing.T) {
		mockUC := &mockVerificationUseCase{}
		mockUC.On("Verify", mock.Anything, mock.Anything, "999999999999999").
			Return(&domain.Result{Valid: false, Message: domain.MessageNotRegistered}, nil).Once()

		handler := NewVerificationHandler(mockUC, testLogger())
		router := newRouter(handler, adminClaims())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/verifications",
			strings.NewReader(`{"imei": "999999999999999"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), domain.MessageNotRegistered)
		assert.NotContains(t, w.Body.String(), "person")
	})

	t.Run("malformed imei returns 422", func(t *testing.T) {
		handler := NewVerificationHandler(&mockVerificationUseCase{}, testLogger())
		router := newRouter(handler, adminClaims())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/verifications",
			strings.NewReader(`{"imei": "12ab"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("out of tenant returns 403", func(t *testing.T) {
		mockUC := &mockVerificationUseCase{}
		mockUC.On("Verify", mock.Anything, mock.Anything, "123456789012345").
			Return(nil, apperrors.ErrForbidden).Once()

		handler := NewVerificationHandler(mockUC, testLogger())
		router := newRouter(handler, adminClaims())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/verifications",
			strings.NewReader(`{"imei": "123456789012345"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("missing claims return 401", func(t *testing.T) {
		handler := NewVerificationHandler(&mockVerificationUseCase{}, testLogger())
		router := newRouter(handler, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/verifications",
			strings.NewReader(`{"imei": "123456789012345"}`))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestVerificationHandler_Search(t *testing.T) {
	t.Run("search forwards query and pagination", func(t *testing.T) {
		matches := []*verificationUseCase.DeviceMatch{
			{
				Device: &registryDomain.Device{ID: uuid.Must(uuid.NewV7()), IMEI: "123456789012345"},
				Person: &registryDomain.Person{ID: uuid.Must(uuid.NewV7()), Name: "John Doe"},
			},
		}

		mockUC := &mockVerificationUseCase{}
		mockUC.On("SearchDevices", mock.Anything, mock.Anything, verificationUseCase.SearchFilter{
			Query:  "12345",
			Offset: 0,
			Limit:  10,
		}).Return(matches, nil).Once()

		handler := NewVerificationHandler(mockUC, testLogger())
		router := newRouter(handler, adminClaims())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/devices?search=12345&limit=10", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "123456789012345")
		mockUC.AssertExpectations(t)
	})

	t.Run("empty result returns empty list", func(t *testing.T) {
		mockUC := &mockVerificationUseCase{}
		mockUC.On("SearchDevices", mock.Anything, mock.Anything, mock.Anything).
			Return([]*verificationUseCase.DeviceMatch{}, nil).Once()

		handler := NewVerificationHandler(mockUC, testLogger())
		router := newRouter(handler, adminClaims())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/devices", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"devices": []}`, w.Body.String())
	})
}
