// Package testutil holds database and HTTP helpers shared by package tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Govind-619/GreenLedger/config"
	"github.com/Govind-619/GreenLedger/models"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB opens a private in-memory database with the schema migrated.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// CreateTestUser inserts a user with the given email.
func CreateTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     email,
		FirstName: "Test",
		LastName:  "User",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestProduct inserts an active product priced at price.
func CreateTestProduct(t *testing.T, db *gorm.DB, name, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// TestRequest represents a test HTTP request
type TestRequest struct {
	Method  string
	Path    string
	Body    interface{}
	RawBody []byte
	Headers map[string]string
	Cookies []*http.Cookie
}

// TestResponse represents a test HTTP response
type TestResponse struct {
	StatusCode int
	Body       map[string]interface{}
	Cookies    []*http.Cookie
}

// MakeTestRequest makes a test HTTP request. RawBody is sent untouched and
// wins over Body.
func MakeTestRequest(t *testing.T, router *gin.Engine, req TestRequest) TestResponse {
	t.Helper()

	body := req.RawBody
	if body == nil && req.Body != nil {
		var err error
		body, err = json.Marshal(req.Body)
		require.NoError(t, err)
	}

	httpReq, err := http.NewRequest(req.Method, req.Path, bytes.NewReader(body))
	require.NoError(t, err)

	httpReq.Header.Set("Content-Type", "application/json")
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}
	for _, cookie := range req.Cookies {
		httpReq.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httpReq)

	var responseBody map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &responseBody), w.Body.String())
	}

	return TestResponse{
		StatusCode: w.Code,
		Body:       responseBody,
		Cookies:    w.Result().Cookies(),
	}
}

// AssertStatus asserts the response code and prints the body on mismatch.
func AssertStatus(t *testing.T, response TestResponse, expectedStatusCode int) {
	t.Helper()
	assert.Equal(t, expectedStatusCode, response.StatusCode, "body: %v", response.Body)
}

// Data returns the "data" object of a standard response envelope.
func Data(t *testing.T, response TestResponse) map[string]interface{} {
	t.Helper()
	data, ok := response.Body["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", response.Body)
	return data
}
