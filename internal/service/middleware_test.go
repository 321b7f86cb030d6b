package service

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"gitlab.com/contactbook/contacts-service/internal/auth"
)

// initializeRateLimitedService builds a service whose contact creation is
// capped at the given number of requests per minute.
func initializeRateLimitedService(db *sql.DB, perMinute int) *gin.Engine {
	cfg := testConfig()
	cfg.CreateRateLimit = perMinute
	provider := auth.New(cfg.SecretKey, cfg.TokenTTL)
	server := NewServer(cfg, db, provider, &fakeMailer{}, &fakeUploader{})
	gin.SetMode(gin.ReleaseMode)
	return server.SetupHttpRouter()
}

// TestRateLimitExceeded sends more contact creations from one client address
// than the limiter allows. It expects the TOO MANY REQUESTS status code with
// the fixed JSON body once the budget is used up. The requests carry an
// invalid token on purpose: the limiter sits in front of authentication, so
// no database expectations are needed.
func TestRateLimitExceeded(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	router := initializeRateLimitedService(db, 5)
	for i := 0; i < 5; i++ {
		recorder := serveRequest(router, "POST", "/contacts", strings.NewReader("{}"), "garbage")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "request %d", i+1)
	}
	recorder := serveRequest(router, "POST", "/contacts", strings.NewReader("{}"), "garbage")
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.JSONEq(t, `{"detail": "Too many requests"}`, recorder.Body.String())
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestRateLimitDoesNotAffectReads sends many GET requests and expects none
// of them to be rate limited.
func TestRateLimitDoesNotAffectReads(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	router := initializeRateLimitedService(db, 1)
	for i := 0; i < 10; i++ {
		recorder := serveRequest(router, "GET", "/contacts", nil, "garbage")
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, "request %d", i+1)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestCORSPreflightAllowedOrigin sends a preflight request from a declared
// origin. It expects the NO CONTENT status code and the CORS headers.
func TestCORSPreflightAllowedOrigin(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	router := initializeContactsService(db, &fakeMailer{}, &fakeUploader{})
	recorder := preflight(router, "http://allowed.example")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "http://allowed.example", recorder.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, recorder.Header().Get("Access-Control-Allow-Methods"), "POST")
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestCORSPreflightDisallowedOrigin sends a preflight request from an origin
// that is not declared. It expects the FORBIDDEN status code and no CORS
// headers.
func TestCORSPreflightDisallowedOrigin(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	router := initializeContactsService(db, &fakeMailer{}, &fakeUploader{})
	recorder := preflight(router, "http://evil.example")
	assert.Equal(t, http.StatusForbidden, recorder.Code)
	assert.Empty(t, recorder.Header().Get("Access-Control-Allow-Origin"))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestCORSActualRequest sends a normal request with an allowed origin and
// expects the allow-origin header on the answer.
func TestCORSActualRequest(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)
	expectOwnerLookup(mock)
	mock.ExpectQuery("SELECT \\* FROM contacts WHERE owner_id").
		WillReturnRows(mock.NewRows(contactColumns))

	router := initializeContactsService(db, &fakeMailer{}, &fakeUploader{})
	recorder := serveRequestWithOrigin(router, "GET", "/contacts", testToken(), "http://allowed.example")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "http://allowed.example", recorder.Header().Get("Access-Control-Allow-Origin"))
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// TestExpiredTokenRejected sends a request with a token that has already
// expired and expects the UNAUTHORIZED status code.
func TestExpiredTokenRejected(t *testing.T) {
	db, mock := createMockObjects(t)
	defer db.Close()

	// Define expectations on SQL statements
	expectPreparedStatements(mock)

	expiredProvider := auth.New(testSecret, -time.Minute)
	expiredToken, _ := expiredProvider.IssueToken(testUserID)
	recorder := runTest(db, "GET", "/contacts", nil, expiredToken)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

// preflight performs an OPTIONS request from the given origin.
func preflight(router *gin.Engine, origin string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(http.MethodOptions, "/contacts", nil)
	request.Header.Set("Origin", origin)
	request.Header.Set("Access-Control-Request-Method", "POST")
	router.ServeHTTP(recorder, request)
	return recorder
}

// serveRequestWithOrigin performs a request carrying both a bearer token and
// an Origin header.
func serveRequestWithOrigin(router *gin.Engine, method string, url string, token string, origin string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, _ := http.NewRequest(method, url, nil)
	request.Header.Set("Origin", origin)
	if token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(recorder, request)
	return recorder
}
