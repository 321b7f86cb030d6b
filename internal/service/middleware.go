package service

import (
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"gitlab.com/contactbook/contacts-service/internal/model"
)

// userKey is the gin context key under which requireUser stores the
// authenticated user.
const userKey = "currentUser"

// requireUser returns a middleware that resolves the bearer token from the
// Authorization header to a user row and stores it in the request context.
// Every failure mode - missing header, bad signature, expired token, unknown
// subject - yields the same undifferentiated UNAUTHORIZED answer.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			abortUnauthorized(c)
			return
		}
		userID, err := s.auth.VerifyToken(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		var users []model.User
		if err := s.selectUserWhereId.Select(&users, userID); err != nil {
			log.Panicln(err)
		}
		if len(users) == 0 {
			abortUnauthorized(c)
			return
		}
		c.Set(userKey, users[0])
		c.Next()
	}
}

// currentUser returns the user stored by the requireUser middleware.
func currentUser(c *gin.Context) model.User {
	return c.MustGet(userKey).(model.User)
}

// abortUnauthorized answers with the UNAUTHORIZED status code. The message
// never reveals why the credentials were rejected.
func abortUnauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "could not validate credentials"})
}

// clientLimiter keeps one token bucket per client address. The map is the
// only mutable state the service shares between requests, so it is guarded
// by a mutex.
type clientLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*rate.Limiter
	perMinute int
}

// newClientLimiter creates a limiter that allows perMinute requests per
// minute per client address, with a burst of the same size.
func newClientLimiter(perMinute int) *clientLimiter {
	return &clientLimiter{
		buckets:   make(map[string]*rate.Limiter),
		perMinute: perMinute,
	}
}

// allow reports whether the client address may perform another request.
func (l *clientLimiter) allow(addr string) bool {
	l.mu.Lock()
	bucket, exists := l.buckets[addr]
	if !exists {
		bucket = rate.NewLimiter(rate.Limit(float64(l.perMinute)/60.0), l.perMinute)
		l.buckets[addr] = bucket
	}
	l.mu.Unlock()
	return bucket.Allow()
}

// rateLimit returns a middleware that caps the request rate per client
// address. Excess requests receive the TOO MANY REQUESTS status code with a
// fixed JSON body.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Too many requests"})
			return
		}
		c.Next()
	}
}

// corsMiddleware allows cross-origin calls from the declared origins. All
// methods and headers are permitted for allowed origins; requests from other
// origins receive no CORS headers at all. Preflight requests are answered
// directly.
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.ToLower(origin)] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if !allowed[strings.ToLower(origin)] {
			if c.Request.Method == http.MethodOptions {
				c.AbortWithStatus(http.StatusForbidden)
				return
			}
			c.Next()
			return
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "*")
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
