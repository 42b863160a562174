// Package httpx holds the gin middleware and response helpers shared by the
// API routes.
package httpx

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/MikeMC777/food-ordering/internal/apperr"
	"github.com/MikeMC777/food-ordering/internal/auth"
	"github.com/MikeMC777/food-ordering/internal/logging"
	"github.com/MikeMC777/food-ordering/internal/metrics"
)

const (
	CtxRequestID = "rid"
	CtxUserID    = "userID"
	CtxRole      = "role"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(CtxRequestID, rid)
		c.Writer.Header().Set("X-Request-ID", rid)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), rid))
		c.Next()
	}
}

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		ev := logging.Ctx(c.Request.Context()).Info()
		if status >= 500 {
			ev = logging.Ctx(c.Request.Context()).Error()
		}
		if len(c.Errors) > 0 {
			ev = ev.Str("errors", c.Errors.String())
		}
		ev.Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Metrics records request count and latency by route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

type clientLimiter struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet keeps one token bucket per client. A bucket idle for the refill
// window is full again, so it is dropped on the next sweep.
type limiterSet struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLimiterSet(perMinute int) *limiterSet {
	return &limiterSet{
		clients: map[string]*clientLimiter{},
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		idle:    time.Minute,
		now:     time.Now,
	}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= s.idle {
		for k, cl := range s.clients {
			if now.Sub(cl.seen) >= s.idle {
				delete(s.clients, k)
			}
		}
		s.lastSweep = now
	}
	cl, ok := s.clients[key]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(s.limit, s.burst)}
		s.clients[key] = cl
	}
	cl.seen = now
	return cl.lim.AllowN(now, 1)
}

func (s *limiterSet) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// RateLimit allows perMinute requests per client IP with a burst of the
// same size.
func RateLimit(perMinute int) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters := newLimiterSet(perMinute)
	return func(c *gin.Context) {
		if !limiters.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(429, gin.H{"success": false, "message": "too many requests"})
			return
		}
		c.Next()
	}
}

// TokenValidator is implemented by *auth.JWTManager.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

func bearer(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(tok)
		}
	}
	return strings.TrimSpace(c.GetHeader("token"))
}

var errNotAuthorized = apperr.New(apperr.Unauthorized, "not authorized, login again")

// Auth requires a valid token (Authorization: Bearer, or the legacy token
// header) and stores the user id and role in the context.
func Auth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := bearer(c)
		if tok == "" {
			Fail(c, errNotAuthorized)
			c.Abort()
			return
		}
		claims, err := v.ValidateToken(tok)
		if err != nil {
			logging.Ctx(c.Request.Context()).Debug().Err(err).Msg("token rejected")
			Fail(c, errNotAuthorized)
			c.Abort()
			return
		}
		c.Set(CtxUserID, claims.UserID)
		c.Set(CtxRole, claims.Role)
		c.Next()
	}
}

// Policy is implemented by *authz.Enforcer.
type Policy interface {
	Allowed(role, path, method string) (bool, error)
}

var errForbidden = apperr.New(apperr.Forbidden, "you do not have access to this resource")

// Authorize checks the caller's role against the route template. It must
// run after Auth.
func Authorize(p Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := p.Allowed(c.GetString(CtxRole), c.FullPath(), c.Request.Method)
		if err != nil {
			Fail(c, err)
			c.Abort()
			return
		}
		if !ok {
			Fail(c, errForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string { return c.GetString(CtxUserID) }
