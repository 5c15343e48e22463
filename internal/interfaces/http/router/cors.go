package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// CORSPolicy decides the cross-origin headers of every dispatched response.
// Origins outside the allow-list get no Access-Control-Allow-Origin header but
// their requests are still processed.
type CORSPolicy struct {
	origins map[string]struct{}
	methods string
	headers string
	maxAge  string
}

// NewCORSPolicy builds a policy from a fixed allow-list. There is no wildcard:
// credentials are always allowed, so "*" is never matched.
func NewCORSPolicy(allowedOrigins, methods, headers []string, maxAge time.Duration) *CORSPolicy {
	p := &CORSPolicy{
		origins: make(map[string]struct{}, len(allowedOrigins)),
		methods: strings.Join(methods, ", "),
		headers: strings.Join(headers, ", "),
		maxAge:  strconv.Itoa(int(maxAge.Seconds())),
	}
	for _, o := range allowedOrigins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o != "" && o != "*" {
			p.origins[o] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether origin is on the allow-list.
func (p *CORSPolicy) Allowed(origin string) bool {
	if origin == "" {
		return false
	}
	_, ok := p.origins[origin]
	return ok
}

// Apply writes the CORS headers for the request.
func (p *CORSPolicy) Apply(c *gin.Context) {
	h := c.Writer.Header()
	if origin := c.GetHeader("Origin"); p.Allowed(origin) {
		h.Set("Access-Control-Allow-Origin", origin)
		h.Add("Vary", "Origin")
	}
	h.Set("Access-Control-Allow-Methods", p.methods)
	h.Set("Access-Control-Allow-Headers", p.headers)
	h.Set("Access-Control-Allow-Credentials", "true")
	h.Set("Access-Control-Max-Age", p.maxAge)
}

// preflight terminates an OPTIONS request with 200 and no body.
func preflight(c *gin.Context) {
	c.Status(http.StatusOK)
	c.Writer.WriteHeaderNow()
	c.Abort()
}
