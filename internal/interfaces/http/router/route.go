// Package router implements the gateway's route dispatcher: a registration-ordered
// route table with :name placeholders, CORS handling, authentication and role
// gating, and a compile-time handler table keyed by HandlerKey.
package router

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/internal/domain/models"
)

// HandlerKey names a handler in the dispatcher's handler table.
type HandlerKey string

// Handler serves a matched route. rc carries the path params and, for
// authenticated routes, the principal.
type Handler interface {
	Serve(c *gin.Context, rc *models.RequestContext)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(c *gin.Context, rc *models.RequestContext)

// Serve calls f(c, rc).
func (f HandlerFunc) Serve(c *gin.Context, rc *models.RequestContext) { f(c, rc) }

// Route binds a method and path pattern to a handler key.
type Route struct {
	Method        string
	Pattern       string
	Key           HandlerKey
	RequiresAuth  bool
	RequiredRoles []string

	segments []segment
}

type segment struct {
	literal string
	param   string // non-empty for :name placeholders
}

// compile parses Pattern into segments.
func (r *Route) compile() error {
	if r.Method == "" {
		return fmt.Errorf("route %q: method is required", r.Key)
	}
	if r.Key == "" {
		return fmt.Errorf("route %s %s: handler key is required", r.Method, r.Pattern)
	}
	if !strings.HasPrefix(r.Pattern, "/") {
		return fmt.Errorf("route %s %s: pattern must start with '/'", r.Method, r.Pattern)
	}

	parts := splitPath(r.Pattern)
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]struct{})
	for _, p := range parts {
		if !strings.HasPrefix(p, ":") {
			segs = append(segs, segment{literal: p})
			continue
		}
		name := p[1:]
		if name == "" {
			return fmt.Errorf("route %s %s: empty placeholder name", r.Method, r.Pattern)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("route %s %s: duplicate placeholder %q", r.Method, r.Pattern, name)
		}
		seen[name] = struct{}{}
		segs = append(segs, segment{param: name})
	}
	r.segments = segs
	return nil
}

// match reports whether the escaped path matches the route, returning the
// unescaped placeholder values.
func (r *Route) match(method string, parts []string) (models.PathParams, bool) {
	if method != r.Method || len(parts) != len(r.segments) {
		return nil, false
	}

	var params models.PathParams
	for i, seg := range r.segments {
		part := parts[i]
		if seg.param == "" {
			if part != seg.literal {
				return nil, false
			}
			continue
		}
		if part == "" {
			return nil, false
		}
		value, err := url.PathUnescape(part)
		if err != nil {
			return nil, false
		}
		if params == nil {
			params = make(models.PathParams, len(r.segments))
		}
		params[seg.param] = value
	}
	if params == nil {
		params = models.PathParams{}
	}
	return params, true
}

func splitPath(p string) []string {
	return strings.Split(strings.TrimPrefix(p, "/"), "/")
}
