package router

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/backupgw/internal/application/dto"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/constants"
	"github.com/turtacn/backupgw/pkg/errors"
	"github.com/turtacn/backupgw/pkg/logger"
)

// Authenticator is the part of the token authenticator the dispatcher drives.
type Authenticator interface {
	Authenticate(c *gin.Context, rc *models.RequestContext) bool
	AuthorizeAny(c *gin.Context, rc *models.RequestContext, roles []string) bool
}

const (
	routeLabelUnmatched = "unmatched"
	routeLabelPreflight = "preflight"
)

// Dispatcher matches requests against the route table and invokes the bound
// handler. The table is built before serving and only read afterwards.
type Dispatcher struct {
	prefix   string
	cors     *CORSPolicy
	auth     Authenticator
	metrics  service.Metrics
	logger   logger.Logger
	routes   []*Route
	handlers map[HandlerKey]Handler

	mu     sync.Mutex
	sealed bool
}

// NewDispatcher creates a Dispatcher stripping prefix from request paths.
// metrics may be nil.
func NewDispatcher(prefix string, cors *CORSPolicy, auth Authenticator, metrics service.Metrics, log logger.Logger) *Dispatcher {
	if metrics == nil {
		metrics = service.NoopMetrics{}
	}
	return &Dispatcher{
		prefix:   strings.TrimRight(prefix, "/"),
		cors:     cors,
		auth:     auth,
		metrics:  metrics,
		logger:   log.WithComponent("Dispatcher"),
		handlers: make(map[HandlerKey]Handler),
	}
}

// Register appends a route. Earlier routes win when patterns overlap.
func (d *Dispatcher) Register(route Route) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sealed {
		return errors.ErrConfiguration("route table is sealed")
	}
	if err := route.compile(); err != nil {
		return errors.ErrConfiguration(err.Error())
	}
	route.RequiredRoles = append([]string(nil), route.RequiredRoles...)
	if len(route.RequiredRoles) > 0 && !route.RequiresAuth {
		return errors.ErrConfiguration(fmt.Sprintf("route %s %s: required roles need authentication", route.Method, route.Pattern))
	}
	d.routes = append(d.routes, &route)
	return nil
}

// Handle binds a handler to key. Like Register it fails once the table is sealed:
// Dispatch reads the handler table without locking.
func (d *Dispatcher) Handle(key HandlerKey, h Handler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sealed {
		return errors.ErrConfiguration(fmt.Sprintf("route table is sealed, cannot bind %s", key))
	}
	if h == nil {
		return errors.ErrConfiguration(fmt.Sprintf("nil handler for %s", key))
	}
	d.handlers[key] = h
	return nil
}

// HandleFunc binds a function to key.
func (d *Dispatcher) HandleFunc(key HandlerKey, f func(c *gin.Context, rc *models.RequestContext)) error {
	if f == nil {
		return errors.ErrConfiguration(fmt.Sprintf("nil handler for %s", key))
	}
	return d.Handle(key, HandlerFunc(f))
}

// Validate reports route keys without a bound handler and seals the table.
func (d *Dispatcher) Validate() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	missing := make(map[HandlerKey]struct{})
	for _, r := range d.routes {
		if _, ok := d.handlers[r.Key]; !ok {
			missing[r.Key] = struct{}{}
		}
	}
	d.sealed = true
	if len(missing) == 0 {
		return nil
	}

	keys := make([]string, 0, len(missing))
	for k := range missing {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	return errors.ErrConfiguration("no handler bound for routes: " + strings.Join(keys, ", "))
}

// Routes returns a copy of the route table in registration order.
func (d *Dispatcher) Routes() []Route {
	out := make([]Route, 0, len(d.routes))
	for _, r := range d.routes {
		out = append(out, *r)
	}
	return out
}

// Dispatch serves one request. It is mounted as the gin NoRoute handler so that
// every path outside the operational endpoints reaches it.
func (d *Dispatcher) Dispatch(c *gin.Context) {
	start := time.Now()
	method := c.Request.Method
	label := routeLabelUnmatched
	defer func() {
		d.metrics.RecordDispatch(method, label, c.Writer.Status(), time.Since(start))
	}()

	d.cors.Apply(c)
	if method == http.MethodOptions {
		label = routeLabelPreflight
		preflight(c)
		return
	}

	path := d.stripPrefix(c.Request.URL.EscapedPath())
	route, params := d.match(method, path)
	if route == nil {
		dto.SendError(c, errors.ErrRouteNotFound(method, path))
		return
	}
	label = route.Pattern

	rc := &models.RequestContext{
		RequestID: c.GetString(string(constants.ContextKeyRequestID)),
		Params:    params,
	}

	if route.RequiresAuth {
		if !d.auth.Authenticate(c, rc) {
			return
		}
		if len(route.RequiredRoles) > 0 && !d.auth.AuthorizeAny(c, rc, route.RequiredRoles) {
			return
		}
	}

	handler, ok := d.handlers[route.Key]
	if !ok {
		err := errors.ErrConfiguration(fmt.Sprintf("No handler registered for %s", route.Key))
		d.logger.Error(c.Request.Context(), "No handler bound for matched route", err,
			logger.String("route", route.Pattern),
		)
		dto.SendError(c, err)
		return
	}
	handler.Serve(c, rc)
}

func (d *Dispatcher) match(method, path string) (*Route, models.PathParams) {
	parts := splitPath(path)
	for _, r := range d.routes {
		if params, ok := r.match(method, parts); ok {
			return r, params
		}
	}
	return nil, nil
}

func (d *Dispatcher) stripPrefix(path string) string {
	if d.prefix == "" {
		return path
	}
	if path == d.prefix {
		return "/"
	}
	if strings.HasPrefix(path, d.prefix+"/") {
		return path[len(d.prefix):]
	}
	return path
}
