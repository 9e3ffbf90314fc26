// Package web serves the address book over HTTP: a numbered contact list,
// find/tag filters and a delete form whose confirmation is a second page.
package web

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"addressbook/internal/adapters/http/middleware"
	"addressbook/internal/application/orchestrators"
	"addressbook/internal/domain/contact"
	"addressbook/internal/domain/deletion"
	"addressbook/internal/domain/viewstate"
)

// Book is the record store as the web surface sees it.
type Book interface {
	FilteredView() []contact.Contact
	ViewState() viewstate.State
	Size() int
	Remove(ctx context.Context, c contact.Contact) error
	UpdateFilter(ctx context.Context, state viewstate.State) error
}

// DeletionLog is the audit trail of completed deletions.
type DeletionLog interface {
	Append(ctx context.Context, entry deletion.Entry) error
	ListRecent(ctx context.Context, limit int) ([]deletion.Entry, error)
}

// Deps wires the server.
type Deps struct {
	Book        Book
	DeletionLog DeletionLog // optional
	// AfterDelete runs after every successful deletion, e.g. to mail a receipt.
	AfterDelete        func(ctx context.Context, res orchestrators.DeleteContactResult)
	Logger             *zap.Logger
	CSRFKey            []byte
	SecureCookies      bool
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      int
}

// Server owns the handlers and the state shared between requests.
type Server struct {
	deps      Deps
	logger    *zap.Logger
	pages     map[string]*template.Template
	limiter   *middleware.RateLimiter
	handler   http.Handler
	deleteMu  sync.Mutex // deletions resolve and remove against one view at a time
	startedAt time.Time
}

// NewServer parses the templates and builds the middleware chain.
// PRE: deps.Book is set; deps.CSRFKey is 32 bytes
// POST: Caller must Close the server to stop the rate limiter
func NewServer(deps Deps) (*Server, error) {
	if deps.Book == nil {
		return nil, errors.New("web: book is required")
	}
	if len(deps.CSRFKey) != 32 {
		return nil, fmt.Errorf("web: csrf key must be 32 bytes, got %d", len(deps.CSRFKey))
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.RateLimitPerSecond <= 0 {
		deps.RateLimitPerSecond = 10
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	s := &Server{
		deps:      deps,
		logger:    deps.Logger,
		pages:     pages,
		limiter:   middleware.NewRateLimiter(deps.RateLimitPerSecond, time.Second, deps.Logger),
		startedAt: time.Now(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	s.handler = middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(deps.CSRFKey, deps.SecureCookies, deps.TrustedOrigins),
		middleware.RateLimit(s.limiter),
		middleware.Timing(deps.Logger, deps.SlowRequestMs),
	)
	return s, nil
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/contacts", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /contacts", s.handleContacts)
	mux.HandleFunc("POST /contacts/filter", s.handleFilter)
	mux.HandleFunc("POST /contacts/delete", s.handleDelete)
	mux.HandleFunc("GET /deletions", s.handleDeletions)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Handler returns the full middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close releases background resources.
func (s *Server) Close() {
	s.limiter.Stop()
}
