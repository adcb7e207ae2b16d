// Package fakebackend is an in-memory implementation of the Bluewater
// portal REST API. Tests run it behind httptest and the CLI serves it for
// local development.
package fakebackend

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/jrsteele09/bluewater-portal/internal/config"
	"github.com/jrsteele09/bluewater-portal/token/jwt"
	"github.com/jrsteele09/bluewater-portal/token/refresh"
	refreshrepofake "github.com/jrsteele09/bluewater-portal/token/refresh/repofake"
	"github.com/jrsteele09/bluewater-portal/users"
	fakeuserrepo "github.com/jrsteele09/bluewater-portal/users/repofake"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Resources served by the generic CRUD handlers.
var Resources = []string{
	"bookings", "families", "rooms", "events", "tasks", "tags", "checklists", "pictures",
}

type Backend struct {
	env     string
	router  chi.Router
	routes  []string
	logger  zerolog.Logger
	users   users.UserRepo
	creator *jwt.Creator
	refresh *refresh.Manager
	records *collections

	generation   atomic.Int64
	refreshCalls atomic.Int64
}

type Option func(*Backend)

func WithLogger(logger zerolog.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithEnv enables request and route logging when env is "DEV".
func WithEnv(env string) Option {
	return func(b *Backend) {
		b.env = strings.ToUpper(env)
	}
}

// WithUserRepo replaces the in-memory user repository.
func WithUserRepo(repo users.UserRepo) Option {
	return func(b *Backend) {
		b.users = repo
	}
}

func New(cfg config.FakeBackendConfig, options ...Option) (*Backend, error) {
	creator, err := jwt.NewCreator(cfg)
	if err != nil {
		return nil, fmt.Errorf("[fakebackend.New] %w", err)
	}

	b := &Backend{
		logger:  log.Logger,
		users:   fakeuserrepo.NewFakeUserRepo(),
		creator: creator,
		refresh: refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), cfg),
		records: newCollections(Resources),
	}
	for _, opt := range options {
		opt(b)
	}

	b.initRoutes()
	b.logRoutes()
	return b, nil
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.router.ServeHTTP(w, r)
}

func (b *Backend) initRoutes() {
	r := chi.NewRouter()
	r.Use(b.recoverMiddleware, b.loggingMiddleware)

	b.route(r, http.MethodPost, "/auth/login", b.loginHandler)
	b.route(r, http.MethodPost, "/auth/refresh", b.refreshHandler)
	b.route(r, http.MethodPost, "/auth/register", b.registerHandler)

	r.Group(func(r chi.Router) {
		r.Use(b.requireAuth)

		b.route(r, http.MethodGet, "/profiles", b.listProfilesHandler)
		b.route(r, http.MethodGet, "/profiles/me", b.meHandler)
		b.route(r, http.MethodGet, "/profiles/{id}", b.getProfileHandler)
		b.route(r, http.MethodPatch, "/profiles/toggle-admin/{id}", b.requireAdmin(b.toggleAdminHandler))

		b.route(r, http.MethodGet, "/families", b.requireAdmin(b.listHandler("families")))
		b.route(r, http.MethodGet, "/families/me", b.myFamiliesHandler)
		b.route(r, http.MethodPost, "/pictures", b.uploadPictureHandler)

		for _, name := range Resources {
			if name != "families" {
				b.route(r, http.MethodGet, "/"+name, b.listHandler(name))
			}
			if name != "pictures" {
				b.route(r, http.MethodPost, "/"+name, b.createHandler(name))
			}
			b.route(r, http.MethodGet, "/"+name+"/{id}", b.getHandler(name))
			b.route(r, http.MethodPatch, "/"+name+"/{id}", b.updateHandler(name))
			b.route(r, http.MethodDelete, "/"+name+"/{id}", b.deleteHandler(name))
		}
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	b.router = r
}

func (b *Backend) route(r chi.Router, method, pattern string, h http.HandlerFunc) {
	b.routes = append(b.routes, method+" "+pattern)
	r.Method(method, pattern, h)
}

func (b *Backend) logRoutes() {
	if b.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range b.routes {
		method, path, _ := strings.Cut(route, " ")
		b.logger.Info().Msgf("[%-19s] %s", colourMethod(method), path)
	}
}
