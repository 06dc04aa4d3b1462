package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/seroft/pharmhub-auth/api/auth" // Swagger docs
	"github.com/seroft/pharmhub-auth/internal/auth/metrics"
	"github.com/seroft/pharmhub-auth/internal/auth/service"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
	"github.com/seroft/pharmhub-auth/pkg/httpx"
	"github.com/seroft/pharmhub-auth/pkg/jwtx"
	"github.com/seroft/pharmhub-auth/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeyManager
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store

	// Gatherer backs /metrics. Nil leaves the route unregistered.
	Gatherer prometheus.Gatherer

	LoginService     *service.LoginService
	SessionService   *service.SessionService
	UserService      *service.UserService
	BootstrapService *service.BootstrapService
}

func NewRouter(
	keys *jwtx.KeyManager,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerSessions()
	r.registerAdmin()
	r.registerSystem()
	r.registerBootstrap()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			PharmHub Authentication Service API
//	@version		0.1.0
//	@description	Single-session login for PharmHub. Each login is classified into exactly one status; conflicts are resolved by logging out other devices and step-up by a one-time code.
//	@description
//	@description				Session tokens are EdDSA-signed JWTs bound to a server-side session and stop working as soon as that session ends.
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Session or resolution token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// authn verifies the bearer token and that its session is still active.
func (r *Router) authn() httpx.Middleware {
	return httpx.AuthnMiddleware(r.keys.Verifier, r.SessionService.ActiveSessionCheck())
}

func (r *Router) registerLogin() {
	// POST /login - strict rate limit by IP + email (credential submission)
	r.Mux.Handle("POST /login",
		httpx.Chain(&LoginHandler{LoginService: r.LoginService},
			httpx.RateLimitByIPAndJSONField(httpx.StrictLimit, "emailAddress"),
		),
	)
}

func (r *Router) registerSessions() {
	h := &SessionsHandler{SessionService: r.SessionService}

	// A resolution token may only reach terminate-others.
	r.Mux.Handle("POST /users/{userId}/terminate-others",
		httpx.Chain(http.HandlerFunc(h.HandleTerminateOthers),
			r.authn(),
			httpx.RequireAnyScope(jwtx.ScopeSelf, jwtx.ScopeResolve, jwtx.ScopeAdmin),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
	r.Mux.Handle("GET /users/{userId}/sessions",
		httpx.Chain(http.HandlerFunc(h.HandleListForUser),
			r.authn(),
			httpx.RequireAnyScope(jwtx.ScopeSelf, jwtx.ScopeAdmin),
			httpx.RequireSubjectOrScope("userId", jwtx.ScopeAdmin),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /sessions/heartbeat",
		httpx.Chain(http.HandlerFunc(h.HandleHeartbeat),
			r.authn(),
			httpx.RequireAnyScope(jwtx.ScopeSelf),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("POST /logout",
		httpx.Chain(http.HandlerFunc(h.HandleLogout),
			r.authn(),
			httpx.RequireAnyScope(jwtx.ScopeSelf),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAdmin() {
	sessions := &SessionsHandler{SessionService: r.SessionService}
	users := &UsersHandler{UserService: r.UserService}

	admin := func(h http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(h,
			r.authn(),
			httpx.RequireAnyScope(jwtx.ScopeAdmin),
			httpx.RateLimitByUser(limit),
		)
	}

	r.Mux.Handle("GET /sessions", admin(sessions.HandleList, httpx.LenientLimit))
	r.Mux.Handle("POST /sessions/{sessionId}/terminate", admin(sessions.HandleTerminate, httpx.ModerateLimit))
	r.Mux.Handle("POST /users/{userId}/require-otp", admin(users.HandleRequireOTP, httpx.ModerateLimit))
	r.Mux.Handle("POST /users", admin(users.HandleCreate, httpx.ModerateLimit))
}

func (r *Router) registerBootstrap() {
	// POST /bootstrap - very strict rate limit by IP (one-time setup endpoint)
	bootstrapHandler := &BootstrapHandler{BootstrapService: r.BootstrapService}
	r.Mux.Handle("POST /bootstrap",
		httpx.Chain(bootstrapHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", metrics.Handler(r.Gatherer))
	}
}
