package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/baechuer/tutorhub/services/web-bff/internal/api/handlers"
	"github.com/baechuer/tutorhub/services/web-bff/internal/config"
	"github.com/baechuer/tutorhub/services/web-bff/internal/domain"
	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/baechuer/tutorhub/services/web-bff/internal/nav"
	"github.com/baechuer/tutorhub/services/web-bff/internal/proxy"
	"github.com/baechuer/tutorhub/services/web-bff/internal/session"
	"github.com/baechuer/tutorhub/services/web-bff/internal/tracing"
	"github.com/baechuer/tutorhub/services/web-bff/middleware"
)

type Deps struct {
	Config   *config.Config
	Registry *session.Registry
	Codec    *session.CookieCodec
	// Redis backs the rate limiter and its readiness check; nil limits in process
	Redis *redis.Client
	// Services overrides the per-session stores behind the domain views
	Services handlers.ServicesFunc
}

func sessionCookies(r *http.Request) []*http.Cookie {
	st := session.FromContext(r.Context())
	if st == nil {
		return nil
	}
	return st.Gateway().Cookies()
}

func NewRouter(d Deps) (http.Handler, error) {
	cfg := d.Config
	services := d.Services
	if services == nil {
		services = handlers.SessionServices
	}

	r := chi.NewRouter()

	// 1. Middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.HeaderXRequestID, handlers.ViewIDHeader},
		ExposedHeaders:   []string{middleware.HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger.Log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing(tracing.ServiceName))
	r.Use(middleware.SecurityHeaders)

	// 2. Health and metrics, no session
	checkers := []handlers.ReadinessChecker{handlers.NewBackendChecker(cfg.BackendURL)}
	if d.Redis != nil {
		checkers = append(checkers, handlers.NewRedisChecker(d.Redis))
	}
	ready := handlers.NewReadinessHandler(checkers...)
	r.Get("/api/healthz", ready.Healthz)
	r.Get("/api/readyz", ready.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	pages := handlers.NewPagesHandler(cfg.StaticDir)
	r.Handle("/assets/*", pages)

	catalogProxy, err := proxy.New(cfg.BackendURL, "/api/catalog", "/category", sessionCookies)
	if err != nil {
		return nil, err
	}

	guard := nav.DefaultGuard()
	menus := nav.Menus()
	requireSession := middleware.RequireSession(session.ResolveIdentity, guard, handlers.WriteError)
	guestOnly := middleware.GuestOnly(session.ResolveIdentity, guard, handlers.WriteError)
	adminOnly := middleware.RequireAtLeast(domain.RoleAdmin, session.ResolveIdentity, handlers.WriteError)

	limiter := middleware.NewRedisRateLimiter(d.Redis)
	limit := func(scope string) func(http.Handler) http.Handler {
		return limiter.Middleware(middleware.RateLimitConfig{
			Scope:  scope,
			Limit:  cfg.RLLimit,
			Window: cfg.RLWindow,
			KeyFn:  middleware.KeyByIP,
		}, handlers.WriteError, domain.ErrRateLimited(scope))
	}
	// code checks are also capped per session, where the verified email lives
	codeAttempts := func(scope string) func(http.Handler) http.Handler {
		return limiter.Middleware(middleware.RateLimitConfig{
			Scope:  scope + "_session",
			Limit:  cfg.RLCodeAttempts,
			Window: cfg.RLWindow,
			KeyFn:  middleware.KeyBySession,
		}, handlers.WriteError, domain.ErrRateLimited(scope))
	}

	auth := handlers.NewAuthHandler(d.Codec, d.Registry)
	sessionView := handlers.NewSessionHandler(menus)
	views := handlers.NewViewsHandler(services)
	checkout := handlers.NewCheckoutHandler(services)
	profile := handlers.NewProfileHandler(services, handlers.Dashboards(), menus)
	admin := handlers.NewAdminHandler(services)

	// 3. Everything below runs inside the browser's session
	r.Group(func(r chi.Router) {
		r.Use(session.Attach(d.Registry, d.Codec, handlers.WriteError))

		r.Get("/api/session", sessionView.Get)
		r.Delete("/api/session/message", sessionView.ResetMessage)

		r.Route("/api/auth", func(r chi.Router) {
			r.With(limit("signup_code")).Post("/signup/code", auth.SendSignUpCode)
			r.With(limit("signup_verify"), codeAttempts("signup_verify")).Post("/signup/verify", auth.VerifySignUpCode)
			r.Post("/register/{role}", auth.Register)
			r.With(limit("login")).Post("/login", auth.Login)
			r.Post("/logout", auth.Logout)
			r.With(limit("forgot_password")).Post("/password/forgot", auth.ForgotPassword)
			r.With(limit("reset_password"), codeAttempts("reset_password")).Post("/password/reset", auth.ResetPassword)

			r.Group(func(r chi.Router) {
				r.Use(requireSession)
				r.Put("/profile", auth.UpdateProfile)
				r.Delete("/account", auth.DeleteAccount)
				r.Put("/password", auth.ChangePassword)
			})
		})

		r.Route("/api/views", func(r chi.Router) {
			r.Get("/home", views.Home)
			r.Get("/courses", views.Courses)
			r.Get("/courses/{id}", views.Course)

			r.With(requireSession).Get("/profile", profile.Dashboard)
			r.With(requireSession).Get("/checkout/{id}", checkout.View)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Post("/api/checkout/{id}/coupon", checkout.ApplyCoupon)
			r.Post("/api/checkout/{id}", checkout.Checkout)
			r.Post("/api/payment/{id}/success", checkout.ConfirmPayment)
			r.Get("/api/me/enrollments", profile.MyEnrollments)
		})

		r.Route("/api/admin", func(r chi.Router) {
			r.Use(requireSession, adminOnly)
			r.Get("/{list}", admin.List)
			r.Put("/{action}/{id}", admin.Act)
		})

		r.Method(http.MethodGet, "/api/catalog", catalogProxy)
		r.Method(http.MethodGet, "/api/catalog/*", catalogProxy)

		// 4. Pages
		r.Get("/", pages.ServeHTTP)
		r.Get("/courses", pages.ServeHTTP)
		r.Get("/courses/{id}", pages.ServeHTTP)
		r.With(guestOnly).Get("/auth", pages.ServeHTTP)
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Get("/profile", pages.ServeHTTP)
			r.Get("/enroll/{id}", pages.ServeHTTP)
			r.Get("/payment/success/{id}", pages.ServeHTTP)
			r.Get("/payment/failed", pages.ServeHTTP)
		})
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		if strings.HasPrefix(req.URL.Path, "/api/") {
			handlers.WriteError(w, req, domain.New(domain.KindNotFound, "route_not_found", "not found"))
			return
		}
		pages.ServeHTTP(w, req)
	})

	logger.Log.Info().
		Str("backend", cfg.BackendURL).
		Bool("redis_rate_limit", d.Redis != nil).
		Msg("routes_mounted")

	return r, nil
}
