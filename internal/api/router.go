package api

import (
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/time/rate"

	"github.com/medicore/clinic-portal/internal/api/handler"
	"github.com/medicore/clinic-portal/internal/api/metrics"
	"github.com/medicore/clinic-portal/internal/api/middleware"
	"github.com/medicore/clinic-portal/internal/api/view"
	"github.com/medicore/clinic-portal/internal/core/domain"
	"github.com/medicore/clinic-portal/internal/core/service"
	opshttp "github.com/medicore/clinic-portal/internal/infrastructure/http"
	"github.com/medicore/clinic-portal/internal/infrastructure/http/handlers"
	"github.com/medicore/clinic-portal/internal/pkg/config"
)

// Deps are the collaborators the router wires into handlers. Mongo and
// Redis may be nil when the corresponding feature is off.
type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Sessions middleware.StoreProvider
	Mongo    *mongo.Database
	Redis    *redis.Client
	Upstream handlers.Pinger
	// Registerer receives the HTTP metrics; nil means the Prometheus default.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Renderer = view.MustRenderer()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "clinic_portal",
		Subsystem:  "http",
		Registerer: d.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Ops: health, metrics, docs (no session) ---
	opshttp.RegisterOps(e, d.Mongo, d.Redis, d.Upstream)

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler()
	profileHandler := handler.NewProfileHandler()
	pageHandler := handler.NewPageHandler(cfg.StockAlertThreshold)
	proxyHandler := handler.NewProxyHandler()

	authLimiter := echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(cfg.AuthRateLimit),
			Burst:     cfg.AuthRateBurst,
			ExpiresIn: 3 * time.Minute,
		}),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many attempts, try again later")
		},
	})

	guard := func(roles ...string) echo.MiddlewareFunc {
		return middleware.GuardWithConfig(middleware.GuardConfig{
			Roles: roles,
			Observe: func(a service.Access) {
				metrics.GuardDecisionsTotal.WithLabelValues(a.String()).Inc()
			},
		})
	}

	// --- Visitor routes: every request carries a session store ---
	app := e.Group("")
	app.Use(session.Middleware(sessions.NewCookieStore([]byte(cfg.Session.Secret))))
	app.Use(middleware.Session(d.Sessions, middleware.SessionConfig{
		CookieName: cfg.Session.CookieName,
		MaxAge:     int(cfg.Session.StorageTTL / time.Second),
		Secure:     cfg.Session.CookieSecure,
	}))

	app.GET("/login", authHandler.LoginForm)
	app.POST("/login", authHandler.Login, authLimiter)
	app.GET("/register", authHandler.RegisterForm)
	app.POST("/register", authHandler.Register, authLimiter)
	app.POST("/logout", authHandler.Logout)

	authenticated := guard()
	app.GET("/me", profileHandler.Me, authenticated)
	app.GET("/profile", profileHandler.Show, authenticated)
	app.PUT("/profile", profileHandler.Update, authenticated)
	app.POST("/profile", profileHandler.Update, authenticated) // HTML forms cannot PUT

	admin := guard(domain.RoleAdmin)
	app.GET("/admin/dashboard", pageHandler.Dashboard("Admin dashboard", domain.RoleAdmin), admin)
	app.GET("/admin/users", pageHandler.Users, admin)

	doctor := guard(domain.RoleDoctor, domain.RoleAdmin)
	app.GET("/doctor/dashboard", pageHandler.Dashboard("Doctor dashboard", domain.RoleDoctor), doctor)
	app.GET("/doctor/queue", pageHandler.Queue, doctor)

	nurse := guard(domain.RoleNurse, domain.RoleDoctor, domain.RoleAdmin)
	app.GET("/nurse/dashboard", pageHandler.Dashboard("Nurse dashboard", domain.RoleNurse), nurse)
	app.GET("/nurse/bmi", pageHandler.BMIForm, nurse)
	app.POST("/nurse/bmi", pageHandler.BMI, nurse)

	pharmacist := guard(domain.RolePharmacist, domain.RoleAdmin)
	app.GET("/pharmacist/dashboard", pageHandler.Dashboard("Pharmacist dashboard", domain.RolePharmacist), pharmacist)
	app.GET("/pharmacist/stock-alerts", pageHandler.StockAlerts, pharmacist)

	app.Any("/api/*", proxyHandler.Forward, authenticated)

	// Unmatched paths land on the user's dashboard.
	app.Any("/*", pageHandler.Landing, authenticated)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
