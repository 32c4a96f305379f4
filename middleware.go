package newsdesk

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

const (
	sessionName = "newsdesk_session"

	sessUserID   = "user_id"
	sessUserName = "user_name"
	sessUserRole = "user_role"
	sessViewed   = "viewed_slugs"
)

func (a *App) setupMiddleware() {
	e := a.Echo

	e.IPExtractor = echo.ExtractIPFromXFFHeader(
		echo.TrustLoopback(true),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(true),
	)

	e.HTTPErrorHandler = a.httpErrorHandler

	e.Pre(middleware.RemoveTrailingSlashWithConfig(middleware.TrailingSlashConfig{
		RedirectCode: http.StatusMovedPermanently,
		Skipper: func(c echo.Context) bool {
			return c.Request().Method != http.MethodGet
		},
	}))
	e.Pre(middleware.MethodOverrideWithConfig(middleware.MethodOverrideConfig{
		Getter: middleware.MethodFromForm("_method"),
	}))

	e.Use(a.requestLogger())
	e.Use(middleware.Recover())

	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(float64(a.Config.RateLimit) / a.Config.RateWindow.Seconds()),
			Burst:     a.Config.RateLimit,
			ExpiresIn: a.Config.RateWindow,
		}),
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			return c.String(http.StatusTooManyRequests, "Too many requests. Try again later.")
		},
	}))

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/public/")
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' https: data:; font-src 'self'",
		HSTSMaxAge:            31536000,
	}))

	e.Use(session.Middleware(a.newSessionStore()))

	e.Use(middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "header:X-CSRF-Token,form:_csrf",
		CookieName:     "_csrf",
		CookiePath:     "/",
		CookieSameSite: http.SameSiteLaxMode,
		CookieSecure:   a.Config.CookieSecure,
		ErrorHandler: func(err error, c echo.Context) error {
			return c.String(http.StatusForbidden, "Forbidden")
		},
	}))

	e.Use(cacheControlMiddleware)
}

func (a *App) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:   true,
		LogURI:      true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error == nil {
				a.Log.LogAttrs(c.Request().Context(), slog.LevelInfo, "request",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.Duration("latency", v.Latency),
				)
			} else {
				a.Log.LogAttrs(c.Request().Context(), slog.LevelError, "request error",
					slog.String("method", v.Method),
					slog.String("uri", v.URI),
					slog.Int("status", v.Status),
					slog.String("err", v.Error.Error()),
				)
			}
			return nil
		},
	})
}

func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case strings.HasPrefix(path, "/public/"), strings.HasPrefix(path, "/uploads/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		case path == "/sitemap.xml" || path == "/feed.xml" || path == "/robots.txt":
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		default:
			// pages carry per-session state (likes, flash, csrf)
			c.Response().Header().Set("Cache-Control", "no-store")
		}
		return next(c)
	}
}

// newSessionStore keeps session values in files under SessionDir; the
// cookie only carries the signed session ID. The viewed-article set grows
// with every article a reader opens and would outgrow a cookie.
// TODO: sweep session files older than MaxAge.
func (a *App) newSessionStore() *sessions.FilesystemStore {
	store := sessions.NewFilesystemStore(a.Config.SessionDir, []byte(a.Config.SessionSecret))
	store.MaxLength(0)
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 7,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// currentSession returns the request's session. A cookie that no longer
// decodes or whose file is gone yields a fresh session instead of an error.
func currentSession(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, c)
	if sess != nil {
		return sess, nil
	}
	return nil, err
}

// SignIn attaches id to the session. An external auth subsystem calls it
// after verifying credentials; the App trusts the identity as-is.
func SignIn(c echo.Context, id Identity) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	if id.Role == "" {
		id.Role = RoleReader
	}
	sess.Values[sessUserID] = id.ID
	sess.Values[sessUserName] = id.Name
	sess.Values[sessUserRole] = id.Role
	return sess.Save(c.Request(), c.Response())
}

// SignOut expires the whole session, including its viewed-article set.
func SignOut(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	sess.Options.MaxAge = -1
	return sess.Save(c.Request(), c.Response())
}

// CurrentUser returns the session identity, if any.
func CurrentUser(c echo.Context) (Identity, bool) {
	sess, err := currentSession(c)
	if err != nil {
		return Identity{}, false
	}
	id, _ := sess.Values[sessUserID].(string)
	if id == "" {
		return Identity{}, false
	}
	name, _ := sess.Values[sessUserName].(string)
	role, _ := sess.Values[sessUserRole].(string)
	return Identity{ID: id, Name: name, Role: role}, true
}

// IsAdmin reports whether the session belongs to an administrator.
func IsAdmin(c echo.Context) bool {
	u, ok := CurrentUser(c)
	return ok && u.IsAdmin()
}

// viewedSlugs returns the session's set of already counted articles.
func viewedSlugs(c echo.Context) []string {
	sess, err := currentSession(c)
	if err != nil {
		return nil
	}
	viewed, _ := sess.Values[sessViewed].([]string)
	return viewed
}

func saveViewedSlugs(c echo.Context, viewed []string) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	sess.Values[sessViewed] = viewed
	return sess.Save(c.Request(), c.Response())
}

// addFlash queues a one-shot message shown on the next rendered page.
func addFlash(c echo.Context, msg string) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	sess.AddFlash(msg)
	return sess.Save(c.Request(), c.Response())
}

func popFlashes(c echo.Context) []string {
	sess, err := currentSession(c)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			out = append(out, s)
		}
	}
	_ = sess.Save(c.Request(), c.Response())
	return out
}

func (a *App) requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := CurrentUser(c); !ok {
			_ = addFlash(c, "Please login to continue.")
			return c.Redirect(http.StatusSeeOther, a.Config.LoginURL)
		}
		return next(c)
	}
}

func (a *App) requireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !IsAdmin(c) {
			_ = addFlash(c, "Admins only.")
			return c.Redirect(http.StatusSeeOther, "/admin")
		}
		return next(c)
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
