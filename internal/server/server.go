// Package server exposes posts, page content, feeds and diagnostics over HTTP
// for the presentation layer.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/ppiankov/notionblog/internal/config"
	"github.com/ppiankov/notionblog/internal/content"
	"github.com/ppiankov/notionblog/internal/diag"
	"github.com/ppiankov/notionblog/internal/posts"
)

// PostSource lists and resolves published posts.
type PostSource interface {
	ListPublished(ctx context.Context) []posts.Post
	FindBySlug(ctx context.Context, slug string) (posts.Post, bool)
}

// ContentSource fetches the block tree of a page.
type ContentSource interface {
	Fetch(ctx context.Context, documentID string) (*content.Tree, error)
}

// Diagnose runs a connection test against Notion.
type Diagnose func(ctx context.Context) diag.Report

// Server wires the acquisition layer into an echo instance.
type Server struct {
	Echo     *echo.Echo
	site     config.ServerConfig
	posts    PostSource
	content  ContentSource
	diagnose Diagnose
}

// New builds the server and registers middleware and routes. A nil logger discards output.
func New(site config.ServerConfig, p PostSource, c ContentSource, d Diagnose, logger *log.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if logger != nil {
		e.Logger = logger
	} else {
		e.Logger.SetLevel(log.OFF)
	}

	s := &Server{Echo: e, site: site, posts: p, content: c, diagnose: d}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	e := s.Echo
	e.HTTPErrorHandler = s.httpErrorHandler

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			c.Logger().Infof("%s %s -> %d (%s)", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	}))

	e.Use(middleware.Recover())

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
	}))

	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	e.Use(cacheControlMiddleware)
}

func (s *Server) setupRoutes() {
	e := s.Echo
	e.GET("/healthz", s.handleHealth)
	e.GET("/debug", s.handleDebug)
	e.GET("/feed.xml", s.handleFeed)
	e.GET("/sitemap.xml", s.handleSitemap)

	api := e.Group("/api")
	api.GET("/posts", s.handleListPosts)
	api.GET("/posts/:slug", s.handleGetPost)
	api.GET("/posts/:slug/content", s.handleGetContent)
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	if err := s.Echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}

// cacheControlMiddleware mirrors the revalidation windows of the cached reads:
// post lists for an hour, single posts for a minute.
func cacheControlMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		path := c.Request().URL.Path
		switch {
		case path == "/debug" || path == "/healthz":
			c.Response().Header().Set("Cache-Control", "no-store")
		case path == "/feed.xml" || path == "/sitemap.xml" || path == "/api/posts":
			c.Response().Header().Set("Cache-Control", "public, max-age=3600")
		case strings.HasPrefix(path, "/api/posts/"):
			c.Response().Header().Set("Cache-Control", "public, max-age=60")
		}
		return next(c)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, errorBody{Error: msg})
}
