package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ppiankov/notionblog/internal/content"
	"github.com/ppiankov/notionblog/internal/diag"
	"github.com/ppiankov/notionblog/internal/posts"
)

type contentResponse struct {
	Post    posts.Post    `json:"post"`
	Content *content.Tree `json:"content"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPosts(c echo.Context) error {
	return c.JSON(http.StatusOK, s.posts.ListPublished(c.Request().Context()))
}

func (s *Server) handleGetPost(c echo.Context) error {
	p, ok := s.posts.FindBySlug(c.Request().Context(), c.Param("slug"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (s *Server) handleGetContent(c echo.Context) error {
	ctx := c.Request().Context()
	p, ok := s.posts.FindBySlug(ctx, c.Param("slug"))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "post not found")
	}

	tree, err := s.content.Fetch(ctx, p.ID)
	if err != nil {
		if content.IsNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "post content not found")
		}
		c.Logger().Errorf("content for %s: %v", p.Slug, err)
		return echo.NewHTTPError(http.StatusBadGateway, "post content unavailable")
	}
	return c.JSON(http.StatusOK, contentResponse{Post: p, Content: tree})
}

func (s *Server) handleDebug(c echo.Context) error {
	if s.diagnose == nil {
		return c.JSON(http.StatusOK, diag.Report{Status: diag.StatusFailed, Error: &diag.ErrorDetail{Message: "diagnostics are not configured"}})
	}
	return c.JSON(http.StatusOK, s.diagnose(c.Request().Context()))
}

func (s *Server) handleFeed(c echo.Context) error {
	return s.renderRSS(c, routable(s.posts.ListPublished(c.Request().Context())))
}

func (s *Server) handleSitemap(c echo.Context) error {
	return s.renderSitemap(c, routable(s.posts.ListPublished(c.Request().Context())))
}

// routable drops posts without a slug; they have no address.
func routable(list []posts.Post) []posts.Post {
	out := make([]posts.Post, 0, len(list))
	for _, p := range list {
		if p.Slug != "" {
			out = append(out, p)
		}
	}
	return out
}
