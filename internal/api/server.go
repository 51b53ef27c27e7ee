// Package api serves the tiling planner over HTTP.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/cubetile/internal/logger"
	"github.com/samcharles93/cubetile/internal/target"
	"github.com/samcharles93/cubetile/internal/tiling"
)

type Server struct {
	targets *target.Registry
	store   *TilingStore
	log     logger.Logger
	clock   func() time.Time
}

func NewServer(targets *target.Registry, store *TilingStore, log logger.Logger) *Server {
	if store == nil {
		store = NewTilingStore()
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Server{
		targets: targets,
		store:   store,
		log:     log.With("component", "api"),
		clock:   time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/tilings", s.handleCreateTiling)
	e.GET("/v1/tilings/:id", s.handleGetTiling)
	e.DELETE("/v1/tilings/:id", s.handleDeleteTiling)
	e.GET("/v1/targets", s.handleListTargets)
}

func (s *Server) handleCreateTiling(c *echo.Context) error {
	req, err := decodeJSON[PlanRequest](c.Request().Body)
	if err != nil {
		return writeBadRequest(c, "", err.Error())
	}
	if strings.TrimSpace(req.Target) == "" {
		return writePlanError(c, newInvalidRequest("target", "target is required"))
	}
	t, err := s.targets.Lookup(req.Target)
	if err != nil {
		return writePlanError(c, err)
	}
	if rec, ok := s.store.Cached(t.Name, req.Problem); ok {
		return c.JSON(http.StatusOK, rec)
	}

	ctx := logger.WithContext(c.Request().Context(), s.log)
	d, err := tiling.GenTiling(ctx, req.Problem, t)
	if err != nil {
		s.log.Warn("tiling failed", "target", t.Name, "error", err)
		return writePlanError(c, err)
	}
	if err := d.Verify(req.Problem, t); err != nil {
		s.log.Error("descriptor failed verification", "target", t.Name, "error", err)
		return writePlanError(c, err)
	}
	f, err := d.Footprints(req.Problem, t)
	if err != nil {
		return writePlanError(c, err)
	}

	rec := s.store.Create(t, req.Problem, d, f, s.clock())
	s.log.Info("tiling created", "id", rec.ID, "target", t.Name, "tiling_id", d.TilingID)
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleGetTiling(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeNotFound(c, "tiling not found")
	}
	rec, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "tiling not found")
	}
	return c.JSON(http.StatusOK, rec)
}

func (s *Server) handleDeleteTiling(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "tiling not found")
	}
	return c.JSON(http.StatusOK, DeleteTilingResp{
		ID:      id,
		Object:  "tiling",
		Deleted: true,
	})
}

func (s *Server) handleListTargets(c *echo.Context) error {
	return c.JSON(http.StatusOK, TargetList{
		Object: "list",
		Data:   s.targets.All(),
	})
}
