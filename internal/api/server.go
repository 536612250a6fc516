// Package api exposes the solver over HTTP: one POST endpoint accepting
// a JSON problem and returning the solution, with request ids threaded
// through the logs.
package api

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"

	"github.com/conifer-solver/conifer/internal/logger"
	"github.com/conifer-solver/conifer/internal/solver"
	"github.com/conifer-solver/conifer/pkg/conic"
)

// Server handles solve requests.
type Server struct {
	log logger.Logger
}

// NewServer builds a solve server logging through log.
func NewServer(log logger.Logger) *Server {
	if log == nil {
		log = logger.Default()
	}
	return &Server{log: log}
}

// Register mounts the routes.
func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/solve", s.handleSolve)
	e.GET("/v1/healthz", s.handleHealth)
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

type solveBody struct {
	RequestID string          `json:"request_id"`
	Solution  *conic.Solution `json:"solution"`
}

func (s *Server) handleSolve(c *echo.Context) error {
	requestID := "solve-" + uuid.NewString()
	log := s.log.With("request_id", requestID)

	var prob conic.Problem
	if err := json.NewDecoder(c.Request().Body).Decode(&prob); err != nil {
		log.Warn("malformed request", "error", err)
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error(), RequestID: requestID})
	}

	sv, err := solver.New(&prob, log)
	if err != nil {
		log.Warn("rejected problem", "error", err)
		return c.JSON(http.StatusUnprocessableEntity, errorBody{Error: err.Error(), RequestID: requestID})
	}

	sol := sv.Solve()
	log.Info("solved", "status", sol.Status.String(), "iterations", sol.Iterations)
	return c.JSON(http.StatusOK, solveBody{RequestID: requestID, Solution: sol})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
