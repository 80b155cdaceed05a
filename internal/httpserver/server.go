// Package httpserver exposes the appointment-intake API.
package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/store"
	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/task"
)

// Server bundles the echo router and its store dependency.
type Server struct {
	Echo  *echo.Echo
	store store.Store
}

// New constructs the intake API server with routes registered.
func New(st store.Store) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{Echo: e, store: st}
	e.POST("/schedule_call_task", s.scheduleCallTask)
	e.GET("/get_task_results", s.getTaskResults)
	e.GET("/get_task_call_protocol/:task_id", s.getTaskCallProtocol)
	e.GET("/health", s.health)
	e.GET("/", s.root)
	return s
}

type scheduleRequest struct {
	UserID            string `json:"user_id"`
	DoctorID          string `json:"doctor_id"`
	AppointmentReason string `json:"appointment_reason"`
	AdditionalRemark  string `json:"additional_remark"`
	Date              string `json:"date"`
	TimeRangeStart    string `json:"time_range_start"`
	TimeRangeEnd      string `json:"time_range_end"`
}

// requiredFields enumerates the payload keys that must be present.
var requiredFields = []struct {
	name  string
	value func(scheduleRequest) string
}{
	{"user_id", func(r scheduleRequest) string { return r.UserID }},
	{"doctor_id", func(r scheduleRequest) string { return r.DoctorID }},
	{"appointment_reason", func(r scheduleRequest) string { return r.AppointmentReason }},
	{"date", func(r scheduleRequest) string { return r.Date }},
	{"time_range_start", func(r scheduleRequest) string { return r.TimeRangeStart }},
	{"time_range_end", func(r scheduleRequest) string { return r.TimeRangeEnd }},
}

func (s *Server) scheduleCallTask(c echo.Context) error {
	var req scheduleRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid JSON payload", "status": "failed"})
	}
	for _, f := range requiredFields {
		if f.value(req) == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"error":  "Missing required field: " + f.name,
				"status": "failed",
			})
		}
	}

	t := task.Task{
		ID:                uuid.NewString(),
		UserID:            req.UserID,
		DoctorID:          req.DoctorID,
		AppointmentReason: req.AppointmentReason,
		AdditionalRemark:  req.AdditionalRemark,
		AppointmentDate:   req.Date,
		TimeRangeStart:    req.TimeRangeStart,
		TimeRangeEnd:      req.TimeRangeEnd,
		Status:            task.StatusOpen,
		CreatedAt:         time.Now(),
	}
	if err := s.store.CreateTask(c.Request().Context(), t); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not store task", "status": "failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Task scheduled successfully",
		"task_id": t.ID,
		"status":  string(t.Status),
	})
}

func (s *Server) getTaskResults(c echo.Context) error {
	results, err := s.store.ListResults(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not list results"})
	}
	if results == nil {
		results = []store.Result{}
	}
	return c.JSON(http.StatusOK, echo.Map{"results": results, "total_count": len(results)})
}

func (s *Server) getTaskCallProtocol(c echo.Context) error {
	taskID := c.Param("task_id")
	ctx := c.Request().Context()

	t, err := s.store.GetTask(ctx, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "Task not found", "task_id": taskID})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load task"})
	}

	protocol, err := s.store.GetCallProtocol(ctx, taskID)
	if errors.Is(err, store.ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{
			"error":   "Call protocol not available for this task",
			"task_id": taskID,
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not load protocol"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"task_id":       taskID,
		"call_protocol": protocol,
		"task_status":   string(t.Status),
	})
}

func (s *Server) health(c echo.Context) error {
	results, err := s.store.ListResults(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "unhealthy"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"status":       "healthy",
		"timestamp":    time.Now().Format(time.RFC3339),
		"active_tasks": len(results),
	})
}

func (s *Server) root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"api_name": "Medical Appointment Scheduling API",
		"version":  "1.0.0",
		"endpoints": echo.Map{
			"POST /schedule_call_task":             "Schedule a new call task for appointment booking",
			"GET /get_task_results":                "Get list of all task results",
			"GET /get_task_call_protocol/:task_id": "Get call protocol for specific task",
			"GET /health":                          "Health check endpoint",
		},
	})
}
