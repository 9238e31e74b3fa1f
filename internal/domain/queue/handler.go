package queue

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/opd/opd/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/patients", h.RegisterPatient)
	api.GET("/patients", h.ListPatients)
	api.GET("/patients/:id", h.GetPatient)
	api.GET("/queue", h.GetQueue)
	api.GET("/queue/next", h.NextPatient)
	api.GET("/queue/display", h.DisplayBoard)
	api.GET("/tokens/:token", h.LookupStatus)
	api.POST("/patients/:id/emergency-override", h.EmergencyOverride)
	api.POST("/patients/:id/serve", h.ServePatient)
	api.POST("/queue/emergency-reset", h.ResetEmergency)
}

type registerRequest struct {
	Name      string    `json:"name"`
	Age       int       `json:"age"`
	Gender    string    `json:"gender"`
	VisitType VisitType `json:"visit_type"`
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Register(c.Request().Context(), req.Name, req.Age, req.Gender, req.VisitType)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	var status *Status
	if raw := c.QueryParam("status"); raw != "" {
		s := Status(raw)
		if !s.Valid() {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid status")
		}
		status = &s
	}
	items, total, err := h.svc.ListPatients(c.Request().Context(), status, pg.Limit, pg.Offset)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

type queueResponse struct {
	Queue []QueueEntry `json:"queue"`
	Count int          `json:"count"`
}

func (h *Handler) GetQueue(c echo.Context) error {
	entries, err := h.svc.Queue(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, queueResponse{Queue: entries, Count: len(entries)})
}

type nextPatientResponse struct {
	Empty bool        `json:"empty"`
	Next  *QueueEntry `json:"next,omitempty"`
}

// NextPatient serves the doctor console. An empty queue is a normal state,
// not an error, and is reported as such.
func (h *Handler) NextPatient(c echo.Context) error {
	entry, err := h.svc.NextPatient(c.Request().Context())
	if errors.Is(err, ErrQueueEmpty) {
		return c.JSON(http.StatusOK, nextPatientResponse{Empty: true})
	}
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, nextPatientResponse{Next: entry})
}

type displayEntry struct {
	TokenNumber      int    `json:"token_number"`
	Name             string `json:"name"`
	Tier             string `json:"tier"`
	Position         int    `json:"position"`
	EstimatedWaitMin int    `json:"estimated_wait_minutes"`
}

// DisplayBoard returns the queue trimmed to what the waiting-room screen
// shows; demographics stay off the public display.
func (h *Handler) DisplayBoard(c echo.Context) error {
	entries, err := h.svc.Queue(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	board := make([]displayEntry, 0, len(entries))
	for _, e := range entries {
		board = append(board, displayEntry{
			TokenNumber:      e.Patient.TokenNumber,
			Name:             e.Patient.Name,
			Tier:             e.Tier.String(),
			Position:         e.Position,
			EstimatedWaitMin: e.EstimatedWaitMin,
		})
	}
	return c.JSON(http.StatusOK, board)
}

func (h *Handler) LookupStatus(c echo.Context) error {
	token, err := strconv.Atoi(c.Param("token"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid token number")
	}
	entry, err := h.svc.LookupStatus(c.Request().Context(), token)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

func (h *Handler) EmergencyOverride(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.EmergencyOverride(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ServePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Serve(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ResetEmergency(c echo.Context) error {
	if err := h.svc.ResetEmergencyAllowance(c.Request().Context()); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// httpError translates service errors into HTTP responses. Store failures
// fall through as opaque 500s.
func httpError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrTokenNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrAlreadyServed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
