package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/tanawat-p/openhouse-queue/internal/dto"
	"github.com/tanawat-p/openhouse-queue/internal/models"
	"github.com/tanawat-p/openhouse-queue/internal/service"
)

type EventHandler struct {
	svc service.EventService
}

func NewEventHandler(svc service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) RegisterRoutes(e *echo.Echo) {
	events := e.Group("/api/v1/events")
	events.POST("", h.CreateEvent)
	events.GET("/:id", h.GetEvent)
	events.POST("/:id/cancel", h.CancelEvent)
	events.DELETE("/:id", h.DeleteEvent)

	e.GET("/api/v1/agents/:id/events", h.AgentEvents)
	e.GET("/api/v1/agents/:id/active-event", h.ActiveEvent)
	e.GET("/api/v1/join/:token", h.ResolveJoinToken)
}

func (h *EventHandler) CreateEvent(c echo.Context) error {
	var req dto.CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.PropertyID == 0 || req.AgentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "property_id and agent_id are required")
	}
	if !req.EndTime.After(req.StartTime) {
		return echo.NewHTTPError(http.StatusBadRequest, "end_time must be after start_time")
	}

	event := &models.OpenHouseEvent{
		PropertyID: req.PropertyID,
		AgentID:    req.AgentID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	}

	if err := h.svc.CreateEvent(c.Request().Context(), event); err != nil {
		switch {
		case errors.Is(err, service.ErrPropertyNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrNotPropertyOwner):
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		case errors.Is(err, service.ErrPropertyBusy), errors.Is(err, service.ErrBadEventWindow):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToEventResponse(event))
}

func (h *EventHandler) GetEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	event, err := h.svc.GetEvent(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "event not found")
	}

	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) CancelEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	event, err := h.svc.CancelEvent(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEventTerminal):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) DeleteEvent(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	if err := h.svc.DeleteEvent(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *EventHandler) AgentEvents(c echo.Context) error {
	agentID := c.Param("id")
	if agentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid agent id")
	}

	snapshot, err := h.svc.CategorizeAgentEvents(c.Request().Context(), agentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.AgentEventsResponse{
		Scheduled: dto.ToEventResponses(snapshot.Scheduled),
		Active:    dto.ToEventResponses(snapshot.Active),
	})
}

func (h *EventHandler) ActiveEvent(c echo.Context) error {
	agentID := c.Param("id")
	if agentID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid agent id")
	}

	event, err := h.svc.FindActiveEventForAgent(c.Request().Context(), agentID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if event == nil {
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func (h *EventHandler) ResolveJoinToken(c echo.Context) error {
	event, err := h.svc.ResolveJoinToken(c.Request().Context(), c.Param("token"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "unknown join link")
	}

	return c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

func parseID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}
