package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tanawat-p/openhouse-queue/internal/dto"
	"github.com/tanawat-p/openhouse-queue/internal/models"
	"github.com/tanawat-p/openhouse-queue/internal/service"
)

type QueueHandler struct {
	svc service.QueueService
}

func NewQueueHandler(svc service.QueueService) *QueueHandler {
	return &QueueHandler{svc: svc}
}

func (h *QueueHandler) RegisterRoutes(e *echo.Echo) {
	events := e.Group("/api/v1/events")
	events.POST("/:id/entries", h.JoinQueue)
	events.GET("/:id/entries", h.ListQueue)
	events.POST("/:id/call-next", h.CallNext)
	events.POST("/:id/repair", h.RepairPositions)

	entries := e.Group("/api/v1/entries")
	entries.GET("/:id", h.GetEntry)
	entries.POST("/:id/complete", h.CompleteTour)
	entries.POST("/:id/skip", h.SkipEntry)
	entries.POST("/:id/no-show", h.MarkNoShow)
	entries.PUT("/:id/position", h.Reorder)
	entries.PUT("/:id/interest", h.ExpressInterest)
	entries.PUT("/:id/notes", h.UpdateNotes)
	entries.POST("/:id/application-sent", h.MarkApplicationSent)
	entries.DELETE("/:id", h.RemoveEntry)
}

func (h *QueueHandler) JoinQueue(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	var req dto.JoinQueueRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var identity models.Identity
	if req.UserID != "" {
		identity = models.RegisteredIdentity(req.UserID)
	} else {
		identity = models.GuestIdentity(req.GuestName, req.GuestPhone, req.GuestEmail)
	}
	if err := identity.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	entry, err := h.svc.JoinQueue(c.Request().Context(), eventID, identity)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrEventNotStarted),
			errors.Is(err, service.ErrEventEnded),
			errors.Is(err, service.ErrEventNotActive):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrAlreadyQueued):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusCreated, dto.ToEntryResponse(entry))
}

func (h *QueueHandler) ListQueue(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	entries, err := h.svc.ListQueue(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		resp[i] = dto.ToEntryResponse(&entries[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *QueueHandler) CallNext(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	entry, err := h.svc.CallNext(c.Request().Context(), eventID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}
	if entry == nil {
		// Empty queue is an expected outcome, not an error.
		return c.NoContent(http.StatusNoContent)
	}

	return c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *QueueHandler) GetEntry(c echo.Context) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	entry, err := h.svc.GetEntry(c.Request().Context(), entryID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "entry not found")
	}

	return c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *QueueHandler) CompleteTour(c echo.Context) error {
	return h.applyTransition(c, h.svc.CompleteTour)
}

func (h *QueueHandler) SkipEntry(c echo.Context) error {
	return h.applyTransition(c, h.svc.SkipEntry)
}

func (h *QueueHandler) MarkNoShow(c echo.Context) error {
	return h.applyTransition(c, h.svc.MarkNoShow)
}

// applyTransition shares the shape of the three agent status actions: parse,
// run the transition, map the result.
func (h *QueueHandler) applyTransition(c echo.Context, op func(ctx context.Context, entryID uint) (*models.WaitlistEntry, error)) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	entry, err := op(c.Request().Context(), entryID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *QueueHandler) Reorder(c echo.Context) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	var req dto.ReorderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Position < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "position must be >= 1")
	}

	if err := h.svc.Reorder(c.Request().Context(), entryID, req.Position); err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound), errors.Is(err, service.ErrEventNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrBadPosition):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrIntegrityViolation):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *QueueHandler) ExpressInterest(c echo.Context) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	var req dto.InterestRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entry, err := h.svc.ExpressInterest(c.Request().Context(), entryID, req.Interested)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *QueueHandler) UpdateNotes(c echo.Context) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	var req dto.NotesRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entry, err := h.svc.UpdateNotes(c.Request().Context(), entryID, req.Notes)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *QueueHandler) MarkApplicationSent(c echo.Context) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	entry, err := h.svc.MarkApplicationSent(c.Request().Context(), entryID)
	if err != nil {
		if errors.Is(err, service.ErrEntryNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToEntryResponse(entry))
}

func (h *QueueHandler) RemoveEntry(c echo.Context) error {
	entryID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid entry id")
	}

	if err := h.svc.RemoveEntry(c.Request().Context(), entryID); err != nil {
		switch {
		case errors.Is(err, service.ErrEntryNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrIntegrityViolation):
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *QueueHandler) RepairPositions(c echo.Context) error {
	eventID, err := parseID(c, "id")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid event id")
	}

	if err := h.svc.RepairPositions(c.Request().Context(), eventID); err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
