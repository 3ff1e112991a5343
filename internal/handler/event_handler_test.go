package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanawat-p/openhouse-queue/internal/dto"
	"github.com/tanawat-p/openhouse-queue/internal/models"
	"github.com/tanawat-p/openhouse-queue/internal/service"
)

// --- Mock EventService ---

type mockEventService struct {
	service.EventService
	createFn     func(ctx context.Context, event *models.OpenHouseEvent) error
	getFn        func(ctx context.Context, id uint) (*models.OpenHouseEvent, error)
	resolveFn    func(ctx context.Context, tok string) (*models.OpenHouseEvent, error)
	categorizeFn func(ctx context.Context, agentID string) (*service.AgentEvents, error)
}

func (m *mockEventService) CreateEvent(ctx context.Context, event *models.OpenHouseEvent) error {
	return m.createFn(ctx, event)
}
func (m *mockEventService) GetEvent(ctx context.Context, id uint) (*models.OpenHouseEvent, error) {
	return m.getFn(ctx, id)
}
func (m *mockEventService) ResolveJoinToken(ctx context.Context, tok string) (*models.OpenHouseEvent, error) {
	return m.resolveFn(ctx, tok)
}
func (m *mockEventService) CategorizeAgentEvents(ctx context.Context, agentID string) (*service.AgentEvents, error) {
	return m.categorizeFn(ctx, agentID)
}

// --- CreateEvent ---

func TestCreateEvent_Handler_Success(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, event *models.OpenHouseEvent) error {
			event.ID = 1
			event.Status = models.EventScheduled
			event.JoinToken = "tok"
			return nil
		},
	}

	start := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(3 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"property_id":3,"agent_id":"agent-1","start_time":"` + start + `","end_time":"` + end + `"}`
	c, rec := newContext(t, http.MethodPost, "/api/v1/events", body, "", "")

	h := NewEventHandler(svc)
	require.NoError(t, h.CreateEvent(c))
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp dto.EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint(1), resp.ID)
	assert.Equal(t, models.EventScheduled, resp.Status)
	assert.Equal(t, "tok", resp.JoinToken)
}

func TestCreateEvent_Handler_BadWindow(t *testing.T) {
	start := time.Now().Add(3 * time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	body := `{"property_id":3,"agent_id":"agent-1","start_time":"` + start + `","end_time":"` + end + `"}`
	c, _ := newContext(t, http.MethodPost, "/api/v1/events", body, "", "")

	h := NewEventHandler(nil)
	err := h.CreateEvent(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestCreateEvent_Handler_PropertyMissing(t *testing.T) {
	svc := &mockEventService{
		createFn: func(ctx context.Context, event *models.OpenHouseEvent) error {
			return service.ErrPropertyNotFound
		},
	}

	start := time.Now().Add(time.Hour).UTC().Format(time.RFC3339)
	end := time.Now().Add(3 * time.Hour).UTC().Format(time.RFC3339)
	body := `{"property_id":3,"agent_id":"agent-1","start_time":"` + start + `","end_time":"` + end + `"}`
	c, _ := newContext(t, http.MethodPost, "/api/v1/events", body, "", "")

	h := NewEventHandler(svc)
	err := h.CreateEvent(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

// --- GetEvent ---

func TestGetEvent_Handler(t *testing.T) {
	now := time.Now()
	svc := &mockEventService{
		getFn: func(ctx context.Context, id uint) (*models.OpenHouseEvent, error) {
			return &models.OpenHouseEvent{
				ID:        id,
				Status:    models.EventActive,
				StartTime: now.Add(-time.Hour),
				EndTime:   now.Add(time.Hour),
			}, nil
		},
	}

	c, rec := newContext(t, http.MethodGet, "/api/v1/events/1", "", "id", "1")

	h := NewEventHandler(svc)
	require.NoError(t, h.GetEvent(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.EventResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.EventActive, resp.Status)
}

func TestGetEvent_Handler_NotFound(t *testing.T) {
	svc := &mockEventService{
		getFn: func(ctx context.Context, id uint) (*models.OpenHouseEvent, error) {
			return nil, service.ErrEventNotFound
		},
	}

	c, _ := newContext(t, http.MethodGet, "/api/v1/events/404", "", "id", "404")

	h := NewEventHandler(svc)
	err := h.GetEvent(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

// --- ResolveJoinToken ---

func TestResolveJoinToken_Handler_Unknown(t *testing.T) {
	svc := &mockEventService{
		resolveFn: func(ctx context.Context, tok string) (*models.OpenHouseEvent, error) {
			return nil, service.ErrBadJoinToken
		},
	}

	c, _ := newContext(t, http.MethodGet, "/api/v1/join/bogus", "", "token", "bogus")

	h := NewEventHandler(svc)
	err := h.ResolveJoinToken(c)

	he, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Code)
}

// --- AgentEvents ---

func TestAgentEvents_Handler(t *testing.T) {
	now := time.Now()
	svc := &mockEventService{
		categorizeFn: func(ctx context.Context, agentID string) (*service.AgentEvents, error) {
			return &service.AgentEvents{
				Scheduled: []models.OpenHouseEvent{
					{ID: 2, Status: models.EventScheduled, StartTime: now.Add(time.Hour), EndTime: now.Add(2 * time.Hour)},
				},
				Active: []models.OpenHouseEvent{
					{ID: 1, Status: models.EventActive, StartTime: now.Add(-time.Hour), EndTime: now.Add(time.Hour)},
				},
			}, nil
		},
	}

	c, rec := newContext(t, http.MethodGet, "/api/v1/agents/agent-1/events", "", "id", "agent-1")

	h := NewEventHandler(svc)
	require.NoError(t, h.AgentEvents(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp dto.AgentEventsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Active, 1)
	require.Len(t, resp.Scheduled, 1)
	assert.Equal(t, uint(1), resp.Active[0].ID)
}
