package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"tripboard/dragdrop"
	"tripboard/globals"
	"tripboard/itinerary"
	"tripboard/schedule"
)

func newRouter(f *fixture) *httprouter.Router {
	h := NewHandlers(f.svc, "http://share.test/itineraries/", arbor.NewLogger())
	router := httprouter.New()
	router.POST("/api/planner/sessions", h.CreateSession)
	router.GET("/api/planner/sessions/:id", h.GetSession)
	router.DELETE("/api/planner/sessions/:id", h.DeleteSession)
	router.PUT("/api/planner/sessions/:id/plan", h.UpdatePlan)
	router.POST("/api/planner/sessions/:id/drag", h.Drag)
	router.POST("/api/planner/sessions/:id/generate", h.Generate)
	router.POST("/api/planner/sessions/:id/persist", h.Persist)
	router.GET("/api/planner/sessions/:id/days/:day/route", h.DayRoute)
	router.GET("/api/planner/sessions/:id/export", h.Export)
	router.POST("/api/itineraries/:id/edit", h.OpenItinerary)
	return router
}

func do(t *testing.T, router http.Handler, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, userID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createVia(t *testing.T, f *fixture, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/planner/sessions", "u1", f.plan)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sess Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	return sess.ID
}

func TestCreateAndGetSessionHTTP(t *testing.T) {
	f := newFixture()
	router := newRouter(f)
	id := createVia(t, f, router)

	rec := do(t, router, http.MethodGet, "/api/planner/sessions/"+id, "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var sess Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	assert.Equal(t, 3, sess.Schedule.Len())

	rec = do(t, router, http.MethodGet, "/api/planner/sessions/"+id, "intruder", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/planner/sessions/nope", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	bad := f.plan
	bad.EndDate = "yesterday"
	rec = do(t, router, http.MethodPost, "/api/planner/sessions", "u1", bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDragHTTPReportsRejection(t *testing.T) {
	f := newFixture()
	router := newRouter(f)
	id := createVia(t, f, router)

	rec := do(t, router, http.MethodPost, "/api/planner/sessions/"+id+"/drag", "u1", stayDrop(t, 2, 10))
	require.Equal(t, http.StatusOK, rec.Code)

	var res struct {
		Session   Session                 `json:"session"`
		Rejection *schedule.RejectedError `json:"rejection"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.NotNil(t, res.Rejection)
	assert.Equal(t, schedule.ReasonLastDayAccommodation, res.Rejection.Reason)
	assert.Equal(t, 2, res.Rejection.Day)

	rec = do(t, router, http.MethodPost, "/api/planner/sessions/"+id+"/drag", "u1",
		DragEvent{Kind: Drop, Payload: &dragdrop.Payload{Data: "{"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGenerateHTTPFailureIsBadGateway(t *testing.T) {
	f := newFixture()
	router := newRouter(f)
	id := createVia(t, f, router)
	f.gen.err = errors.New("down")

	rec := do(t, router, http.MethodPost, "/api/planner/sessions/"+id+"/generate", "u1", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	sess, err := f.svc.GetSession(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, sess.Generating)
}

func TestPersistHTTP(t *testing.T) {
	f := newFixture()
	router := newRouter(f)
	id := createVia(t, f, router)

	rec := do(t, router, http.MethodPost, "/api/planner/sessions/"+id+"/persist", "u1", map[string]string{"name": " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/planner/sessions/"+id+"/persist", "u1", map[string]string{"name": "Trip"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"itineraryid":"it-1"}`, rec.Body.String())
}

func TestDayRouteHTTP(t *testing.T) {
	f := newFixture()
	router := newRouter(f)
	id := createVia(t, f, router)

	rec := do(t, router, http.MethodGet, "/api/planner/sessions/"+id+"/days/x/route", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/planner/sessions/"+id+"/days/0/route", "u1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, ev := range []DragEvent{placeDrop(t, 0, 1, 1, 1), placeDrop(t, 0, 2, 2, 2)} {
		_, err := f.svc.ApplyDrag(context.Background(), id, ev)
		require.NoError(t, err)
	}
	rec = do(t, router, http.MethodGet, "/api/planner/sessions/"+id+"/days/0/route?transport=walk", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "walk", f.rt.got.Transport)
}

func TestExportHTTP(t *testing.T) {
	f := newFixture()
	router := newRouter(f)
	id := createVia(t, f, router)

	rec := do(t, router, http.MethodGet, "/api/planner/sessions/"+id+"/export", "u1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestOpenItineraryHTTP(t *testing.T) {
	f := newFixture()
	router := newRouter(f)

	rec := do(t, router, http.MethodPost, "/api/itineraries/missing/edit", "u1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrSessionNotFound, http.StatusNotFound},
		{itinerary.ErrNotFound, http.StatusNotFound},
		{ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("%w: x", ErrInvalidPlan), http.StatusBadRequest},
		{schedule.ErrDayOutOfRange, http.StatusBadRequest},
		{ErrSessionBusy, http.StatusConflict},
		{ErrGenerationInProgress, http.StatusConflict},
		{fmt.Errorf("%w: x", ErrRouteLookupFailed), http.StatusBadGateway},
		{fmt.Errorf("%w: x", ErrPersistFailed), http.StatusBadGateway},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
