package itinerary

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"tripboard/globals"
	"tripboard/models"
)

type memStore struct {
	items map[string]*models.Itinerary
	last  Filter
}

func (m *memStore) Get(_ context.Context, id string) (*models.Itinerary, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return it, nil
}

func (m *memStore) List(_ context.Context, f Filter) ([]models.Itinerary, error) {
	m.last = f
	out := []models.Itinerary{}
	for _, it := range m.items {
		if f.UserID != "" && it.UserID != f.UserID {
			continue
		}
		if f.Published && !it.Published {
			continue
		}
		out = append(out, *it)
	}
	return out, nil
}

func (m *memStore) Delete(_ context.Context, userID, id string) error {
	it, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if it.UserID != userID {
		return ErrForbidden
	}
	delete(m.items, id)
	return nil
}

func (m *memStore) Publish(_ context.Context, userID, id string) error {
	it, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	if it.UserID != userID {
		return ErrForbidden
	}
	it.Published = true
	return nil
}

func (m *memStore) Fork(_ context.Context, userID, id string) (*models.Itinerary, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	if !Visible(it, userID) {
		return nil, ErrForbidden
	}
	fork := Forked(*it, userID, "fork-1", time.Now())
	return &fork, nil
}

func newStore() *memStore {
	return &memStore{items: map[string]*models.Itinerary{
		"a": {ItineraryID: "a", UserID: "u1", Name: "Trip A", Theme: []string{"food"}},
		"b": {ItineraryID: "b", UserID: "u2", Name: "Trip B", Published: true},
		"c": {ItineraryID: "c", UserID: "u2", Name: "Trip C"},
	}}
}

func serve(h httprouter.Handle, method, path, pattern, userID string) *httptest.ResponseRecorder {
	router := httprouter.New()
	router.Handle(method, pattern, h)

	req := httptest.NewRequest(method, path, nil)
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), globals.UserIDKey, userID))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetItineraryVisibility(t *testing.T) {
	h := NewHandlers(newStore(), arbor.NewLogger())

	tests := []struct {
		id     string
		user   string
		status int
	}{
		{"a", "u1", http.StatusOK},
		{"a", "u2", http.StatusNotFound},
		{"b", "", http.StatusOK},
		{"c", "u1", http.StatusNotFound},
		{"zzz", "u1", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.id+"/"+tt.user, func(t *testing.T) {
			rec := serve(h.GetItinerary, http.MethodGet, "/api/itineraries/"+tt.id, "/api/itineraries/:id", tt.user)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestListItineraries(t *testing.T) {
	store := newStore()
	h := NewHandlers(store, arbor.NewLogger())

	rec := serve(h.GetItineraries, http.MethodGet, "/api/itineraries?location=Seoul", "/api/itineraries", "u2")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Itinerary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
	assert.Equal(t, Filter{UserID: "u2", Location: "Seoul"}, store.last)

	rec = serve(h.GetItineraries, http.MethodGet, "/api/itineraries?published=true", "/api/itineraries", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ItineraryID)

	rec = serve(h.GetItineraries, http.MethodGet, "/api/itineraries", "/api/itineraries", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteAndPublishNeedOwner(t *testing.T) {
	h := NewHandlers(newStore(), arbor.NewLogger())

	rec := serve(h.DeleteItinerary, http.MethodDelete, "/api/itineraries/a", "/api/itineraries/:id", "u2")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(h.PublishItinerary, http.MethodPut, "/api/itineraries/a/publish", "/api/itineraries/:id/publish", "u1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h.DeleteItinerary, http.MethodDelete, "/api/itineraries/a", "/api/itineraries/:id", "u1")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h.DeleteItinerary, http.MethodDelete, "/api/itineraries/a", "/api/itineraries/:id", "u1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestForkItinerary(t *testing.T) {
	h := NewHandlers(newStore(), arbor.NewLogger())

	rec := serve(h.ForkItinerary, http.MethodPost, "/api/itineraries/b/fork", "/api/itineraries/:id/fork", "u1")
	require.Equal(t, http.StatusCreated, rec.Code)

	var fork models.Itinerary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fork))
	assert.Equal(t, "fork-1", fork.ItineraryID)
	assert.Equal(t, "u1", fork.UserID)
	assert.Equal(t, "Forked - Trip B", fork.Name)
	assert.False(t, fork.Published)
	require.NotNil(t, fork.ForkedFrom)
	assert.Equal(t, "b", *fork.ForkedFrom)

	rec = serve(h.ForkItinerary, http.MethodPost, "/api/itineraries/c/fork", "/api/itineraries/:id/fork", "u1")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestForkedCopiesSlices(t *testing.T) {
	orig := models.Itinerary{ItineraryID: "x", Theme: []string{"a"}, Items: []models.ItineraryItem{{PlaceID: 1}}}
	fork := Forked(orig, "u9", "y", time.Now())
	fork.Theme[0] = "changed"
	fork.Items[0].PlaceID = 2
	assert.Equal(t, "a", orig.Theme[0])
	assert.Equal(t, int64(1), orig.Items[0].PlaceID)
}
