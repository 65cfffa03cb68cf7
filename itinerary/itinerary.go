// Package itinerary serves the saved itineraries produced by the planner.
package itinerary

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/ternarybob/arbor"

	"tripboard/models"
	"tripboard/utils"
)

// Store is the subset of Repository the handlers need.
type Store interface {
	Get(ctx context.Context, id string) (*models.Itinerary, error)
	List(ctx context.Context, f Filter) ([]models.Itinerary, error)
	Delete(ctx context.Context, userID, id string) error
	Publish(ctx context.Context, userID, id string) error
	Fork(ctx context.Context, userID, id string) (*models.Itinerary, error)
}

type Handlers struct {
	store  Store
	logger arbor.ILogger
}

func NewHandlers(store Store, logger arbor.ILogger) *Handlers {
	return &Handlers{store: store, logger: logger}
}

func (h *Handlers) respondErr(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		utils.RespondWithError(w, http.StatusNotFound, "Itinerary not found")
	case errors.Is(err, ErrForbidden):
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
	default:
		h.logger.Error().Err(err).Msg(msg)
		utils.RespondWithError(w, http.StatusInternalServerError, msg)
	}
}

// GET /api/itineraries
// Lists the caller's itineraries; ?published=true lists everyone's
// published ones instead. ?location= narrows either.
func (h *Handlers) GetItineraries(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	query := r.URL.Query()
	filter := Filter{Location: query.Get("location")}
	if query.Get("published") == "true" {
		filter.Published = true
	} else {
		filter.UserID = utils.GetUserIDFromRequest(r)
		if filter.UserID == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}

	itineraries, err := h.store.List(ctx, filter)
	if err != nil {
		h.respondErr(w, err, "Error fetching itineraries")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, itineraries)
}

// GET /api/itineraries/:id
func (h *Handlers) GetItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	it, err := h.store.Get(ctx, ps.ByName("id"))
	if err != nil {
		h.respondErr(w, err, "Error fetching itinerary")
		return
	}
	if !Visible(it, utils.GetUserIDFromRequest(r)) {
		utils.RespondWithError(w, http.StatusNotFound, "Itinerary not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, it)
}

// DELETE /api/itineraries/:id
func (h *Handlers) DeleteItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Delete(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		h.respondErr(w, err, "Error deleting itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary deleted successfully"})
}

// POST /api/itineraries/:id/fork
func (h *Handlers) ForkItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	fork, err := h.store.Fork(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		h.respondErr(w, err, "Error forking itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, fork)
}

// PUT /api/itineraries/:id/publish
func (h *Handlers) PublishItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.store.Publish(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id")); err != nil {
		h.respondErr(w, err, "Error publishing itinerary")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Itinerary published"})
}
