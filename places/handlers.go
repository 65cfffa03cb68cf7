package places

import (
	"context"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/ternarybob/arbor"

	"tripboard/models"
	"tripboard/utils"
)

// Lister is the read side of the catalogue.
type Lister interface {
	Places(ctx context.Context, location string) ([]models.PlaceInfo, error)
	Accommodations(ctx context.Context, location string) ([]models.Accommodation, error)
}

type Handlers struct {
	catalogue Lister
	logger    arbor.ILogger
}

func NewHandlers(catalogue Lister, logger arbor.ILogger) *Handlers {
	return &Handlers{catalogue: catalogue, logger: logger}
}

func (h *Handlers) GetPlaces(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	places, err := h.catalogue.Places(ctx, r.URL.Query().Get("location"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch places")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch places")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, places)
}

func (h *Handlers) GetAccommodations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	accommodations, err := h.catalogue.Accommodations(ctx, r.URL.Query().Get("location"))
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to fetch accommodations")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch accommodations")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, accommodations)
}
