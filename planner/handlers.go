package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/ternarybob/arbor"

	"tripboard/dragdrop"
	"tripboard/export"
	"tripboard/itinerary"
	"tripboard/models"
	"tripboard/schedule"
	"tripboard/utils"
)

type Handlers struct {
	svc          *Service
	shareBaseURL string
	logger       arbor.ILogger
}

func NewHandlers(svc *Service, shareBaseURL string, logger arbor.ILogger) *Handlers {
	return &Handlers{svc: svc, shareBaseURL: strings.TrimRight(shareBaseURL, "/"), logger: logger}
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var rejected *schedule.RejectedError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, itinerary.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidPlan), errors.Is(err, ErrInvalidEvent),
		errors.Is(err, dragdrop.ErrMalformedPayload), errors.Is(err, ErrNotEnoughWaypoints),
		errors.As(err, &rejected):
		return http.StatusBadRequest
	case errors.Is(err, ErrGenerationInProgress), errors.Is(err, ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, ErrGenerationFailed), errors.Is(err, ErrPersistFailed), errors.Is(err, ErrRouteLookupFailed):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *Handlers) respondErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("Planner request failed")
		utils.RespondWithError(w, code, "Internal server error")
		return
	}
	utils.RespondWithError(w, code, err.Error())
}

// ownedSession loads the session named in the path and checks the caller
// owns it. It writes the error response itself.
func (h *Handlers) ownedSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) (*Session, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.GetSession(ctx, ps.ByName("id"))
	if err != nil {
		h.respondErr(w, err)
		return nil, false
	}
	if sess.UserID != utils.GetUserIDFromRequest(r) {
		utils.RespondWithError(w, http.StatusForbidden, "Forbidden")
		return nil, false
	}
	return sess, true
}

// POST /api/planner/sessions
func (h *Handlers) CreateSession(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var plan models.TravelPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.CreateSession(ctx, utils.GetUserIDFromRequest(r), plan)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, sess)
}

// GET /api/planner/sessions/:id
func (h *Handlers) GetSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, ok := h.ownedSession(w, r, ps)
	if !ok {
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

// DELETE /api/planner/sessions/:id
func (h *Handlers) DeleteSession(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.ownedSession(w, r, ps); !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.svc.DeleteSession(ctx, ps.ByName("id")); err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"message": "Session discarded"})
}

// PUT /api/planner/sessions/:id/plan
func (h *Handlers) UpdatePlan(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.ownedSession(w, r, ps); !ok {
		return
	}

	var plan models.TravelPlan
	if err := json.NewDecoder(r.Body).Decode(&plan); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.UpdatePlan(ctx, ps.ByName("id"), plan)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

// POST /api/planner/sessions/:id/drag
func (h *Handlers) Drag(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.ownedSession(w, r, ps); !ok {
		return
	}

	var ev DragEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.svc.ApplyDrag(ctx, ps.ByName("id"), ev)
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// POST /api/planner/sessions/:id/generate
func (h *Handlers) Generate(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.ownedSession(w, r, ps); !ok {
		return
	}

	sess, err := h.svc.Generate(r.Context(), ps.ByName("id"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, sess)
}

// POST /api/planner/sessions/:id/persist
func (h *Handlers) Persist(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.ownedSession(w, r, ps); !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		utils.RespondWithError(w, http.StatusBadRequest, "Itinerary name is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id, err := h.svc.Persist(ctx, ps.ByName("id"), strings.TrimSpace(body.Name))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"itineraryid": id})
}

// GET /api/planner/sessions/:id/days/:day/route
func (h *Handlers) DayRoute(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, ok := h.ownedSession(w, r, ps); !ok {
		return
	}

	day, err := strconv.Atoi(ps.ByName("day"))
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid day")
		return
	}

	resp, err := h.svc.DayRoute(r.Context(), ps.ByName("id"), day, r.URL.Query().Get("transport"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, resp)
}

// GET /api/planner/sessions/:id/export
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	sess, ok := h.ownedSession(w, r, ps)
	if !ok {
		return
	}

	doc := export.Document{
		Title: r.URL.Query().Get("title"),
		Plan:  sess.Plan,
		Days:  sess.Schedule.Days(),
	}
	if doc.Title == "" {
		doc.Title = "Trip to " + sess.Plan.Location
	}
	if sess.ItineraryID != "" && h.shareBaseURL != "" {
		doc.ShareURL = h.shareBaseURL + "/" + sess.ItineraryID
	}

	var buf bytes.Buffer
	if err := export.Render(&buf, doc); err != nil {
		h.logger.Error().Err(err).Str("session_id", sess.ID).Msg("Failed to render PDF")
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to generate PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=itinerary-%s.pdf", sess.ID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// POST /api/itineraries/:id/edit
func (h *Handlers) OpenItinerary(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.LoadItinerary(ctx, utils.GetUserIDFromRequest(r), ps.ByName("id"))
	if err != nil {
		h.respondErr(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, sess)
}
