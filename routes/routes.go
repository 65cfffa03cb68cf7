package routes

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/ternarybob/arbor"

	"tripboard/itinerary"
	"tripboard/live"
	"tripboard/middleware"
	"tripboard/places"
	"tripboard/planner"
	"tripboard/ratelim"
)

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddPlannerRoutes(router *httprouter.Router, auth *middleware.Auth, h *planner.Handlers, rateLimiter *ratelim.RateLimiter) {
	router.POST("/api/planner/sessions", auth.Authenticate(h.CreateSession))
	router.GET("/api/planner/sessions/:id", auth.Authenticate(h.GetSession))
	router.PUT("/api/planner/sessions/:id/plan", auth.Authenticate(h.UpdatePlan))
	router.DELETE("/api/planner/sessions/:id", auth.Authenticate(h.DeleteSession))
	router.POST("/api/planner/sessions/:id/drag", auth.Authenticate(h.Drag))
	router.POST("/api/planner/sessions/:id/generate", rateLimiter.Limit(auth.Authenticate(h.Generate)))
	router.POST("/api/planner/sessions/:id/persist", auth.Authenticate(h.Persist))
	router.GET("/api/planner/sessions/:id/days/:day/route", auth.Authenticate(h.DayRoute))
	router.GET("/api/planner/sessions/:id/export", auth.Authenticate(h.Export))
}

func AddLiveRoutes(router *httprouter.Router, auth *middleware.Auth, hub *live.Hub, sessions live.Sessions, logger arbor.ILogger) {
	ws := live.WebSocketHandler(hub, sessions, auth.UserID, logger)
	router.GET("/api/planner/sessions/:id/ws", auth.Authenticate(ws))
}

func AddItineraryRoutes(router *httprouter.Router, auth *middleware.Auth, h *itinerary.Handlers, ph *planner.Handlers) {
	router.GET("/api/itineraries", auth.OptionalAuth(h.GetItineraries))               //List own or published itineraries
	router.GET("/api/itineraries/:id", auth.OptionalAuth(h.GetItinerary))             //Fetch a single itinerary
	router.DELETE("/api/itineraries/:id", auth.Authenticate(h.DeleteItinerary))       //Delete an itinerary
	router.POST("/api/itineraries/:id/fork", auth.Authenticate(h.ForkItinerary))      //Fork a new itinerary
	router.PUT("/api/itineraries/:id/publish", auth.Authenticate(h.PublishItinerary)) //Publish an itinerary
	router.POST("/api/itineraries/:id/edit", auth.Authenticate(ph.OpenItinerary))     //Open as a planner session
}

func AddPlaceRoutes(router *httprouter.Router, h *places.Handlers) {
	router.GET("/api/places", h.GetPlaces)
	router.GET("/api/accommodations", h.GetAccommodations)
}
