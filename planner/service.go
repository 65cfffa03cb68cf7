// Package planner hosts draft planning sessions and serialises every change
// made to them.
package planner

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/ternarybob/arbor"

	"tripboard/codec"
	"tripboard/models"
	"tripboard/schedule"
)

// DefaultTransport is used for day routes when the caller names none.
const DefaultTransport = "car"

// saveTimeout bounds the write that clears the generating flag, which must
// happen even when the request context is already gone.
const saveTimeout = 5 * time.Second

// lockStripes is the number of mutexes shared by all sessions. A lock is
// never held across two sessions, so collisions only cost contention.
const lockStripes = 256

type Generator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (*models.GenerationResponse, error)
}

type Router interface {
	Lookup(ctx context.Context, req models.RouteRequest) (*models.RouteResponse, error)
}

// ItineraryStore is the persisted itinerary collection.
type ItineraryStore interface {
	Create(ctx context.Context, req models.ItineraryCreate) (string, error)
	Replace(ctx context.Context, id string, req models.ItineraryCreate) error
	Get(ctx context.Context, id string) (*models.Itinerary, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev models.ScheduleEvent) error
}

type Options struct {
	Sessions    SessionStore
	Itineraries ItineraryStore
	Generator   Generator
	Router      Router
	Publisher   Publisher
	ModelName   string
	Logger      arbor.ILogger
}

type Service struct {
	sessions    SessionStore
	itineraries ItineraryStore
	generator   Generator
	router      Router
	publisher   Publisher
	modelName   string
	logger      arbor.ILogger
	validate    *validator.Validate

	locks [lockStripes]sync.Mutex
	now   func() time.Time
}

func NewService(opts Options) *Service {
	return &Service{
		sessions:    opts.Sessions,
		itineraries: opts.Itineraries,
		generator:   opts.Generator,
		router:      opts.Router,
		publisher:   opts.Publisher,
		modelName:   opts.ModelName,
		logger:      opts.Logger,
		validate:    validator.New(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// lockFor picks the mutex guarding id. Sessions share a fixed set of
// mutexes, so nothing has to be freed when a session expires.
func (s *Service) lockFor(id string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.locks[h.Sum32()%lockStripes]
}

func (s *Service) lock(id string) func() {
	mu := s.lockFor(id)
	mu.Lock()
	return mu.Unlock
}

// validatePlan checks field formats and returns the first and last trip day.
func (s *Service) validatePlan(plan models.TravelPlan) (time.Time, time.Time, error) {
	if err := s.validate.Struct(plan); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	start, err := plan.Start()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	end, err := plan.End()
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date before start_date", ErrInvalidPlan)
	}
	return start, end, nil
}

// CreateSession starts a draft with one empty day per trip day.
func (s *Service) CreateSession(ctx context.Context, userID string, plan models.TravelPlan) (*Session, error) {
	start, end, err := s.validatePlan(plan)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Plan:      plan,
		Schedule:  schedule.New(start, schedule.DeriveDayCount(start, end)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info().
		Str("session_id", sess.ID).
		Str("location", plan.Location).
		Int("days", sess.Schedule.Len()).
		Msg("Planner session created")
	return sess, nil
}

func (s *Service) GetSession(ctx context.Context, id string) (*Session, error) {
	return s.sessions.Load(ctx, id)
}

func (s *Service) DeleteSession(ctx context.Context, id string) error {
	unlock := s.lock(id)
	defer unlock()

	if err := s.sessions.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, &Session{ID: id}, models.EventSessionDeleted)
	return nil
}

// UpdatePlan replaces the trip plan. The schedule is re-dated and resized to
// the new trip length; days that still exist keep their items.
func (s *Service) UpdatePlan(ctx context.Context, id string, plan models.TravelPlan) (*Session, error) {
	start, end, err := s.validatePlan(plan)
	if err != nil {
		return nil, err
	}

	unlock := s.lock(id)
	defer unlock()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Generating {
		return nil, ErrSessionBusy
	}

	sess.Plan = plan
	sess.Schedule = sess.Schedule.Resize(start, schedule.DeriveDayCount(start, end))
	sess.Tracker.Reset()
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.publish(ctx, sess, models.EventScheduleUpdated)
	return sess, nil
}

// ApplyDrag feeds one drag event to the session tracker. Placement
// rejections are reported in the result, not as an error.
func (s *Service) ApplyDrag(ctx context.Context, id string, ev DragEvent) (*DragResult, error) {
	if err := s.validate.Struct(ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	unlock := s.lock(id)
	defer unlock()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Generating {
		return nil, ErrSessionBusy
	}

	next := sess.Schedule
	var opErr error
	switch ev.Kind {
	case DragStart:
		src, err := sourceFor(sess.Schedule, ev)
		if err != nil {
			opErr = err
			break
		}
		sess.Tracker.DragStart(src)
	case DragEnterItem:
		sess.Tracker.DragEnterItem(ev.Day, ev.Index)
	case DragEnterColumn:
		d, ok := sess.Schedule.Day(ev.Day)
		if !ok {
			opErr = &schedule.RejectedError{Reason: schedule.ReasonDayOutOfRange, Day: ev.Day}
			break
		}
		sess.Tracker.DragEnterColumn(ev.Day, len(d.PlaceList))
	case Drop:
		next, opErr = sess.Tracker.Drop(sess.Schedule, ev.Day, ev.Payload)
	case DropDeleteZone:
		next, opErr = sess.Tracker.DropOnDeleteZone(sess.Schedule)
	case DragEnd:
		next, opErr = sess.Tracker.DragEnd(sess.Schedule)
	case Reset:
		sess.Tracker.Reset()
	}

	result := &DragResult{Session: sess}
	var rejected *schedule.RejectedError
	switch {
	case opErr == nil:
	case errors.As(opErr, &rejected):
		result.Rejection = rejected
		s.logger.Debug().
			Str("session_id", id).
			Str("kind", string(ev.Kind)).
			Str("reason", string(rejected.Reason)).
			Msg("Drag rejected")
	default:
		// the tracker has already reset; keep that so the next drag starts clean
		sess.UpdatedAt = s.now()
		if err := s.sessions.Save(ctx, sess); err != nil {
			s.logger.Warn().Err(err).Str("session_id", id).Msg("Failed to save session after bad drag")
		}
		return nil, opErr
	}

	sess.Schedule = next
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if ev.Kind.mutates() && opErr == nil {
		s.publish(ctx, sess, models.EventScheduleUpdated)
	}
	return result, nil
}

// Generate replaces the schedule with one produced by the remote generator.
// Only one generation runs per session; the session lock is released while
// the remote call is in flight and drags are refused until it settles.
func (s *Service) Generate(ctx context.Context, id string) (*Session, error) {
	unlock := s.lock(id)
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		unlock()
		return nil, err
	}
	if sess.Generating {
		unlock()
		return nil, ErrGenerationInProgress
	}
	req, err := codec.ToGenerationRequest(sess.Schedule.Days(), sess.Plan, s.modelName)
	if err != nil {
		unlock()
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	sess.Generating = true
	sess.Tracker.Reset()
	if err := s.sessions.Save(ctx, sess); err != nil {
		unlock()
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	unlock()
	s.publish(ctx, sess, models.EventGenerationStarted)

	resp, genErr := s.generator.Generate(ctx, req)
	return s.finishGeneration(ctx, id, resp, genErr)
}

func (s *Service) finishGeneration(ctx context.Context, id string, resp *models.GenerationResponse, genErr error) (*Session, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), saveTimeout)
	defer cancel()

	unlock := s.lock(id)
	defer unlock()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if genErr == nil {
		genErr = checkEnvelope(sess.Plan, resp)
	}
	sess.Generating = false
	if genErr == nil {
		sess.Schedule = codec.FromGenerationResponse(*resp)
	}
	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error().Err(err).Str("session_id", id).Msg("Failed to clear generating flag")
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	s.publish(ctx, sess, models.EventGenerationFinished)

	if genErr != nil {
		s.logger.Warn().Err(genErr).Str("session_id", id).Msg("Itinerary generation failed")
		return sess, fmt.Errorf("%w: %v", ErrGenerationFailed, genErr)
	}
	s.publish(ctx, sess, models.EventScheduleUpdated)
	return sess, nil
}

// checkEnvelope rejects a response whose trip dates differ from the plan,
// since the schedule's day count and dates are rebuilt from them.
func checkEnvelope(plan models.TravelPlan, resp *models.GenerationResponse) error {
	if resp == nil {
		return errors.New("empty response")
	}
	if resp.StartAt.IsZero() || resp.EndAt.IsZero() {
		return errors.New("response has no trip dates")
	}
	start, end := resp.StartAt.Format(models.DateLayout), resp.EndAt.Format(models.DateLayout)
	if start != plan.StartDate || end != plan.EndDate {
		return fmt.Errorf("response covers %s..%s, trip is %s..%s", start, end, plan.StartDate, plan.EndDate)
	}
	return nil
}

// Persist stores the schedule as a named itinerary and returns its id. A
// session opened from an itinerary overwrites it.
func (s *Service) Persist(ctx context.Context, id, name string) (string, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return "", err
	}

	req, err := codec.ToPersistRequest(sess.Schedule.Days(), sess.Plan, name, sess.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPersistFailed, err)
	}

	if sess.ItineraryID != "" {
		if err := s.itineraries.Replace(ctx, sess.ItineraryID, req); err != nil {
			return "", fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
	} else {
		itineraryID, err := s.itineraries.Create(ctx, req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrPersistFailed, err)
		}
		sess.ItineraryID = itineraryID
	}

	sess.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id).Msg("Itinerary stored but session not updated")
	}

	s.logger.Info().
		Str("session_id", id).
		Str("itinerary_id", sess.ItineraryID).
		Int("items", len(req.Items)).
		Msg("Itinerary persisted")
	return sess.ItineraryID, nil
}

// LoadItinerary opens a persisted itinerary as a new draft session. Other
// users' itineraries can be opened once they are published; saving such a
// session creates a new itinerary.
func (s *Service) LoadItinerary(ctx context.Context, userID, itineraryID string) (*Session, error) {
	it, err := s.itineraries.Get(ctx, itineraryID)
	if err != nil {
		return nil, err
	}
	owner := it.UserID == userID
	if !owner && !it.Published {
		return nil, ErrForbidden
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Plan:      planFromItinerary(*it),
		Schedule:  codec.FromItinerary(*it),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if owner {
		sess.ItineraryID = it.ItineraryID
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	return sess, nil
}

// DayRoute looks up the route through a day's places in visit order,
// ending at the day's accommodation. Routes are not stored.
func (s *Service) DayRoute(ctx context.Context, id string, day int, transport string) (*models.RouteResponse, error) {
	sess, err := s.sessions.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	d, ok := sess.Schedule.Day(day)
	if !ok {
		return nil, &schedule.RejectedError{Reason: schedule.ReasonDayOutOfRange, Day: day}
	}

	waypoints := make([]models.Coordinates, 0, len(d.PlaceList)+1)
	for _, p := range d.PlaceList {
		waypoints = append(waypoints, p.Info.Coordinates())
	}
	if d.Accommodation != nil {
		waypoints = append(waypoints, d.Accommodation.Info.Coordinates())
	}
	if len(waypoints) < 2 {
		return nil, ErrNotEnoughWaypoints
	}
	if transport == "" {
		transport = DefaultTransport
	}

	resp, err := s.router.Lookup(ctx, models.RouteRequest{Waypoints: waypoints, Transport: transport})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRouteLookupFailed, err)
	}
	return resp, nil
}

func (s *Service) publish(ctx context.Context, sess *Session, kind string) {
	if s.publisher == nil {
		return
	}
	ev := models.ScheduleEvent{
		Type:       kind,
		SessionID:  sess.ID,
		Generating: sess.Generating,
		At:         s.now(),
	}
	if kind != models.EventSessionDeleted {
		ev.Days = sess.Schedule.Days()
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn().Err(err).Str("session_id", sess.ID).Str("event", kind).Msg("Failed to publish schedule event")
	}
}

func planFromItinerary(it models.Itinerary) models.TravelPlan {
	plan := models.TravelPlan{
		Location:  it.Location,
		StartDate: it.StartAt.Format(models.DateLayout),
		EndDate:   it.EndAt.Format(models.DateLayout),
		Companion: it.Relation,
		Themes:    append([]string(nil), it.Theme...),
	}
	if clock := it.StartAt.Format(models.ClockLayout); clock != "00:00" {
		plan.StartTime = clock
	}
	if clock := it.EndAt.Format(models.ClockLayout); clock != "00:00" {
		plan.EndTime = clock
	}
	return plan
}
