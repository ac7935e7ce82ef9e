package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	calendarapi "google.golang.org/api/calendar/v3"

	domaingoogle "github.com/sabgaby/integration-hub/internal/domain/google"
	googleint "github.com/sabgaby/integration-hub/internal/google"
)

const dateLayout = "2006-01-02"

// EventInput carries the fields for creating or updating an event. For
// all-day events the dates use YYYY-MM-DD; otherwise RFC3339 datetimes.
type EventInput struct {
	CalendarID        string
	Summary           string
	Description       string
	StartDate         string
	EndDate           string
	Attendees         []string
	AllDay            bool
	SendNotifications bool
	// Transparency is "opaque" (busy) or "transparent" (free).
	Transparency string
	TimeZone     string
}

// Event is the subset of event fields returned to callers.
type Event struct {
	ID          string                     `json:"id"`
	HTMLLink    string                     `json:"htmlLink"`
	Status      string                     `json:"status"`
	Summary     string                     `json:"summary"`
	Description string                     `json:"description,omitempty"`
	Start       *calendarapi.EventDateTime `json:"start,omitempty"`
	End         *calendarapi.EventDateTime `json:"end,omitempty"`
	Attendees   []string                   `json:"attendees,omitempty"`
}

// Service wraps the Calendar API with per-user authorization. Every outbound
// call runs through the retry invoker.
type Service struct {
	sessions *googleint.SessionBuilder
	invoker  *googleint.Invoker
	resolver *googleint.Resolver
	logger   *zap.Logger
}

// NewService wires the Calendar service.
func NewService(sessions *googleint.SessionBuilder, invoker *googleint.Invoker, resolver *googleint.Resolver, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.L()
	}
	return &Service{sessions: sessions, invoker: invoker, resolver: resolver, logger: logger}
}

func (s *Service) client(ctx context.Context, user string) (*calendarapi.Service, error) {
	if !s.resolver.CalendarEnabled() {
		return nil, fmt.Errorf("%w: calendar is not enabled", domaingoogle.ErrConfiguration)
	}
	sess, err := s.sessions.Build(ctx, user, domaingoogle.ScopeCalendar)
	if err != nil {
		return nil, err
	}
	return sess.Calendar(ctx)
}

func calendarID(in EventInput) string {
	if in.CalendarID == "" {
		return "primary"
	}
	return in.CalendarID
}

func sendUpdates(notify bool) string {
	if notify {
		return "all"
	}
	return "none"
}

// eventTimes builds the start/end blocks. All-day end dates are exclusive per
// the Calendar API, so one day is added; a missing end defaults to a one-day
// event.
func eventTimes(in EventInput) (*calendarapi.EventDateTime, *calendarapi.EventDateTime, error) {
	if in.AllDay {
		start := &calendarapi.EventDateTime{Date: in.StartDate}
		endDate := in.EndDate
		if endDate == "" {
			endDate = in.StartDate
		}
		end, err := time.Parse(dateLayout, endDate)
		if err != nil {
			return nil, nil, fmt.Errorf("parse end date: %w", err)
		}
		return start, &calendarapi.EventDateTime{Date: end.AddDate(0, 0, 1).Format(dateLayout)}, nil
	}

	tz := in.TimeZone
	if tz == "" {
		tz = "UTC"
	}
	start := &calendarapi.EventDateTime{DateTime: in.StartDate, TimeZone: tz}
	endDateTime := in.EndDate
	if endDateTime == "" {
		endDateTime = in.StartDate
	}
	return start, &calendarapi.EventDateTime{DateTime: endDateTime, TimeZone: tz}, nil
}

func attendeeList(emails []string) []*calendarapi.EventAttendee {
	if len(emails) == 0 {
		return nil
	}
	attendees := make([]*calendarapi.EventAttendee, 0, len(emails))
	for _, email := range emails {
		attendees = append(attendees, &calendarapi.EventAttendee{Email: email})
	}
	return attendees
}

func toEvent(result *calendarapi.Event) *Event {
	ev := &Event{
		ID:          result.Id,
		HTMLLink:    result.HtmlLink,
		Status:      result.Status,
		Summary:     result.Summary,
		Description: result.Description,
		Start:       result.Start,
		End:         result.End,
	}
	for _, a := range result.Attendees {
		ev.Attendees = append(ev.Attendees, a.Email)
	}
	return ev
}

// CreateEvent inserts an event on the user's calendar.
func (s *Service) CreateEvent(ctx context.Context, user string, in EventInput) (*Event, error) {
	client, err := s.client(ctx, user)
	if err != nil {
		return nil, err
	}

	start, end, err := eventTimes(in)
	if err != nil {
		return nil, err
	}
	transparency := in.Transparency
	if transparency == "" {
		transparency = "opaque"
	}
	event := &calendarapi.Event{
		Summary:      in.Summary,
		Description:  in.Description,
		Transparency: transparency,
		Start:        start,
		End:          end,
		Attendees:    attendeeList(in.Attendees),
	}

	var result *calendarapi.Event
	err = s.invoker.Invoke(ctx, "calendar.events.insert", func() error {
		result, err = client.Events.Insert(calendarID(in), event).
			SendUpdates(sendUpdates(in.SendNotifications)).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		s.logger.Error("calendar event creation failed", zap.String("user", user), zap.Error(err))
		return nil, err
	}
	return toEvent(result), nil
}

// UpdateEvent patches the provided fields on an existing event.
func (s *Service) UpdateEvent(ctx context.Context, user, eventID string, in EventInput) (*Event, error) {
	client, err := s.client(ctx, user)
	if err != nil {
		return nil, err
	}

	var event *calendarapi.Event
	err = s.invoker.Invoke(ctx, "calendar.events.get", func() error {
		event, err = client.Events.Get(calendarID(in), eventID).Context(ctx).Do()
		return err
	})
	if err != nil {
		return nil, err
	}

	if in.Summary != "" {
		event.Summary = in.Summary
	}
	if in.Description != "" {
		event.Description = in.Description
	}
	if in.Transparency != "" {
		event.Transparency = in.Transparency
	}
	if in.StartDate != "" {
		if in.AllDay {
			event.Start = &calendarapi.EventDateTime{Date: in.StartDate}
		} else {
			tz := in.TimeZone
			if tz == "" {
				tz = "UTC"
			}
			event.Start = &calendarapi.EventDateTime{DateTime: in.StartDate, TimeZone: tz}
		}
	}
	if in.EndDate != "" {
		if in.AllDay {
			end, err := time.Parse(dateLayout, in.EndDate)
			if err != nil {
				return nil, fmt.Errorf("parse end date: %w", err)
			}
			event.End = &calendarapi.EventDateTime{Date: end.AddDate(0, 0, 1).Format(dateLayout)}
		} else {
			tz := in.TimeZone
			if tz == "" {
				tz = "UTC"
			}
			event.End = &calendarapi.EventDateTime{DateTime: in.EndDate, TimeZone: tz}
		}
	}
	if in.Attendees != nil {
		event.Attendees = attendeeList(in.Attendees)
	}

	var result *calendarapi.Event
	err = s.invoker.Invoke(ctx, "calendar.events.update", func() error {
		result, err = client.Events.Update(calendarID(in), eventID, event).
			SendUpdates(sendUpdates(in.SendNotifications)).
			Context(ctx).
			Do()
		return err
	})
	if err != nil {
		s.logger.Error("calendar event update failed", zap.String("user", user), zap.Error(err))
		return nil, err
	}
	return toEvent(result), nil
}

// DeleteEvent removes an event. An already-deleted event (404 or 410) counts
// as success.
func (s *Service) DeleteEvent(ctx context.Context, user, calendarIDArg, eventID string, sendNotifications bool) error {
	client, err := s.client(ctx, user)
	if err != nil {
		return err
	}
	if calendarIDArg == "" {
		calendarIDArg = "primary"
	}

	err = s.invoker.Invoke(ctx, "calendar.events.delete", func() error {
		return client.Events.Delete(calendarIDArg, eventID).
			SendUpdates(sendUpdates(sendNotifications)).
			Context(ctx).
			Do()
	})
	if err != nil {
		if domaingoogle.IsClientError(err, 404) || domaingoogle.IsClientError(err, 410) {
			return nil
		}
		s.logger.Error("calendar event deletion failed", zap.String("user", user), zap.Error(err))
		return err
	}
	return nil
}

// GetEvent returns the event, or nil when it no longer exists.
func (s *Service) GetEvent(ctx context.Context, user, calendarIDArg, eventID string) (*Event, error) {
	client, err := s.client(ctx, user)
	if err != nil {
		return nil, err
	}
	if calendarIDArg == "" {
		calendarIDArg = "primary"
	}

	var result *calendarapi.Event
	err = s.invoker.Invoke(ctx, "calendar.events.get", func() error {
		result, err = client.Events.Get(calendarIDArg, eventID).Context(ctx).Do()
		return err
	})
	if err != nil {
		if domaingoogle.IsClientError(err, 404) {
			return nil, nil
		}
		return nil, err
	}
	return toEvent(result), nil
}

// Calendar describes one entry from the user's calendar list.
type Calendar struct {
	ID      string `json:"id"`
	Summary string `json:"summary"`
	Primary bool   `json:"primary"`
}

// ListCalendars lists every calendar the user has access to.
func (s *Service) ListCalendars(ctx context.Context, user string) ([]Calendar, error) {
	client, err := s.client(ctx, user)
	if err != nil {
		return nil, err
	}

	var calendars []Calendar
	pageToken := ""
	for {
		var page *calendarapi.CalendarList
		err = s.invoker.Invoke(ctx, "calendar.calendarList.list", func() error {
			call := client.CalendarList.List().Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			page, err = call.Do()
			return err
		})
		if err != nil {
			return nil, err
		}

		for _, entry := range page.Items {
			calendars = append(calendars, Calendar{ID: entry.Id, Summary: entry.Summary, Primary: entry.Primary})
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return calendars, nil
}
