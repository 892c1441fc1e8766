package workspace

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
)

const (
	defaultEventResults    = 10
	defaultMeetingDuration = 30 * time.Minute
	defaultSearchWindow    = 24 * time.Hour
	maxSuggestedSlots      = 5
)

type EventSummary struct {
	ID        string   `json:"event_id"`
	Subject   string   `json:"subject"`
	Start     string   `json:"start"`
	End       string   `json:"end"`
	Location  string   `json:"location,omitempty"`
	Attendees []string `json:"attendees,omitempty"`
	Link      string   `json:"link,omitempty"`
}

// ListEvents returns upcoming single events ordered by start time.
func (s *Service) ListEvents(ctx context.Context, timeMin, timeMax string, maxResults int) ([]EventSummary, error) {
	if maxResults <= 0 {
		maxResults = defaultEventResults
	}
	from := s.now()
	if timeMin != "" {
		t, err := ParseTime(timeMin, s.opts.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid time_min: %w", err)
		}
		from = t
	}

	call := s.calendar.Events.List(s.opts.CalendarID).
		TimeMin(from.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(maxResults))
	if timeMax != "" {
		to, err := ParseTime(timeMax, s.opts.Location)
		if err != nil {
			return nil, fmt.Errorf("invalid time_max: %w", err)
		}
		call = call.TimeMax(to.Format(time.RFC3339))
	}

	events, err := call.Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return EventSummaries(events.Items), nil
}

type EventUpdate struct {
	ID        string
	Subject   string
	Start     string
	End       string
	Location  string
	Attendees []string // nil leaves attendees unchanged
}

// UpdateEvent patches only the fields that are set. A new start without an
// end keeps the event's current duration.
func (s *Service) UpdateEvent(ctx context.Context, in EventUpdate) (string, error) {
	if strings.TrimSpace(in.ID) == "" {
		return "", fmt.Errorf("event_id is required")
	}
	patch := &calendar.Event{Summary: in.Subject, Location: in.Location}

	if in.Start != "" || in.End != "" {
		current, err := s.calendar.Events.Get(s.opts.CalendarID, in.ID).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to load event %s: %w", in.ID, err)
		}
		start, end, err := rescheduledWindow(current, in.Start, in.End, s.opts.Location)
		if err != nil {
			return "", err
		}
		patch.Start = &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)}
		patch.End = &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)}
	}
	if in.Attendees != nil {
		patch.Attendees = attendeeList(in.Attendees)
		patch.ForceSendFields = append(patch.ForceSendFields, "Attendees")
	}

	updated, err := s.calendar.Events.Patch(s.opts.CalendarID, in.ID, patch).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update event: %w", err)
	}
	log.Printf("📅 Event updated: %s", updated.Id)
	return fmt.Sprintf("Event %q updated.", updated.Summary), nil
}

func (s *Service) DeleteEvent(ctx context.Context, eventID string) (string, error) {
	if strings.TrimSpace(eventID) == "" {
		return "", fmt.Errorf("event_id is required")
	}
	if err := s.calendar.Events.Delete(s.opts.CalendarID, eventID).SendUpdates("all").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to delete event: %w", err)
	}
	log.Printf("🗑️ Event deleted: %s", eventID)
	return "Event deleted.", nil
}

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type MeetingTimesInput struct {
	Attendees   []string
	Duration    time.Duration
	WindowStart string
	WindowEnd   string
}

type MeetingTimes struct {
	Slots []TimeSlot `json:"available_slots"`
	// Calendars whose free/busy could not be read; slots ignore them.
	Unknown []string `json:"unknown_calendars,omitempty"`
}

// FindMeetingTimes queries free/busy for the user and the attendees and
// suggests slots where everyone readable is free.
func (s *Service) FindMeetingTimes(ctx context.Context, in MeetingTimesInput) (MeetingTimes, error) {
	if in.Duration <= 0 {
		in.Duration = defaultMeetingDuration
	}
	start := s.now()
	if in.WindowStart != "" {
		t, err := ParseTime(in.WindowStart, s.opts.Location)
		if err != nil {
			return MeetingTimes{}, fmt.Errorf("invalid window_start: %w", err)
		}
		start = t
	}
	end := start.Add(defaultSearchWindow)
	if in.WindowEnd != "" {
		t, err := ParseTime(in.WindowEnd, s.opts.Location)
		if err != nil {
			return MeetingTimes{}, fmt.Errorf("invalid window_end: %w", err)
		}
		end = t
	}
	if !end.After(start) {
		return MeetingTimes{}, fmt.Errorf("search window end is not after its start")
	}

	items := []*calendar.FreeBusyRequestItem{{Id: s.opts.CalendarID}}
	for _, email := range in.Attendees {
		if email = strings.TrimSpace(email); email != "" {
			items = append(items, &calendar.FreeBusyRequestItem{Id: email})
		}
	}
	resp, err := s.calendar.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return MeetingTimes{}, fmt.Errorf("failed to query free/busy: %w", err)
	}

	var out MeetingTimes
	var busy []TimeSlot
	for _, item := range items {
		cal, ok := resp.Calendars[item.Id]
		if !ok || len(cal.Errors) > 0 {
			out.Unknown = append(out.Unknown, item.Id)
			continue
		}
		busy = append(busy, busyPeriods(cal.Busy)...)
	}
	out.Slots = FreeSlots(busy, start, end, in.Duration, maxSuggestedSlots)
	return out, nil
}

// FreeSlots returns up to limit slots of length d inside [from, to) that
// overlap none of the busy periods. Each free gap yields its earliest slot.
func FreeSlots(busy []TimeSlot, from, to time.Time, d time.Duration, limit int) []TimeSlot {
	sorted := append([]TimeSlot(nil), busy...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	var slots []TimeSlot
	cursor := from
	emit := func(gapEnd time.Time) {
		if len(slots) < limit && !cursor.Add(d).After(gapEnd) {
			slots = append(slots, TimeSlot{Start: cursor, End: cursor.Add(d)})
		}
	}
	for _, b := range sorted {
		if !b.End.After(cursor) {
			continue
		}
		if b.Start.After(cursor) {
			emit(minTime(b.Start, to))
		}
		cursor = b.End
		if !cursor.Before(to) {
			return slots
		}
	}
	emit(to)
	return slots
}

// EventSummaries maps API events to the tool's JSON shape. All-day events
// carry a date instead of a date-time.
func EventSummaries(items []*calendar.Event) []EventSummary {
	out := make([]EventSummary, 0, len(items))
	for _, e := range items {
		if e == nil {
			continue
		}
		sum := EventSummary{
			ID:       e.Id,
			Subject:  e.Summary,
			Start:    eventTime(e.Start),
			End:      eventTime(e.End),
			Location: e.Location,
			Link:     e.HtmlLink,
		}
		for _, a := range e.Attendees {
			sum.Attendees = append(sum.Attendees, a.Email)
		}
		out = append(out, sum)
	}
	return out
}

func eventTime(t *calendar.EventDateTime) string {
	if t == nil {
		return ""
	}
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

func rescheduledWindow(current *calendar.Event, newStart, newEnd string, loc *time.Location) (time.Time, time.Time, error) {
	oldStart, err1 := ParseTime(eventTime(current.Start), loc)
	oldEnd, err2 := ParseTime(eventTime(current.End), loc)
	length := defaultEventLength
	if err1 == nil && err2 == nil && oldEnd.After(oldStart) {
		length = oldEnd.Sub(oldStart)
	}

	start := oldStart
	if newStart != "" {
		t, err := ParseTime(newStart, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
		}
		start = t
	} else if err1 != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event has no usable start: %w", err1)
	}

	end := start.Add(length)
	if newEnd != "" {
		t, err := ParseTime(newEnd, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
		}
		end = t
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end is not after start")
	}
	return start, end, nil
}

func attendeeList(emails []string) []*calendar.EventAttendee {
	out := []*calendar.EventAttendee{}
	for _, email := range emails {
		if email = strings.TrimSpace(email); email != "" {
			out = append(out, &calendar.EventAttendee{Email: email})
		}
	}
	return out
}

func busyPeriods(periods []*calendar.TimePeriod) []TimeSlot {
	var out []TimeSlot
	for _, p := range periods {
		start, err1 := time.Parse(time.RFC3339, p.Start)
		end, err2 := time.Parse(time.RFC3339, p.End)
		if err1 != nil || err2 != nil {
			log.Printf("⚠️ Skipping unparseable busy period %s - %s", p.Start, p.End)
			continue
		}
		out = append(out, TimeSlot{Start: start, End: end})
	}
	return out
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
