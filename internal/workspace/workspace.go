// Package workspace performs the office actions against Google Tasks,
// Calendar, Gmail and People.
package workspace

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"
	"google.golang.org/api/tasks/v1"

	"office-assistant/internal/contacts"
)

const defaultEventLength = time.Hour

type Options struct {
	CalendarID string
	TaskListID string
	Location   *time.Location
}

// Service wraps the four Google API clients used by the office tools.
type Service struct {
	calendar *calendar.Service
	gmail    *gmail.Service
	tasks    *tasks.Service
	people   *people.Service
	opts     Options
	now      func() time.Time
}

func NewService(ctx context.Context, httpClient *http.Client, opts Options) (*Service, error) {
	if opts.CalendarID == "" {
		opts.CalendarID = "primary"
	}
	if opts.TaskListID == "" {
		opts.TaskListID = "@default"
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	calendarSvc, err := calendar.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	gmailSvc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	tasksSvc, err := tasks.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Tasks service: %w", err)
	}
	peopleSvc, err := people.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create People service: %w", err)
	}

	return &Service{
		calendar: calendarSvc,
		gmail:    gmailSvc,
		tasks:    tasksSvc,
		people:   peopleSvc,
		opts:     opts,
		now:      time.Now,
	}, nil
}

type TaskInput struct {
	Title string
	Due   string
	Notes string
}

func (s *Service) CreateTask(ctx context.Context, in TaskInput) (string, error) {
	if strings.TrimSpace(in.Title) == "" {
		return "", fmt.Errorf("task title is required")
	}
	task := &tasks.Task{Title: in.Title, Notes: in.Notes}
	if in.Due != "" {
		due, err := ParseTime(in.Due, s.opts.Location)
		if err != nil {
			return "", err
		}
		task.Due = due.UTC().Format(time.RFC3339)
	}

	created, err := s.tasks.Tasks.Insert(s.opts.TaskListID, task).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create task: %w", err)
	}
	log.Printf("📝 Task created: %s", created.Id)
	return fmt.Sprintf("Task %q created (id %s).", created.Title, created.Id), nil
}

type EventInput struct {
	Subject   string
	Start     string
	End       string
	Attendees []string
	Location  string
}

// AddEventWithAvailabilityCheck queries free/busy for the requested slot and
// inserts the event only if the calendar is free. A conflict is reported in
// the returned status, not as an error.
func (s *Service) AddEventWithAvailabilityCheck(ctx context.Context, in EventInput) (string, error) {
	start, end, err := eventWindow(in.Start, in.End, s.opts.Location)
	if err != nil {
		return "", err
	}

	busy, err := s.calendar.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: s.opts.CalendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to check availability: %w", err)
	}
	if periods := busy.Calendars[s.opts.CalendarID].Busy; len(periods) > 0 {
		return conflictStatus(periods), nil
	}

	event := &calendar.Event{
		Summary:  in.Subject,
		Location: in.Location,
		Start:    &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:      &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	if len(in.Attendees) > 0 {
		event.Attendees = attendeeList(in.Attendees)
	}

	created, err := s.calendar.Events.Insert(s.opts.CalendarID, event).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create event: %w", err)
	}
	log.Printf("📅 Event created: %s", created.Id)
	return fmt.Sprintf("Event %q scheduled for %s - %s. Link: %s",
		in.Subject, start.Format("Jan 2, 2006 15:04"), end.Format("15:04 MST"), created.HtmlLink), nil
}

type EmailInput struct {
	To      string
	Subject string
	Body    string
}

func (s *Service) SendEmail(ctx context.Context, in EmailInput) (string, error) {
	if strings.TrimSpace(in.To) == "" {
		return "", fmt.Errorf("recipient is required")
	}
	msg := &gmail.Message{Raw: BuildRawMessage(in)}
	sent, err := s.gmail.Users.Messages.Send("me", msg).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	log.Printf("📧 Email sent: %s", sent.Id)
	return fmt.Sprintf("Email sent to %s with subject %q.", in.To, in.Subject), nil
}

func (s *Service) ListContacts(ctx context.Context) ([]contacts.Contact, error) {
	var out []contacts.Contact
	call := s.people.People.Connections.List("people/me").
		PersonFields("names,emailAddresses").
		PageSize(1000)
	err := call.Pages(ctx, func(resp *people.ListConnectionsResponse) error {
		out = append(out, ContactsFromPeople(resp.Connections)...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return out, nil
}

type ContactInput struct {
	Name  string
	Email string
	Phone string
}

func (s *Service) AddContact(ctx context.Context, in ContactInput) (string, error) {
	if strings.TrimSpace(in.Name) == "" {
		return "", fmt.Errorf("contact name is required")
	}
	person := &people.Person{Names: []*people.Name{{GivenName: in.Name}}}
	if in.Email != "" {
		person.EmailAddresses = []*people.EmailAddress{{Value: in.Email}}
	}
	if in.Phone != "" {
		person.PhoneNumbers = []*people.PhoneNumber{{Value: in.Phone}}
	}

	created, err := s.people.People.CreateContact(person).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to add contact: %w", err)
	}
	log.Printf("👤 Contact created: %s", created.ResourceName)
	return fmt.Sprintf("Contact %s added.", in.Name), nil
}

// BuildRawMessage renders a plain-text RFC 2822 message encoded as base64url,
// the form Gmail expects in Message.Raw.
func BuildRawMessage(in EmailInput) string {
	var b strings.Builder
	b.WriteString("To: " + in.To + "\r\n")
	b.WriteString("Subject: " + in.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(in.Body)
	return base64.URLEncoding.EncodeToString([]byte(b.String()))
}

// ContactsFromPeople keeps people with both a display name and an email.
func ContactsFromPeople(persons []*people.Person) []contacts.Contact {
	var out []contacts.Contact
	for _, p := range persons {
		if p == nil || len(p.Names) == 0 || len(p.EmailAddresses) == 0 {
			continue
		}
		name := p.Names[0].DisplayName
		if name == "" {
			name = strings.TrimSpace(p.Names[0].GivenName + " " + p.Names[0].FamilyName)
		}
		email := p.EmailAddresses[0].Value
		if name == "" || email == "" {
			continue
		}
		out = append(out, contacts.Contact{Name: name, Address: email})
	}
	return out
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts RFC 3339 or a local wall-clock layout interpreted in loc.
func ParseTime(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts[1:] {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", value)
}

func eventWindow(startValue, endValue string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := ParseTime(startValue, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid start: %w", err)
	}
	if strings.TrimSpace(endValue) == "" {
		return start, start.Add(defaultEventLength), nil
	}
	end, err := ParseTime(endValue, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid end: %w", err)
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("end %s is not after start %s", endValue, startValue)
	}
	return start, end, nil
}

func conflictStatus(periods []*calendar.TimePeriod) string {
	var b strings.Builder
	b.WriteString("Not scheduled: the calendar is busy during the requested time")
	for i, p := range periods {
		if i == 0 {
			b.WriteString(" (")
		} else {
			b.WriteString(", ")
		}
		b.WriteString(p.Start + " - " + p.End)
	}
	b.WriteString(").")
	return b.String()
}
