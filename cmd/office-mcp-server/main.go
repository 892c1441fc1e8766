package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"office-assistant/internal/config"
	"office-assistant/internal/contacts"
	"office-assistant/internal/llm"
	"office-assistant/internal/workspace"
)

type CreateTaskParams struct {
	Title string `json:"title" mcp:"short task title"`
	Due   string `json:"due,omitempty" mcp:"due date/time, RFC 3339 or YYYY-MM-DD HH:MM"`
	Notes string `json:"notes,omitempty" mcp:"optional task notes"`
}

type AddEventParams struct {
	Subject   string   `json:"subject" mcp:"event title"`
	Start     string   `json:"start" mcp:"start time, RFC 3339 or YYYY-MM-DD HH:MM"`
	End       string   `json:"end,omitempty" mcp:"end time; defaults to one hour after start"`
	Attendees []string `json:"attendees,omitempty" mcp:"attendee email addresses"`
	Location  string   `json:"location,omitempty" mcp:"optional location"`
}

type SendEmailParams struct {
	To      string `json:"to" mcp:"recipient email address"`
	Subject string `json:"subject" mcp:"email subject"`
	Body    string `json:"body" mcp:"plain text body"`
}

type GetContactsParams struct{}

type NoParams struct{}

type DeleteTaskParams struct {
	TaskListID string `json:"task_list_id" mcp:"task list ID from list_all_tasks"`
	TaskID     string `json:"task_id" mcp:"task ID from list_all_tasks"`
}

type GetEventsParams struct {
	TimeMin    string `json:"time_min,omitempty" mcp:"window start; defaults to now"`
	TimeMax    string `json:"time_max,omitempty" mcp:"optional window end"`
	MaxResults int    `json:"max_results,omitempty" mcp:"maximum number of events (default: 10)"`
}

type UpdateEventParams struct {
	EventID   string   `json:"event_id" mcp:"event ID from get_events"`
	Subject   string   `json:"subject,omitempty" mcp:"new subject"`
	Start     string   `json:"start,omitempty" mcp:"new start time"`
	End       string   `json:"end,omitempty" mcp:"new end time"`
	Location  string   `json:"location,omitempty" mcp:"new location"`
	Attendees []string `json:"attendees,omitempty" mcp:"replacement attendee email addresses"`
}

type DeleteEventParams struct {
	EventID string `json:"event_id" mcp:"event ID from get_events"`
}

type FindMeetingTimesParams struct {
	Attendees       []string `json:"attendees" mcp:"required attendee email addresses"`
	DurationMinutes int      `json:"duration_minutes,omitempty" mcp:"meeting length in minutes (default: 30)"`
	WindowStart     string   `json:"window_start,omitempty" mcp:"search window start; defaults to now"`
	WindowEnd       string   `json:"window_end,omitempty" mcp:"search window end; defaults to 24 hours after the start"`
}

type ListEmailsParams struct {
	MaxResults int `json:"max_results,omitempty" mcp:"number of emails to return (default: 10, max: 50)"`
}

type AddContactParams struct {
	Name  string `json:"name" mcp:"contact display name"`
	Email string `json:"email,omitempty" mcp:"contact email address"`
	Phone string `json:"phone,omitempty" mcp:"contact phone number"`
}

// OfficeMCPServer exposes the workspace actions as MCP tools.
type OfficeMCPServer struct {
	office *workspace.Service
}

func (s *OfficeMCPServer) CreateTask(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[CreateTaskParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("📝 MCP Server: create_task %q", args.Title)
	status, err := s.office.CreateTask(ctx, workspace.TaskInput{Title: args.Title, Due: args.Due, Notes: args.Notes})
	return toolResult(status, err), nil
}

func (s *OfficeMCPServer) AddEvent(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[AddEventParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("📅 MCP Server: add event %q at %s", args.Subject, args.Start)
	status, err := s.office.AddEventWithAvailabilityCheck(ctx, workspace.EventInput{
		Subject:   args.Subject,
		Start:     args.Start,
		End:       args.End,
		Attendees: args.Attendees,
		Location:  args.Location,
	})
	return toolResult(status, err), nil
}

func (s *OfficeMCPServer) SendEmail(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[SendEmailParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("📧 MCP Server: send_email to %s", args.To)
	status, err := s.office.SendEmail(ctx, workspace.EmailInput{To: args.To, Subject: args.Subject, Body: args.Body})
	return toolResult(status, err), nil
}

func (s *OfficeMCPServer) GetContacts(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[GetContactsParams]) (*mcp.CallToolResultFor[any], error) {
	list, err := s.office.ListContacts(ctx)
	if err != nil {
		return toolResult("", err), nil
	}
	if list == nil {
		list = []contacts.Contact{}
	}
	payload, err := json.Marshal(map[string][]contacts.Contact{"contacts": list})
	if err != nil {
		return toolResult("", err), nil
	}
	log.Printf("👥 MCP Server: returned %d contacts", len(list))
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		Meta:    map[string]interface{}{"total_found": len(list)},
	}, nil
}

func (s *OfficeMCPServer) AddContact(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[AddContactParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("👤 MCP Server: add_user_contact %q", args.Name)
	status, err := s.office.AddContact(ctx, workspace.ContactInput{Name: args.Name, Email: args.Email, Phone: args.Phone})
	return toolResult(status, err), nil
}

func (s *OfficeMCPServer) ListAllTasks(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[NoParams]) (*mcp.CallToolResultFor[any], error) {
	list, err := s.office.ListAllTasks(ctx)
	return jsonResult("tasks", list, err), nil
}

func (s *OfficeMCPServer) ListTasksToday(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[NoParams]) (*mcp.CallToolResultFor[any], error) {
	list, err := s.office.ListTasksDueToday(ctx)
	return jsonResult("tasks_due_today", list, err), nil
}

func (s *OfficeMCPServer) DeleteTask(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[DeleteTaskParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("🗑️ MCP Server: delete_task %s/%s", args.TaskListID, args.TaskID)
	status, err := s.office.DeleteTask(ctx, args.TaskListID, args.TaskID)
	return toolResult(status, err), nil
}

func (s *OfficeMCPServer) GetEvents(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[GetEventsParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	list, err := s.office.ListEvents(ctx, args.TimeMin, args.TimeMax, args.MaxResults)
	return jsonResult("events", list, err), nil
}

func (s *OfficeMCPServer) UpdateEvent(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[UpdateEventParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("📅 MCP Server: update event %s", args.EventID)
	status, err := s.office.UpdateEvent(ctx, workspace.EventUpdate{
		ID:        args.EventID,
		Subject:   args.Subject,
		Start:     args.Start,
		End:       args.End,
		Location:  args.Location,
		Attendees: args.Attendees,
	})
	return toolResult(status, err), nil
}

func (s *OfficeMCPServer) DeleteEvent(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[DeleteEventParams]) (*mcp.CallToolResultFor[any], error) {
	log.Printf("🗑️ MCP Server: delete event %s", params.Arguments.EventID)
	status, err := s.office.DeleteEvent(ctx, params.Arguments.EventID)
	return toolResult(status, err), nil
}

func (s *OfficeMCPServer) FindMeetingTimes(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[FindMeetingTimesParams]) (*mcp.CallToolResultFor[any], error) {
	args := params.Arguments
	log.Printf("🔎 MCP Server: find meeting times for %v", args.Attendees)
	found, err := s.office.FindMeetingTimes(ctx, workspace.MeetingTimesInput{
		Attendees:   args.Attendees,
		Duration:    time.Duration(args.DurationMinutes) * time.Minute,
		WindowStart: args.WindowStart,
		WindowEnd:   args.WindowEnd,
	})
	if err != nil {
		return toolResult("", err), nil
	}
	if len(found.Slots) == 0 {
		return toolResult("No available meeting times found.", nil), nil
	}
	payload, err := json.Marshal(found)
	return toolResult(string(payload), err), nil
}

func (s *OfficeMCPServer) ListEmails(ctx context.Context, session *mcp.ServerSession, params *mcp.CallToolParamsFor[ListEmailsParams]) (*mcp.CallToolResultFor[any], error) {
	list, err := s.office.ListEmails(ctx, params.Arguments.MaxResults)
	return jsonResult("emails", list, err), nil
}

// jsonResult renders {"<key>": value} as the tool's text content.
func jsonResult(key string, value any, err error) *mcp.CallToolResultFor[any] {
	if err != nil {
		return toolResult("", err)
	}
	payload, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return toolResult("", err)
	}
	return toolResult(string(payload), nil)
}

func toolResult(status string, err error) *mcp.CallToolResultFor[any] {
	if err != nil {
		log.Printf("❌ MCP Server: %v", err)
		return &mcp.CallToolResultFor[any]{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		}
	}
	return &mcp.CallToolResultFor[any]{
		Content: []mcp.Content{&mcp.TextContent{Text: status}},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}
	cfg := config.NewWorkspace()

	credentialsJSON := cfg.CredentialsJSON
	if credentialsJSON == "" && cfg.CredentialsJSONPath != "" {
		if data, err := os.ReadFile(cfg.CredentialsJSONPath); err == nil {
			credentialsJSON = string(data)
		}
	}
	if credentialsJSON == "" {
		log.Fatal("❌ Either GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_JSON_PATH environment variable is required")
	}

	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		log.Fatalf("❌ Invalid OFFICE_TIME_ZONE %q: %v", cfg.TimeZone, err)
	}

	creds, err := workspace.ParseCredentials([]byte(credentialsJSON))
	if err != nil {
		log.Fatalf("❌ Failed to parse Google credentials: %v", err)
	}

	ctx := context.Background()
	httpClient, err := workspace.HTTPClient(ctx, workspace.OAuthConfig(creds), cfg.TokenFile, cfg.RefreshToken)
	if err != nil {
		log.Fatalf("❌ Failed to authorize: %v", err)
	}
	office, err := workspace.NewService(ctx, httpClient, workspace.Options{
		CalendarID: cfg.CalendarID,
		TaskListID: cfg.TaskListID,
		Location:   loc,
	})
	if err != nil {
		log.Fatalf("❌ Failed to create workspace services: %v", err)
	}
	officeServer := &OfficeMCPServer{office: office}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "office-assistant-mcp",
		Version: "1.0.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolCreateTask,
		Description: "Creates a task in Google Tasks",
	}, officeServer.CreateTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolListAllTasks,
		Description: "Lists all tasks across all task lists",
	}, officeServer.ListAllTasks)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolListTasksToday,
		Description: "Lists tasks due today across all task lists",
	}, officeServer.ListTasksToday)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolDeleteTask,
		Description: "Deletes a task",
	}, officeServer.DeleteTask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolGetEvents,
		Description: "Lists upcoming calendar events",
	}, officeServer.GetEvents)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolUpdateEvent,
		Description: "Updates fields of a calendar event",
	}, officeServer.UpdateEvent)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolDeleteEvent,
		Description: "Deletes a calendar event",
	}, officeServer.DeleteEvent)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolFindMeetingTimes,
		Description: "Suggests slots when the user and all attendees are free",
	}, officeServer.FindMeetingTimes)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolListEmails,
		Description: "Lists the most recent inbox emails",
	}, officeServer.ListEmails)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolAddEvent,
		Description: "Adds a calendar event after checking the slot is free",
	}, officeServer.AddEvent)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolSendEmail,
		Description: "Sends a plain text email from the user's Gmail account",
	}, officeServer.SendEmail)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolGetUserContacts,
		Description: "Lists the user's contacts as JSON {\"contacts\":[{\"name\",\"email\"}]}",
	}, officeServer.GetContacts)
	mcp.AddTool(server, &mcp.Tool{
		Name:        llm.ToolAddUserContact,
		Description: "Adds a contact to the user's address book",
	}, officeServer.AddContact)

	log.Printf("📋 Registered %d office MCP tools", len(llm.OfficeTools()))
	log.Printf("🔗 Starting office MCP server on stdin/stdout...")

	if err := server.Run(ctx, mcp.NewStdioTransport()); err != nil {
		log.Fatalf("❌ Office MCP server failed: %v", err)
	}
}
