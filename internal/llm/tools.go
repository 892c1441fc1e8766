package llm

// Tool names exposed by the office MCP server.
const (
	ToolCreateTask       = "create_task"
	ToolListAllTasks     = "list_all_tasks"
	ToolListTasksToday   = "list_tasks_today"
	ToolDeleteTask       = "delete_task"
	ToolAddEvent         = "add_calendar_event_with_availability_check"
	ToolGetEvents        = "get_events"
	ToolUpdateEvent      = "update_calendar_event"
	ToolDeleteEvent      = "delete_calendar_event"
	ToolFindMeetingTimes = "find_available_meeting_times"
	ToolSendEmail        = "send_email"
	ToolListEmails       = "list_emails"
	ToolGetUserContacts  = "get_user_contacts"
	ToolAddUserContact   = "add_user_contact"
)

type schema = map[string]interface{}

func stringProp(description string) schema {
	return schema{"type": "string", "description": description}
}

func intProp(description string) schema {
	return schema{"type": "integer", "description": description}
}

func stringListProp(description string) schema {
	return schema{"type": "array", "items": schema{"type": "string"}, "description": description}
}

func objectSchema(properties schema, required ...string) schema {
	s := schema{"type": "object", "properties": properties}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

func functionTool(name, description string, parameters schema) Tool {
	return Tool{
		Type:     "function",
		Function: Function{Name: name, Description: description, Parameters: parameters},
	}
}

// OfficeTools returns the function tools the dispatch model may call.
func OfficeTools() []Tool {
	return []Tool{
		functionTool(ToolCreateTask,
			"Creates a to-do task. Use when the user asks to add a task or reminder.",
			objectSchema(schema{
				"title": stringProp("Short task title"),
				"due":   stringProp("Due date-time in RFC3339, resolved from relative phrases like 'tomorrow 3 PM'"),
				"notes": stringProp("Optional task notes"),
			}, "title")),
		functionTool(ToolListAllTasks,
			"Lists all tasks across all task lists with their list and task IDs.",
			objectSchema(schema{})),
		functionTool(ToolListTasksToday,
			"Lists tasks due today across all task lists.",
			objectSchema(schema{})),
		functionTool(ToolDeleteTask,
			"Deletes a task. Get the IDs from list_all_tasks first.",
			objectSchema(schema{
				"task_list_id": stringProp("Task list ID"),
				"task_id":      stringProp("Task ID"),
			}, "task_list_id", "task_id")),
		functionTool(ToolAddEvent,
			"Checks calendar availability and schedules a meeting if the slot is free. Reports a conflict otherwise.",
			objectSchema(schema{
				"subject":   stringProp("Meeting subject"),
				"start":     stringProp("Start date-time in RFC3339"),
				"end":       stringProp("End date-time in RFC3339 (defaults to one hour after start)"),
				"attendees": stringListProp("Attendee email addresses"),
				"location":  stringProp("Optional location"),
			}, "subject", "start")),
		functionTool(ToolGetEvents,
			"Lists upcoming calendar events with their IDs.",
			objectSchema(schema{
				"time_min":    stringProp("Window start in RFC3339 (defaults to now)"),
				"time_max":    stringProp("Optional window end in RFC3339"),
				"max_results": intProp("Maximum number of events (default 10)"),
			})),
		functionTool(ToolUpdateEvent,
			"Updates fields of an existing calendar event. Omitted fields are left unchanged.",
			objectSchema(schema{
				"event_id":  stringProp("Event ID from get_events"),
				"subject":   stringProp("New subject"),
				"start":     stringProp("New start date-time in RFC3339"),
				"end":       stringProp("New end date-time in RFC3339"),
				"location":  stringProp("New location"),
				"attendees": stringListProp("Replacement attendee email addresses"),
			}, "event_id")),
		functionTool(ToolDeleteEvent,
			"Deletes a calendar event.",
			objectSchema(schema{
				"event_id": stringProp("Event ID from get_events"),
			}, "event_id")),
		functionTool(ToolFindMeetingTimes,
			"Suggests time slots when the user and all attendees are free.",
			objectSchema(schema{
				"attendees":        stringListProp("Required attendee email addresses"),
				"duration_minutes": intProp("Meeting length in minutes (default 30)"),
				"window_start":     stringProp("Search window start in RFC3339 (defaults to now)"),
				"window_end":       stringProp("Search window end in RFC3339 (defaults to 24 hours after the start)"),
			}, "attendees")),
		functionTool(ToolSendEmail,
			"Sends an email. Only call after the user confirmed the body.",
			objectSchema(schema{
				"to":      stringProp("Recipient email address"),
				"subject": stringProp("Email subject"),
				"body":    stringProp("Plain text body including the signature"),
			}, "to", "subject", "body")),
		functionTool(ToolListEmails,
			"Lists the most recent emails in the user's inbox.",
			objectSchema(schema{
				"max_results": intProp("Number of emails to return (default 10, max 50)"),
			})),
		functionTool(ToolGetUserContacts,
			"Lists the user's contacts with their email addresses.",
			objectSchema(schema{})),
		functionTool(ToolAddUserContact,
			"Adds a new contact to the user's address book.",
			objectSchema(schema{
				"name":  stringProp("Display name"),
				"email": stringProp("Email address"),
				"phone": stringProp("Optional phone number"),
			}, "name", "email")),
	}
}
