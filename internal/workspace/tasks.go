package workspace

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/tasks/v1"
)

type TaskSummary struct {
	TaskListName string `json:"task_list_name"`
	TaskListID   string `json:"task_list_id"`
	TaskID       string `json:"task_id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	Due          string `json:"due_date,omitempty"`
}

// ListAllTasks walks every task list of the user.
func (s *Service) ListAllTasks(ctx context.Context) ([]TaskSummary, error) {
	var out []TaskSummary
	err := s.tasks.Tasklists.List().Pages(ctx, func(lists *tasks.TaskLists) error {
		for _, list := range lists.Items {
			err := s.tasks.Tasks.List(list.Id).Pages(ctx, func(page *tasks.Tasks) error {
				out = append(out, TaskSummaries(list, page.Items)...)
				return nil
			})
			if err != nil {
				return fmt.Errorf("list %s: %w", list.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return out, nil
}

// ListTasksDueToday keeps tasks whose due date is today in the office time zone.
func (s *Service) ListTasksDueToday(ctx context.Context) ([]TaskSummary, error) {
	all, err := s.ListAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return DueOn(all, s.now().In(s.opts.Location).Format("2006-01-02")), nil
}

func (s *Service) DeleteTask(ctx context.Context, taskListID, taskID string) (string, error) {
	if strings.TrimSpace(taskID) == "" {
		return "", fmt.Errorf("task_id is required")
	}
	if taskListID == "" {
		taskListID = s.opts.TaskListID
	}
	if err := s.tasks.Tasks.Delete(taskListID, taskID).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to delete task: %w", err)
	}
	log.Printf("🗑️ Task deleted: %s", taskID)
	return "Task deleted.", nil
}

func TaskSummaries(list *tasks.TaskList, items []*tasks.Task) []TaskSummary {
	out := make([]TaskSummary, 0, len(items))
	for _, t := range items {
		if t == nil {
			continue
		}
		out = append(out, TaskSummary{
			TaskListName: list.Title,
			TaskListID:   list.Id,
			TaskID:       t.Id,
			Title:        t.Title,
			Status:       t.Status,
			Due:          t.Due,
		})
	}
	return out
}

// DueOn filters by calendar date. The Tasks API stores only the date part of
// a due time, as midnight UTC.
func DueOn(all []TaskSummary, day string) []TaskSummary {
	out := []TaskSummary{}
	for _, t := range all {
		if len(t.Due) >= len(day) && t.Due[:len(day)] == day {
			out = append(out, t)
		}
	}
	return out
}
