package scheduler

import (
	"context"
	"testing"
	"time"
)

func TestAddRejectsInvalidSpec(t *testing.T) {
	s := New()
	defer s.Stop()

	if err := s.Add("broken", "not a cron spec", func(context.Context) error { return nil }); err == nil {
		t.Fatalf("expected error for invalid spec")
	}
	if s.IsRunning() {
		t.Fatalf("no job should be registered")
	}
}

func TestJobRuns(t *testing.T) {
	s := New()
	defer s.Stop()

	ran := make(chan struct{}, 1)
	err := s.Add("tick", "@every 1s", func(ctx context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !s.IsRunning() {
		t.Fatalf("expected a registered job")
	}
	s.Start()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatalf("job did not run")
	}
}
