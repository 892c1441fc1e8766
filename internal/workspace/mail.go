package workspace

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/gmail/v1"
)

const (
	defaultEmailResults = 10
	maxEmailResults     = 50
)

type EmailSummary struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Snippet string `json:"snippet"`
	Unread  bool   `json:"is_unread"`
}

// ListEmails returns the most recent inbox messages, newest first.
func (s *Service) ListEmails(ctx context.Context, maxResults int) ([]EmailSummary, error) {
	if maxResults <= 0 {
		maxResults = defaultEmailResults
	}
	if maxResults > maxEmailResults {
		maxResults = maxEmailResults
	}

	list, err := s.gmail.Users.Messages.List("me").LabelIds("INBOX").MaxResults(int64(maxResults)).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}

	out := make([]EmailSummary, 0, len(list.Messages))
	for _, m := range list.Messages {
		full, err := s.gmail.Users.Messages.Get("me", m.Id).
			Format("metadata").
			MetadataHeaders("From", "Subject", "Date").
			Context(ctx).Do()
		if err != nil {
			log.Printf("⚠️ Failed to get message details for %s: %v", m.Id, err)
			continue
		}
		out = append(out, EmailSummaryOf(full))
	}
	return out, nil
}

func EmailSummaryOf(msg *gmail.Message) EmailSummary {
	sum := EmailSummary{ID: msg.Id, Snippet: msg.Snippet}
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch strings.ToLower(h.Name) {
			case "from":
				sum.From = h.Value
			case "subject":
				sum.Subject = h.Value
			case "date":
				sum.Date = h.Value
			}
		}
	}
	for _, label := range msg.LabelIds {
		if label == "UNREAD" {
			sum.Unread = true
		}
	}
	return sum
}
