package classify

import "testing"

func TestHasTime(t *testing.T) {
	cases := map[string]bool{
		"let's meet at 3 PM":             true,
		"let's meet at 3pm":              true,
		"call at 10:30 am":               true,
		"let's meet tomorrow":            true,
		"remind me TONIGHT":              true,
		"in the evening":                 true,
		"sometime next week":             true,
		"lunch at noon":                  true,
		"let's meet soon":                false,
		"add a task to review the deck":  false,
		"room 330 please":                false,
		"schedule it for the afternoon.": true,
	}
	for in, want := range cases {
		if got := HasTime(in); got != want {
			t.Fatalf("HasTime(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestKeywordClassify(t *testing.T) {
	c := Keyword{}

	got := c.Classify("Add Task: call client")
	if !got.MentionsTask || got.MentionsMeeting || got.MentionsEmailSend || got.HasTime {
		t.Fatalf("unexpected task classification: %+v", got)
	}

	got = c.Classify("Schedule a meeting with Jane tomorrow")
	if !got.MentionsMeeting || !got.HasTime {
		t.Fatalf("unexpected meeting classification: %+v", got)
	}

	got = c.Classify("Send email to Alex confirming project status. Confirm body before sending.")
	if !got.MentionsEmailSend || !got.Confirmed {
		t.Fatalf("unexpected email classification: %+v", got)
	}

	// "email" alone is not a send intent
	got = c.Classify("read my latest email")
	if got.MentionsEmailSend {
		t.Fatalf("plain email mention classified as send: %+v", got)
	}
}
