package contacts

import (
	"context"
	"strings"
)

type Contact struct {
	Name    string `json:"name"`
	Address string `json:"email"`
}

// Directory fetches the user's contact list from the office backend.
type Directory interface {
	FetchContacts(ctx context.Context) ([]Contact, error)
}

// Resolver picks the recipient mentioned in text.
type Resolver interface {
	Resolve(text string, directory []Contact) (Contact, bool)
}

// Substring returns the first contact, in directory order, whose display
// name occurs case-insensitively in the text. Names are used as stored: no
// trimming, no ranking, and an empty name is contained in any text.
type Substring struct{}

var _ Resolver = Substring{}

func (Substring) Resolve(text string, directory []Contact) (Contact, bool) {
	lower := strings.ToLower(text)
	for _, c := range directory {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			return c, true
		}
	}
	return Contact{}, false
}
