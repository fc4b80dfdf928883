// Package events describes the registrable events. One Event record drives the
// shared registration workflow for every event.
package events

import (
	"errors"
	"sort"
	"strings"
)

// ErrUnknownEvent is returned by Lookup for names outside the catalogue.
var ErrUnknownEvent = errors.New("unknown event")

// Kind selects the registration form of an event.
type Kind string

const (
	// KindTeam events register a solo or duo team.
	KindTeam Kind = "team"
	// KindCredentialed events register one participant with a password pair.
	KindCredentialed Kind = "credentialed"
)

// Status reports whether an event still accepts registrations.
type Status string

const (
	StatusOpen   Status = "open"
	StatusClosed Status = "closed"
)

// Event is the per-event configuration record.
type Event struct {
	Name            string `json:"name"`
	DisplayName     string `json:"displayName"`
	Collection      string `json:"-"`
	Kind            Kind   `json:"kind"`
	MaxParticipants int    `json:"maxParticipants"`
	ChatGroupURL    string `json:"chatGroupUrl"`
	Date            string `json:"date"`
	Mode            string `json:"mode"`
	Team            string `json:"team"`
	Description     string `json:"description"`
	Path            string `json:"path"`
	Status          Status `json:"status"`
}

// Credentialed reports whether the event asks for a password pair.
func (e Event) Credentialed() bool { return e.Kind == KindCredentialed }

// Participant1Key is the device storage key of the first participant's data.
func (e Event) Participant1Key() string { return e.Name + "_participant1Data" }

// Participant2Key is the device storage key of the second participant's data.
func (e Event) Participant2Key() string { return e.Name + "_participant2Data" }

// TeamTypeKey is the device storage key of the chosen team type.
func (e Event) TeamTypeKey() string { return e.Name + "TeamType" }

// RegisteredKey is the device storage key flagging a completed registration.
func (e Event) RegisteredKey() string {
	return "registeredFor" + strings.ToUpper(e.Name[:1]) + e.Name[1:]
}

// StorageKeys lists every device storage key owned by the event.
func (e Event) StorageKeys() []string {
	return []string{e.Participant1Key(), e.Participant2Key(), e.TeamTypeKey(), e.RegisteredKey()}
}

// DuplicateMessage is shown when an email already registered for the event.
func (e Event) DuplicateMessage() string {
	return "You have already registered for " + e.DisplayName +
		" with this email. You cannot register for the same event twice."
}

var defaults = []Event{
	{
		Name:            "gitarcana",
		DisplayName:     "Git Arcana",
		Collection:      "gitarcanaParticipants",
		Kind:            KindTeam,
		MaxParticipants: 2,
		ChatGroupURL:    "https://chat.whatsapp.com/Boy1dpjLak99OAiZxyw3JK",
		Date:            "17th February 2026",
		Mode:            "Offline Mode",
		Team:            "Solo/Duo",
		Description:     "Dive into the depths of version control like never before. Teams receive custom GitHub repositories filled with mysteries, hunt for clues hidden in commit messages, pull request labels, secret files, and code history. Decode the archives, connect the dots, and unravel the ultimate secret to claim victory!",
		Path:            "/gitarcana",
		Status:          StatusOpen,
	},
	{
		Name:            "decipher",
		DisplayName:     "Decipher",
		Collection:      "decipherTeams",
		Kind:            KindTeam,
		MaxParticipants: 2,
		ChatGroupURL:    "https://chat.whatsapp.com/BkYAQWYc54ALvUDmzeZvRu",
		Date:            "18th February 2026",
		Mode:            "Offline Mode",
		Team:            "Solo/Duo",
		Description:     "A dynamic decryption challenge that tests participants' problem-solving skills. In Round 1, individuals tackle encryption-based questions, while Round 2 presents interconnected puzzles hidden within QR-coded images. The quickest to decode all challenges emerges as winner!",
		Path:            "/decipher",
		Status:          StatusOpen,
	},
	{
		Name:            "odyssey",
		DisplayName:     "Odyssey",
		Collection:      "odysseyParticipants",
		Kind:            KindCredentialed,
		MaxParticipants: 1,
		ChatGroupURL:    "https://chat.whatsapp.com/Lqmr9QXhPdXDbN3TaJpvZM",
		Date:            "17th-18th February 2026",
		Mode:            "Online Mode",
		Team:            "Solo",
		Description:     "A thrilling two-day online challenge where participants race against time to solve a series of mind-bending puzzles. With each level increasing in difficulty, only the fastest and sharpest minds will conquer all levels and claim victory!",
		Path:            "/odyssey",
		Status:          StatusOpen,
	},
}

// Catalog is an immutable set of events keyed by lower-cased name.
type Catalog struct {
	byName map[string]Event
	order  []string
}

// NewCatalog builds a catalog from the default events. Names in closed are
// marked StatusClosed; unknown names are ignored.
func NewCatalog(closed ...string) *Catalog {
	c := &Catalog{byName: make(map[string]Event, len(defaults))}
	shut := make(map[string]bool, len(closed))
	for _, n := range closed {
		shut[strings.ToLower(strings.TrimSpace(n))] = true
	}
	for _, e := range defaults {
		if shut[e.Name] {
			e.Status = StatusClosed
		}
		c.byName[e.Name] = e
		c.order = append(c.order, e.Name)
	}
	return c
}

// Lookup finds an event by name, case-insensitively.
func (c *Catalog) Lookup(name string) (Event, error) {
	e, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Event{}, ErrUnknownEvent
	}
	return e, nil
}

// All returns the events in catalogue order.
func (c *Catalog) All() []Event {
	out := make([]Event, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.byName[n])
	}
	return out
}

// Names returns the sorted event names.
func (c *Catalog) Names() []string {
	names := append([]string(nil), c.order...)
	sort.Strings(names)
	return names
}
