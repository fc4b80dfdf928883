package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_CaseInsensitive(t *testing.T) {
	t.Parallel()

	c := NewCatalog()
	e, err := c.Lookup(" GitArcana ")
	require.NoError(t, err)
	assert.Equal(t, "gitarcana", e.Name)
	assert.Equal(t, "gitarcanaParticipants", e.Collection)
	assert.Equal(t, KindTeam, e.Kind)

	_, err = c.Lookup("hackathon")
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestStorageKeys(t *testing.T) {
	t.Parallel()

	e, err := NewCatalog().Lookup("gitarcana")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"gitarcana_participant1Data",
		"gitarcana_participant2Data",
		"gitarcanaTeamType",
		"registeredForGitarcana",
	}, e.StorageKeys())
}

func TestOdysseyIsCredentialed(t *testing.T) {
	t.Parallel()

	e, err := NewCatalog().Lookup("odyssey")
	require.NoError(t, err)
	assert.True(t, e.Credentialed())
	assert.Equal(t, 1, e.MaxParticipants)
	assert.Equal(t, "https://chat.whatsapp.com/Lqmr9QXhPdXDbN3TaJpvZM", e.ChatGroupURL)
}

func TestDuplicateMessage(t *testing.T) {
	t.Parallel()

	e, err := NewCatalog().Lookup("gitarcana")
	require.NoError(t, err)
	assert.Equal(t,
		"You have already registered for Git Arcana with this email. You cannot register for the same event twice.",
		e.DuplicateMessage())
}

func TestNewCatalog_ClosedEvents(t *testing.T) {
	t.Parallel()

	c := NewCatalog("Decipher", "unknown")
	e, err := c.Lookup("decipher")
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, e.Status)

	e, err = c.Lookup("odyssey")
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, e.Status)

	assert.Len(t, c.All(), 3)
	assert.Equal(t, []string{"decipher", "gitarcana", "odyssey"}, c.Names())
}
