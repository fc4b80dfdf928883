package registrations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensys-cosc/symposium/internal/models"
)

func TestSession_SetFieldStripsPhoneAndClearsError(t *testing.T) {
	t.Parallel()

	sess := NewSession(mustEvent(t, "gitarcana"))
	assert.False(t, sess.Validate())
	require.Contains(t, sess.Errors()[Participant1], "phone")

	require.NoError(t, sess.SetField(Participant1, "phone", "(949) 253-2259"))
	assert.Equal(t, "9492532259", sess.Form().Participant1.Phone)
	assert.NotContains(t, sess.Errors()[Participant1], "phone")
	assert.Contains(t, sess.Errors()[Participant1], "email")
}

func TestSession_SetFieldRejectsUnknown(t *testing.T) {
	t.Parallel()

	sess := NewSession(mustEvent(t, "gitarcana"))
	assert.Error(t, sess.SetField("participant3", "name", "x"))
	assert.Error(t, sess.SetField(Participant1, "nickname", "x"))
	assert.Error(t, sess.SetField(Participant1, "password", "secret1"), "team events have no password")
}

func TestSession_SetTeamTypeClearsErrorsKeepsValues(t *testing.T) {
	t.Parallel()

	sess := NewSession(mustEvent(t, "decipher"))
	require.NoError(t, sess.SetField(Participant2, "name", "Ravi"))
	assert.False(t, sess.Validate())
	require.False(t, sess.Errors().Empty())

	require.NoError(t, sess.SetTeamType(models.TeamDuo))
	assert.True(t, sess.Errors().Empty())
	assert.Equal(t, "Ravi", sess.Form().Participant2.Name)
	assert.Equal(t, models.TeamDuo, sess.Form().TeamType)

	assert.Error(t, sess.SetTeamType("trio"))
}

func TestSession_CredentialedIsSoloOnly(t *testing.T) {
	t.Parallel()

	sess := NewSession(mustEvent(t, "odyssey"))
	assert.Error(t, sess.SetTeamType(models.TeamDuo))
	require.NoError(t, sess.SetField(Participant1, "password", "secret1"))
	require.NoError(t, sess.SetField(Participant1, "confirmPassword", "secret1"))
	assert.Equal(t, "secret1", sess.Form().Password)
	assert.Empty(t, sess.View().Form.Password)
}

func TestSession_ValidateFailureReturnsToEditing(t *testing.T) {
	t.Parallel()

	sess := NewSession(mustEvent(t, "odyssey"))
	assert.False(t, sess.Validate())
	assert.Equal(t, StateEditing, sess.State())
	assert.Equal(t, "Please fix the validation errors before submitting.", sess.Error())
	assert.False(t, sess.View().Registered)
}
