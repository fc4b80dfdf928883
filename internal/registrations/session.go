package registrations

import (
	"fmt"

	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/internal/models"
)

// State is a step of the registration workflow.
type State string

const (
	StateEditing           State = "editing"
	StateValidating        State = "validating"
	StateCheckingDuplicate State = "checking-duplicate"
	StateSubmitting        State = "submitting"
	StateTracking          State = "tracking"
	StatePersisting        State = "persisting-locally"
	StateComplete          State = "complete"
)

// Session is the form state of one device registering for one event.
type Session struct {
	event    events.Event
	form     Form
	teamType models.TeamType
	errors   FieldErrors
	err      string
	state    State
}

// NewSession creates an empty solo session in the editing state.
func NewSession(ev events.Event) *Session {
	return &Session{
		event:    ev,
		teamType: models.TeamSolo,
		errors:   make(FieldErrors),
		state:    StateEditing,
	}
}

// Event returns the event the session registers for.
func (s *Session) Event() events.Event { return s.event }

// State returns the current workflow step.
func (s *Session) State() State { return s.state }

// TeamType returns the selected team type.
func (s *Session) TeamType() models.TeamType { return s.teamType }

// Errors returns the field errors of the last validation.
func (s *Session) Errors() FieldErrors { return s.errors }

// Error returns the top-level form error, empty when there is none.
func (s *Session) Error() string { return s.err }

// Form returns a copy of the form state.
func (s *Session) Form() Form {
	f := s.form
	if s.event.Kind == events.KindTeam {
		f.TeamType = s.teamType
	}
	return f
}

// SetField updates one field and clears its error. Password fields belong to
// participant1.
func (s *Session) SetField(block, field, value string) error {
	if block != Participant1 && block != Participant2 {
		return fmt.Errorf("unknown participant %q", block)
	}
	switch {
	case s.event.Credentialed() && block == Participant1 && field == "password":
		s.form.Password = value
	case s.event.Credentialed() && block == Participant1 && field == "confirmPassword":
		s.form.ConfirmPassword = value
	case !s.form.block(block).set(field, value):
		return fmt.Errorf("unknown field %q", field)
	}
	if m, ok := s.errors[block]; ok {
		delete(m, field)
	}
	return nil
}

// SetTeamType switches between solo and duo. All field errors are cleared and
// entered values are kept.
func (s *Session) SetTeamType(t models.TeamType) error {
	if !t.Valid() {
		return fmt.Errorf("invalid team type %q", t)
	}
	if s.event.Kind != events.KindTeam && t != models.TeamSolo {
		return fmt.Errorf("%s accepts solo registrations only", s.event.DisplayName)
	}
	s.teamType = t
	s.errors = make(FieldErrors)
	return nil
}

// ApplyForm loads a whole submitted form through SetTeamType and SetField.
func (s *Session) ApplyForm(f Form) error {
	if f.TeamType != "" {
		if err := s.SetTeamType(f.TeamType); err != nil {
			return err
		}
	}
	blocks := []struct {
		key string
		p   ParticipantForm
	}{{Participant1, f.Participant1}, {Participant2, f.Participant2}}
	for _, b := range blocks {
		fields := map[string]string{
			"name":             b.p.Name,
			"email":            b.p.Email,
			"college":          b.p.College,
			"otherCollegeName": b.p.OtherCollegeName,
			"branch":           b.p.Branch,
			"phone":            b.p.Phone,
			"rollNumber":       b.p.RollNumber,
			"year":             b.p.Year,
		}
		for field, v := range fields {
			if err := s.SetField(b.key, field, v); err != nil {
				return err
			}
		}
	}
	if s.event.Credentialed() {
		s.form.Password = f.Password
		s.form.ConfirmPassword = f.ConfirmPassword
	}
	return nil
}

// Validate fills the field error map. On failure the session returns to
// editing with the top-level error set.
func (s *Session) Validate() bool {
	s.state = StateValidating
	s.errors = validateForm(s.event, s.teamType, s.form)
	if !s.errors.Empty() {
		s.err = msgFixErrors
		s.state = StateEditing
		return false
	}
	s.err = ""
	return true
}

// fail returns the session to editing with a top-level error. The form stays
// populated for a retry.
func (s *Session) fail(msg string) {
	s.err = msg
	s.state = StateEditing
}

// complete resets the form and shows the confirmation view.
func (s *Session) complete() {
	s.form = Form{}
	s.teamType = models.TeamSolo
	s.errors = make(FieldErrors)
	s.err = ""
	s.state = StateComplete
}

// View is the JSON shape of a session. Passwords are never included.
type View struct {
	Event        string      `json:"event"`
	DisplayName  string      `json:"displayName"`
	State        State       `json:"state"`
	Registered   bool        `json:"registered"`
	Form         Form        `json:"form"`
	Errors       FieldErrors `json:"errors,omitempty"`
	Error        string      `json:"error,omitempty"`
	ChatGroupURL string      `json:"chatGroupUrl,omitempty"`
}

// View renders the session for clients.
func (s *Session) View() View {
	f := s.Form()
	f.Password, f.ConfirmPassword = "", ""
	v := View{
		Event:       s.event.Name,
		DisplayName: s.event.DisplayName,
		State:       s.state,
		Registered:  s.state == StateComplete,
		Form:        f,
		Error:       s.err,
	}
	if !s.errors.Empty() {
		v.Errors = s.errors
	}
	if v.Registered {
		v.ChatGroupURL = s.event.ChatGroupURL
	}
	return v
}
