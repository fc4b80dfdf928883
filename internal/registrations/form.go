package registrations

import (
	"strings"

	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/internal/models"
	"github.com/opensys-cosc/symposium/internal/validation"
)

// Participant block keys used in Form and FieldErrors.
const (
	Participant1 = "participant1"
	Participant2 = "participant2"
)

// Field error messages.
const (
	msgPhone            = "Please enter a valid 10-digit phone number"
	msgEmail            = "Please enter a valid email address"
	msgCollege          = "Please select your college"
	msgOtherCollege     = "Please enter your college name"
	msgPassword         = "Password must be at least 6 characters"
	msgConfirmPassword  = "Passwords do not match"
	msgDistinctEmail    = "Participant 2 must have a different email address from Participant 1"
	msgDistinctPhone    = "Participant 2 must have a different phone number from Participant 1"
	msgDistinctName     = "Participant 2 must have a different name from Participant 1"
	msgFixErrors        = "Please fix the validation errors before submitting."
	msgRegistrationShut = "Registrations for this event are closed."
)

// ParticipantForm is the editable state of one participant block.
type ParticipantForm struct {
	Name             string `json:"name"`
	Email            string `json:"email"`
	College          string `json:"college"`
	OtherCollegeName string `json:"otherCollegeName"`
	Branch           string `json:"branch"`
	Phone            string `json:"phone"`
	RollNumber       string `json:"rollNumber"`
	Year             string `json:"year"`
}

// ResolvedCollege returns the free-text college name when "Other" is selected.
func (p ParticipantForm) ResolvedCollege() string {
	if p.College == validation.CollegeOther {
		return p.OtherCollegeName
	}
	return p.College
}

// Participant converts the block into the persisted participant.
func (p ParticipantForm) Participant() models.Participant {
	return models.Participant{
		Name:       p.Name,
		Email:      p.Email,
		College:    p.ResolvedCollege(),
		Branch:     p.Branch,
		Phone:      p.Phone,
		RollNumber: p.RollNumber,
		Year:       p.Year,
	}
}

// participantForm reverses Participant: a college outside the option list is
// restored as {college: "Other", otherCollegeName: value}.
func participantForm(p models.Participant) ParticipantForm {
	f := ParticipantForm{
		Name:       p.Name,
		Email:      p.Email,
		College:    p.College,
		Branch:     p.Branch,
		Phone:      p.Phone,
		RollNumber: p.RollNumber,
		Year:       p.Year,
	}
	if p.College != "" && !validation.IsListedCollege(p.College) {
		f.College = validation.CollegeOther
		f.OtherCollegeName = p.College
	}
	return f
}

// set writes one field by its JSON name. Phone values keep only digits.
func (p *ParticipantForm) set(field, value string) bool {
	switch field {
	case "name":
		p.Name = value
	case "email":
		p.Email = value
	case "college":
		p.College = value
	case "otherCollegeName":
		p.OtherCollegeName = value
	case "branch":
		p.Branch = value
	case "phone":
		p.Phone = validation.DigitsOnly(value)
	case "rollNumber":
		p.RollNumber = value
	case "year":
		p.Year = value
	default:
		return false
	}
	return true
}

// Form is the complete form state of one registration.
type Form struct {
	TeamType        models.TeamType `json:"teamType,omitempty"`
	Participant1    ParticipantForm `json:"participant1"`
	Participant2    ParticipantForm `json:"participant2"`
	Password        string          `json:"password,omitempty"`
	ConfirmPassword string          `json:"confirmPassword,omitempty"`
}

// FieldErrors maps a participant block key to its field errors.
type FieldErrors map[string]map[string]string

func (fe FieldErrors) add(block, field, msg string) {
	m, ok := fe[block]
	if !ok {
		m = make(map[string]string)
		fe[block] = m
	}
	m[field] = msg
}

// Empty reports whether no field has an error.
func (fe FieldErrors) Empty() bool {
	for _, m := range fe {
		if len(m) > 0 {
			return false
		}
	}
	return true
}

// activeBlocks returns the participant blocks that take part in the submission.
func activeBlocks(ev events.Event, teamType models.TeamType) []string {
	if ev.Kind == events.KindTeam && teamType == models.TeamDuo {
		return []string{Participant1, Participant2}
	}
	return []string{Participant1}
}

func (f *Form) block(key string) *ParticipantForm {
	if key == Participant2 {
		return &f.Participant2
	}
	return &f.Participant1
}

// validateForm checks the form of one event. It never touches remote state.
func validateForm(ev events.Event, teamType models.TeamType, f Form) FieldErrors {
	errs := make(FieldErrors)
	for _, key := range activeBlocks(ev, teamType) {
		p := f.block(key)
		if !validation.ValidatePhone(p.Phone) {
			errs.add(key, "phone", msgPhone)
		}
		if !validation.ValidateEmail(p.Email) {
			errs.add(key, "email", msgEmail)
		}
		switch {
		case p.College == "":
			errs.add(key, "college", msgCollege)
		case p.College == validation.CollegeOther && strings.TrimSpace(p.OtherCollegeName) == "":
			errs.add(key, "college", msgOtherCollege)
		}
	}

	if ev.Kind == events.KindTeam && teamType == models.TeamDuo {
		p1, p2 := f.Participant1, f.Participant2
		if strings.EqualFold(p1.Email, p2.Email) {
			errs.add(Participant2, "email", msgDistinctEmail)
		}
		if p1.Phone == p2.Phone {
			errs.add(Participant2, "phone", msgDistinctPhone)
		}
		if strings.EqualFold(strings.TrimSpace(p1.Name), strings.TrimSpace(p2.Name)) {
			errs.add(Participant2, "name", msgDistinctName)
		}
	}

	if ev.Credentialed() {
		if !validation.ValidatePassword(f.Password) {
			errs.add(Participant1, "password", msgPassword)
		}
		if f.Password != f.ConfirmPassword {
			errs.add(Participant1, "confirmPassword", msgConfirmPassword)
		}
	}
	return errs
}
