package models

// TeamType is the team size selector of team events.
type TeamType string

const (
	TeamSolo TeamType = "solo"
	TeamDuo  TeamType = "duo"
)

// Valid reports whether t is solo or duo.
func (t TeamType) Valid() bool {
	return t == TeamSolo || t == TeamDuo
}

// Size returns the number of participants the team type allows.
func (t TeamType) Size() int {
	if t == TeamDuo {
		return 2
	}
	return 1
}

// Participant is one registrant as persisted. College is already resolved:
// "Other" has been replaced by the free-text college name.
type Participant struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	College    string `json:"college"`
	Branch     string `json:"branch"`
	Phone      string `json:"phone"`
	RollNumber string `json:"rollNumber"`
	Year       string `json:"year"`
}

// Team is the registration record of team events.
type Team struct {
	TeamType     TeamType      `json:"teamType"`
	Participants []Participant `json:"participants"`
	TeamSize     int           `json:"teamSize"`
	// Emails holds the lower-cased participant emails for the duplicate guard query.
	Emails    []string    `json:"emails"`
	Timestamp interface{} `json:"timestamp"`
	UserID    string      `json:"userId"`
}

// CredentialedParticipant is the registration record of single-participant
// events that ask for a password. Only the bcrypt hash is kept.
type CredentialedParticipant struct {
	Participant
	EmailKey     string      `json:"emailKey"`
	PasswordHash string      `json:"passwordHash"`
	Timestamp    interface{} `json:"timestamp"`
	UserID       string      `json:"userId"`
}
