// Package registrations runs the registration workflow shared by every event:
// validation, duplicate guard, insert, tracking and device persistence.
package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/opensys-cosc/symposium/internal/docstore"
	"github.com/opensys-cosc/symposium/internal/drafts"
	"github.com/opensys-cosc/symposium/internal/events"
	"github.com/opensys-cosc/symposium/internal/models"
	"github.com/opensys-cosc/symposium/internal/validation"
	"github.com/opensys-cosc/symposium/pkg/queue"
	"github.com/opensys-cosc/symposium/pkg/utils"
)

var (
	// ErrValidation means the form has field errors. No remote call was made.
	ErrValidation = errors.New("form has validation errors")
	// ErrDuplicate means an email of the form already registered for the event.
	ErrDuplicate = errors.New("email already registered for event")
	// ErrClosed means the event no longer accepts registrations.
	ErrClosed = errors.New("registrations closed")
)

// Tracker records a successful registration in the statistics counters.
type Tracker interface {
	TrackRegistration(ctx context.Context, event, college string) (*models.TrackResult, error)
}

// Exporter queues a stored registration for export.
type Exporter interface {
	EnqueueExport(ctx context.Context, payload queue.ExportPayload) error
}

// Notifier is told after counters changed.
type Notifier interface {
	RegistrationTracked(ctx context.Context, event string)
}

// Receipt describes a completed registration.
type Receipt struct {
	ID           string          `json:"id"`
	UserID       string          `json:"userId"`
	Event        string          `json:"event"`
	DisplayName  string          `json:"displayName"`
	TeamType     models.TeamType `json:"teamType,omitempty"`
	TeamSize     int             `json:"teamSize"`
	ChatGroupURL string          `json:"chatGroupUrl"`
}

// Service runs the registration workflow.
type Service struct {
	store        docstore.Store
	tracker      Tracker
	drafts       drafts.Store
	exporter     Exporter
	notifier     Notifier
	passwordCost int
	newUserID    func() string
	now          func() time.Time
	logger       *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithExporter queues every stored registration on e.
func WithExporter(e Exporter) Option { return func(s *Service) { s.exporter = e } }

// WithNotifier notifies n after each tracked registration.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }

// WithPasswordCost sets the bcrypt cost of stored password hashes.
func WithPasswordCost(cost int) Option { return func(s *Service) { s.passwordCost = cost } }

// NewService creates the workflow over a document store, a tracker and device storage.
func NewService(store docstore.Store, tracker Tracker, deviceStore drafts.Store, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:     store,
		tracker:   tracker,
		drafts:    deviceStore,
		newUserID: func() string { return "user_" + uuid.NewString() },
		now:       time.Now,
		logger:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Submit validates the session form and stores the registration. On error the
// session is back in editing with its form intact and a top-level message.
// Cancelling ctx after validation does not interrupt the submission.
func (s *Service) Submit(ctx context.Context, sess *Session, device string) (*Receipt, error) {
	ev := sess.event
	sess.err = ""
	if ev.Status == events.StatusClosed {
		sess.fail(msgRegistrationShut)
		return nil, ErrClosed
	}
	if !sess.Validate() {
		return nil, ErrValidation
	}
	// Once remote work starts it runs to completion even if the client goes away.
	ctx = context.WithoutCancel(ctx)

	participants := s.participants(sess)

	sess.state = StateCheckingDuplicate
	if err := s.checkDuplicate(ctx, ev, participants); err != nil {
		if errors.Is(err, ErrDuplicate) {
			sess.fail(ev.DuplicateMessage())
		} else {
			s.logger.Error("duplicate check failed", zap.Error(err), zap.String("event", ev.Name))
			sess.fail(validation.StoreErrorMessage(err))
		}
		return nil, err
	}

	sess.state = StateSubmitting
	userID := s.newUserID()
	fields, err := s.record(sess, participants, userID)
	if err != nil {
		sess.fail(validation.GenericErrorMessage)
		return nil, err
	}
	id, err := s.store.Add(ctx, ev.Collection, fields)
	if err != nil {
		s.logger.Error("insert registration failed", zap.Error(err), zap.String("event", ev.Name))
		sess.fail(validation.StoreErrorMessage(err))
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	sess.state = StateTracking
	s.track(ctx, ev, participants[0].College)
	s.export(ctx, ev, sess.teamType, id, userID, participants)

	sess.state = StatePersisting
	teamType := sess.teamType
	if err := s.persist(ctx, ev, device, teamType, participants); err != nil {
		s.logger.Warn("persist device data failed", zap.Error(err), zap.String("event", ev.Name))
	}

	s.logger.Info("registration stored",
		zap.String("event", ev.Name),
		zap.String("id", id),
		zap.Int("team_size", len(participants)),
	)
	sess.complete()
	r := &Receipt{
		ID:           id,
		UserID:       userID,
		Event:        ev.Name,
		DisplayName:  ev.DisplayName,
		TeamSize:     len(participants),
		ChatGroupURL: ev.ChatGroupURL,
	}
	if ev.Kind == events.KindTeam {
		r.TeamType = teamType
	}
	return r, nil
}

func (s *Service) participants(sess *Session) []models.Participant {
	blocks := activeBlocks(sess.event, sess.teamType)
	out := make([]models.Participant, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, sess.form.block(b).Participant())
	}
	return out
}

// checkDuplicate runs one indexed query per submitted email.
func (s *Service) checkDuplicate(ctx context.Context, ev events.Event, participants []models.Participant) error {
	for _, p := range participants {
		key := strings.ToLower(p.Email)
		filter := docstore.ArrayContains("emails", key)
		if ev.Credentialed() {
			filter = docstore.Where("emailKey", key)
		}
		docs, err := s.store.Query(ctx, ev.Collection, filter)
		if err != nil {
			return fmt.Errorf("query %s: %w", ev.Collection, err)
		}
		if len(docs) > 0 {
			return ErrDuplicate
		}
	}
	return nil
}

func (s *Service) record(sess *Session, participants []models.Participant, userID string) (map[string]interface{}, error) {
	if !sess.event.Credentialed() {
		emails := make([]string, 0, len(participants))
		for _, p := range participants {
			emails = append(emails, strings.ToLower(p.Email))
		}
		fields, err := docstore.ToFields(models.Team{
			TeamType:     sess.teamType,
			Participants: participants,
			TeamSize:     len(participants),
			Emails:       emails,
			UserID:       userID,
		})
		if err != nil {
			return nil, err
		}
		fields["timestamp"] = docstore.ServerTimestamp
		return fields, nil
	}

	hash, err := utils.HashPassword(sess.form.Password, s.passwordCost)
	if err != nil {
		return nil, err
	}
	fields, err := docstore.ToFields(models.CredentialedParticipant{
		Participant:  participants[0],
		EmailKey:     strings.ToLower(participants[0].Email),
		PasswordHash: hash,
		UserID:       userID,
	})
	if err != nil {
		return nil, err
	}
	fields["timestamp"] = docstore.ServerTimestamp
	return fields, nil
}

// track is best-effort: a failure is logged and the registration still succeeds.
func (s *Service) track(ctx context.Context, ev events.Event, college string) {
	if s.tracker == nil {
		return
	}
	if _, err := s.tracker.TrackRegistration(ctx, ev.Name, college); err != nil {
		s.logger.Error("tracking registration failed", zap.Error(err), zap.String("event", ev.Name))
		return
	}
	if s.notifier != nil {
		s.notifier.RegistrationTracked(ctx, ev.Name)
	}
}

func (s *Service) export(ctx context.Context, ev events.Event, teamType models.TeamType, id, userID string, participants []models.Participant) {
	if s.exporter == nil {
		return
	}
	payload := queue.ExportPayload{
		Event:        ev.Name,
		DocumentID:   id,
		UserID:       userID,
		Participants: participants,
		RegisteredAt: s.now().UTC(),
	}
	if ev.Kind == events.KindTeam {
		payload.TeamType = teamType
	}
	if err := s.exporter.EnqueueExport(ctx, payload); err != nil {
		s.logger.Warn("enqueue export failed", zap.Error(err), zap.String("event", ev.Name), zap.String("id", id))
	}
}

// persist mirrors the submitted participants to device storage. Passwords are
// never written.
func (s *Service) persist(ctx context.Context, ev events.Event, device string, teamType models.TeamType, participants []models.Participant) error {
	if device == "" {
		return nil
	}
	p1, err := json.Marshal(participants[0])
	if err != nil {
		return fmt.Errorf("marshal participant: %w", err)
	}
	if err := s.drafts.Set(ctx, device, ev.Participant1Key(), string(p1)); err != nil {
		return err
	}
	if ev.Kind == events.KindTeam {
		if len(participants) > 1 {
			p2, err := json.Marshal(participants[1])
			if err != nil {
				return fmt.Errorf("marshal participant: %w", err)
			}
			if err := s.drafts.Set(ctx, device, ev.Participant2Key(), string(p2)); err != nil {
				return err
			}
		} else if err := s.drafts.Delete(ctx, device, ev.Participant2Key()); err != nil {
			return err
		}
		if err := s.drafts.Set(ctx, device, ev.TeamTypeKey(), string(teamType)); err != nil {
			return err
		}
	}
	return s.drafts.Set(ctx, device, ev.RegisteredKey(), "true")
}

// Load rebuilds the session of a device from its stored values. A device that
// already registered gets the confirmation view.
func (s *Service) Load(ctx context.Context, ev events.Event, device string) (*Session, error) {
	sess := NewSession(ev)
	if device == "" {
		return sess, nil
	}
	p1, err := s.loadParticipant(ctx, device, ev.Participant1Key())
	if err != nil {
		return nil, err
	}
	if p1 != nil {
		sess.form.Participant1 = participantForm(*p1)
	}

	if ev.Kind == events.KindTeam {
		p2, err := s.loadParticipant(ctx, device, ev.Participant2Key())
		if err != nil {
			return nil, err
		}
		if p2 != nil {
			sess.form.Participant2 = participantForm(*p2)
		}
		saved, ok, err := s.drafts.Get(ctx, device, ev.TeamTypeKey())
		if err != nil {
			return nil, fmt.Errorf("load team type: %w", err)
		}
		switch t := models.TeamType(saved); {
		case ok && t.Valid():
			sess.teamType = t
		case p2 != nil:
			sess.teamType = models.TeamDuo
		}
	}

	registered, _, err := s.drafts.Get(ctx, device, ev.RegisteredKey())
	if err != nil {
		return nil, fmt.Errorf("load registered flag: %w", err)
	}
	if registered == "true" {
		sess.state = StateComplete
	}
	return sess, nil
}

func (s *Service) loadParticipant(ctx context.Context, device, key string) (*models.Participant, error) {
	raw, ok, err := s.drafts.Get(ctx, device, key)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok || raw == "" {
		return nil, nil
	}
	var p models.Participant
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		s.logger.Warn("discarding unreadable device data", zap.String("key", key), zap.Error(err))
		return nil, nil
	}
	return &p, nil
}

// RegisterAnother clears the event's device storage and returns a fresh session.
func (s *Service) RegisterAnother(ctx context.Context, ev events.Event, device string) (*Session, error) {
	if device != "" {
		if err := s.drafts.Delete(ctx, device, ev.StorageKeys()...); err != nil {
			return nil, fmt.Errorf("clear device data: %w", err)
		}
	}
	return NewSession(ev), nil
}
