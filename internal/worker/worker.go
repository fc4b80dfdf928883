package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opensys-cosc/symposium/pkg/queue"
)

// Header is the first row of every export sheet, written when the sheet is created.
var Header = []interface{}{
	"registered_at", "document_id", "user_id", "team_type", "member",
	"name", "email", "college", "branch", "phone", "roll_number", "year",
}

// RowAppender appends rows to a named sheet.
type RowAppender interface {
	EnsureSheet(ctx context.Context, sheet string, header []interface{}) error
	AppendRows(ctx context.Context, sheet string, rows [][]interface{}) error
}

// JobQueue is the part of queue.Queue the worker consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// ExportProcessor appends exported registrations to the sheet of their event.
type ExportProcessor struct {
	sheets      RowAppender
	queue       JobQueue
	pollTimeout time.Duration
	backoff     time.Duration
	logger      *zap.Logger

	mu    sync.Mutex
	ready map[string]bool
}

// NewExportProcessor creates a registration export processor.
func NewExportProcessor(sheets RowAppender, q JobQueue, logger *zap.Logger) *ExportProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportProcessor{
		sheets:      sheets,
		queue:       q,
		pollTimeout: 5 * time.Second,
		backoff:     queue.RetryBackoff,
		logger:      logger,
		ready:       make(map[string]bool),
	}
}

// Rows converts a payload into one sheet row per participant.
func Rows(p queue.ExportPayload) [][]interface{} {
	rows := make([][]interface{}, 0, len(p.Participants))
	for i, pt := range p.Participants {
		rows = append(rows, []interface{}{
			p.RegisteredAt.UTC().Format(time.RFC3339),
			p.DocumentID,
			p.UserID,
			string(p.TeamType),
			i + 1,
			pt.Name,
			pt.Email,
			pt.College,
			pt.Branch,
			pt.Phone,
			pt.RollNumber,
			pt.Year,
		})
	}
	return rows
}

// Process executes one export job.
func (p *ExportProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeExport {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ExportPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.Event == "" || len(payload.Participants) == 0 {
		return fmt.Errorf("empty export payload for document %q", payload.DocumentID)
	}
	if err := p.ensureSheet(ctx, payload.Event); err != nil {
		return err
	}
	if err := p.sheets.AppendRows(ctx, payload.Event, Rows(payload)); err != nil {
		return err
	}
	p.logger.Info("registration exported",
		zap.String("event", payload.Event),
		zap.String("document_id", payload.DocumentID),
		zap.Int("rows", len(payload.Participants)),
	)
	return nil
}

// ensureSheet creates the event's sheet once per process.
func (p *ExportProcessor) ensureSheet(ctx context.Context, sheet string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ready[sheet] {
		return nil
	}
	if err := p.sheets.EnsureSheet(ctx, sheet, Header); err != nil {
		return err
	}
	p.ready[sheet] = true
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *ExportProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("export worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *ExportProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
