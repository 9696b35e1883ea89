// Package audit persists the audit trail asynchronously through a bounded
// worker pool so that request handling never waits on the audit table.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joaobarbosa/cinema-api/models"
	"github.com/joaobarbosa/cinema-api/repositories"
	"github.com/joaobarbosa/cinema-api/services"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned when events are submitted before Start or after Stop
	ErrNotStarted = errors.New("audit service not running")

	// ErrBufferFull is returned when the event buffer cannot take another entry
	ErrBufferFull = errors.New("audit event buffer full")
)

const insertTimeout = 5 * time.Second

// Entry describes one audited action. UserID defaults to the caller recorded
// in the request metadata.
type Entry struct {
	Action       models.AuditAction
	ResourceType string
	ResourceID   *uuid.UUID
	UserID       *uuid.UUID
	Details      interface{}
}

// Recorder is what other services depend on to audit their operations
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

// AuditService handles asynchronous audit logging
type AuditService struct {
	auditRepo   repositories.AuditRepository
	logger      *zap.Logger
	eventChan   chan *models.AuditLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	mu          sync.RWMutex
	started     bool
	stopped     bool
}

// Config holds configuration for the AuditService
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  256,
		WorkerCount: 2,
	}
}

// NewAuditService creates a new AuditService instance
func NewAuditService(auditRepo repositories.AuditRepository, logger *zap.Logger, config Config) *AuditService {
	if config.WorkerCount < 1 {
		config.WorkerCount = 1
	}
	if config.BufferSize < 0 {
		config.BufferSize = 0
	}
	return &AuditService{
		auditRepo:   auditRepo,
		logger:      logger,
		eventChan:   make(chan *models.AuditLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
	}
}

// Start starts the background workers
func (s *AuditService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("audit service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started audit service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop stops accepting events and waits for queued ones to be written
func (s *AuditService) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return ErrNotStarted
	}
	s.stopped = true
	pending := len(s.eventChan)
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping audit service", zap.Int("pending_events", pending))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("audit service stopped gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("audit service stop timeout after %v", timeout)
	}
}

// LogEvent queues an entry without blocking; a full buffer drops it
func (s *AuditService) LogEvent(log *models.AuditLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running() {
		return ErrNotStarted
	}

	select {
	case s.eventChan <- log:
		return nil
	default:
		s.logger.Warn("audit event channel full, dropping event",
			zap.String("action", string(log.Action)),
			zap.String("resource_type", log.ResourceType))
		return ErrBufferFull
	}
}

// LogEventBlocking waits until the entry is queued or ctx is done
func (s *AuditService) LogEventBlocking(ctx context.Context, log *models.AuditLog) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.running() {
		return ErrNotStarted
	}

	select {
	case s.eventChan <- log:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Record builds an audit log from entry plus the request metadata on ctx and
// queues it. Failures are logged, never returned: auditing must not fail the
// operation being audited.
func (s *AuditService) Record(ctx context.Context, entry Entry) {
	log := models.NewAuditLog(entry.Action, entry.ResourceType)
	meta, hasMeta := RequestMetaFromContext(ctx)
	switch {
	case entry.UserID != nil:
		log.WithUser(*entry.UserID)
	case hasMeta && meta.UserID != nil:
		log.WithUser(*meta.UserID)
	}
	if entry.ResourceID != nil {
		log.WithResource(*entry.ResourceID)
	}
	if entry.Details != nil {
		log.WithDetails(entry.Details)
	}
	if hasMeta {
		log.WithRequest(meta.RequestID, meta.IPAddress, meta.UserAgent)
	}

	if err := s.LogEvent(log); err != nil && !errors.Is(err, ErrBufferFull) {
		s.logger.Warn("audit event not recorded",
			zap.String("action", string(entry.Action)),
			zap.Error(err))
	}
}

// List returns audit logs matching filter
func (s *AuditService) List(ctx context.Context, filter repositories.AuditFilter) ([]*models.AuditLog, error) {
	logs, err := s.auditRepo.List(ctx, filter)
	if err != nil {
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return logs, nil
}

// Get returns one audit log
func (s *AuditService) Get(ctx context.Context, id uuid.UUID) (*models.AuditLog, error) {
	log, err := s.auditRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, services.ErrAuditLogNotFound.WithDetail("id", id.String())
		}
		return nil, services.ErrDatabaseError.Wrap(err)
	}
	return log, nil
}

func (s *AuditService) running() bool {
	return s.started && !s.stopped
}

// worker processes events from the channel
func (s *AuditService) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("audit worker started", zap.Int("worker_id", id))

	for log := range s.eventChan {
		if err := s.processEvent(log); err != nil {
			s.logger.Error("failed to process audit event",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("action", string(log.Action)))
		}
	}

	s.logger.Debug("audit worker stopped", zap.Int("worker_id", id))
}

// processEvent writes a single audit entry
func (s *AuditService) processEvent(log *models.AuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	if err := s.auditRepo.Insert(ctx, log); err != nil {
		return fmt.Errorf("failed to insert audit log: %w", err)
	}

	return nil
}

// GetStats returns statistics about the audit service
func (s *AuditService) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.running(),
	}
}

// Stats represents audit service statistics
type Stats struct {
	BufferSize    int
	PendingEvents int
	WorkerCount   int
	Started       bool
}

type nop struct{}

func (nop) Record(context.Context, Entry) {}

// Nop is a Recorder that discards every entry
var Nop Recorder = nop{}
