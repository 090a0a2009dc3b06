package service

import (
	"context"
	"sync"
	"time"

	"github.com/identity-admin-api/internal/config"
	"github.com/identity-admin-api/internal/identity"
	"github.com/identity-admin-api/internal/models"
	"github.com/identity-admin-api/internal/repository"
	"github.com/identity-admin-api/internal/validation"
	"github.com/rs/zerolog"
)

// jobService is the concrete implementation of JobService. It owns one run
// handle per active account; the JobRepository record is the only state
// shared with readers, published step by step through atomic merges.
type jobService struct {
	repos  *repository.Repositories
	client identity.Client
	cfg    *config.Config
	log    zerolog.Logger

	// mu guards the run-handle table and serializes lifecycle transitions
	mu   sync.Mutex
	runs map[string]*runHandle
}

// runHandle holds the controller-private state of one active run: the stop
// flag consulted by the loop and the elapsed-time ticker lifecycle. Created
// on Start, discarded when the loop exits, so repeated start/stop cycles
// never accumulate timers.
type runHandle struct {
	mu         sync.Mutex
	stop       bool
	tickerDone chan struct{}
	elapsed    int
}

func (h *runHandle) requestStop() {
	h.mu.Lock()
	h.stop = true
	h.mu.Unlock()
}

func (h *runHandle) stopRequested() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stop
}

// stopTicker cancels the elapsed-time ticker; safe to call more than once
func (h *runHandle) stopTicker() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tickerDone != nil {
		close(h.tickerDone)
		h.tickerDone = nil
	}
}

// newJobService creates a new JobService
func newJobService(repos *repository.Repositories, client identity.Client, cfg *config.Config, log zerolog.Logger) *jobService {
	return &jobService{
		repos:  repos,
		client: client,
		cfg:    cfg,
		log:    log.With().Str("service", "job").Logger(),
		runs:   make(map[string]*runHandle),
	}
}

// Start validates input and launches the run loop for an account. It is
// rejected while a run is already active; zero valid records is an error
// reported before any state transition.
func (s *jobService) Start(accountID string, req *models.StartImportRequest) error {
	cred, err := s.repos.Account.Credential(accountID)
	if err != nil {
		return err
	}
	if req.DelaySeconds != nil && *req.DelaySeconds < 0 {
		return ErrInvalidDelay
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.repos.Job.Get(accountID)
	if current.Status.Active() {
		return ErrJobActive
	}

	input := req.Users
	if input == "" {
		input = current.Settings.PendingInput
	}
	records := validation.ParseUserList(input)
	if len(records) == 0 {
		return ErrNoValidRecords
	}

	sendInvites := current.Settings.SendInvites
	if req.SendInvites != nil {
		sendInvites = *req.SendInvites
	}
	delay := current.Settings.DelaySeconds
	if req.DelaySeconds != nil {
		delay = *req.DelaySeconds
	}

	// One merge resets results and counters and flips to Running, so
	// readers see the fresh run atomically.
	running := models.JobStatusRunning
	empty := []models.OperationResult{}
	zero := 0
	zeroProgress := 0.0
	noEmail := ""
	s.repos.Job.Merge(accountID, models.JobUpdate{
		Status:           &running,
		PendingInput:     &input,
		SendInvites:      &sendInvites,
		DelaySeconds:     &delay,
		Results:          &empty,
		Progress:         &zeroProgress,
		SuccessCount:     &zero,
		FailCount:        &zero,
		ElapsedSeconds:   &zero,
		Countdown:        &zero,
		NextPendingEmail: &noEmail,
	})

	h := &runHandle{}
	s.runs[accountID] = h
	s.startElapsedTicker(accountID, h)

	s.log.Info().
		Str("account_id", accountID).
		Int("records", len(records)).
		Bool("send_invites", sendInvites).
		Int("delay_seconds", delay).
		Msg("Import run started")

	go s.run(accountID, cred, records, sendInvites, delay, h)

	return nil
}

// run is the sequential per-account loop: stop-check, pause-wait, delay
// countdown, remote call, publish. Results are appended in strict input
// order; remote calls are deliberately serialized to respect pacing.
func (s *jobService) run(accountID string, cred models.Credential, records []models.UserRecord, sendInvites bool, delay int, h *runHandle) {
	total := len(records)
	successful := 0
	failed := 0

	for i, record := range records {
		if h.stopRequested() {
			break
		}

		s.waitWhilePaused(accountID, h)
		if h.stopRequested() {
			break
		}

		if i > 0 && delay > 0 {
			s.countdown(accountID, record.Email, delay)
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Identity.RequestTimeout)
		result := s.client.Submit(ctx, cred, record, sendInvites)
		cancel()

		if result.Status == models.OperationSuccess {
			successful++
		} else {
			failed++
		}
		progress := float64(i+1) / float64(total) * 100

		// Result, counters and progress land in one merge so readers
		// never observe them out of step.
		s.repos.Job.Merge(accountID, models.JobUpdate{
			AppendResult: &result,
			SuccessCount: &successful,
			FailCount:    &failed,
			Progress:     &progress,
		})
	}

	s.finish(accountID, h)
}

// finish stops the ticker, publishes the terminal status and retires the
// run handle.
func (s *jobService) finish(accountID string, h *runHandle) {
	h.stopTicker()

	s.mu.Lock()
	defer s.mu.Unlock()

	final := models.JobStatusCompleted
	if h.stopRequested() {
		final = models.JobStatusStopped
	}
	zero := 0
	noEmail := ""
	rec := s.repos.Job.Merge(accountID, models.JobUpdate{
		Status:           &final,
		Countdown:        &zero,
		NextPendingEmail: &noEmail,
	})

	delete(s.runs, accountID)

	s.log.Info().
		Str("account_id", accountID).
		Str("status", string(final)).
		Int("successful", rec.SuccessCount).
		Int("failed", rec.FailCount).
		Int("elapsed_seconds", rec.ElapsedSeconds).
		Msg("Import run finished")
}

// waitWhilePaused suspends the loop while the job is paused, polling at a
// short fixed interval for resume or stop.
func (s *jobService) waitWhilePaused(accountID string, h *runHandle) {
	for {
		if h.stopRequested() {
			return
		}
		if s.repos.Job.Get(accountID).Status != models.JobStatusPaused {
			return
		}
		time.Sleep(s.cfg.Import.PausePollInterval)
	}
}

// countdown publishes the inter-record delay, decrementing once per tick.
// A countdown runs to completion once started; stop is only observed at the
// next loop check point.
func (s *jobService) countdown(accountID, nextEmail string, seconds int) {
	remaining := seconds
	s.repos.Job.Merge(accountID, models.JobUpdate{
		Countdown:        &remaining,
		NextPendingEmail: &nextEmail,
	})

	ticker := time.NewTicker(s.cfg.Import.TickInterval)
	defer ticker.Stop()

	for remaining > 0 {
		<-ticker.C
		remaining--
		value := remaining
		s.repos.Job.Merge(accountID, models.JobUpdate{Countdown: &value})
	}

	noEmail := ""
	s.repos.Job.Merge(accountID, models.JobUpdate{NextPendingEmail: &noEmail})
}

// startElapsedTicker accrues one elapsed second per tick while the job is
// running. Pause and stop cancel it; resume starts a fresh one.
func (s *jobService) startElapsedTicker(accountID string, h *runHandle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.tickerDone != nil {
		return
	}
	done := make(chan struct{})
	h.tickerDone = done

	go func() {
		ticker := time.NewTicker(s.cfg.Import.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				h.mu.Lock()
				h.elapsed++
				elapsed := h.elapsed
				h.mu.Unlock()
				s.repos.Job.Merge(accountID, models.JobUpdate{ElapsedSeconds: &elapsed})
			}
		}
	}()
}

// Pause suspends a running job. The in-flight remote call, if any, is
// allowed to finish.
func (s *jobService) Pause(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.runs[accountID]
	if h == nil || s.repos.Job.Get(accountID).Status != models.JobStatusRunning {
		return ErrJobNotRunning
	}

	h.stopTicker()
	paused := models.JobStatusPaused
	s.repos.Job.Merge(accountID, models.JobUpdate{Status: &paused})

	s.log.Info().Str("account_id", accountID).Msg("Import run paused")
	return nil
}

// Resume continues a paused job from the next unprocessed record
func (s *jobService) Resume(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.runs[accountID]
	if h == nil || s.repos.Job.Get(accountID).Status != models.JobStatusPaused {
		return ErrJobNotPaused
	}

	running := models.JobStatusRunning
	s.repos.Job.Merge(accountID, models.JobUpdate{Status: &running})
	s.startElapsedTicker(accountID, h)

	s.log.Info().Str("account_id", accountID).Msg("Import run resumed")
	return nil
}

// Stop requests cooperative termination of a running or paused job. The
// loop observes the flag at its next check point and finalizes to Stopped.
func (s *jobService) Stop(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.runs[accountID]
	if h == nil || !s.repos.Job.Get(accountID).Status.Active() {
		return ErrJobNotActive
	}

	h.requestStop()
	h.stopTicker()

	s.log.Info().Str("account_id", accountID).Msg("Import run stop requested")
	return nil
}

// Clear resets the job record to its default Idle state, configuration
// included. Rejected while a run is active.
func (s *jobService) Clear(accountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.repos.Job.Get(accountID).Status.Active() {
		return ErrJobActive
	}

	s.repos.Job.Reset(accountID)
	return nil
}

// UpdateSettings merges configuration fields at any time without touching
// in-progress results or counters.
func (s *jobService) UpdateSettings(accountID string, update *models.SettingsUpdate) error {
	if update.DelaySeconds != nil && *update.DelaySeconds < 0 {
		return ErrInvalidDelay
	}

	s.repos.Job.Merge(accountID, models.JobUpdate{
		PendingInput: update.PendingInput,
		SendInvites:  update.SendInvites,
		DelaySeconds: update.DelaySeconds,
	})
	return nil
}

// Snapshot returns a read-only copy of the account's job record
func (s *jobService) Snapshot(accountID string) models.JobRecord {
	return s.repos.Job.Get(accountID)
}

// Shutdown requests stop on every active run during server shutdown
func (s *jobService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for accountID, h := range s.runs {
		h.requestStop()
		h.stopTicker()
		s.log.Info().Str("account_id", accountID).Msg("Import run stopping for shutdown")
	}
}
