package models

// JobStatus represents the lifecycle state of a bulk import job
type JobStatus string

const (
	JobStatusIdle      JobStatus = "idle"
	JobStatusRunning   JobStatus = "running"
	JobStatusPaused    JobStatus = "paused"
	JobStatusStopped   JobStatus = "stopped"
	JobStatusCompleted JobStatus = "completed"
)

// Active reports whether a run loop currently owns the job
func (s JobStatus) Active() bool {
	return s == JobStatusRunning || s == JobStatusPaused
}

// JobSettings is per-job configuration, distinct from process state. It
// survives runs and is only reset by an explicit clear.
type JobSettings struct {
	PendingInput string `json:"pending_input"`
	SendInvites  bool   `json:"send_invites"`
	DelaySeconds int    `json:"delay_seconds"`
}

// JobRecord is the aggregate state of one account's bulk import. Exactly one
// record exists per account, created lazily with Idle status. The job
// controller is the only writer; everyone else reads snapshots.
type JobRecord struct {
	AccountID      string            `json:"account_id"`
	Status         JobStatus         `json:"status"`
	Settings       JobSettings       `json:"settings"`
	Results        []OperationResult `json:"results"`
	Progress       float64           `json:"progress"`
	SuccessCount   int               `json:"success_count"`
	FailCount      int               `json:"fail_count"`
	ElapsedSeconds int               `json:"elapsed_seconds"`

	// Countdown and NextPendingEmail describe an in-progress inter-record
	// delay; both are zero when no delay is active.
	Countdown        int    `json:"countdown"`
	NextPendingEmail string `json:"next_pending_email,omitempty"`
}

// NewJobRecord returns the default Idle record for an account
func NewJobRecord(accountID string) JobRecord {
	return JobRecord{
		AccountID: accountID,
		Status:    JobStatusIdle,
		Results:   []OperationResult{},
	}
}

// JobUpdate is a partial update applied atomically to a JobRecord. Nil fields
// are left unchanged, so one Merge call publishes one consistent step.
type JobUpdate struct {
	Status           *JobStatus
	PendingInput     *string
	SendInvites      *bool
	DelaySeconds     *int
	Results          *[]OperationResult
	AppendResult     *OperationResult
	Progress         *float64
	SuccessCount     *int
	FailCount        *int
	ElapsedSeconds   *int
	Countdown        *int
	NextPendingEmail *string
}

// StartImportRequest is the payload for starting a bulk import run
type StartImportRequest struct {
	Users        string `json:"users"`
	SendInvites  *bool  `json:"send_invites,omitempty"`
	DelaySeconds *int   `json:"delay_seconds,omitempty"`
}

// SettingsUpdate is a partial update of job configuration fields
type SettingsUpdate struct {
	PendingInput *string `json:"pending_input,omitempty"`
	SendInvites  *bool   `json:"send_invites,omitempty"`
	DelaySeconds *int    `json:"delay_seconds,omitempty"`
}
