package models

// UserRecord is one user entry to be created or invited on the identity
// provider. Records are parsed from delimited text input and immutable
// after parsing.
type UserRecord struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password,omitempty"`
}

// OperationStatus is the outcome of a single remote operation
type OperationStatus string

const (
	OperationSuccess OperationStatus = "success"
	OperationFailure OperationStatus = "failure"
)

// OperationResult records the outcome of one remote call for one UserRecord.
// Results are appended to a job's result log in processing order and never
// mutated after creation.
type OperationResult struct {
	Email      string          `json:"email"`
	Status     OperationStatus `json:"status"`
	Message    string          `json:"message"`
	ExternalID string          `json:"external_id,omitempty"`
}
