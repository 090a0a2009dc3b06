package models

import (
	"time"
)

// Account is one set of identity-provider credentials the console can act
// under. The API token is persisted in the account store but redacted from
// list responses.
type Account struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Domain    string    `json:"domain"`
	APIToken  string    `json:"api_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Credential is the secret handed to the remote operation client for one
// outbound call.
type Credential struct {
	Domain string
	Token  string
}

// Credential returns the account's credential pair
func (a *Account) Credential() Credential {
	return Credential{Domain: a.Domain, Token: a.APIToken}
}

// Redacted returns a copy safe for list responses
func (a *Account) Redacted() Account {
	out := *a
	out.APIToken = ""
	return out
}
