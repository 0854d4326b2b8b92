package marketplace

import (
	"errors"
	"time"
)

// Outcome classifies how a marketplace call went. The client never surfaces
// transport failures as fatal errors; callers branch on the outcome instead.
type Outcome string

const (
	// OutcomeOK means the upstream answered and the payload was usable.
	OutcomeOK Outcome = "ok"
	// OutcomeDegraded means the upstream could not be reached or answered
	// with an error; raw status and body are preserved for diagnostics.
	OutcomeDegraded Outcome = "degraded"
	// OutcomeFallback means the fixed demo listing set was served instead
	// of live data.
	OutcomeFallback Outcome = "fallback"
	// OutcomeMissingCredential means no API key is stored for the owner.
	OutcomeMissingCredential Outcome = "missing_credential"
)

// Listing is one catalog card as the marketplace reports it.
type Listing struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Brand string `json:"brand,omitempty"`
}

// ProbeResult reports a connectivity check. StatusCode and Body carry the
// raw upstream answer when one was received.
type ProbeResult struct {
	Outcome    Outcome `json:"outcome"`
	StatusCode int     `json:"status_code,omitempty"`
	Body       string  `json:"body,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// OK reports whether the upstream answered 200.
func (r ProbeResult) OK() bool {
	return r.Outcome == OutcomeOK
}

// ListingResult carries listings plus how they were obtained.
type ListingResult struct {
	Outcome  Outcome   `json:"outcome"`
	Listings []Listing `json:"listings"`
	Cached   bool      `json:"cached"`
}

// Credential is a stored marketplace API key for one owner. The key is
// encrypted at rest; APIKey is only populated after decryption.
type Credential struct {
	OwnerID   int64     `json:"owner_id"`
	APIKey    string    `json:"-"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaveCredentialRequest is the payload to store or replace an API key.
type SaveCredentialRequest struct {
	OwnerID int64  `json:"owner_id" validate:"required,gt=0"`
	APIKey  string `json:"api_key" validate:"required,min=10"`
}

// ErrValidation indicates malformed input.
var ErrValidation = errors.New("marketplace: invalid input")

// ErrNoCredential indicates the owner has no stored API key.
var ErrNoCredential = errors.New("no marketplace credential stored")
