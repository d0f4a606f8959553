package credential

import (
	"context"
	"time"
)

// Status tracks the lifecycle of a stored credential. Transitions are
// driven by call outcomes; credentials are never hard-deleted while
// referenced by history.
type Status string

const (
	StatusValid       Status = "valid"
	StatusUnchecked   Status = "unchecked"
	StatusRateLimited Status = "rate_limited"
	StatusRevoked     Status = "revoked"
)

// Credential is a stored secret plus metadata authorizing provider calls
// on behalf of an organization. SecretRef points at the encrypted secret;
// the plaintext is only materialized per attempt via a Decrypter.
type Credential struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Provider       string    `json:"provider"`
	SecretRef      string    `json:"secret_ref"`
	IsDefault      bool      `json:"is_default"`
	Status         Status    `json:"status"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Eligible reports whether the credential may appear in an attempt
// sequence. Revoked or inactive credentials are never attempted;
// rate-limited ones remain eligible and are simply ordered by the pool.
func (c *Credential) Eligible() bool {
	if c == nil || !c.IsActive {
		return false
	}
	switch c.Status {
	case StatusValid, StatusUnchecked, StatusRateLimited:
		return true
	}
	return false
}

// Store is the persisted credential table, owned by the credential
// management surface. The execution engine reads it and performs exactly
// one kind of write: marking transient failure.
type Store interface {
	ListCredentials(ctx context.Context, organizationID, provider string) ([]*Credential, error)
	UpdateStatus(ctx context.Context, id string, status Status) error
}

// AdminStore extends Store with the read/repair operations used by the
// admin surface and the rate-limit recovery loop.
type AdminStore interface {
	Store
	ListAll(ctx context.Context) ([]*Credential, error)
	Save(ctx context.Context, cred *Credential) error
}

// Decrypter resolves a credential's secret reference into the plaintext
// secret used to construct a provider client.
type Decrypter interface {
	Decrypt(ctx context.Context, cred *Credential) (string, error)
}
