package credential

import (
	"context"
	"sort"

	apperrors "promogen-go/internal/errors"
)

// Order filters credentials down to eligible ones and sorts them into a
// deterministic attempt sequence: the default-flagged credential first,
// ties broken by creation order. The sort is stable so equal keys keep
// their original relative order.
func Order(creds []*Credential) []*Credential {
	seq := make([]*Credential, 0, len(creds))
	for _, c := range creds {
		if c.Eligible() {
			seq = append(seq, c)
		}
	}
	sort.SliceStable(seq, func(i, j int) bool {
		if seq[i].IsDefault != seq[j].IsDefault {
			return seq[i].IsDefault
		}
		return seq[i].CreatedAt.Before(seq[j].CreatedAt)
	})
	return seq
}

// Source produces a request-scoped attempt sequence for an organization.
type Source interface {
	Sequence(ctx context.Context, organizationID string) ([]*Credential, error)
}

// Pool orders an organization's stored credentials into an attempt
// sequence. An empty sequence is reported as NoEligibleCredentialError so
// callers can distinguish configuration errors from execution failures.
type Pool struct {
	store    Store
	provider string
}

func NewPool(store Store, provider string) *Pool {
	return &Pool{store: store, provider: provider}
}

func (p *Pool) Sequence(ctx context.Context, organizationID string) ([]*Credential, error) {
	creds, err := p.store.ListCredentials(ctx, organizationID, p.provider)
	if err != nil {
		return nil, err
	}
	seq := Order(creds)
	if len(seq) == 0 {
		return nil, &apperrors.NoEligibleCredentialError{OrganizationID: organizationID, Provider: p.provider}
	}
	return seq, nil
}

// StaticSource serves a fixed, operator-held credential. It backs the
// direct fallback path, where no per-organization pool exists.
type StaticSource struct {
	Cred *Credential
}

func (s *StaticSource) Sequence(ctx context.Context, organizationID string) ([]*Credential, error) {
	if s.Cred == nil || !s.Cred.Eligible() {
		return nil, &apperrors.NoEligibleCredentialError{OrganizationID: organizationID, Provider: "direct"}
	}
	return []*Credential{s.Cred}, nil
}
