package adapter

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"promogen-go/internal/credential"
)

// MemoryStore is an in-process credential store. It backs tests and the
// no-persistence development mode.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]*credential.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]*credential.Credential)}
}

func (m *MemoryStore) ListCredentials(_ context.Context, organizationID, provider string) ([]*credential.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*credential.Credential
	for _, c := range m.creds {
		if c.OrganizationID == organizationID && (provider == "" || c.Provider == provider) {
			cc := *c
			out = append(out, &cc)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, status credential.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[id]
	if !ok {
		return fmt.Errorf("credential %s not found", id)
	}
	c.Status = status
	return nil
}

func (m *MemoryStore) ListAll(_ context.Context) ([]*credential.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*credential.Credential, 0, len(m.creds))
	for _, c := range m.creds {
		cc := *c
		out = append(out, &cc)
	}
	sortByCreation(out)
	return out, nil
}

func (m *MemoryStore) Save(_ context.Context, cred *credential.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc := *cred
	m.creds[cred.ID] = &cc
	return nil
}

func sortByCreation(creds []*credential.Credential) {
	sort.SliceStable(creds, func(i, j int) bool {
		if !creds[i].CreatedAt.Equal(creds[j].CreatedAt) {
			return creds[i].CreatedAt.Before(creds[j].CreatedAt)
		}
		return creds[i].ID < creds[j].ID
	})
}
