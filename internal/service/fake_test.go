package service_test

import (
	"context"
	"errors"
	"sync"

	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

var errDisk = errors.New("disk full")

// memStore is an in-memory store.Backend with switchable failures.
type memStore struct {
	mu sync.Mutex

	cfg     *vault.Configuration
	env     *vault.Envelope
	saves   int
	corrupt bool

	failSaveConfig error
	failSaveData   error
	failDelete     error
}

func (m *memStore) LoadConfig(context.Context) (vault.Configuration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.corrupt {
		return vault.Configuration{}, store.ErrCorrupt
	}
	if m.cfg == nil {
		return vault.Configuration{}, store.ErrNotFound
	}
	return *m.cfg, nil
}

func (m *memStore) SaveConfig(_ context.Context, cfg vault.Configuration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveConfig != nil {
		return m.failSaveConfig
	}
	m.cfg = &cfg
	m.corrupt = false
	return nil
}

func (m *memStore) LoadEnvelope(context.Context) (vault.Envelope, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.env == nil {
		return vault.Envelope{}, store.ErrNotFound
	}
	return *m.env, nil
}

func (m *memStore) SaveEnvelope(_ context.Context, env vault.Envelope) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSaveData != nil {
		return m.failSaveData
	}
	m.env = &env
	m.saves++
	return nil
}

func (m *memStore) DeleteEnvelope(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete != nil {
		return m.failDelete
	}
	m.env = nil
	return nil
}

func (m *memStore) Close() error { return nil }

func (m *memStore) config() vault.Configuration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cfg == nil {
		return vault.Configuration{}
	}
	return *m.cfg
}

func (m *memStore) envelope() (vault.Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.env == nil {
		return vault.Envelope{}, false
	}
	return *m.env, true
}

func (m *memStore) setFailSaveData(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSaveData = err
}
