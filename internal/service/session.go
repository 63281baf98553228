package service

import (
	"context"
	"sync"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/PasswordVault/auth"
	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
)

// CredentialInput is the editable part of a credential.
type CredentialInput struct {
	Website  string
	Username string
	Password string
	Notes    *string
}

// Session is an unlocked vault. Every mutation is sealed and saved before the
// in-memory records change, so a failed save leaves the session as it was.
type Session struct {
	svc *Service

	mu      sync.Mutex
	secret  *memguard.Enclave
	records []vault.Credential
	closed  bool
}

// Records returns a copy of all credentials.
func (s *Session) Records() ([]vault.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrLocked
	}
	return vault.CloneAll(s.records), nil
}

// Len returns the number of credentials.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns the credential with the given id.
func (s *Session) Get(id string) (vault.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return vault.Credential{}, ErrLocked
	}
	i := s.indexOf(id)
	if i < 0 {
		return vault.Credential{}, ErrNotFound
	}
	return s.records[i].Clone(), nil
}

// Search returns copies of the credentials matching term. An empty term
// matches everything.
func (s *Session) Search(term string) ([]vault.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrLocked
	}
	return vault.CloneAll(vault.Filter(s.records, term)), nil
}

// Add stores a new credential and returns it with its generated id.
func (s *Session) Add(ctx context.Context, in CredentialInput) (vault.Credential, error) {
	if err := auth.ValidateCredential(in.Website, in.Username, in.Password); err != nil {
		return vault.Credential{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return vault.Credential{}, ErrLocked
	}

	rec := newCredential(vault.NewID(), in)
	next := append(vault.CloneAll(s.records), rec)
	if err := s.commit(ctx, next); err != nil {
		return vault.Credential{}, err
	}
	s.svc.log.Info("credential added", zap.String("id", rec.ID))
	return rec.Clone(), nil
}

// Update replaces the fields of an existing credential. The id is kept.
func (s *Session) Update(ctx context.Context, id string, in CredentialInput) (vault.Credential, error) {
	if err := auth.ValidateCredential(in.Website, in.Username, in.Password); err != nil {
		return vault.Credential{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return vault.Credential{}, ErrLocked
	}

	i := s.indexOf(id)
	if i < 0 {
		return vault.Credential{}, ErrNotFound
	}
	rec := newCredential(id, in)
	next := vault.CloneAll(s.records)
	next[i] = rec
	if err := s.commit(ctx, next); err != nil {
		return vault.Credential{}, err
	}
	s.svc.log.Info("credential updated", zap.String("id", id))
	return rec.Clone(), nil
}

// Delete removes a credential.
func (s *Session) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrLocked
	}

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	next := make([]vault.Credential, 0, len(s.records)-1)
	next = append(next, vault.CloneAll(s.records[:i])...)
	next = append(next, vault.CloneAll(s.records[i+1:])...)
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	s.svc.log.Info("credential deleted", zap.String("id", id))
	return nil
}

// Close locks the vault and drops the held secret.
func (s *Session) Close() {
	s.svc.release(s)
}

// Closed reports whether the session was closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// commit seals next, saves it and only then makes it current. Caller holds s.mu.
func (s *Session) commit(ctx context.Context, next []vault.Credential) error {
	var env vault.Envelope
	err := s.withSecret(func(secret []byte) error {
		var err error
		env, err = vault.Seal(next, secret, vault.WithKDF(s.svc.kdf))
		return err
	})
	if err != nil {
		return err
	}
	if err := s.svc.data.SaveEnvelope(ctx, env); err != nil {
		s.svc.log.Error("save vault failed", zap.Error(err))
		return persistErr("save vault", err)
	}
	s.records = next
	s.svc.markTagged(ctx)
	return nil
}

func (s *Session) withSecret(fn func([]byte) error) error {
	if s.secret == nil {
		return ErrLocked
	}
	buf, err := s.secret.Open()
	if err != nil {
		return err
	}
	defer buf.Destroy()
	return fn(buf.Bytes())
}

func (s *Session) indexOf(id string) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Session) destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.secret = nil
	s.records = nil
}

func newCredential(id string, in CredentialInput) vault.Credential {
	rec := vault.Credential{
		ID:       id,
		Website:  in.Website,
		Username: in.Username,
		Password: in.Password,
	}
	if in.Notes != nil {
		n := *in.Notes
		rec.Notes = &n
	}
	return rec
}
