package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/PasswordVault/auth"
	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
	"github.com/Hussein-Mazeh/PasswordVault/krypto"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

// State is the lifecycle state of the vault.
type State int

const (
	// StateUninitialized means no configuration is stored.
	StateUninitialized State = iota
	// StateLocked means the vault is configured and no session is open.
	StateLocked
	// StateUnlocked means a session holds the master password.
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Service drives setup, login, logout and recovery. At most one Session is
// open at a time.
type Service struct {
	config store.ConfigStore
	data   store.DataStore
	log    *zap.Logger
	kdf    string

	mu     sync.Mutex
	active *Session
	// tagged mirrors Configuration.TaggedEnvelopes for the open session.
	tagged atomic.Bool
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. Secrets are never logged.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithKDF selects the key-derivation function for newly sealed envelopes.
func WithKDF(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.kdf = name
		}
	}
}

// New returns a Service backed by the given stores.
func New(config store.ConfigStore, data store.DataStore, opts ...Option) *Service {
	s := &Service{
		config: config,
		data:   data,
		log:    zap.NewNop(),
		kdf:    krypto.KDFPBKDF2,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetupInput is the first-run form.
type SetupInput struct {
	Password string
	Confirm  string
	Question string
	Answer   string
}

// State reports the current lifecycle state.
func (s *Service) State(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return StateUnlocked, nil
	}
	if _, err := s.loadConfiguration(ctx); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return StateUninitialized, nil
		}
		return StateUninitialized, err
	}
	return StateLocked, nil
}

// Setup creates the configuration. Input is validated before anything is
// hashed or written.
func (s *Service) Setup(ctx context.Context, in SetupInput) error {
	if err := auth.ValidateSetup(in.Password, in.Confirm, in.Question, in.Answer); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.loadConfiguration(ctx)
	switch {
	case err == nil:
		return ErrAlreadyConfigured
	case !errors.Is(err, ErrNotConfigured):
		return err
	}

	pwHash, err := krypto.HashSecret(in.Password)
	if err != nil {
		return fmt.Errorf("hash master password: %w", err)
	}
	answerHash, err := krypto.HashSecret(in.Answer)
	if err != nil {
		return fmt.Errorf("hash security answer: %w", err)
	}

	cfg := vault.Configuration{
		MasterPasswordHash: pwHash,
		Security: vault.SecurityBlock{
			Question:   in.Question,
			AnswerHash: answerHash,
		},
		TaggedEnvelopes: true,
	}
	if err := s.config.SaveConfig(ctx, cfg); err != nil {
		s.log.Error("save configuration failed", zap.Error(err))
		return persistErr("save configuration", err)
	}

	s.log.Info("vault configured")
	return nil
}

// Login verifies password and opens the stored vault. No stored vault yields
// an empty one. A successful login closes any previously active session. If
// the stored vault cannot be opened the error is returned and no session is
// opened.
func (s *Service) Login(ctx context.Context, password string) (*Session, error) {
	if err := auth.ValidateLoginPassword(password); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.loadConfiguration(ctx)
	if err != nil {
		return nil, err
	}

	ok, err := krypto.VerifySecret(password, cfg.MasterPasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}
	if !ok {
		s.log.Warn("login rejected")
		return nil, fmt.Errorf("%w: incorrect master password", ErrAuthentication)
	}

	secret := []byte(password)
	records, err := s.openStored(ctx, secret, cfg.TaggedEnvelopes)
	if err != nil {
		krypto.Wipe(secret)
		if errors.Is(err, vault.ErrVaultOpen) {
			s.log.Warn("stored vault could not be opened; staying locked", zap.Error(err))
		}
		return nil, err
	}

	if s.active != nil {
		s.active.destroy()
		s.log.Info("previous session closed")
	}
	sess := &Session{
		svc:     s,
		secret:  memguard.NewEnclave(secret),
		records: records,
	}
	s.active = sess
	s.tagged.Store(cfg.TaggedEnvelopes)

	s.log.Info("vault unlocked", zap.Int("records", len(records)))
	return sess, nil
}

// Logout closes the active session, if any.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.active.destroy()
		s.active = nil
		s.log.Info("vault locked")
	}
}

func (s *Service) release(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.destroy()
	if s.active == sess {
		s.active = nil
		s.log.Info("vault locked")
	}
}

func (s *Service) openStored(ctx context.Context, secret []byte, requireTag bool) ([]vault.Credential, error) {
	env, err := s.data.LoadEnvelope(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return []vault.Credential{}, nil
	case errors.Is(err, store.ErrCorrupt):
		return nil, fmt.Errorf("%w: %w", vault.ErrVaultOpen, err)
	case err != nil:
		return nil, persistErr("load vault", err)
	}
	return vault.Open(env, secret, vault.RequireTag(requireTag))
}

// markTagged records in the configuration that the stored envelope is tagged.
// It runs after a successful save; a failure only delays the upgrade.
func (s *Service) markTagged(ctx context.Context) {
	if s.tagged.Load() {
		return
	}
	cfg, err := s.loadConfiguration(ctx)
	if err != nil {
		s.log.Warn("could not record tagged vault", zap.Error(err))
		return
	}
	cfg.TaggedEnvelopes = true
	if err := s.config.SaveConfig(ctx, cfg); err != nil {
		s.log.Warn("could not record tagged vault", zap.Error(err))
		return
	}
	s.tagged.Store(true)
	s.log.Info("vault upgraded to tagged envelopes")
}

// loadConfiguration maps a missing, undecodable or hash-less configuration to
// ErrNotConfigured.
func (s *Service) loadConfiguration(ctx context.Context) (vault.Configuration, error) {
	cfg, err := s.config.LoadConfig(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return vault.Configuration{}, ErrNotConfigured
	case errors.Is(err, store.ErrCorrupt):
		return vault.Configuration{}, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	case err != nil:
		return vault.Configuration{}, persistErr("load configuration", err)
	}
	if !cfg.Configured() {
		return vault.Configuration{}, ErrNotConfigured
	}
	return cfg, nil
}
