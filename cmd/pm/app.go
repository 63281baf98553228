package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/PasswordVault/internal/clipboard"
	"github.com/Hussein-Mazeh/PasswordVault/internal/config"
	"github.com/Hussein-Mazeh/PasswordVault/internal/logger"
	"github.com/Hussein-Mazeh/PasswordVault/internal/service"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

// app carries the wiring shared by every command. The service and clipboard
// are built lazily so that version and generate work without a vault.
type app struct {
	out    io.Writer
	errOut io.Writer
	prompt *prompter

	flags struct {
		dir      string
		backend  string
		kdf      string
		logLevel string
	}

	cfg     *config.Config
	log     *zap.Logger
	backend store.Backend
	svc     *service.Service
	clip    *clipboard.Clearer
	sink    clipboard.Sink
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{
		out:    out,
		errOut: errOut,
		prompt: newPrompter(in, errOut),
		sink:   clipboard.System{},
		log:    zap.NewNop(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pm",
		Short: "A local, encrypted password vault",
		Long: `pm keeps website credentials in a single encrypted file protected by a
master password.

Settings come from PWVAULT_* environment variables and can be overridden
with the flags below.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.configure(cmd)
		},
	}
	root.SetIn(a.prompt.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.dir, "dir", "", "vault directory (PWVAULT_DIR)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: file or sqlite (PWVAULT_BACKEND)")
	pf.StringVar(&a.flags.kdf, "kdf", "", "key derivation for new envelopes: pbkdf2-sha512 or argon2id (PWVAULT_KDF)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level (PWVAULT_LOG_LEVEL)")

	root.AddCommand(
		newVersionCmd(a),
		newStatusCmd(a),
		newSetupCmd(a),
		newSessionCmd(a),
		newResetCmd(a),
		newGenerateCmd(a),
	)
	return root
}

// configure loads the environment and applies flag overrides.
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return userError{msg: err.Error()}
	}

	flags := cmd.Flags()
	if flags.Changed("dir") {
		cfg.Dir = a.flags.dir
	}
	if flags.Changed("backend") {
		cfg.Backend = a.flags.backend
	}
	if flags.Changed("kdf") {
		cfg.KDF = a.flags.kdf
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.flags.logLevel
	}
	if err := cfg.Resolve(); err != nil {
		return userError{msg: err.Error()}
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return userError{msg: err.Error()}
	}
	a.cfg = cfg
	a.log = log
	return nil
}

// service opens the configured backend on first use.
func (a *app) service(ctx context.Context) (*service.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	backend, err := store.Open(ctx, a.cfg.Backend, a.cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("open %s store in %s: %w", a.cfg.Backend, a.cfg.Dir, err)
	}
	a.log.Debug("store opened", zap.String("backend", a.cfg.Backend), zap.String("dir", a.cfg.Dir))

	a.backend = backend
	a.svc = service.New(backend, backend,
		service.WithLogger(a.log),
		service.WithKDF(a.cfg.KDF),
	)
	return a.svc, nil
}

func (a *app) clipboard() *clipboard.Clearer {
	if a.clip == nil {
		a.clip = clipboard.NewClearer(a.sink, a.cfg.ClipboardClear, a.log)
	}
	return a.clip
}

func (a *app) close() {
	if a.svc != nil {
		a.svc.Logout()
	}
	if a.clip != nil {
		a.clip.Flush()
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.log.Warn("close store", zap.Error(err))
		}
	}
	_ = a.log.Sync()
}

type prompter struct {
	in  *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{in: bufio.NewReader(in), out: out, fd: -1}
	if f, ok := in.(*os.File); ok {
		p.fd = int(f.Fd())
		p.tty = isTerminal(p.fd)
	}
	return p
}
