package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/Hussein-Mazeh/PasswordVault/auth"
	"github.com/Hussein-Mazeh/PasswordVault/internal/service"
	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
)

const cliVersion = "0.2.0"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()

	handleError(err)
}

func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(explain(err), &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(2)
}

// explain turns expected service failures into user errors. Anything else is
// returned unchanged and reported as unexpected.
func explain(err error) error {
	var uerr userError
	if errors.As(err, &uerr) {
		return uerr
	}
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		return userError{msg: verr.Msg}
	}

	switch {
	case errors.Is(err, service.ErrNotConfigured):
		return userError{msg: "vault is not configured; run pm setup first"}
	case errors.Is(err, service.ErrAlreadyConfigured):
		return userError{msg: "vault is already configured; use pm reset to change the master password"}
	case errors.Is(err, service.ErrAuthentication):
		return userError{msg: err.Error()}
	case errors.Is(err, vault.ErrVaultOpen):
		return userError{msg: "vault data could not be opened with this master password (wrong password or corrupted data)"}
	case errors.Is(err, service.ErrNotFound):
		return userError{msg: "no such credential"}
	case errors.Is(err, service.ErrNothingToExport):
		return userError{msg: "nothing to export yet; add a credential first"}
	case errors.Is(err, service.ErrLocked), errors.Is(err, service.ErrUnlocked), errors.Is(err, service.ErrRecoveryDone):
		return userError{msg: err.Error()}
	}
	return err
}
