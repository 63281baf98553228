package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hussein-Mazeh/PasswordVault/auth"
	"github.com/Hussein-Mazeh/PasswordVault/internal/service"
)

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(a.out, cliVersion)
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the vault lives and whether it is configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			state, err := svc.State(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "  %-10s %s\n", "Directory:", a.cfg.Dir)
			fmt.Fprintf(a.out, "  %-10s %s\n", "Backend:", a.cfg.Backend)
			fmt.Fprintf(a.out, "  %-10s %s\n", "KDF:", a.cfg.KDF)
			switch state {
			case service.StateUninitialized:
				fmt.Fprintf(a.out, "  %-10s %s\n", "State:", color.YellowString("not configured"))
				fmt.Fprintln(a.out)
				fmt.Fprintln(a.out, color.CyanString("→")+" Run "+color.YellowString("pm setup")+" to create a vault")
			default:
				fmt.Fprintf(a.out, "  %-10s %s\n", "State:", color.GreenString(state.String()))
			}
			return nil
		},
	}
}

func newSetupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Create the vault: master password and security question",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			state, err := svc.State(ctx)
			if err != nil {
				return err
			}
			if state != service.StateUninitialized {
				return service.ErrAlreadyConfigured
			}

			var in service.SetupInput
			if in.Password, err = a.prompt.secret("Master password: "); err != nil {
				return fmt.Errorf("read master password: %w", err)
			}
			if in.Confirm, err = a.prompt.secret("Confirm master password: "); err != nil {
				return fmt.Errorf("read confirmation password: %w", err)
			}
			if in.Question, err = a.prompt.line("Security question: "); err != nil {
				return fmt.Errorf("read security question: %w", err)
			}
			if in.Answer, err = a.prompt.secret("Security answer: "); err != nil {
				return fmt.Errorf("read security answer: %w", err)
			}

			if err := svc.Setup(ctx, in); err != nil {
				return err
			}
			fmt.Fprintln(a.out, color.GreenString("✓")+" Vault created in "+a.cfg.Dir)
			return nil
		},
	}
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Reset the master password using the security question",
		Long: `Resets the master password after the security question is answered.

The stored credentials are encrypted with the old master password and cannot
be recovered without it, so they are deleted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			question, err := svc.SecurityQuestion(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, "Security question: "+color.CyanString(question))
			answer, err := a.prompt.secret("Answer: ")
			if err != nil {
				return fmt.Errorf("read security answer: %w", err)
			}
			rec, err := svc.BeginRecovery(ctx, answer)
			if err != nil {
				return err
			}

			fmt.Fprintln(a.out, color.YellowString("⚠")+" Resetting deletes every stored credential.")
			newPw, err := a.prompt.secret("New master password: ")
			if err != nil {
				return fmt.Errorf("read new master password: %w", err)
			}
			confirm, err := a.prompt.secret("Confirm new master password: ")
			if err != nil {
				return fmt.Errorf("read confirmation password: %w", err)
			}

			res, err := rec.Complete(ctx, newPw, confirm)
			if err != nil {
				return err
			}
			if res.Warning != nil {
				fmt.Fprintln(a.out, color.YellowString("⚠")+" "+res.Warning.Error())
			}
			fmt.Fprintln(a.out, color.GreenString("✓")+" Master password reset")
			return nil
		},
	}
}

type generateFlags struct {
	length    int
	noUpper   bool
	noLower   bool
	noDigits  bool
	noSymbols bool
}

func addGenerateFlags(fs *pflag.FlagSet) *generateFlags {
	g := &generateFlags{}
	fs.IntVarP(&g.length, "length", "l", auth.DefaultGenerateLength, "password length")
	fs.BoolVar(&g.noUpper, "no-upper", false, "exclude uppercase letters")
	fs.BoolVar(&g.noLower, "no-lower", false, "exclude lowercase letters")
	fs.BoolVar(&g.noDigits, "no-digits", false, "exclude digits")
	fs.BoolVar(&g.noSymbols, "no-symbols", false, "exclude symbols")
	return g
}

func (g *generateFlags) options() auth.GenerateOptions {
	return auth.GenerateOptions{
		Length:  g.length,
		Upper:   !g.noUpper,
		Lower:   !g.noLower,
		Digits:  !g.noDigits,
		Symbols: !g.noSymbols,
	}
}

func (g *generateFlags) generate() (string, error) {
	pw, err := auth.Generate(g.options())
	if err != nil {
		return "", userError{msg: err.Error()}
	}
	return pw, nil
}

func newGenerateCmd(a *app) *cobra.Command {
	var copyIt bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a random password",
		Args:  cobra.NoArgs,
	}
	g := addGenerateFlags(cmd.Flags())
	cmd.Flags().BoolVarP(&copyIt, "copy", "c", false, "copy to the clipboard instead of printing")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		pw, err := g.generate()
		if err != nil {
			return err
		}
		if !copyIt {
			fmt.Fprintln(a.out, pw)
			return nil
		}
		return a.copyAndWait(cmd.Context(), pw)
	}
	return cmd
}

// copyAndWait copies text and, for one-shot commands, blocks until the
// clipboard has been cleared or ctx is cancelled.
func (a *app) copyAndWait(ctx context.Context, text string) error {
	clip := a.clipboard()
	if err := clip.Copy(text); err != nil {
		return userError{msg: err.Error()}
	}
	if a.cfg.ClipboardClear <= 0 {
		fmt.Fprintln(a.out, color.GreenString("✓")+" Copied to clipboard")
		return nil
	}
	fmt.Fprintf(a.out, "%s Copied to clipboard; clearing in %s (Ctrl-C to clear now)\n",
		color.GreenString("✓"), a.cfg.ClipboardClear)
	select {
	case <-ctx.Done():
	case <-time.After(a.cfg.ClipboardClear):
	}
	clip.Flush()
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
