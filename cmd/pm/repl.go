package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Hussein-Mazeh/PasswordVault/internal/service"
	"github.com/Hussein-Mazeh/PasswordVault/internal/vault"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

func newSessionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "session",
		Short: "Unlock the vault and manage credentials interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}

			pw, err := a.prompt.secret("Master password: ")
			if err != nil {
				return fmt.Errorf("read master password: %w", err)
			}
			sess, err := svc.Login(ctx, pw)
			if err != nil {
				return err
			}
			defer sess.Close()

			fmt.Fprintf(a.out, "%s Unlocked (%s); type 'help' for commands\n",
				color.GreenString("✓"), plural(sess.Len(), "credential"))
			return a.sessionLoop(ctx, sess)
		},
	}
}

type replCmd struct {
	usage string
	help  string
	run   func(ctx context.Context, sess *service.Session, args []string) error
}

func (a *app) replCommands() map[string]replCmd {
	return map[string]replCmd{
		"list":     {"list", "list all credentials", a.replList},
		"search":   {"search <term>", "find credentials by website, username or notes", a.replSearch},
		"show":     {"show <id> [--reveal]", "show one credential", a.replShow},
		"add":      {"add --website <site> --user <name> [--notes <text>] [--generate]", "add a credential", a.replAdd},
		"edit":     {"edit <id> [--website <site>] [--user <name>] [--notes <text>] [--clear-notes] [--password] [--generate]", "change a credential", a.replEdit},
		"delete":   {"delete <id> [--yes]", "delete a credential", a.replDelete},
		"copy":     {"copy <id>", "copy a password to the clipboard", a.replCopy},
		"generate": {"generate [--length n] [--no-upper] [--no-lower] [--no-digits] [--no-symbols]", "print a random password", a.replGenerate},
		"export":   {"export --out <file>", "write the encrypted vault to a file", a.replExport},
		"import":   {"import --in <file>", "replace the vault with an exported file", a.replImport},
	}
}

var replOrder = []string{"list", "search", "show", "add", "edit", "delete", "copy", "generate", "export", "import"}

func (a *app) sessionLoop(ctx context.Context, sess *service.Session) error {
	cmds := a.replCommands()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := a.prompt.line("pm> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		fields, err := splitLine(line)
		if err != nil {
			a.handleSessionError(err)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]

		switch name {
		case "help":
			a.printSessionHelp(cmds)
			continue
		case "exit", "quit":
			return nil
		}

		c, ok := cmds[name]
		if !ok {
			fmt.Fprintln(a.errOut, "unknown command; type 'help' for commands")
			continue
		}
		if err := c.run(ctx, sess, args); err != nil {
			a.handleSessionError(err)
		}
	}
}

// splitLine tokenizes a REPL line with shell quoting, so values may contain
// spaces. Environment and backtick expansion stay off.
func splitLine(line string) ([]string, error) {
	fields, err := shellwords.Parse(line)
	if err != nil {
		return nil, userError{msg: "could not parse line: check quotes"}
	}
	return fields, nil
}

func (a *app) handleSessionError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(explain(err), &uerr) {
		fmt.Fprintln(a.errOut, uerr.Error())
		return
	}

	fmt.Fprintf(a.errOut, "error: %v\n", err)
}

func (a *app) printSessionHelp(cmds map[string]replCmd) {
	fmt.Fprintln(a.out, "Commands:")
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, name := range replOrder {
		c := cmds[name]
		fmt.Fprintf(tw, "  %s\t%s\n", c.usage, c.help)
	}
	fmt.Fprintf(tw, "  %s\t%s\n", "exit | quit", "lock the vault and leave")
	_ = tw.Flush()
	fmt.Fprintln(a.out, "An <id> may be shortened to any unique prefix.")
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func (a *app) printRecords(records []vault.Credential) {
	if len(records) == 0 {
		fmt.Fprintln(a.out, color.YellowString("no credentials"))
		return
	}
	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWEBSITE\tUSERNAME\tNOTES")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", shortID(r.ID), r.Website, r.Username, oneLine(r.NotesText()))
	}
	_ = tw.Flush()
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) > 40 {
		return string([]rune(s)[:37]) + "..."
	}
	return s
}

func (a *app) replList(_ context.Context, sess *service.Session, args []string) error {
	if len(args) != 0 {
		return userError{msg: "list takes no arguments"}
	}
	records, err := sess.Records()
	if err != nil {
		return err
	}
	a.printRecords(records)
	return nil
}

func (a *app) replSearch(_ context.Context, sess *service.Session, args []string) error {
	if len(args) == 0 {
		return userError{msg: "search requires a term"}
	}
	records, err := sess.Search(strings.Join(args, " "))
	if err != nil {
		return err
	}
	a.printRecords(records)
	return nil
}

// resolveID accepts a full id or a unique prefix of one.
func resolveID(sess *service.Session, prefix string) (string, error) {
	records, err := sess.Records()
	if err != nil {
		return "", err
	}
	match := ""
	for _, r := range records {
		if r.ID == prefix {
			return r.ID, nil
		}
		if strings.HasPrefix(r.ID, prefix) {
			if match != "" {
				return "", userError{msg: fmt.Sprintf("id prefix %q is ambiguous", prefix)}
			}
			match = r.ID
		}
	}
	if match == "" {
		return "", service.ErrNotFound
	}
	return match, nil
}

func idArg(fs *pflag.FlagSet, cmd string) (string, error) {
	if fs.NArg() != 1 {
		return "", userError{msg: cmd + " requires exactly one <id>"}
	}
	return fs.Arg(0), nil
}

func (a *app) replShow(_ context.Context, sess *service.Session, args []string) error {
	fs := newFlagSet("show")
	reveal := fs.Bool("reveal", false, "print the password")
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid show arguments"}
	}
	prefix, err := idArg(fs, "show")
	if err != nil {
		return err
	}
	id, err := resolveID(sess, prefix)
	if err != nil {
		return err
	}
	r, err := sess.Get(id)
	if err != nil {
		return err
	}

	password := strings.Repeat("*", 8)
	if *reveal {
		password = r.Password
	}
	fmt.Fprintf(a.out, "  %-10s %s\n", "ID:", color.YellowString(r.ID))
	fmt.Fprintf(a.out, "  %-10s %s\n", "Website:", color.GreenString(r.Website))
	fmt.Fprintf(a.out, "  %-10s %s\n", "Username:", r.Username)
	fmt.Fprintf(a.out, "  %-10s %s\n", "Password:", password)
	if r.Notes != nil {
		fmt.Fprintf(a.out, "  %-10s %s\n", "Notes:", *r.Notes)
	}
	return nil
}

// readNewPassword prompts twice, or generates when g is non-nil.
func (a *app) readNewPassword(g *generateFlags) (string, error) {
	if g != nil {
		pw, err := g.generate()
		if err != nil {
			return "", err
		}
		fmt.Fprintf(a.out, "Generated a %d-character password\n", len(pw))
		return pw, nil
	}
	pw, err := a.prompt.secret("Password: ")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	confirm, err := a.prompt.secret("Confirm: ")
	if err != nil {
		return "", fmt.Errorf("read confirmation: %w", err)
	}
	if pw != confirm {
		return "", userError{msg: "passwords do not match"}
	}
	return pw, nil
}

func (a *app) replAdd(ctx context.Context, sess *service.Session, args []string) error {
	fs := newFlagSet("add")
	website := fs.String("website", "", "website")
	user := fs.String("user", "", "username")
	notes := fs.String("notes", "", "notes")
	gen := fs.Bool("generate", false, "generate the password")
	g := addGenerateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid add arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}
	if *website == "" || *user == "" {
		return userError{msg: "add requires --website and --user"}
	}

	if !*gen {
		g = nil
	}
	pw, err := a.readNewPassword(g)
	if err != nil {
		return err
	}

	in := service.CredentialInput{Website: *website, Username: *user, Password: pw}
	if fs.Changed("notes") {
		in.Notes = notes
	}
	r, err := sess.Add(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Stored %s/%s (id %s)\n", color.GreenString("✓"), r.Website, r.Username, shortID(r.ID))
	return nil
}

func (a *app) replEdit(ctx context.Context, sess *service.Session, args []string) error {
	fs := newFlagSet("edit")
	website := fs.String("website", "", "new website")
	user := fs.String("user", "", "new username")
	notes := fs.String("notes", "", "new notes")
	clearNotes := fs.Bool("clear-notes", false, "remove the notes")
	newPw := fs.Bool("password", false, "prompt for a new password")
	gen := fs.Bool("generate", false, "generate a new password")
	g := addGenerateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid edit arguments"}
	}
	prefix, err := idArg(fs, "edit")
	if err != nil {
		return err
	}
	if fs.Changed("notes") && *clearNotes {
		return userError{msg: "--notes and --clear-notes cannot be combined"}
	}

	id, err := resolveID(sess, prefix)
	if err != nil {
		return err
	}
	cur, err := sess.Get(id)
	if err != nil {
		return err
	}

	in := service.CredentialInput{
		Website:  cur.Website,
		Username: cur.Username,
		Password: cur.Password,
		Notes:    cur.Notes,
	}
	if fs.Changed("website") {
		in.Website = *website
	}
	if fs.Changed("user") {
		in.Username = *user
	}
	switch {
	case fs.Changed("notes"):
		in.Notes = notes
	case *clearNotes:
		in.Notes = nil
	}
	if *gen || *newPw {
		if !*gen {
			g = nil
		}
		if in.Password, err = a.readNewPassword(g); err != nil {
			return err
		}
	}

	r, err := sess.Update(ctx, id, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Updated %s/%s\n", color.GreenString("✓"), r.Website, r.Username)
	return nil
}

func (a *app) replDelete(ctx context.Context, sess *service.Session, args []string) error {
	fs := newFlagSet("delete")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid delete arguments"}
	}
	prefix, err := idArg(fs, "delete")
	if err != nil {
		return err
	}
	id, err := resolveID(sess, prefix)
	if err != nil {
		return err
	}
	r, err := sess.Get(id)
	if err != nil {
		return err
	}

	if !*yes {
		ok, err := a.prompt.confirm(fmt.Sprintf("Delete %s/%s?", r.Website, r.Username))
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !ok {
			fmt.Fprintln(a.out, "cancelled")
			return nil
		}
	}
	if err := sess.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Deleted %s/%s\n", color.GreenString("✓"), r.Website, r.Username)
	return nil
}

func (a *app) replCopy(_ context.Context, sess *service.Session, args []string) error {
	fs := newFlagSet("copy")
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid copy arguments"}
	}
	prefix, err := idArg(fs, "copy")
	if err != nil {
		return err
	}
	id, err := resolveID(sess, prefix)
	if err != nil {
		return err
	}
	r, err := sess.Get(id)
	if err != nil {
		return err
	}

	if err := a.clipboard().Copy(r.Password); err != nil {
		return userError{msg: err.Error()}
	}
	if a.cfg.ClipboardClear > 0 {
		fmt.Fprintf(a.out, "%s Password for %s copied; clearing in %s\n", color.GreenString("✓"), r.Website, a.cfg.ClipboardClear)
	} else {
		fmt.Fprintf(a.out, "%s Password for %s copied\n", color.GreenString("✓"), r.Website)
	}
	return nil
}

func (a *app) replGenerate(_ context.Context, _ *service.Session, args []string) error {
	fs := newFlagSet("generate")
	g := addGenerateFlags(fs)
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid generate arguments"}
	}
	if fs.NArg() != 0 {
		return userError{msg: "unexpected positional arguments"}
	}
	pw, err := g.generate()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}

func (a *app) replExport(ctx context.Context, sess *service.Session, args []string) error {
	fs := newFlagSet("export")
	out := fs.StringP("out", "o", "", "destination file")
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid export arguments"}
	}
	if *out == "" || fs.NArg() != 0 {
		return userError{msg: "export requires --out <file>"}
	}

	data, err := sess.Export(ctx)
	if err != nil {
		return err
	}
	if err := store.WriteFileAtomic(*out, data); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.out, "%s Exported encrypted vault to %s\n", color.GreenString("✓"), *out)
	return nil
}

func (a *app) replImport(ctx context.Context, sess *service.Session, args []string) error {
	fs := newFlagSet("import")
	in := fs.StringP("in", "i", "", "exported vault file")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return userError{msg: "invalid import arguments"}
	}
	if *in == "" || fs.NArg() != 0 {
		return userError{msg: "import requires --in <file>"}
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		return userError{msg: fmt.Sprintf("read %s: %v", *in, err)}
	}
	if !*yes && sess.Len() > 0 {
		ok, err := a.prompt.confirm(fmt.Sprintf("Replace %s with the imported vault?", plural(sess.Len(), "credential")))
		if err != nil {
			return fmt.Errorf("read confirmation: %w", err)
		}
		if !ok {
			fmt.Fprintln(a.out, "cancelled")
			return nil
		}
	}

	n, err := sess.Import(ctx, data)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s Imported %s\n", color.GreenString("✓"), plural(n, "credential"))
	return nil
}
