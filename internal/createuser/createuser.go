// Package createuser implements the createuser command, which bootstraps a
// verified account directly in the database.
package createuser

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bbelderbos/codeimages/internal/common"
	"github.com/bbelderbos/codeimages/internal/server/models"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// Creator stores a verified account.
type Creator interface {
	CreateUser(ctx context.Context, username, email, password string) (*models.Account, error)
}

// Options are the parsed command-line arguments.
type Options struct {
	Username string
	Email    string
	Password string
}

// ParseArgs reads -u/-username, -e/-email and the optional -p/-password.
func ParseArgs(args []string, stderr io.Writer) (Options, error) {
	var o Options
	fs := flag.NewFlagSet("createuser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.Username, "u", "", "username")
	fs.StringVar(&o.Username, "username", "", "username")
	fs.StringVar(&o.Email, "e", "", "email")
	fs.StringVar(&o.Email, "email", "", "email")
	fs.StringVar(&o.Password, "p", "", "password (prompted when omitted)")
	fs.StringVar(&o.Password, "password", "", "password (prompted when omitted)")

	if err := fs.Parse(args); err != nil {
		return o, err
	}
	var missing []string
	if o.Username == "" {
		missing = append(missing, "-u")
	}
	if o.Email == "" {
		missing = append(missing, "-e")
	}
	if len(missing) > 0 {
		return o, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return o, nil
}

// promptPassword asks twice on the terminal and checks both entries match.
func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	first, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	fmt.Fprint(w, "Repeat password: ")
	second, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", common.ErrPasswordMismatch
	}
	if len(first) == 0 {
		return "", errors.New("password must not be empty")
	}
	return string(first), nil
}

// Run parses args, creates the account and returns the process exit code.
func Run(ctx context.Context, creator Creator, args []string, stdout, stderr io.Writer) int {
	opts, err := ParseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if opts.Password == "" {
		opts.Password, err = promptPassword(stdout)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
	}

	account, err := creator.CreateUser(ctx, opts.Username, opts.Email, opts.Password)
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		fmt.Fprintf(stdout, "%s already exists\n", opts.Username)
		return 1
	case errors.Is(err, common.ErrDuplicateEmail):
		fmt.Fprintf(stdout, "%s already exists\n", opts.Email)
		return 1
	case err != nil:
		fmt.Fprintln(stderr, err)
		return 1
	}

	fmt.Fprintf(stdout, "created user %s (%s)\n", account.Username, account.ID)
	return 0
}
