package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/Hussein-Mazeh/lockbox/auth"
	"github.com/Hussein-Mazeh/lockbox/internal/service"
	"github.com/Hussein-Mazeh/lockbox/internal/vault"
)

// secretVault is the part of the vault the interactive shell drives.
type secretVault interface {
	ListSecrets(s *vault.Session) (map[string]string, error)
	UpsertSecret(s *vault.Session, account, secret string) (vault.UpsertResult, error)
	RemoveSecret(s *vault.Session, account string) error
	GenerateSecret(length int) (string, bool, error)
	GeneratorBounds() auth.GeneratorBounds
}

type shell struct {
	in         *prompter
	out        io.Writer
	v          secretVault
	s          *vault.Session
	defaultLen int
}

func sessionLoop(in *prompter, svc *service.Service, s *vault.Session) error {
	sh := &shell{
		in:         in,
		out:        os.Stdout,
		v:          svc,
		s:          s,
		defaultLen: svc.Options().DefaultGenLength,
	}
	return sh.run()
}

func (sh *shell) run() error {
	for {
		line, err := sh.in.line("pm> ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(sh.out)
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "help":
			sh.printHelp()
		case "list", "ls":
			sh.report(sh.list())
		case "add":
			sh.report(sh.add(args))
		case "gen":
			sh.report(sh.gen(args))
		case "rm":
			sh.report(sh.remove(args))
		case "exit", "quit":
			return nil
		default:
			fmt.Fprintf(sh.in.out, "unknown command: %s\n", cmd)
		}
	}
}

func (sh *shell) list() error {
	secrets, err := sh.v.ListSecrets(sh.s)
	if err != nil {
		return err
	}
	accounts, err := sh.s.Accounts()
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		fmt.Fprintln(sh.out, "no secrets stored")
		return nil
	}

	sep := strings.Repeat("-", 32)
	fmt.Fprintln(sh.out, sep)
	for _, account := range accounts {
		fmt.Fprintf(sh.out, "Account: %s\nSecret:  %s\n%s\n", account, secrets[account], sep)
	}
	return nil
}

func (sh *shell) add(args []string) error {
	if len(args) != 1 {
		return userError{msg: "usage: add <account>"}
	}
	account := args[0]

	ok, err := sh.confirmOverwrite(account)
	if err != nil || !ok {
		return err
	}

	secret, err := sh.in.secret("Secret: ")
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}
	confirm, err := sh.in.secret("Confirm: ")
	if err != nil {
		return fmt.Errorf("read confirmation: %w", err)
	}
	if secret != confirm {
		return userError{msg: "secrets do not match"}
	}
	return sh.store(account, secret)
}

func (sh *shell) gen(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return userError{msg: "usage: gen <account> [length]"}
	}
	account := args[0]

	length := sh.defaultLen
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return userError{msg: "length must be a number"}
		}
		length = n
	}

	ok, err := sh.confirmOverwrite(account)
	if err != nil || !ok {
		return err
	}

	secret, capped, err := sh.v.GenerateSecret(length)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	if capped {
		fmt.Fprintf(sh.in.out, "length capped to %d\n", sh.v.GeneratorBounds().Max)
	}
	if err := sh.store(account, secret); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "generated secret: %s\n", secret)
	return nil
}

func (sh *shell) remove(args []string) error {
	if len(args) != 1 {
		return userError{msg: "usage: rm <account>"}
	}
	if err := sh.v.RemoveSecret(sh.s, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "removed %s\n", args[0])
	return nil
}

func (sh *shell) store(account, secret string) error {
	res, err := sh.v.UpsertSecret(sh.s, account, secret)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s %s\n", res, strings.TrimSpace(account))
	return nil
}

// confirmOverwrite asks before replacing an existing account's secret.
func (sh *shell) confirmOverwrite(account string) (bool, error) {
	secrets, err := sh.v.ListSecrets(sh.s)
	if err != nil {
		return false, err
	}
	if _, ok := secrets[strings.TrimSpace(account)]; !ok {
		return true, nil
	}
	return sh.in.confirm(fmt.Sprintf("%s already exists. Replace its secret?", account))
}

// report prints a command failure and keeps the shell running.
func (sh *shell) report(err error) {
	if err == nil {
		return
	}

	var uerr userError
	switch {
	case errors.As(err, &uerr):
		fmt.Fprintln(sh.in.out, uerr.Error())
	case errors.Is(err, vault.ErrAccountNotFound),
		errors.Is(err, vault.ErrInvalidAccount),
		errors.Is(err, auth.ErrTooShort),
		errors.Is(err, auth.ErrMissingSymbol),
		errors.Is(err, auth.ErrInvalidCharacter):
		fmt.Fprintln(sh.in.out, err.Error())
	default:
		fmt.Fprintf(sh.in.out, "error: %v\n", err)
	}
}

func (sh *shell) printHelp() {
	fmt.Fprintln(sh.out, "Commands:")
	fmt.Fprintln(sh.out, "  list                    show stored accounts and secrets")
	fmt.Fprintln(sh.out, "  add <account>           store a secret typed at the prompt")
	fmt.Fprintln(sh.out, "  gen <account> [length]  store a generated secret")
	fmt.Fprintln(sh.out, "  rm <account>            delete an account")
	fmt.Fprintln(sh.out, "  exit | quit             lock the vault and leave")
}
