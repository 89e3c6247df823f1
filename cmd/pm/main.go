package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/lockbox/internal/config"
	"github.com/Hussein-Mazeh/lockbox/internal/logger"
	"github.com/Hussein-Mazeh/lockbox/internal/service"
	"github.com/Hussein-Mazeh/lockbox/internal/vault"
)

const cliVersion = "0.2.0"

type userError struct {
	msg string
}

func (e userError) Error() string { return e.msg }

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	in := newPrompter(os.Stdin, os.Stderr)

	var err error
	switch os.Args[1] {
	case "version":
		fmt.Println(cliVersion)
	case "register":
		err = runRegister(in, os.Args[2:])
	case "session":
		err = runSession(in, os.Args[2:])
	case "generate":
		err = runGenerate(os.Args[2:])
	case "vaults":
		err = runVaults(os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}
	handleError(err)
}

func handleError(err error) {
	if err == nil {
		return
	}

	var uerr userError
	if errors.As(err, &uerr) {
		fmt.Fprintln(os.Stderr, uerr.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "unexpected error: %v\n", err)
	os.Exit(2)
}

// command holds what every subcommand needs after flag parsing.
type command struct {
	svc  *service.Service
	log  *zap.Logger
	user string
	args []string
}

func (c *command) close() {
	_ = c.svc.Close()
	_ = c.log.Sync()
}

func openCommand(name string, args []string, needUser bool) (*command, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	config.RegisterFlags(fs)

	var user string
	if needUser {
		fs.StringVar(&user, "user", "", "vault username")
	}

	if err := fs.Parse(args); err != nil {
		return nil, userError{msg: "invalid arguments"}
	}
	if needUser && user == "" {
		return nil, userError{msg: "missing required flag: --user"}
	}
	if needUser {
		if err := vault.ValidateUsername(user); err != nil {
			return nil, userError{msg: err.Error()}
		}
	}

	opts, err := config.Load(fs)
	if err != nil {
		return nil, userError{msg: fmt.Sprintf("configuration: %v", err)}
	}

	log, err := logger.New(opts.LogLevel, os.Stderr)
	if err != nil {
		return nil, userError{msg: err.Error()}
	}

	svc, err := service.New(opts, log)
	if err != nil {
		return nil, fmt.Errorf("open vault service: %w", err)
	}
	return &command{svc: svc, log: log, user: user, args: fs.Args()}, nil
}

func runRegister(in *prompter, args []string) error {
	cmd, err := openCommand("register", args, true)
	if err != nil {
		return err
	}
	defer cmd.close()

	if len(cmd.args) != 0 {
		return userError{msg: "unexpected positional arguments"}
	}
	return register(in, cmd.svc, cmd.user)
}

// register prompts for a new master credential and creates the vault.
func register(in *prompter, svc *service.Service, user string) error {
	exists, err := svc.Exists(user)
	if err != nil {
		return fmt.Errorf("check vault: %w", err)
	}
	if exists {
		return userError{msg: fmt.Sprintf("a vault for %s already exists", user)}
	}

	pw, err := in.secret("Create a master password: ")
	if err != nil {
		return fmt.Errorf("read master password: %w", err)
	}
	confirm, err := in.secret("Confirm the master password: ")
	if err != nil {
		return fmt.Errorf("read confirmation password: %w", err)
	}
	if pw != confirm {
		return userError{msg: "passwords do not match"}
	}

	switch err := svc.Create(user, pw); {
	case errors.Is(err, vault.ErrAlreadyExists):
		return userError{msg: fmt.Sprintf("a vault for %s already exists", user)}
	case errors.Is(err, vault.ErrInvalidCredential):
		return userError{msg: "master password cannot be empty"}
	case err != nil:
		return fmt.Errorf("create vault: %w", err)
	}

	fmt.Fprintf(os.Stderr, "vault created for %s\n", user)
	return nil
}

func runSession(in *prompter, args []string) error {
	cmd, err := openCommand("session", args, true)
	if err != nil {
		return err
	}
	defer cmd.close()

	if len(cmd.args) != 0 {
		return userError{msg: "unexpected positional arguments"}
	}

	s, err := unlock(in, cmd.svc, cmd.user)
	if err != nil || s == nil {
		return err
	}
	defer s.Lock()

	fmt.Fprintln(os.Stderr, "session unlocked; type 'help' for commands")
	return sessionLoop(in, cmd.svc, s)
}

// unlock applies the attempt limit around Authenticate. After the last failed
// attempt the user may register a vault under another name instead.
func unlock(in *prompter, svc *service.Service, user string) (*vault.Session, error) {
	maxAttempts := svc.Options().MaxAttempts

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		pw, err := in.secret("Enter master password: ")
		if err != nil {
			return nil, fmt.Errorf("read master password: %w", err)
		}

		s, err := svc.Authenticate(user, pw)
		switch {
		case err == nil:
			return s, nil
		case errors.Is(err, vault.ErrVaultNotFound):
			ok, err := in.confirm(fmt.Sprintf("No vault found for %s. Register it now?", user))
			if err != nil || !ok {
				return nil, err
			}
			if err := register(in, svc, user); err != nil {
				return nil, err
			}
			attempt = 0
		case errors.Is(err, vault.ErrWrongCredential):
			if left := maxAttempts - attempt; left > 0 {
				fmt.Fprintf(os.Stderr, "incorrect master password, %d attempt(s) left\n", left)
			}
		case errors.Is(err, vault.ErrDecryption):
			return nil, userError{msg: "stored secrets could not be decrypted; wrong encryption key or corrupted vault"}
		default:
			return nil, err
		}
	}

	ok, err := in.confirm("Too many failed attempts. Register a new vault under a different username?")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, userError{msg: "too many failed attempts"}
	}
	name, err := in.line("New username: ")
	if err != nil {
		return nil, fmt.Errorf("read username: %w", err)
	}
	if err := vault.ValidateUsername(name); err != nil {
		return nil, userError{msg: err.Error()}
	}
	if err := register(in, svc, name); err != nil {
		return nil, err
	}
	fmt.Fprintf(os.Stderr, "run 'pm session --user %s' to open it\n", name)
	return nil, nil
}

func runGenerate(args []string) error {
	cmd, err := openCommand("generate", args, false)
	if err != nil {
		return err
	}
	defer cmd.close()

	length := cmd.svc.Options().DefaultGenLength
	switch len(cmd.args) {
	case 0:
	case 1:
		n, err := strconv.Atoi(cmd.args[0])
		if err != nil {
			return userError{msg: "length must be a number"}
		}
		length = n
	default:
		return userError{msg: "usage: pm generate [length]"}
	}

	secret, capped, err := cmd.svc.GenerateSecret(length)
	if err != nil {
		return fmt.Errorf("generate secret: %w", err)
	}
	if capped {
		fmt.Fprintf(os.Stderr, "length capped to %d\n", cmd.svc.GeneratorBounds().Max)
	}
	fmt.Println(secret)
	return nil
}

func runVaults(args []string) error {
	cmd, err := openCommand("vaults", args, false)
	if err != nil {
		return err
	}
	defer cmd.close()

	vaults, err := cmd.svc.Vaults()
	if err != nil {
		return fmt.Errorf("list vaults: %w", err)
	}
	if len(vaults) == 0 {
		fmt.Println("no vaults registered")
		return nil
	}
	for _, v := range vaults {
		fmt.Printf("%s | blob %d bytes | updated %s\n", v.Username, v.BlobBytes, v.UpdatedAt)
	}
	return nil
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: pm <command> [flags]")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  version")
	fmt.Fprintln(os.Stderr, "  register --user <username>")
	fmt.Fprintln(os.Stderr, "  session --user <username>")
	fmt.Fprintln(os.Stderr, "  generate [length]")
	fmt.Fprintln(os.Stderr, "  vaults")
	fmt.Fprintln(os.Stderr, "Common flags: --dir, --key-file, --backend fs|sqlite, --config, --log-level")
}
