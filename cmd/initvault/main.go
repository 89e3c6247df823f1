package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Hussein-Mazeh/lockbox/internal/config"
	"github.com/Hussein-Mazeh/lockbox/internal/logger"
	"github.com/Hussein-Mazeh/lockbox/internal/service"
)

func main() {
	fs := flag.NewFlagSet("initvault", flag.ExitOnError)
	config.RegisterFlags(fs)
	_ = fs.Parse(os.Args[1:])

	opts, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(opts.LogLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	// For the sqlite backend New also creates the schema.
	svc, err := service.New(opts, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open vault service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	if err := svc.Provision(); err != nil {
		fmt.Fprintf(os.Stderr, "initialize vault root: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("vault root ready at %s (%s backend)\n", opts.Dir, opts.Backend)
}
