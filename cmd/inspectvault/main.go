// Command inspectvault prints stored vault metadata. It never asks for a
// master password and never decrypts secrets.
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
	fs := flag.NewFlagSet("inspectvault", flag.ExitOnError)
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

	svc, err := service.New(opts, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open vault service: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close()

	reports, err := svc.Inspect()
	if err != nil {
		fmt.Fprintf(os.Stderr, "inspect vaults: %v\n", err)
		os.Exit(1)
	}
	if len(reports) == 0 {
		fmt.Println("no vaults stored")
		return
	}

	for _, r := range reports {
		fmt.Printf("%s (%s)\n", r.Username, r.Scheme)
		if r.BlobBytes == 0 {
			fmt.Println("  secrets: missing")
			continue
		}
		sealed := "unknown"
		if !r.SealedAt.IsZero() {
			sealed = r.SealedAt.Format("2006-01-02 15:04:05Z")
		}
		fmt.Printf("  secrets: %d bytes, sealed %s\n", r.BlobBytes, sealed)
	}
}
