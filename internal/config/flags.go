package config

import (
	"flag"
	"os"
	"time"

	"github.com/andrejsm/readsync/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-u string   base URL of the backend project
//	-k string   public (anon) API key
//	-d string   path to the shared local database
//	-p int      page size for listings
//	-t int      per-request network timeout in seconds
//
// Only the flags listed here are parsed; everything else (subcommands and
// their arguments) is left alone via flagx.FilterArgs.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-u", "-k", "-d", "-p", "-t"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServiceURL, "u", cfg.ServiceURL, "base URL of the backend project")
	fs.StringVar(&cfg.AnonKey, "k", cfg.AnonKey, "public API key")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "path to the local database")
	fs.IntVar(&cfg.PageSize, "p", cfg.PageSize, "page size")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
}
