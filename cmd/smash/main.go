// Package main is the entry point for the smash editing core CLI.
// The full editor front end drives the engine through its library
// API; this binary exposes the core directly for inspection and for
// recovering swap files from the command line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/smash-editor/smash/internal/config"
	"github.com/smash-editor/smash/internal/engine"
	"github.com/smash-editor/smash/internal/log"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "", "engine config file (YAML)")
		showVersion = flag.Bool("version", false, "print version and exit")
		doRecover   = flag.Bool("recover", false, "replay a matching swap file if one exists")
		logLevel    = flag.String("log-level", "", "override log level (debug|info|warn|error)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("smash %s (%s)\n", version, commit)
		return 0
	}
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: smash [flags] <file>")
		flag.PrintDefaults()
		return 2
	}
	path := flag.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smash: %v\n", err)
		return 1
	}
	level := cfg.LogLevel
	if *logLevel != "" {
		level = *logLevel
	}
	logger := log.New(os.Stderr, log.ParseLevel(level))

	session, offer, err := engine.Open(path,
		engine.WithConfig(cfg),
		engine.WithLogger(logger),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "smash: %v\n", err)
		return 1
	}
	defer session.Close()

	if offer != nil {
		switch {
		case offer.Err != nil:
			fmt.Fprintf(os.Stderr, "smash: swap file unreadable, opening without replay: %v\n", offer.Err)
		case !offer.HashMatches:
			fmt.Fprintf(os.Stderr, "smash: swap file found but %s changed since it was written; not replaying\n", path)
		case *doRecover:
			res, err := session.ReplaySwap()
			if err != nil {
				fmt.Fprintf(os.Stderr, "smash: replay failed: %v\n", err)
				return 1
			}
			fmt.Printf("replayed %d commands", res.Applied)
			if res.Truncated {
				fmt.Printf(" (journal truncated: %v)", res.Err)
			}
			fmt.Println()
			if err := session.Save(); err != nil {
				fmt.Fprintf(os.Stderr, "smash: save after replay: %v\n", err)
				return 1
			}
			fmt.Println("recovered content saved")
		default:
			fmt.Fprintf(os.Stderr, "smash: unsaved changes found for %s; rerun with -recover to replay them\n", path)
		}
	}

	r := session.Rope()
	fmt.Printf("%s: %d bytes, %d chars, %d lines, %s line endings, %s, revision %d, dirty=%v\n",
		path, r.Len(), r.LenChars(), r.LenLines(),
		session.Buffer().LineEnding(), session.Buffer().Encoding(),
		session.Revision(), session.IsDirty())
	return 0
}
