// Command couchpilot exposes the watch-progress and skip-marker store
// as subcommands for shell collaborators: the directory menu and the
// player-control loop invoke it per operation and parse the
// pipe-delimited output. The same packages are imported directly by
// in-process consumers.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/couchpilot/couchpilot/internal/config"
	"github.com/couchpilot/couchpilot/internal/database"
	"github.com/couchpilot/couchpilot/internal/logger"
	"github.com/couchpilot/couchpilot/internal/markers"
	"github.com/couchpilot/couchpilot/internal/playback"
	"github.com/couchpilot/couchpilot/internal/seriesid"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("couchpilot", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage()
		return 2
	}
	command, cmdArgs := rest[0], rest[1:]

	// normalize is pure and must work without any state on disk.
	if command == "normalize" {
		return cmdNormalize(os.Stdout, cmdArgs)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to load config: %v\n", err)
		return 1
	}

	// Quiet keeps stdout machine-readable; diagnostics go to the log file.
	log := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		Path:       cfg.Logging.Path,
		Quiet:      true,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	defer log.Close()

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: failed to migrate database: %v\n", err)
		return 1
	}

	app := &app{
		playback: playback.NewService(db.Conn(), log.Logger),
		markers:  markers.NewService(db.Conn(), log.Logger),
		out:      os.Stdout,
	}

	return app.dispatch(context.Background(), command, cmdArgs)
}

func cmdNormalize(out *os.File, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: normalize requires a filename")
		return 1
	}
	id := seriesid.Normalize(args[0])
	fmt.Fprintf(out, "%s|%s\n", id.Prefix, id.Suffix)
	return 0
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: couchpilot [-config path] <command> [arguments]

Playback progress:
  init                                        Create or migrate the state database
  save-playback <file> <pos> <dur> [percent]  Save progress (percent computed if omitted)
  get-playback <file>                         Print position|duration|percent|prefix|suffix
  get-percent <file>                          Print percent watched
  get-status <file>                           Print unwatched, partial, or watched
  batch-status <dir> <file>...                Print file:status per file, one bulk read
  batch-percent <dir> <file>...               Print file:percent per file, one bulk read
  find-versions <prefix> <suffix>             Print suffix|last_file|max_percent for other encodes
  reset <key-prefix>                          Delete records by filename prefix (test tooling)

Outro latch:
  get-outro-triggered <file>                  Print 1 or 0
  set-outro-triggered <file> <1|0>            Set or clear the latch

Series settings:
  save-settings <prefix> <suffix> <autoplay> <skip_intro> <skip_outro> [intro_start intro_end] [credits]
  get-settings <prefix> <suffix>              Print autoplay|skip_intro|skip_outro|intro_start|intro_end|credits
  settings-exist <prefix> <suffix>            Print 1 or 0
  get-markers <prefix> <suffix>               Print markers as JSON
  set-intro <prefix> <suffix> <start> <end>   Store intro skip markers
  set-credits <prefix> <suffix> <seconds>     Store trailing credits length
  outro-start <prefix> <suffix> <duration>    Print the computed outro boundary for one encode
  clear-markers <prefix> <suffix> [kind]      Clear markers (intro, credits, or all)

Filenames:
  normalize <file>                            Print prefix|suffix series identity
`)
}
