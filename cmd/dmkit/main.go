package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hpungsan/dmkit/internal/config"
	"github.com/hpungsan/dmkit/internal/db"
	"github.com/hpungsan/dmkit/internal/logging"
	"github.com/hpungsan/dmkit/internal/mcp"
	"github.com/hpungsan/dmkit/internal/ops"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// homeEnv overrides the dmkit home directory (default ~/.dmkit).
const homeEnv = "DMKIT_HOME"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"roll": true, "character": true, "session": true,
	"knowledge": true, "campaign": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// resolveHome returns $DMKIT_HOME, or ~/.dmkit.
func resolveHome() (string, error) {
	if home := os.Getenv(homeEnv); home != "" {
		return filepath.Abs(home)
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(userHome, ".dmkit"), nil
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
       _           _    _ _
    __| |_ __ ___ | | _(_) |_
   / _' | '_ ' _ \| |/ / | __|
  | (_| | | | | | |   <| | |_
   \__,_|_| |_| |_|_|\_\_|\__|

  Dungeon Master toolkit

  Usage: dmkit <command> [options]
         dmkit --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before any setup (nothing on disk needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	home, err := resolveHome()
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = home
	}
	cfg, err := config.LoadWithRepo(home, cwd)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Resolve(home)

	logger, closeLog, err := logging.Open(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to open log: %w", err)
	}
	defer func() { _ = closeLog() }()

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", "tools", unknown)
	}
	if unknown := mcp.ValidateDisabledTypes(cfg.DisabledTypes); len(unknown) > 0 {
		logger.Warn("unknown types in disabled_types", "types", unknown)
	}

	journal, err := db.Init(home)
	if err != nil {
		logger.Warn("session journal unavailable", "error", err)
		journal = nil
	} else {
		db.ConfigurePool(journal, cfg)
		defer journal.Close()
	}

	rt := ops.NewRuntime(cfg, journal, logger)

	// CLI mode: known subcommand
	if isCLIMode() {
		return newCLIApp(&deps{rt: rt}).Run(os.Args)
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		return fmt.Errorf("unknown command %q\nRun 'dmkit --help' for usage", os.Args[1])
	}

	// MCP server mode (default)
	return mcp.Run(rt, cfg, Version)
}
