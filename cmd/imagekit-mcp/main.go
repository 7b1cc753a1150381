package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/ironsheep/imagekit-mcp/internal/config"
	"github.com/ironsheep/imagekit-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var configPath string
	var logLevel string

	flagSet := pflag.NewFlagSet("imagekit-mcp", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to YAML config file (default: $"+config.EnvConfig+")")
	flagSet.StringVar(&logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")
	showVersion := flagSet.BoolP("version", "v", false, "print version information")
	showHelp := flagSet.BoolP("help", "h", false, "print this help message")

	if err := flagSet.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			printHelp(flagSet)
			return nil
		}
		return err
	}

	if *showHelp {
		printHelp(flagSet)
		return nil
	}
	if *showVersion {
		fmt.Printf("%s %s\n", server.Name, Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return nil
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	// stdout carries the protocol, so logs go to stderr.
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()

	server.Version = Version
	log.Debug().
		Str("version", Version).
		Str("build_time", BuildTime).
		Str("commit", GitCommit).
		Msg("Starting image MCP server")

	return server.New(cfg, log).Run()
}

func printHelp(flagSet *pflag.FlagSet) {
	fmt.Printf("%s - MCP server for image header sniffing, partitioning and layout\n", server.Name)
	fmt.Println()
	fmt.Printf("Usage: %s [options]\n", server.Name)
	fmt.Println()
	fmt.Println("Options:")
	fmt.Print(flagSet.FlagUsages())
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Printf("  %s=path     Config file used when --config is not given\n", config.EnvConfig)
	fmt.Printf("  %s=debug  Override the configured log level\n", config.EnvLogLevel)
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
}
