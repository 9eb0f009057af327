// Package main provides a command-line driver that runs the denoising filter
// against a simulated video pipeline.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/opd-ai/denoisefx/config"
	"github.com/opd-ai/denoisefx/limits"
	"github.com/opd-ai/denoisefx/provider"
)

// CLI configuration
type CLIConfig struct {
	width          uint
	height         uint
	frames         int
	rendersPerTick int
	switchEvery    int
	sequence       string
	strength       string
	interval       time.Duration
	seed           uint64
	configFile     string
	envFile        string
	logLevel       string
	help           bool
}

// parseCLIFlags parses command-line flags and returns the configuration.
func parseCLIFlags() *CLIConfig {
	cfg := &CLIConfig{}

	// Pipeline
	flag.UintVar(&cfg.width, "width", 1280, "Upstream frame width")
	flag.UintVar(&cfg.height, "height", 720, "Upstream frame height")
	flag.IntVar(&cfg.frames, "frames", 120, "Number of frames to render")
	flag.IntVar(&cfg.rendersPerTick, "renders", 2, "Render calls per frame tick")
	flag.DurationVar(&cfg.interval, "interval", 0, "Delay between frames")
	flag.Uint64Var(&cfg.seed, "seed", 1, "Noise seed")

	// Providers
	flag.StringVar(&cfg.sequence, "sequence", "automatic,temporal,spatial,none", "Comma separated providers to cycle through")
	flag.IntVar(&cfg.switchEvery, "switch-every", 30, "Frames between provider switches (0 disables switching)")
	flag.StringVar(&cfg.strength, "strength", "", "Denoising strength (weak, strong); empty uses the plugin default")

	// Plugin configuration
	flag.StringVar(&cfg.configFile, "config", "", "Plugin configuration file")
	flag.StringVar(&cfg.envFile, "env-file", "", "Environment file loaded before DENOISEFX_* variables")
	flag.StringVar(&cfg.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")

	flag.BoolVar(&cfg.help, "help", false, "Show help message")

	flag.Parse()
	return cfg
}

// printUsage prints the usage information.
func printUsage() {
	fmt.Println("Denoising Filter Simulator")
	fmt.Println("==========================")
	fmt.Println()
	fmt.Println("Feeds noisy frames through a denoising filter instance attached to a")
	fmt.Println("simulated host and switches providers while frames are rendered.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Printf("  %s [options]\n", os.Args[0])
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Printf("  # Cycle through every provider at 720p\n")
	fmt.Printf("  %s\n", os.Args[0])
	fmt.Println()
	fmt.Printf("  # Full HD, temporal only, weak strength\n")
	fmt.Printf("  %s -width 1920 -height 1080 -sequence temporal -switch-every 0 -strength weak\n", os.Args[0])
}

// validateCLIConfig validates the CLI configuration.
func validateCLIConfig(cfg *CLIConfig) error {
	if cfg.width == 0 || cfg.height == 0 {
		return fmt.Errorf("frame size must be positive")
	}
	if cfg.width > limits.MaxFrameWidth || cfg.height > limits.MaxFrameHeight {
		return fmt.Errorf("frame size %dx%d exceeds %dx%d", cfg.width, cfg.height,
			limits.MaxFrameWidth, limits.MaxFrameHeight)
	}
	if cfg.frames <= 0 {
		return fmt.Errorf("frame count must be positive")
	}
	if cfg.rendersPerTick <= 0 {
		return fmt.Errorf("renders per frame must be positive")
	}
	if cfg.switchEvery < 0 {
		return fmt.Errorf("switch interval cannot be negative")
	}
	if cfg.interval < 0 {
		return fmt.Errorf("frame interval cannot be negative")
	}
	if _, err := parseSequence(cfg.sequence); err != nil {
		return err
	}
	if cfg.strength != "" {
		if _, err := config.ParseStrength(cfg.strength); err != nil {
			return err
		}
	}
	return nil
}

// parseSequence parses the comma separated provider list.
func parseSequence(s string) ([]provider.Kind, error) {
	var kinds []provider.Kind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := provider.ParseKind(part)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	if len(kinds) == 0 {
		return nil, fmt.Errorf("provider sequence cannot be empty")
	}
	return kinds, nil
}

// setupSignalHandling sets up graceful shutdown on interrupt signals.
func setupSignalHandling(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)

	go func() {
		sig := <-sigChan
		fmt.Printf("\nReceived signal %v, stopping...\n", sig)
		cancel()
	}()
}

func main() {
	cliConfig := parseCLIFlags()

	if cliConfig.help {
		printUsage()
		os.Exit(0)
	}

	if err := validateCLIConfig(cliConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Use -help for usage information.\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	setupSignalHandling(cancel)

	summary, err := runSimulation(ctx, cliConfig)
	if summary != nil {
		summary.Print(os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "\nSimulation failed: %v\n", err)
		os.Exit(1)
	}
}
