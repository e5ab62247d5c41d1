package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"tatara/internal/tatara"
)

func main() {
	// 1. CONTEXT AND SIGNAL SETUP
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigs:
			fmt.Printf("\n[INFO] Received %v. Cancelling build gracefully...\n", sig)
			cancel()
			// Second signal forces immediate exit.
			<-sigs
			fmt.Println("\n[FATAL] Second interrupt received. Forcing immediate exit.")
			os.Exit(130)
		case <-ctx.Done():
		}
	}()

	// 2. CONFIGURATION
	cfg, err := tatara.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load: %v\n", err)
	}
	rc := tatara.NewRunConfig(cfg)

	arch := flag.String("arch", rc.ArchTarget, "architecture target ("+strings.Join(tatara.ArchTargets(), ", ")+")")
	components := flag.String("components", "", "comma-separated component names, or all")
	output := flag.String("output", rc.OutputDir, "output directory for artifacts")
	registry := flag.String("registry", rc.RegistryFile, "optional YAML component registry overlay")
	jobs := flag.Int("jobs", rc.Jobs, "parallel job hint for build tools with internal parallelism")
	hint := flag.String("toolchain-hint", rc.ToolchainHint, "advisory toolchain version hint")
	dist := flag.Bool("dist", rc.Dist, "produce a dist archive of the output directory")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("tatara", tatara.Version())
		return
	}

	rc.ArchTarget = *arch
	rc.OutputDir = *output
	rc.RegistryFile = *registry
	rc.ToolchainHint = *hint
	rc.Jobs = *jobs
	rc.Dist = *dist
	if *components != "" {
		// "all" resets any narrower selection from the config file
		rc.Components = tatara.SplitComponents(*components)
	}

	// 3. RUN
	code, err := tatara.Run(ctx, cfg, rc)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(code)
}
