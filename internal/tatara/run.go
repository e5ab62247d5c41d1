package tatara

import (
	"context"
	"fmt"
	"os"
)

// Run is the whole orchestration: registry -> detection/resolution ->
// build matrix -> verification -> manifest/dist/mirror -> summary.
// The returned code is the process exit code: 0 iff every requested
// component built, 1 otherwise. Configuration errors abort before any
// build is attempted.
func Run(ctx context.Context, cfg *Config, rc *RunConfig) (int, error) {
	targets, err := LoadRegistry(rc.RegistryFile)
	if err != nil {
		return 1, err
	}
	targets, err = SelectTargets(targets, rc.Components)
	if err != nil {
		return 1, err
	}

	if rc.ArchTarget == "auto" {
		rc.ArchTarget = SuggestArchTarget()
		colArrow.Print("-> ")
		colSuccess.Printf("Detected architecture target: %s\n", rc.ArchTarget)
	}
	prof, err := ResolveArch(rc.ArchTarget)
	if err != nil {
		return 1, err
	}

	if rc.ToolchainHint != "" {
		debugf("toolchain hint %q (environment activation is the caller's job)\n", rc.ToolchainHint)
	}
	tc, err := DetectToolchain(ctx)
	if err != nil {
		return 1, err
	}

	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return 1, fmt.Errorf("failed to create output directory: %w", err)
	}

	builds := BuildMatrix(ctx, targets, tc, prof, rc)
	verified := Verify(ctx, builds)
	summary := Summarize(tc, prof, builds, verified)

	manifestPath := ""
	if len(summary.Succeeded()) > 0 {
		manifestPath, err = WriteManifest(rc.OutputDir, builds)
		if err != nil {
			colWarn.Printf("Warning: checksum manifest not written: %v\n", err)
		}
	}

	archivePath := ""
	if rc.Dist && len(summary.Succeeded()) > 0 {
		archivePath, err = CreateDistArchive(rc.OutputDir)
		if err != nil {
			colWarn.Printf("Warning: dist archive not created: %v\n", err)
		} else {
			colArrow.Print("-> ")
			colSuccess.Printf("Dist archive created: %s\n", archivePath)
		}
	}

	// Mirror publication is advisory, like verification: a failed upload is
	// a warning, never a run failure.
	if archivePath != "" && MirrorConfigured(cfg) {
		if mc, err := NewMirrorClient(ctx, cfg); err != nil {
			colWarn.Printf("Warning: mirror unavailable: %v\n", err)
		} else if err := mc.PublishRun(ctx, archivePath, manifestPath); err != nil {
			colWarn.Printf("Warning: mirror upload failed: %v\n", err)
		}
	}

	summary.PrintSummary()

	if summary.Failed() {
		return 1, nil
	}
	return 0, nil
}
