package tatara

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ToolchainKind distinguishes the compiler front-end generation.
type ToolchainKind string

const (
	KindModern  ToolchainKind = "modern"  // LLVM-based front end (icpx)
	KindClassic ToolchainKind = "classic" // classic front end (icpc)
)

// ToolchainInfo describes the compiler selected for the whole run.
// Immutable once detected.
type ToolchainInfo struct {
	CompilerPath string
	Kind         ToolchainKind
	Version      string
}

// toolchainProbe is one entry of the detection priority list.
type toolchainProbe struct {
	Binary string
	Kind   ToolchainKind
}

// toolchainProbes is walked in order. The modern front end is tried first
// because it is assumed preferred when both are installed; this is a
// preference policy, not an alphabetic accident.
var toolchainProbes = []toolchainProbe{
	{Binary: "icpx", Kind: KindModern},
	{Binary: "icpc", Kind: KindClassic},
}

// DetectToolchain locates an available compiler by walking the probe list.
// On success the chosen binary is queried for its version string; a missing
// or unparseable version is not a failure.
func DetectToolchain(ctx context.Context) (*ToolchainInfo, error) {
	for _, probe := range toolchainProbes {
		path, err := exec.LookPath(probe.Binary)
		if err != nil {
			debugf("toolchain probe: %s not on PATH\n", probe.Binary)
			continue
		}
		tc := &ToolchainInfo{
			CompilerPath: path,
			Kind:         probe.Kind,
			Version:      queryCompilerVersion(ctx, path),
		}
		return tc, nil
	}
	return nil, fmt.Errorf("%w: none of %s located on PATH", errNoToolchain, probeNames())
}

// queryCompilerVersion asks the compiler for its version. Best effort: the
// first line of output is kept, and any error yields an empty string.
func queryCompilerVersion(ctx context.Context, path string) string {
	cmd := exec.CommandContext(ctx, path, "--version")
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		debugf("version query failed for %s: %v\n", path, err)
		return ""
	}
	line, _, _ := strings.Cut(out.String(), "\n")
	return strings.TrimSpace(line)
}

func probeNames() string {
	names := make([]string, 0, len(toolchainProbes))
	for _, p := range toolchainProbes {
		names = append(names, p.Binary)
	}
	return strings.Join(names, ", ")
}
