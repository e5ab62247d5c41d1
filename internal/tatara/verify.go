package tatara

import (
	"bufio"
	"bytes"
	"context"
	"debug/elf"
	"io"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sys/unix"
)

// FunctionalCheck is the outcome of the smoke test. There is no "failed":
// a binary that answers neither --help nor --version may simply not follow
// that convention, which is not evidence of a broken build.
type FunctionalCheck string

const (
	CheckPassed       FunctionalCheck = "passed"
	CheckInconclusive FunctionalCheck = "inconclusive"
)

// VerificationResult holds the post-build findings for one artifact.
// Findings are advisory and never affect the run's exit signal.
type VerificationResult struct {
	ArtifactPath string
	Functional   FunctionalCheck
	DynamicLibs  []string // empty means fully static
}

// Verify runs the functional smoke test and the static-linkage audit over
// every artifact produced by a succeeded build.
func Verify(ctx context.Context, results []BuildResult) []VerificationResult {
	var verified []VerificationResult
	for _, res := range results {
		if res.Outcome != OutcomeSucceeded {
			continue
		}
		if unix.Access(res.ArtifactPath, unix.X_OK) != nil {
			debugf("skipping verification, not executable: %s\n", res.ArtifactPath)
			continue
		}
		verified = append(verified, VerificationResult{
			ArtifactPath: res.ArtifactPath,
			Functional:   smokeTest(ctx, res.ArtifactPath),
			DynamicLibs:  auditLinkage(ctx, res.ArtifactPath),
		})
	}
	return verified
}

// smokeTest invokes the artifact with --help, then --version. Either
// exiting zero is sufficient evidence the binary runs.
func smokeTest(ctx context.Context, artifact string) FunctionalCheck {
	for _, arg := range []string{"--help", "--version"} {
		cmd := exec.CommandContext(ctx, artifact, arg)
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
		if err := cmd.Run(); err == nil {
			return CheckPassed
		}
	}
	return CheckInconclusive
}

// loader/VDSO entries that ldd reports even for fully static binaries
var loaderInternals = []string{"linux-vdso", "ld-linux", "linux-gate"}

func isLoaderInternal(name string) bool {
	for _, prefix := range loaderInternals {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// auditLinkage enumerates the artifact's dynamic library dependencies,
// filtered of loader internals. The list is reported verbatim: residual
// dynamic dependencies are for the operator to judge, not a failure.
func auditLinkage(ctx context.Context, artifact string) []string {
	if _, err := exec.LookPath("ldd"); err == nil {
		if libs, ok := lddLibraries(ctx, artifact); ok {
			return libs
		}
	}
	return elfLibraries(artifact)
}

// lddLibraries parses ldd output the way the dynamic loader reports it.
func lddLibraries(ctx context.Context, artifact string) ([]string, bool) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "ldd", artifact)
	cmd.Stdout = &out
	cmd.Stderr = io.Discard
	if err := cmd.Run(); err != nil {
		// ldd exits non-zero for static binaries ("not a dynamic executable")
		if strings.Contains(out.String(), "not a dynamic executable") {
			return nil, true
		}
		return nil, false
	}
	return parseLddOutput(out.String()), true
}

// parseLddOutput extracts dynamic library names from ldd's report,
// dropping loader internals.
func parseLddOutput(out string) []string {
	if strings.Contains(out, "statically linked") {
		return nil
	}
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		name := filepath.Base(parts[0])
		if isLoaderInternal(name) {
			continue
		}
		seen[name] = struct{}{}
	}

	libs := make([]string, 0, len(seen))
	for lib := range seen {
		libs = append(libs, lib)
	}
	sort.Strings(libs)
	return libs
}

// elfLibraries reads DT_NEEDED entries directly from the ELF file. Used when
// ldd is unavailable; needs no external tools.
func elfLibraries(artifact string) []string {
	f, err := elf.Open(artifact)
	if err != nil {
		debugf("linkage audit: not an ELF file: %s\n", artifact)
		return nil
	}
	defer f.Close()

	imported, err := f.ImportedLibraries()
	if err != nil {
		return nil
	}
	var libs []string
	for _, lib := range imported {
		if !isLoaderInternal(lib) {
			libs = append(libs, lib)
		}
	}
	sort.Strings(libs)
	return libs
}
