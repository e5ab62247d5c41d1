package tatara

import (
	"strings"
	"time"

	"github.com/gookit/color"
)

// RunSummary aggregates everything a run produced. The exit signal is
// derived from the build results alone: verification findings are
// informational and never flip it.
type RunSummary struct {
	Toolchain *ToolchainInfo
	Profile   *ArchProfile
	Builds    []BuildResult
	Verified  []VerificationResult
	Elapsed   time.Duration
}

// Summarize collects the per-target and per-artifact results.
func Summarize(tc *ToolchainInfo, prof *ArchProfile, builds []BuildResult, verified []VerificationResult) *RunSummary {
	s := &RunSummary{
		Toolchain: tc,
		Profile:   prof,
		Builds:    builds,
		Verified:  verified,
	}
	for _, b := range builds {
		s.Elapsed += b.Elapsed
	}
	return s
}

// Failed reports whether the run as a whole failed: true iff at least one
// build failed.
func (s *RunSummary) Failed() bool {
	for _, b := range s.Builds {
		if b.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}

// Succeeded returns the results of the builds that produced an artifact.
func (s *RunSummary) Succeeded() []BuildResult {
	var ok []BuildResult
	for _, b := range s.Builds {
		if b.Outcome == OutcomeSucceeded {
			ok = append(ok, b)
		}
	}
	return ok
}

// PrintSummary renders the operator-facing breakdown.
func (s *RunSummary) PrintSummary() {
	succeeded := s.Succeeded()

	colArrow.Print("-> ")
	if s.Toolchain.Version != "" {
		colSuccess.Printf("Toolchain: %s (%s, %s)\n", s.Toolchain.CompilerPath, s.Toolchain.Kind, s.Toolchain.Version)
	} else {
		colSuccess.Printf("Toolchain: %s (%s)\n", s.Toolchain.CompilerPath, s.Toolchain.Kind)
	}
	colArrow.Print("-> ")
	colSuccess.Printf("Architecture: %s [%s]\n", s.Profile.TargetID, s.Profile.Flags)

	if s.Profile.Portability == MachineSpecific {
		colWarn.Printf("Note: %s binaries are bound to this machine's CPU and are NOT portable\n", s.Profile.TargetID)
	}

	if !s.Failed() {
		colArrow.Print("-> ")
		colSuccess.Printf("All components built successfully (%d/%d) Time: %s\n",
			len(succeeded), len(s.Builds), s.Elapsed.Truncate(time.Second))
	} else {
		color.Danger.Print("-> ")
		color.Danger.Println("Failed Components:")
		for _, b := range s.Builds {
			if b.Outcome != OutcomeFailed {
				continue
			}
			color.Debug.Printf("  - %-20s: %s\n", b.Target, firstLine(b.Diagnostics))
		}
		colArrow.Print("-> ")
		colSuccess.Printf("Built %d/%d components\n", len(succeeded), len(s.Builds))
	}

	for _, v := range s.Verified {
		colArrow.Print("-> ")
		colSuccess.Printf("Verified: %s ", v.ArtifactPath)
		if v.Functional == CheckPassed {
			colNote.Print("runs")
		} else {
			colWarn.Print("inconclusive (no --help/--version convention)")
		}
		if len(v.DynamicLibs) == 0 {
			colNote.Println(", fully static")
		} else {
			colWarn.Printf(", dynamic deps: %s\n", strings.Join(v.DynamicLibs, ", "))
		}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
