package tatara

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/schollz/progressbar/v3"
)

// BuildOutcome is the terminal state of one build attempt.
type BuildOutcome string

const (
	OutcomeSucceeded BuildOutcome = "succeeded"
	OutcomeFailed    BuildOutcome = "failed"
)

// BuildResult records one build attempt. Immutable once recorded; the run's
// result list is append-only and authoritative for the exit signal.
type BuildResult struct {
	Target       string
	Outcome      BuildOutcome
	ArtifactPath string // set iff Outcome == OutcomeSucceeded
	Diagnostics  string
	Elapsed      time.Duration
}

// staticLinkFlags are always passed so artifacts carry their runtime with
// them instead of depending on the build host's shared libraries.
var staticLinkFlags = []string{"-static", "-static-intel"}

// composeCommand synthesizes the full compiler argv for one target.
func composeCommand(tc *ToolchainInfo, prof *ArchProfile, target BuildTarget, outPath string) []string {
	args := []string{tc.CompilerPath, "-std=" + target.Std, "-O3"}
	args = append(args, strings.Fields(prof.Flags)...)
	args = append(args, staticLinkFlags...)
	args = append(args, target.ExtraFlags...)
	for _, dir := range target.IncludeDirs {
		args = append(args, "-I"+dir)
	}
	args = append(args, target.Sources...)
	args = append(args, "-o", outPath)
	return args
}

// missingSources returns the target source files that do not exist on disk.
func missingSources(target BuildTarget) []string {
	var missing []string
	for _, src := range target.Sources {
		if _, err := os.Stat(src); err != nil {
			missing = append(missing, src)
		}
	}
	return missing
}

// BuildMatrix compiles every target in order and returns one BuildResult per
// target. A failed compilation never aborts the matrix: the failure is
// recorded and the loop moves on, so a single broken component cannot block
// feedback on the others. No retries: a compile failure is deterministic for
// a given input, retrying without changing it would not help.
func BuildMatrix(ctx context.Context, targets []BuildTarget, tc *ToolchainInfo, prof *ArchProfile, rc *RunConfig) []BuildResult {
	results := make([]BuildResult, 0, len(targets))
	execCtx := NewExecutor(ctx)
	execCtx.ApplyIdlePriority = rc.IdleBuild

	var bar *progressbar.ProgressBar
	if stdoutIsTerminal() {
		bar = progressbar.NewOptions(len(targets),
			progressbar.OptionSetDescription("building"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	for i, target := range targets {
		colArrow.Print("-> ")
		colSuccess.Print("Building: ")
		colNote.Printf("%s (%d/%d)\n", target.Name, i+1, len(targets))

		results = append(results, buildOne(ctx, execCtx, target, tc, prof, rc))

		if bar != nil {
			_ = bar.Add(1)
		}
		if res := results[len(results)-1]; res.Outcome == OutcomeFailed {
			color.Danger.Printf("Build failed for %s\n\n", target.Name)
		}
	}
	return results
}

// buildOne runs a single compiler invocation as one blocking unit of work.
func buildOne(ctx context.Context, execCtx *Executor, target BuildTarget, tc *ToolchainInfo, prof *ArchProfile, rc *RunConfig) BuildResult {
	start := time.Now()
	res := BuildResult{Target: target.Name}

	fail := func(diag string) BuildResult {
		res.Outcome = OutcomeFailed
		res.Diagnostics = diag
		res.Elapsed = time.Since(start)
		return res
	}

	if len(target.Sources) == 0 {
		return fail("no source files declared")
	}

	// Unpack the source bundle first so its files count for the existence
	// check below.
	if target.SourceArchive != "" {
		if err := extractSourceBundle(target.SourceArchive, filepath.Dir(target.Sources[0])); err != nil {
			return fail(fmt.Sprintf("source bundle: %v", err))
		}
	}

	if missing := missingSources(target); len(missing) > 0 {
		return fail("missing source files: " + strings.Join(missing, ", "))
	}

	outPath := filepath.Join(rc.OutputDir, target.Name)
	argv := composeCommand(tc, prof, target, outPath)
	debugf("compile argv: %s\n", strings.Join(argv, " "))

	var diag bytes.Buffer
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = nil
	cmd.Stdout = &diag
	cmd.Stderr = &diag
	// The job hint only feeds a tool's own internal parallelism; the
	// invocation itself stays one blocking unit of work. TMPDIR points the
	// compiler's intermediate files at the configured scratch space.
	cmd.Env = append(os.Environ(), fmt.Sprintf("MAKEFLAGS=-j%d", rc.Jobs))
	if rc.TmpDir != "" {
		cmd.Env = append(cmd.Env, "TMPDIR="+rc.TmpDir)
	}

	if err := execCtx.Run(cmd); err != nil {
		return fail(strings.TrimSpace(diag.String() + "\n" + err.Error()))
	}

	res.Outcome = OutcomeSucceeded
	res.ArtifactPath = outPath
	res.Diagnostics = diag.String()
	res.Elapsed = time.Since(start)
	return res
}
