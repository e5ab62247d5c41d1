package tatara

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompiler writes a shell script that produces the -o output file, or
// fails when any source path contains "broken".
func fakeCompiler(t *testing.T) *ToolchainInfo {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fakecc")
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
for a in "$@"; do
  case "$a" in *broken*) echo "error: broken translation unit" >&2; exit 1;; esac
done
echo compiled > "$out"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return &ToolchainInfo{CompilerPath: path, Kind: KindModern, Version: "fake 1.0"}
}

func writeSource(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("int main(){return 0;}\n"), 0o644))
	return path
}

func testRunConfig(t *testing.T) *RunConfig {
	t.Helper()
	return &RunConfig{
		ArchTarget: "sse42",
		OutputDir:  t.TempDir(),
		Jobs:       2,
	}
}

func TestComposeCommand(t *testing.T) {
	tc := &ToolchainInfo{CompilerPath: "/opt/bin/icpx", Kind: KindModern}
	prof := &ArchProfile{TargetID: "avx2", Flags: "-xCORE-AVX2", Portability: Conditional}
	target := BuildTarget{
		Name:        "tessel",
		Std:         "c++17",
		Sources:     []string{"a.cpp", "b.cpp"},
		IncludeDirs: []string{"include"},
		ExtraFlags:  []string{"-qopenmp"},
	}

	argv := composeCommand(tc, prof, target, "out/tessel")
	joined := strings.Join(argv, " ")

	assert.Equal(t, "/opt/bin/icpx", argv[0])
	assert.Contains(t, joined, "-std=c++17")
	assert.Contains(t, joined, "-O3")
	assert.Contains(t, joined, "-xCORE-AVX2")
	assert.Contains(t, joined, "-static")
	assert.Contains(t, joined, "-qopenmp")
	assert.Contains(t, joined, "-Iinclude")
	assert.Contains(t, joined, "a.cpp b.cpp -o out/tessel")
}

func TestBuildMatrixAllSucceed(t *testing.T) {
	srcDir := t.TempDir()
	tc := fakeCompiler(t)
	prof, err := ResolveArch("sse42")
	require.NoError(t, err)
	rc := testRunConfig(t)

	targets := []BuildTarget{
		{Name: "alpha", Std: "c++17", Sources: []string{writeSource(t, srcDir, "alpha.cpp")}},
		{Name: "beta", Std: "c++14", Sources: []string{writeSource(t, srcDir, "beta.cpp")}},
	}

	results := BuildMatrix(context.Background(), targets, tc, prof, rc)
	require.Len(t, results, 2)
	for i, res := range results {
		assert.Equal(t, targets[i].Name, res.Target)
		assert.Equal(t, OutcomeSucceeded, res.Outcome)
		assert.FileExists(t, res.ArtifactPath)
		assert.Equal(t, filepath.Join(rc.OutputDir, res.Target), res.ArtifactPath)
	}
}

func TestBuildMatrixContinuesPastFailure(t *testing.T) {
	srcDir := t.TempDir()
	tc := fakeCompiler(t)
	prof, err := ResolveArch("sse42")
	require.NoError(t, err)
	rc := testRunConfig(t)

	targets := []BuildTarget{
		{Name: "bad", Std: "c++17", Sources: []string{writeSource(t, srcDir, "broken.cpp")}},
		{Name: "good", Std: "c++17", Sources: []string{writeSource(t, srcDir, "good.cpp")}},
	}

	results := BuildMatrix(context.Background(), targets, tc, prof, rc)
	require.Len(t, results, 2, "one result per target even under failure")

	assert.Equal(t, OutcomeFailed, results[0].Outcome)
	assert.Empty(t, results[0].ArtifactPath)
	assert.Contains(t, results[0].Diagnostics, "broken translation unit")

	assert.Equal(t, OutcomeSucceeded, results[1].Outcome, "failure of one target never blocks the next")
	assert.FileExists(t, results[1].ArtifactPath)
}

func TestBuildMatrixMissingSource(t *testing.T) {
	srcDir := t.TempDir()
	tc := fakeCompiler(t)
	prof, err := ResolveArch("sse42")
	require.NoError(t, err)
	rc := testRunConfig(t)

	targets := []BuildTarget{
		{Name: "alpha", Std: "c++17", Sources: []string{writeSource(t, srcDir, "alpha.cpp")}},
		{Name: "ghost", Std: "c++17", Sources: []string{filepath.Join(srcDir, "nope.cpp")}},
	}

	results := BuildMatrix(context.Background(), targets, tc, prof, rc)
	require.Len(t, results, 2)

	assert.Equal(t, OutcomeSucceeded, results[0].Outcome)
	assert.FileExists(t, filepath.Join(rc.OutputDir, "alpha"))

	assert.Equal(t, OutcomeFailed, results[1].Outcome)
	assert.Contains(t, results[1].Diagnostics, "missing source files")
	assert.NoFileExists(t, filepath.Join(rc.OutputDir, "ghost"), "no compiler ran for the missing source")
}

func TestBuildOneScratchSpace(t *testing.T) {
	srcDir := t.TempDir()
	prof, err := ResolveArch("sse42")
	require.NoError(t, err)
	rc := testRunConfig(t)
	rc.TmpDir = filepath.Join(t.TempDir(), "scratch")

	// a compiler that reports the scratch dir it was handed
	path := filepath.Join(t.TempDir(), "fakecc")
	script := `#!/bin/sh
echo "tmpdir=$TMPDIR"
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-o" ]; then out="$a"; fi
  prev="$a"
done
echo compiled > "$out"
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	tc := &ToolchainInfo{CompilerPath: path, Kind: KindModern}

	targets := []BuildTarget{
		{Name: "alpha", Std: "c++17", Sources: []string{writeSource(t, srcDir, "alpha.cpp")}},
	}
	results := BuildMatrix(context.Background(), targets, tc, prof, rc)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeSucceeded, results[0].Outcome)
	assert.Contains(t, results[0].Diagnostics, "tmpdir="+rc.TmpDir)
}

func TestBuildMatrixIdlePriority(t *testing.T) {
	srcDir := t.TempDir()
	tc := fakeCompiler(t)
	prof, err := ResolveArch("sse42")
	require.NoError(t, err)
	rc := testRunConfig(t)
	rc.IdleBuild = true

	targets := []BuildTarget{
		{Name: "alpha", Std: "c++17", Sources: []string{writeSource(t, srcDir, "alpha.cpp")}},
	}
	results := BuildMatrix(context.Background(), targets, tc, prof, rc)
	require.Len(t, results, 1)
	assert.Equal(t, OutcomeSucceeded, results[0].Outcome, "niceness wrapper must not break the invocation")
	assert.FileExists(t, results[0].ArtifactPath)
}

func TestBuildMatrixExactFailureCounts(t *testing.T) {
	srcDir := t.TempDir()
	tc := fakeCompiler(t)
	prof, err := ResolveArch("sse42")
	require.NoError(t, err)
	rc := testRunConfig(t)

	// failures at the front, middle and back of the matrix
	var targets []BuildTarget
	for _, name := range []string{"broken0", "ok1", "broken2", "ok3", "broken4"} {
		targets = append(targets, BuildTarget{
			Name:    name,
			Std:     "c++17",
			Sources: []string{writeSource(t, srcDir, name+".cpp")},
		})
	}

	results := BuildMatrix(context.Background(), targets, tc, prof, rc)
	require.Len(t, results, len(targets))

	failed := 0
	for _, res := range results {
		if res.Outcome == OutcomeFailed {
			failed++
		}
	}
	assert.Equal(t, 3, failed)
	assert.Equal(t, OutcomeSucceeded, results[1].Outcome)
	assert.Equal(t, OutcomeSucceeded, results[3].Outcome)
}
