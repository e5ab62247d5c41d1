package tatara

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestSmokeTestHelpSupported(t *testing.T) {
	artifact := writeScript(t, "helpful", `[ "$1" = "--help" ] && exit 0
exit 2
`)
	assert.Equal(t, CheckPassed, smokeTest(context.Background(), artifact))
}

func TestSmokeTestVersionFallback(t *testing.T) {
	artifact := writeScript(t, "versioned", `[ "$1" = "--version" ] && exit 0
exit 2
`)
	assert.Equal(t, CheckPassed, smokeTest(context.Background(), artifact))
}

func TestSmokeTestInconclusive(t *testing.T) {
	// Rejecting both conventions is not evidence of a broken build.
	artifact := writeScript(t, "mute", "exit 2\n")
	assert.Equal(t, CheckInconclusive, smokeTest(context.Background(), artifact))
}

func TestParseLddOutput(t *testing.T) {
	out := `	linux-vdso.so.1 (0x00007ffd4a5f2000)
	libm.so.6 => /usr/lib/libm.so.6 (0x00007f2a8e000000)
	libc.so.6 => /usr/lib/libc.so.6 (0x00007f2a8dc00000)
	/lib64/ld-linux-x86-64.so.2 => /usr/lib64/ld-linux-x86-64.so.2 (0x00007f2a8e2c0000)
`
	libs := parseLddOutput(out)
	assert.Equal(t, []string{"libc.so.6", "libm.so.6"}, libs, "loader internals are filtered, rest sorted")
}

func TestParseLddOutputStatic(t *testing.T) {
	assert.Empty(t, parseLddOutput("\tstatically linked\n"))
}

func TestElfLibrariesNonELF(t *testing.T) {
	artifact := writeScript(t, "script", "exit 0\n")
	assert.Empty(t, elfLibraries(artifact))
}

func TestVerifySkipsFailedBuilds(t *testing.T) {
	artifact := writeScript(t, "ok", `[ "$1" = "--help" ] && exit 0
exit 2
`)
	results := []BuildResult{
		{Target: "ok", Outcome: OutcomeSucceeded, ArtifactPath: artifact},
		{Target: "bad", Outcome: OutcomeFailed},
	}

	verified := Verify(context.Background(), results)
	require.Len(t, verified, 1, "only produced artifacts are verified")
	assert.Equal(t, artifact, verified[0].ArtifactPath)
	assert.Equal(t, CheckPassed, verified[0].Functional)
}

func TestVerifySkipsNonExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	verified := Verify(context.Background(), []BuildResult{
		{Target: "plain", Outcome: OutcomeSucceeded, ArtifactPath: path},
	})
	assert.Empty(t, verified)
}

func TestIsLoaderInternal(t *testing.T) {
	assert.True(t, isLoaderInternal("linux-vdso.so.1"))
	assert.True(t, isLoaderInternal("ld-linux-x86-64.so.2"))
	assert.False(t, isLoaderInternal("libtbb.so.12"))
}
