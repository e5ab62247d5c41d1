package tatara

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/blake3"
)

func TestWriteManifest(t *testing.T) {
	outDir := t.TempDir()
	payload := []byte("artifact bytes")
	artifact := filepath.Join(outDir, "tessel")
	require.NoError(t, os.WriteFile(artifact, payload, 0o755))

	results := []BuildResult{
		{Target: "tessel", Outcome: OutcomeSucceeded, ArtifactPath: artifact},
		{Target: "hullgen", Outcome: OutcomeFailed},
	}

	path, err := WriteManifest(outDir, results)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(outDir, ManifestName), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	sum := blake3.Sum256(payload)
	want := fmt.Sprintf("%x  tessel\n", sum)
	assert.Equal(t, want, string(data), "failed targets are left out")
}

func TestWriteManifestEmpty(t *testing.T) {
	outDir := t.TempDir()
	path, err := WriteManifest(outDir, []BuildResult{{Target: "x", Outcome: OutcomeFailed}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(string(data)))
}
