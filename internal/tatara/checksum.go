package tatara

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"lukechampine.com/blake3"
)

// ManifestName is the checksum manifest written next to the artifacts.
const ManifestName = "manifest.b3"

// hashFile returns the BLAKE3 digest of a file (32-byte output, no key).
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := blake3.New(32, nil)
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// WriteManifest records a BLAKE3 checksum per produced artifact into
// outputDir/manifest.b3, one "<hex>  <name>" line per artifact in result
// order. Returns the manifest path.
func WriteManifest(outputDir string, results []BuildResult) (string, error) {
	var b strings.Builder
	for _, res := range results {
		if res.Outcome != OutcomeSucceeded {
			continue
		}
		sum, err := hashFile(res.ArtifactPath)
		if err != nil {
			return "", fmt.Errorf("failed to hash %s: %w", res.ArtifactPath, err)
		}
		fmt.Fprintf(&b, "%s  %s\n", sum, filepath.Base(res.ArtifactPath))
	}

	manifestPath := filepath.Join(outputDir, ManifestName)
	if err := os.WriteFile(manifestPath, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return manifestPath, nil
}
