package tatara

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// DistArchiveName is the distributable bundle of a run's output directory.
const DistArchiveName = "tatara-dist.tar.zst"

// CreateDistArchive packs the output directory into a tar.zst placed in its
// parent directory and returns the archive path. Pure-Go tar+zstd, no
// dependency on a system tar.
func CreateDistArchive(outputDir string) (string, error) {
	archivePath := filepath.Join(filepath.Dir(outputDir), DistArchiveName)

	outFile, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create dist archive: %w", err)
	}
	defer outFile.Close()

	zw, err := zstd.NewWriter(outFile)
	if err != nil {
		return "", fmt.Errorf("failed to create zstd writer: %w", err)
	}
	defer zw.Close()

	tw := tar.NewWriter(zw)
	defer tw.Close()

	// Walk outputDir and add files
	err = filepath.Walk(outputDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(outputDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		var linkTarget string
		if info.Mode()&os.ModeSymlink != 0 {
			linkTarget, err = os.Readlink(path)
			if err != nil {
				return fmt.Errorf("readlink %s: %w", path, err)
			}
		}

		hdr, err := tar.FileInfoHeader(info, linkTarget)
		if err != nil {
			return err
		}
		hdr.Name = rel
		hdr.Uid, hdr.Gid = 0, 0
		hdr.Uname, hdr.Gname = "", ""

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			if _, err := io.Copy(tw, f); err != nil {
				return fmt.Errorf("failed to archive %s: %w", path, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return archivePath, nil
}
