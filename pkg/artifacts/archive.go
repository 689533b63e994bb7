package artifacts

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// archiveFile is the name of the downloaded release archive inside its
// cache entry.
const archiveFile = "archive.tar.gz"

// maxRunnerSize bounds a single decompressed runner archive entry.
const maxRunnerSize = 1 << 30 // 1 GiB

// runnerEntryName is the path of a nested runner archive inside a
// release archive.
func runnerEntryName(name, hash string) string {
	return fmt.Sprintf("runners/%s-%s.tar.gz", name, hash)
}

// extractRunner locates the nested runner archive addressed by
// (name, hash) inside the release archive at archivePath, verifies its
// content hash, and extracts it into dst. Corrupt or missing content
// surfaces wrapping ErrExtraction.
func extractRunner(archivePath, name, hash, dst string) error {
	entry, err := readArchiveEntry(archivePath, runnerEntryName(name, hash))
	if err != nil {
		return err
	}

	sum := sha256.Sum256(entry)
	if got := hex.EncodeToString(sum[:]); got != hash {
		return fmt.Errorf("%w: runner %s content hash mismatch: want %s, got %s", ErrExtraction, name, hash, got)
	}

	if err := untar(bytes.NewReader(entry), dst); err != nil {
		return fmt.Errorf("%w: runner %s: %v", ErrExtraction, name, err)
	}
	return nil
}

// readArchiveEntry returns the bytes of one entry in a gzipped tar.
func readArchiveEntry(archivePath, entryName string) ([]byte, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: open release archive: %v", ErrExtraction, err)
	}
	defer f.Close()

	gr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%w: release archive is not gzip: %v", ErrExtraction, err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: release archive: %v", ErrExtraction, err)
		}
		if hdr.Name != entryName {
			continue
		}
		data, err := io.ReadAll(io.LimitReader(tr, maxRunnerSize))
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %v", ErrExtraction, entryName, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: release archive has no entry %s", ErrExtraction, entryName)
}

// untar extracts a gzipped tar stream into dst. Entry paths are confined
// to dst; absolute paths and parent traversal are rejected.
func untar(r io.Reader, dst string) error {
	gr, err := gzip.NewReader(r)
	if err != nil {
		return fmt.Errorf("not gzip: %w", err)
	}
	defer gr.Close()

	tr := tar.NewReader(gr)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("tar read: %w", err)
		}

		target, err := securePath(dst, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create parent of %s: %w", hdr.Name, err)
			}
			if err := writeFileFrom(target, tr, hdr.Mode); err != nil {
				return fmt.Errorf("write %s: %w", hdr.Name, err)
			}
		default:
			// Symlinks and specials are not part of the runner format.
			return fmt.Errorf("unsupported entry type %q for %s", hdr.Typeflag, hdr.Name)
		}
	}
}

func securePath(dst, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute entry path %s", name)
	}
	target := filepath.Join(dst, filepath.FromSlash(name))
	if !strings.HasPrefix(target, filepath.Clean(dst)+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry path %s escapes extraction root", name)
	}
	return target, nil
}

func writeFileFrom(target string, r io.Reader, mode int64) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(mode)&0o777)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, io.LimitReader(r, maxRunnerSize)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
