package deck

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"deckbot/core/logger"
)

// Bundle layout: the record sits at the archive root, blobs under images/.
// Export produces exactly what Import consumes.
const bundleBlobPrefix = blobDir + "/"

// stagingSuffix marks the directory the live dataset is parked in while an
// import is in flight. Its presence doubles as the import-in-progress sentinel.
const stagingSuffix = ".importing"

// Export writes the full dataset as a zip bundle: the structured record plus
// every referenced blob. The store lock is held for the duration so the
// record and the blob files cannot drift apart mid-archive.
func (s *Store) Export(ctx context.Context, w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	zw := zip.NewWriter(w)

	data, err := json.MarshalIndent(s.rec, "", "  ")
	if err != nil {
		return fmt.Errorf("archive: encode record: %w", err)
	}
	entry, err := zw.Create(recordFile)
	if err != nil {
		return fmt.Errorf("archive: create record entry: %w", err)
	}
	if _, err := entry.Write(data); err != nil {
		return fmt.Errorf("archive: write record entry: %w", err)
	}

	for _, c := range s.rec.Cards {
		name := filepath.Base(c.Image)
		if err := s.exportBlob(zw, name); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("archive: finalize bundle: %w", err)
	}

	logger.Info(ctx, "archive", "export.done",
		slog.Int("cards", len(s.rec.Cards)),
		slog.Int("admins", len(s.rec.Admins)),
	)
	return nil
}

func (s *Store) exportBlob(zw *zip.Writer, name string) error {
	f, err := os.Open(filepath.Join(s.dir, blobDir, name))
	if err != nil {
		return fmt.Errorf("archive: open blob %s: %w", name, err)
	}
	defer f.Close()

	entry, err := zw.Create(bundleBlobPrefix + name)
	if err != nil {
		return fmt.Errorf("archive: create blob entry %s: %w", name, err)
	}
	if _, err := io.Copy(entry, f); err != nil {
		return fmt.Errorf("archive: write blob entry %s: %w", name, err)
	}
	return nil
}

// Import replaces the entire live dataset with the contents of the uploaded
// bundle. The live directory is renamed aside first and restored on any
// failure, so the dataset on disk is never worse off than before the attempt.
// Imports do not run concurrently: a leftover staging directory from an
// in-flight (or crashed) import rejects the call with ErrImportInProgress.
func (s *Store) Import(ctx context.Context, bundle []byte, actingUsername string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staging := s.dir + stagingSuffix
	if _, err := os.Stat(staging); err == nil {
		return ErrImportInProgress
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("archive: check staging dir: %w", err)
	}

	if err := os.Rename(s.dir, staging); err != nil {
		return fmt.Errorf("archive: stage live dataset: %w", err)
	}

	rec, err := s.installBundle(bundle)
	if err != nil {
		s.rollback(ctx, staging, err)
		return err
	}

	// The importing admin must not lock themselves out of the new dataset.
	acting := NormalizeUsername(actingUsername)
	if acting != "" && !slices.Contains(rec.Admins, acting) {
		rec.Admins = append(rec.Admins, acting)
		if err := persistTo(s.dir, rec); err != nil {
			s.rollback(ctx, staging, err)
			return err
		}
	}

	if err := os.RemoveAll(staging); err != nil {
		// A stale staging dir blocks every future import until removed.
		logger.Warn(ctx, "archive", "import.staging_cleanup_failed",
			slog.String("path", staging),
			slog.String("err", err.Error()),
		)
	}
	s.rec = rec

	logger.Info(ctx, "archive", "import.done",
		slog.Int("cards", len(rec.Cards)),
		slog.Int("admins", len(rec.Admins)),
	)
	return nil
}

// installBundle extracts the bundle into a fresh live directory and parses
// the record it carried.
func (s *Store) installBundle(bundle []byte) (record, error) {
	if err := os.MkdirAll(filepath.Join(s.dir, blobDir), 0o755); err != nil {
		return record{}, fmt.Errorf("archive: create data dir: %w", err)
	}
	if err := extractBundle(bundle, s.dir); err != nil {
		return record{}, err
	}

	rec, err := readRecord(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, ErrStorageCorrupt) {
			return record{}, fmt.Errorf("%w: %v", ErrBundleInvalid, err)
		}
		return record{}, err
	}
	for i, a := range rec.Admins {
		rec.Admins[i] = NormalizeUsername(a)
	}
	return rec, nil
}

// rollback discards whatever was extracted and restores the staged-aside
// original, reloading the in-memory record from it.
func (s *Store) rollback(ctx context.Context, staging string, cause error) {
	_ = os.RemoveAll(s.dir)
	if err := os.Rename(staging, s.dir); err != nil {
		logger.Error(ctx, "archive", "import.rollback_failed",
			slog.String("path", staging),
			slog.String("err", err.Error()),
			slog.String("cause", cause.Error()),
		)
		return
	}

	rec, err := readRecord(s.dir)
	if err != nil {
		// Restore succeeded on disk but the reload did not; keep the previous
		// in-memory copy, which still matches the restored files.
		logger.Error(ctx, "archive", "import.reload_failed",
			slog.String("err", err.Error()),
		)
		return
	}
	s.rec = rec

	logger.Warn(ctx, "archive", "import.rolled_back",
		slog.String("err", cause.Error()),
	)
}

func extractBundle(bundle []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(bundle), int64(len(bundle)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBundleInvalid, err)
	}

	for _, f := range zr.File {
		rel := filepath.FromSlash(f.Name)
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("%w: unsafe entry path %q", ErrBundleInvalid, f.Name)
		}
		target := filepath.Join(dir, rel)

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("archive: create dir %s: %w", rel, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return fmt.Errorf("archive: create dir for %s: %w", rel, err)
		}
		if err := extractFile(f, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: entry %s: %v", ErrBundleInvalid, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("archive: create %s: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, rc); err != nil {
		return fmt.Errorf("%w: entry %s: %v", ErrBundleInvalid, f.Name, err)
	}
	return nil
}
