package deck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"deckbot/core/logger"

	"github.com/google/uuid"
)

const (
	recordFile = "data.json"
	blobDir    = "images"
)

// blobExtRe limits which filename-hint extensions are carried over to blob names.
var blobExtRe = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// Store holds the authoritative in-memory dataset and keeps the on-disk copy
// in sync. All mutating operations are serialized on a single mutex, and the
// in-memory state is replaced only after the new record has been durably
// written, so a failed persist leaves observable state untouched.
type Store struct {
	mu  sync.Mutex
	dir string
	rec record
}

// Open loads the dataset from dir, creating the directory layout on first
// run. A missing record is initialized with an empty deck and seedAdmin as the
// only admin, and persisted immediately. An unparseable record yields
// ErrStorageCorrupt; callers must treat that as fatal.
func Open(dir, seedAdmin string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, blobDir), 0o755); err != nil {
		return nil, fmt.Errorf("store: create data dir: %w", err)
	}

	rec, err := readRecord(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rec = record{Admins: []string{NormalizeUsername(seedAdmin)}, Cards: []Card{}}
		if err := persistTo(dir, rec); err != nil {
			return nil, err
		}
		logger.Info(context.Background(), "store", "store.seeded",
			slog.String("dir", dir),
			slog.String("username", logger.SanitizeLimit(seedAdmin, 64)),
		)
	case err != nil:
		return nil, err
	}

	return &Store{dir: dir, rec: rec}, nil
}

// Dir returns the live data directory path.
func (s *Store) Dir() string { return s.dir }

// BlobPath resolves a blob name from the record to its path on disk.
func (s *Store) BlobPath(name string) string {
	return filepath.Join(s.dir, blobDir, filepath.Base(name))
}

// AddCard stores the blob under a fresh collision-resistant name, appends a
// card referencing it, persists, and returns the assigned 1-based position.
func (s *Store) AddCard(ctx context.Context, blob []byte, filenameHint, caption string) (int, error) {
	if len(blob) == 0 {
		return 0, ErrInvalidAttachment
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name := blobName(filenameHint)
	path := filepath.Join(s.dir, blobDir, name)
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		return 0, fmt.Errorf("store: write blob: %w", err)
	}

	next := s.rec.clone()
	next.Cards = append(next.Cards, Card{Image: name, Caption: caption})
	if err := persistTo(s.dir, next); err != nil {
		_ = os.Remove(path)
		return 0, err
	}
	s.rec = next

	logger.Info(ctx, "store", "card.added",
		slog.Int("position", len(next.Cards)),
		slog.Int("bytes", len(blob)),
	)
	return len(next.Cards), nil
}

// RemoveCardAt removes the card at the given 1-based position, persists, and
// deletes its blob. The removed card is returned for display.
func (s *Store) RemoveCardAt(ctx context.Context, pos int) (Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos < 1 || pos > len(s.rec.Cards) {
		return Card{}, ErrOutOfRange
	}

	next := s.rec.clone()
	removed := next.Cards[pos-1]
	next.Cards = append(next.Cards[:pos-1], next.Cards[pos:]...)
	if err := persistTo(s.dir, next); err != nil {
		return Card{}, err
	}
	s.rec = next

	if err := os.Remove(filepath.Join(s.dir, blobDir, filepath.Base(removed.Image))); err != nil {
		// The record no longer references the blob; a stray file is not fatal.
		logger.Warn(ctx, "store", "card.blob_remove_failed",
			slog.String("image", removed.Image),
			slog.String("err", err.Error()),
		)
	}

	logger.Info(ctx, "store", "card.removed",
		slog.Int("position", pos),
		slog.Int("cards", len(next.Cards)),
	)
	return removed, nil
}

// Cards yields (1-based position, card) pairs in insertion order. The
// sequence is backed by a snapshot taken at call time, so it is restartable
// and unaffected by concurrent mutations.
func (s *Store) Cards() iter.Seq2[int, Card] {
	s.mu.Lock()
	snapshot := append([]Card(nil), s.rec.Cards...)
	s.mu.Unlock()

	return func(yield func(int, Card) bool) {
		for i, c := range snapshot {
			if !yield(i+1, c) {
				return
			}
		}
	}
}

// CardCount reports the current deck size.
func (s *Store) CardCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rec.Cards)
}

// PickRandomCard returns a uniformly random card and its position, or
// ErrDeckEmpty when there is nothing to draw.
func (s *Store) PickRandomCard() (int, Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.rec.Cards) == 0 {
		return 0, Card{}, ErrDeckEmpty
	}
	i := rand.IntN(len(s.rec.Cards))
	return i + 1, s.rec.Cards[i], nil
}

// AddAdmin appends a username to the admin list. Adding an existing admin is
// a success with added=false rather than an error.
func (s *Store) AddAdmin(ctx context.Context, username string) (added bool, err error) {
	name := NormalizeUsername(username)
	if name == "" {
		return false, errors.New("store: empty username")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.rec.Admins {
		if a == name {
			return false, nil
		}
	}

	next := s.rec.clone()
	next.Admins = append(next.Admins, name)
	if err := persistTo(s.dir, next); err != nil {
		return false, err
	}
	s.rec = next

	logger.Info(ctx, "store", "admin.added",
		slog.String("username", logger.SanitizeLimit(name, 64)),
		slog.Int("admins", len(next.Admins)),
	)
	return true, nil
}

// RemoveAdminAt removes the admin at the given 1-based position. The admin
// list must never become empty while the bot is reachable: when the removal
// would empty it, actingUsername is inserted as the replacement admin and
// healed=true is reported.
func (s *Store) RemoveAdminAt(ctx context.Context, pos int, actingUsername string) (removed string, healed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos < 1 || pos > len(s.rec.Admins) {
		return "", false, ErrOutOfRange
	}

	next := s.rec.clone()
	removed = next.Admins[pos-1]
	next.Admins = append(next.Admins[:pos-1], next.Admins[pos:]...)
	if len(next.Admins) == 0 {
		acting := NormalizeUsername(actingUsername)
		if acting == "" {
			return "", false, fmt.Errorf("remove admin %d: list would become empty and no acting username to re-insert", pos)
		}
		next.Admins = []string{acting}
		healed = true
	}
	if err := persistTo(s.dir, next); err != nil {
		return "", false, err
	}
	s.rec = next

	logger.Info(ctx, "store", "admin.removed",
		slog.String("username", logger.SanitizeLimit(removed, 64)),
		slog.Bool("healed", healed),
		slog.Int("admins", len(next.Admins)),
	)
	return removed, healed, nil
}

// Admins yields (1-based position, username) pairs in insertion order from a
// call-time snapshot.
func (s *Store) Admins() iter.Seq2[int, string] {
	s.mu.Lock()
	snapshot := append([]string(nil), s.rec.Admins...)
	s.mu.Unlock()

	return func(yield func(int, string) bool) {
		for i, a := range snapshot {
			if !yield(i+1, a) {
				return
			}
		}
	}
}

// AdminCount reports the current number of admins.
func (s *Store) AdminCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rec.Admins)
}

// IsAdmin reports whether the username is on the admin list.
func (s *Store) IsAdmin(username string) bool {
	name := NormalizeUsername(username)
	if name == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.rec.Admins {
		if a == name {
			return true
		}
	}
	return false
}

func blobName(filenameHint string) string {
	ext := ".jpg"
	if e := strings.ToLower(filepath.Ext(filepath.Base(filenameHint))); blobExtRe.MatchString(e) {
		ext = e
	}
	return uuid.NewString() + ext
}

func readRecord(dir string) (record, error) {
	data, err := os.ReadFile(filepath.Join(dir, recordFile))
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("%w: %s: %v", ErrStorageCorrupt, recordFile, err)
	}
	return rec, nil
}

// persistTo writes the record as a new file and renames it over the live one,
// so an interrupted write never leaves a half-written record behind.
func persistTo(dir string, rec record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode record: %w", err)
	}

	tmp := filepath.Join(dir, recordFile+".tmp")
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("store: create temp record: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("store: write record: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("store: sync record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("store: close record: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(dir, recordFile)); err != nil {
		return fmt.Errorf("store: replace record: %w", err)
	}
	return nil
}
