package deck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data"), "@Alice")
	require.NoError(t, err)
	return s
}

func TestOpenSeedsFirstRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := Open(dir, "@Alice")
	require.NoError(t, err)

	assert.Equal(t, 1, s.AdminCount())
	assert.True(t, s.IsAdmin("alice"))
	assert.True(t, s.IsAdmin("@alice"))
	assert.Equal(t, 0, s.CardCount())

	_, err = os.Stat(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
}

func TestOpenReloadsExistingDataset(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := Open(dir, "alice")
	require.NoError(t, err)
	_, err = s.AddCard(context.Background(), []byte("img"), "x.png", "first")
	require.NoError(t, err)

	reopened, err := Open(dir, "ignored")
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.CardCount())
	assert.True(t, reopened.IsAdmin("alice"))
	assert.False(t, reopened.IsAdmin("ignored"))
}

func TestOpenCorruptRecordIsFatal(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.json"), []byte("{nope"), 0o644))

	_, err := Open(dir, "alice")
	require.ErrorIs(t, err, ErrStorageCorrupt)
}

func TestAddCardAssignsPositions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pos, err := s.AddCard(ctx, []byte("one"), "a.png", "first")
	require.NoError(t, err)
	assert.Equal(t, 1, pos)

	pos, err = s.AddCard(ctx, []byte("two"), "", "second")
	require.NoError(t, err)
	assert.Equal(t, 2, pos)

	var captions []string
	for _, c := range s.Cards() {
		captions = append(captions, c.Caption)
		_, err := os.Stat(s.BlobPath(c.Image))
		assert.NoError(t, err)
	}
	assert.Equal(t, []string{"first", "second"}, captions)
}

func TestAddCardRejectsEmptyBlob(t *testing.T) {
	s := newTestStore(t)
	_, err := s.AddCard(context.Background(), nil, "", "caption")
	require.ErrorIs(t, err, ErrInvalidAttachment)
}

func TestRemoveCardShiftsNumbering(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, caption := range []string{"first", "second", "third"} {
		_, err := s.AddCard(ctx, []byte(caption), "", caption)
		require.NoError(t, err)
	}

	var middleBlob string
	for pos, c := range s.Cards() {
		if pos == 2 {
			middleBlob = c.Image
		}
	}

	removed, err := s.RemoveCardAt(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "second", removed.Caption)

	var captions []string
	for _, c := range s.Cards() {
		captions = append(captions, c.Caption)
	}
	assert.Equal(t, []string{"first", "third"}, captions)

	_, err = os.Stat(s.BlobPath(middleBlob))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestRemoveCardOutOfRange(t *testing.T) {
	s := newTestStore(t)
	_, err := s.RemoveCardAt(context.Background(), 1)
	require.ErrorIs(t, err, ErrOutOfRange)

	_, err = s.AddCard(context.Background(), []byte("img"), "", "only")
	require.NoError(t, err)

	_, err = s.RemoveCardAt(context.Background(), 0)
	require.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.RemoveCardAt(context.Background(), 2)
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestParsePosition(t *testing.T) {
	pos, err := ParsePosition(" 3 ")
	require.NoError(t, err)
	assert.Equal(t, 3, pos)

	_, err = ParsePosition("abc")
	require.ErrorIs(t, err, ErrInvalidNumber)
	_, err = ParsePosition("")
	require.ErrorIs(t, err, ErrInvalidNumber)
}

func TestPickRandomCard(t *testing.T) {
	s := newTestStore(t)

	_, _, err := s.PickRandomCard()
	require.ErrorIs(t, err, ErrDeckEmpty)

	_, err = s.AddCard(context.Background(), []byte("img"), "", "only")
	require.NoError(t, err)

	pos, card, err := s.PickRandomCard()
	require.NoError(t, err)
	assert.Equal(t, 1, pos)
	assert.Equal(t, "only", card.Caption)
}

func TestAddAdminIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddAdmin(ctx, "@Bob")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddAdmin(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, added)
	assert.Equal(t, 2, s.AdminCount())
}

func TestRemoveAdminSelfHeals(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	removed, healed, err := s.RemoveAdminAt(ctx, 1, "@bob")
	require.NoError(t, err)
	assert.Equal(t, "alice", removed)
	assert.True(t, healed)
	assert.Equal(t, 1, s.AdminCount())
	assert.True(t, s.IsAdmin("bob"))

	_, _, err = s.RemoveAdminAt(ctx, 5, "bob")
	require.ErrorIs(t, err, ErrOutOfRange)
}

func TestRemoveAdminRejectsEmptyActingName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Healing would insert the acting username; with none supplied the
	// removal must fail rather than leave an empty or blank admin list.
	_, _, err := s.RemoveAdminAt(ctx, 1, "  @  ")
	require.Error(t, err)
	assert.Equal(t, 1, s.AdminCount())
	assert.True(t, s.IsAdmin("alice"))
}

func TestFailedPersistLeavesStateUntouched(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// A directory at the temp-record path makes the next persist fail.
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "data.json.tmp"), 0o755))

	_, err := s.AddCard(ctx, []byte("img"), "", "doomed")
	require.Error(t, err)
	assert.Equal(t, 0, s.CardCount())

	// The orphaned blob was cleaned up as well.
	entries, err := os.ReadDir(filepath.Join(s.Dir(), "images"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, os.Remove(filepath.Join(s.Dir(), "data.json.tmp")))
	_, err = s.AddCard(ctx, []byte("img"), "", "recovered")
	require.NoError(t, err)
	assert.Equal(t, 1, s.CardCount())
}

func TestConcurrentMutationsAreSerialized(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.AddCard(ctx, []byte("img"), "", "card")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, workers, s.CardCount())

	// Every successful add must have reached disk.
	reopened, err := Open(s.Dir(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, workers, reopened.CardCount())
}
