package deck

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeBundle(t *testing.T, recordJSON string, blobs map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	if recordJSON != "" {
		entry, err := zw.Create("data.json")
		require.NoError(t, err)
		_, err = entry.Write([]byte(recordJSON))
		require.NoError(t, err)
	}
	for name, data := range blobs {
		entry, err := zw.Create(name)
		require.NoError(t, err)
		_, err = entry.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExportImportRoundtrip(t *testing.T) {
	ctx := context.Background()

	src, err := Open(filepath.Join(t.TempDir(), "src"), "alice")
	require.NoError(t, err)
	_, err = src.AddCard(ctx, []byte("blob-one"), "a.png", "first")
	require.NoError(t, err)
	_, err = src.AddCard(ctx, []byte("blob-two"), "b.gif", "second")
	require.NoError(t, err)

	var bundle bytes.Buffer
	require.NoError(t, src.Export(ctx, &bundle))

	dst, err := Open(filepath.Join(t.TempDir(), "dst"), "someone")
	require.NoError(t, err)
	require.NoError(t, dst.Import(ctx, bundle.Bytes(), "alice"))

	assert.Equal(t, 2, dst.CardCount())
	for pos, c := range dst.Cards() {
		data, err := os.ReadFile(dst.BlobPath(c.Image))
		require.NoError(t, err)
		if pos == 1 {
			assert.Equal(t, "first", c.Caption)
			assert.Equal(t, []byte("blob-one"), data)
		}
	}
	assert.True(t, dst.IsAdmin("alice"))
	// The previous dataset is fully replaced, not merged.
	assert.False(t, dst.IsAdmin("someone"))
}

func TestImportKeepsActingAdmin(t *testing.T) {
	ctx := context.Background()

	dst, err := Open(filepath.Join(t.TempDir(), "data"), "carol")
	require.NoError(t, err)

	bundle := makeBundle(t, `{"admins":["alice"],"cards":[]}`, nil)
	require.NoError(t, dst.Import(ctx, bundle, "@Carol"))

	assert.True(t, dst.IsAdmin("alice"))
	assert.True(t, dst.IsAdmin("carol"))

	// The self-heal must be durable, not just in memory.
	reopened, err := Open(dst.Dir(), "ignored")
	require.NoError(t, err)
	assert.True(t, reopened.IsAdmin("carol"))
}

func TestImportInvalidBundleRollsBack(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	s, err := Open(dir, "alice")
	require.NoError(t, err)
	_, err = s.AddCard(ctx, []byte("keep-me"), "", "survivor")
	require.NoError(t, err)

	before, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)

	err = s.Import(ctx, []byte("this is not a zip archive"), "alice")
	require.ErrorIs(t, err, ErrBundleInvalid)

	after, err := os.ReadFile(filepath.Join(dir, "data.json"))
	require.NoError(t, err)
	assert.Equal(t, before, after)

	assert.Equal(t, 1, s.CardCount())
	for _, c := range s.Cards() {
		_, err := os.Stat(s.BlobPath(c.Image))
		assert.NoError(t, err)
	}

	// No staging leftovers that would block the next attempt.
	_, err = os.Stat(dir + ".importing")
	assert.True(t, os.IsNotExist(err))
}

func TestImportBundleWithoutRecordRollsBack(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "data"), "alice")
	require.NoError(t, err)

	bundle := makeBundle(t, "", map[string][]byte{"images/orphan.jpg": []byte("img")})
	err = s.Import(ctx, bundle, "alice")
	require.ErrorIs(t, err, ErrBundleInvalid)

	assert.True(t, s.IsAdmin("alice"))
}

func TestImportRejectsConcurrentImport(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")

	s, err := Open(dir, "alice")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(dir+".importing", 0o755))

	bundle := makeBundle(t, `{"admins":["alice"],"cards":[]}`, nil)
	err = s.Import(ctx, bundle, "alice")
	require.ErrorIs(t, err, ErrImportInProgress)
}

func TestImportRejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()

	s, err := Open(filepath.Join(tmp, "data"), "alice")
	require.NoError(t, err)

	bundle := makeBundle(t, `{"admins":["alice"],"cards":[]}`, map[string][]byte{
		"../escaped.txt": []byte("nope"),
	})
	err = s.Import(ctx, bundle, "alice")
	require.ErrorIs(t, err, ErrBundleInvalid)

	_, err = os.Stat(filepath.Join(tmp, "escaped.txt"))
	assert.True(t, os.IsNotExist(err))

	// Dataset restored and usable.
	assert.True(t, s.IsAdmin("alice"))
	_, err = s.AddCard(ctx, []byte("img"), "", "after rollback")
	require.NoError(t, err)
}
