package blob

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	s, err := New(fs, "/storage")
	require.NoError(t, err)
	return s, fs
}

func sha1Hex(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

func TestPathFor(t *testing.T) {
	hash := "abcdef1234567890abcdef1234567890abcdef12"

	assert.Equal(t, "ab/cd/ef/"+hash, PathFor(hash))
	assert.Equal(t, PathFor(hash), PathFor(hash))
}

func TestHashString(t *testing.T) {
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", HashString(""))
	assert.Len(t, HashString("photo.jpg"), HashLength)
}

func TestWrite_StoresUnderShardedPath(t *testing.T) {
	s, fs := newTestStore(t)
	content := []byte("hello1234\n")

	result, err := s.Write(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, sha1Hex(content), result.Hash)
	assert.Equal(t, int64(10), result.Size)

	data, err := afero.ReadFile(fs, "/storage/"+PathFor(result.Hash))
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.True(t, s.Exists(result.Hash))
}

func TestWrite_IsIdempotent(t *testing.T) {
	s, fs := newTestStore(t)
	content := []byte("same bytes")

	first, err := s.Write(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)
	second, err := s.Write(context.Background(), bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, first.Hash, second.Hash)

	// No temp files are left behind.
	entries, err := afero.ReadDir(fs, "/storage")
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasSuffix(e.Name(), ".tmp"), "leftover %s", e.Name())
	}
}

func TestWrite_EmptyStream(t *testing.T) {
	s, _ := newTestStore(t)

	result, err := s.Write(context.Background(), bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, HashString(""), result.Hash)
	assert.Equal(t, int64(0), result.Size)
}

func TestWrite_ConcurrentSameContent(t *testing.T) {
	s, _ := newTestStore(t)
	content := []byte("identical content for all goroutines")

	const writers = 10
	var wg sync.WaitGroup
	hashes := make([]string, writers)
	errs := make([]error, writers)

	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func(idx int) {
			defer wg.Done()
			res, err := s.Write(context.Background(), bytes.NewReader(content))
			errs[idx] = err
			if res != nil {
				hashes[idx] = res.Hash
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < writers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, hashes[0], hashes[i])
	}
}

func TestWrite_ReadOnlyFilesystemFails(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/storage", 0755))

	s, err := New(afero.NewReadOnlyFs(base), "/storage")
	require.NoError(t, err)

	_, err = s.Write(context.Background(), strings.NewReader("data"))
	assert.Error(t, err)
}

func TestWrite_CanceledContext(t *testing.T) {
	s, _ := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Write(ctx, strings.NewReader("data"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOpen(t *testing.T) {
	s, _ := newTestStore(t)

	result, err := s.Write(context.Background(), strings.NewReader("download me"))
	require.NoError(t, err)

	f, err := s.Open(result.Hash)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "download me", string(data))

	_, err = s.Open(HashString("missing"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Open("abc")
	assert.ErrorIs(t, err, ErrInvalidHash)
}

func TestDeleteIfUnreferenced(t *testing.T) {
	s, _ := newTestStore(t)

	result, err := s.Write(context.Background(), strings.NewReader("shared"))
	require.NoError(t, err)

	deleted, err := s.DeleteIfUnreferenced(result.Hash, 1)
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.True(t, s.Exists(result.Hash))

	deleted, err = s.DeleteIfUnreferenced(result.Hash, 0)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.False(t, s.Exists(result.Hash))

	// Already absent
	deleted, err = s.DeleteIfUnreferenced(result.Hash, 0)
	require.NoError(t, err)
	assert.False(t, deleted)

	// Placeholder records carry no blob
	deleted, err = s.DeleteIfUnreferenced("", 0)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestNew_RequiresRoot(t *testing.T) {
	_, err := New(afero.NewMemMapFs(), "")
	assert.Error(t, err)

	_, err = New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/missing")
	assert.Error(t, err)
}
