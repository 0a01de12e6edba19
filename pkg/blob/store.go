// Package blob stores file content addressed by its SHA-1 digest in a
// three-level sharded tree: <root>/<h[0:2]>/<h[2:4]>/<h[4:6]>/<h>.
package blob

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// HashLength is the length of a hex encoded SHA-1 digest.
const HashLength = sha1.Size * 2

var (
	ErrInvalidHash = errors.New("invalid content hash")
	ErrNotFound    = errors.New("blob not found")
)

type Store struct {
	fs   afero.Fs
	root string
}

type WriteResult struct {
	Hash string
	Size int64
}

// New creates the storage root on fs if necessary.
func New(fs afero.Fs, root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	store := &Store{fs: fs, root: root}
	if err := store.ensureRoot(); err != nil {
		return nil, err
	}

	return store, nil
}

// NewOsStore is New on the operating system filesystem.
func NewOsStore(root string) (*Store, error) {
	return New(afero.NewOsFs(), root)
}

func (s *Store) Root() string {
	return s.root
}

// PathFor returns the sharded relative path of hash using '/' separators.
// Hashes shorter than six characters are not supported.
func PathFor(hash string) string {
	return hash[0:2] + "/" + hash[2:4] + "/" + hash[4:6] + "/" + hash
}

// HashString returns the SHA-1 hex digest of s.
func HashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func (s *Store) fullPath(hash string) (string, error) {
	if len(hash) < 6 {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidHash, hash)
	}
	return filepath.Join(s.root, filepath.FromSlash(PathFor(hash))), nil
}

// FullPath returns the location of hash below the storage root.
func (s *Store) FullPath(hash string) (string, error) {
	return s.fullPath(hash)
}

// Write streams r into the store and returns its digest and length.
// Content is written to a temporary file next to the target and renamed
// into place, so concurrent writers of the same content converge.
func (s *Store) Write(ctx context.Context, r io.Reader) (*WriteResult, error) {
	if err := s.ensureRoot(); err != nil {
		return nil, err
	}

	tmp, err := afero.TempFile(s.fs, s.root, ".upload-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	hasher := sha1.New()
	size, err := io.Copy(tmp, io.TeeReader(contextReader{ctx: ctx, r: r}, hasher))
	if err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("failed to write blob data: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("failed to sync blob data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	hash := hex.EncodeToString(hasher.Sum(nil))
	target, _ := s.fullPath(hash)

	if err := s.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}

	// Identical hash means identical content; replacing an existing blob is harmless.
	if err := s.fs.Rename(tmpPath, target); err != nil {
		s.fs.Remove(tmpPath)
		return nil, fmt.Errorf("failed to move blob into place: %w", err)
	}

	return &WriteResult{Hash: hash, Size: size}, nil
}

// Open returns a reader for the blob. The caller must close it.
func (s *Store) Open(hash string) (afero.File, error) {
	path, err := s.fullPath(hash)
	if err != nil {
		return nil, err
	}

	f, err := s.fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", hash, err)
	}
	return f, nil
}

func (s *Store) Exists(hash string) bool {
	path, err := s.fullPath(hash)
	if err != nil {
		return false
	}
	ok, err := afero.Exists(s.fs, path)
	return err == nil && ok
}

// DeleteIfUnreferenced removes the blob only when referenceCount is zero.
// The count must exclude the record being deleted. A missing blob or an
// empty hash is not an error.
func (s *Store) DeleteIfUnreferenced(hash string, referenceCount int64) (bool, error) {
	if referenceCount > 0 || hash == "" {
		return false, nil
	}

	path, err := s.fullPath(hash)
	if err != nil {
		return false, err
	}

	if err := s.fs.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete blob %s: %w", hash, err)
	}
	return true, nil
}

func (s *Store) ensureRoot() error {
	if ok, err := afero.DirExists(s.fs, s.root); err == nil && ok {
		return nil
	}
	if err := s.fs.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create storage root %s: %w", s.root, err)
	}
	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr contextReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
