// Package fsstore provides a local filesystem ObjectStore. Objects are laid
// out content-addressed by key hash, with a JSON metadata sidecar per object,
// so arbitrary keys (including ones with ":" or very long path segments)
// never touch the host path rules. Writes are atomic via temp file and
// rename, and payloads can optionally be gzip-compressed at rest.
package fsstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/quaelen/pannier"
)

const (
	objectsDir = "objects"
	tmpDir     = ".tmp"
	dataFile   = "data"
	metaFile   = "meta.json"
)

type meta struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ETag        string    `json:"etag"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
	Compressed  bool      `json:"compressed,omitempty"`
}

func (m meta) info() pannier.ObjectInfo {
	return pannier.ObjectInfo{
		Key:         m.Key,
		Size:        m.Size,
		ETag:        m.ETag,
		ContentType: m.ContentType,
		UploadedAt:  m.UploadedAt,
	}
}

// Option configures a Store.
type Option func(*Store)

// WithCompression gzips payloads on disk. Size and etag always describe the
// uncompressed content.
func WithCompression() Option {
	return func(s *Store) { s.compress = true }
}

// Store persists objects under a sandboxed root directory.
type Store struct {
	root     *os.Root
	compress bool
	now      func() time.Time
}

// New creates a Store rooted at root. The root provides sandboxed file
// operations preventing path traversal.
func New(root *os.Root, opts ...Option) (*Store, error) {
	s := &Store{root: root, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	for _, dir := range []string{objectsDir, tmpDir} {
		if err := root.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create %s dir: %w", dir, err)
		}
	}
	return s, nil
}

// Open opens dir as an os.Root and creates a Store on it, creating dir
// first when absent.
func Open(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("open store dir: %w", err)
	}
	return New(root, opts...)
}

// Close releases the underlying root handle.
func (s *Store) Close() error {
	return s.root.Close()
}

// objectDir maps a key to its directory: objects/xx/yy/<sha256hex> with the
// first two hash bytes as fan-out levels.
func objectDir(key string) string {
	sum := sha256.Sum256([]byte(key))
	h := hex.EncodeToString(sum[:])
	return filepath.Join(objectsDir, h[:2], h[2:4], h)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

func (s *Store) Put(ctx context.Context, key, contentType string, body io.Reader) (pannier.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return pannier.ObjectInfo{}, err
	}

	tmpName := filepath.Join(tmpDir, "t"+uuid.New().String())
	t, err := s.root.Create(tmpName)
	if err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpName); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	h := sha256.New()

	var dst io.Writer = t
	var gz *gzip.Writer
	if s.compress {
		gz = gzip.NewWriter(t)
		dst = gz
	}

	size, err := io.Copy(io.MultiWriter(h, dst), &ctxReader{ctx: ctx, r: body})
	if err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("copy object contents: %w", err)
	}
	if gz != nil {
		if err := gz.Close(); err != nil {
			return pannier.ObjectInfo{}, fmt.Errorf("flush compressed contents: %w", err)
		}
	}
	if err := t.Sync(); err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("sync written file: %w", err)
	}

	m := meta{
		Key:         key,
		Size:        size,
		ETag:        hex.EncodeToString(h.Sum(nil)),
		ContentType: contentType,
		UploadedAt:  s.now().UTC(),
		Compressed:  s.compress,
	}

	dir := objectDir(key)
	if err := s.root.MkdirAll(dir, 0o755); err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("create object dir: %w", err)
	}
	if err := s.writeMeta(filepath.Join(dir, metaFile), m); err != nil {
		return pannier.ObjectInfo{}, err
	}
	if err := s.root.Rename(tmpName, filepath.Join(dir, dataFile)); err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("rename object file: %w", err)
	}

	success = true
	return m.info(), nil
}

func (s *Store) writeMeta(path string, m meta) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}

	tmpName := filepath.Join(tmpDir, "m"+uuid.New().String())
	t, err := s.root.Create(tmpName)
	if err != nil {
		return fmt.Errorf("create meta temp file: %w", err)
	}
	if _, err := t.Write(raw); err != nil {
		_ = t.Close()
		_ = s.root.Remove(tmpName)
		return fmt.Errorf("write meta: %w", err)
	}
	if err := t.Close(); err != nil {
		_ = s.root.Remove(tmpName)
		return fmt.Errorf("close meta: %w", err)
	}
	if err := s.root.Rename(tmpName, path); err != nil {
		_ = s.root.Remove(tmpName)
		return fmt.Errorf("rename meta: %w", err)
	}
	return nil
}

func (s *Store) readMeta(path string) (meta, error) {
	f, err := s.root.Open(path)
	if err != nil {
		return meta{}, err
	}
	defer func() { _ = f.Close() }()

	var m meta
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return meta{}, fmt.Errorf("decode meta: %w", err)
	}
	return m, nil
}

func (s *Store) Get(ctx context.Context, key string) (pannier.ObjectInfo, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return pannier.ObjectInfo{}, nil, err
	}

	dir := objectDir(key)
	m, err := s.readMeta(filepath.Join(dir, metaFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, pannier.ErrNotFound)
		}
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, err)
	}

	f, err := s.root.Open(filepath.Join(dir, dataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, pannier.ErrNotFound)
		}
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, err)
	}

	if !m.Compressed {
		return m.info(), f, nil
	}

	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: open compressed data: %w", key, err)
	}
	return m.info(), &gzipReadCloser{gz: gz, f: f}, nil
}

type gzipReadCloser struct {
	gz *gzip.Reader
	f  *os.File
}

func (g *gzipReadCloser) Read(p []byte) (int, error) { return g.gz.Read(p) }

func (g *gzipReadCloser) Close() error {
	gzErr := g.gz.Close()
	fErr := g.f.Close()
	if gzErr != nil {
		return gzErr
	}
	return fErr
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := objectDir(key)
	for _, name := range []string{dataFile, metaFile} {
		if err := s.root.Remove(filepath.Join(dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("delete %q: %w", key, err)
		}
	}
	if err := s.root.Remove(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("failed to remove object dir", "key", key, "err", err)
	}
	return nil
}

// List walks every metadata sidecar under objects/ and delegates the
// prefix/delimiter grouping to pannier.Delimit. The hash fan-out keeps
// directories small but scatters keys, so listing is a full scan.
func (s *Store) List(ctx context.Context, prefix, delimiter string) (pannier.Listing, error) {
	if err := ctx.Err(); err != nil {
		return pannier.Listing{}, err
	}

	var objects []pannier.ObjectInfo
	err := fs.WalkDir(s.root.FS(), objectsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() || d.Name() != metaFile {
			return nil
		}

		m, err := s.readMeta(path)
		if err != nil {
			return err
		}
		objects = append(objects, m.info())
		return nil
	})
	if err != nil {
		return pannier.Listing{}, fmt.Errorf("list %q: %w", prefix, err)
	}

	return pannier.Delimit(objects, prefix, delimiter), nil
}
