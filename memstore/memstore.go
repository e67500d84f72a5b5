// Package memstore provides an in-memory ObjectStore. It backs tests and
// throwaway instances; nothing survives a restart.
package memstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/quaelen/pannier"
)

type object struct {
	info pannier.ObjectInfo
	data []byte
}

// Store is a mutex-guarded map of key to object.
type Store struct {
	mu      sync.RWMutex
	objects map[string]object
	now     func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		objects: make(map[string]object),
		now:     time.Now,
	}
}

func (s *Store) Put(ctx context.Context, key, contentType string, body io.Reader) (pannier.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("put %q: %w", key, err)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("put %q: %w", key, err)
	}

	sum := sha256.Sum256(data)
	info := pannier.ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:]),
		ContentType: contentType,
		UploadedAt:  s.now().UTC(),
	}

	s.mu.Lock()
	s.objects[key] = object{info: info, data: data}
	s.mu.Unlock()

	return info, nil
}

func (s *Store) Get(ctx context.Context, key string) (pannier.ObjectInfo, io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, err)
	}

	s.mu.RLock()
	obj, ok := s.objects[key]
	s.mu.RUnlock()

	if !ok {
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, pannier.ErrNotFound)
	}
	return obj.info, io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}

	s.mu.Lock()
	delete(s.objects, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) List(ctx context.Context, prefix, delimiter string) (pannier.Listing, error) {
	if err := ctx.Err(); err != nil {
		return pannier.Listing{}, fmt.Errorf("list %q: %w", prefix, err)
	}

	s.mu.RLock()
	objects := make([]pannier.ObjectInfo, 0, len(s.objects))
	for _, obj := range s.objects {
		objects = append(objects, obj.info)
	}
	s.mu.RUnlock()

	return pannier.Delimit(objects, prefix, delimiter), nil
}
