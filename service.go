package pannier

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// ServiceConfig carries service-level behavior switches.
type ServiceConfig struct {
	// RestrictTypes rejects uploads whose content type and extension are
	// both outside the supported-type table.
	RestrictTypes bool
}

// Service implements the object operations behind the HTTP surface: browse a
// virtual directory level, upload with a generated key, fetch and remove.
type Service struct {
	store         ObjectStore
	resolver      *Resolver
	restrictTypes bool
	now           func() time.Time
}

// NewService creates a Service over store.
func NewService(store ObjectStore, cfg ServiceConfig) *Service {
	return &Service{
		store:         store,
		resolver:      NewResolver(store),
		restrictTypes: cfg.RestrictTypes,
		now:           time.Now,
	}
}

// Browse lists the directory level at prefix. Limiter records live under the
// reserved ratelimit: namespace and only show up when browsing it explicitly,
// same as any other key.
func (s *Service) Browse(ctx context.Context, prefix, origin string) (DirListing, error) {
	return s.resolver.Resolve(ctx, prefix, origin)
}

// Upload stores the file under a generated key and returns presentation info
// for the stored object. The key never derives from the client file name,
// only its extension survives.
func (s *Service) Upload(ctx context.Context, in UploadInput, origin string) (UploadResult, error) {
	if in.Body == nil {
		return UploadResult{}, fmt.Errorf("upload: missing file: %w", ErrBadUpload)
	}

	ti := TypeFor(in.ContentType, in.FileName)
	if s.restrictTypes && ti.Category == CategoryUnknown && !KnownContentType(in.ContentType) {
		return UploadResult{}, fmt.Errorf("upload: unsupported type %q: %w", in.ContentType, ErrBadUpload)
	}

	var customPath string
	if in.UseCustomPath {
		customPath = in.CustomPath
	}
	key := NewObjectKey(customPath, ti.Ext, s.now())

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	info, err := s.store.Put(ctx, key, contentType, in.Body)
	if err != nil {
		return UploadResult{}, fmt.Errorf("upload %q: %w: %v", key, ErrStoreUnavailable, err)
	}

	return UploadResult{
		Success:      true,
		URL:          origin + "/" + info.Key,
		Key:          info.Key,
		PureFileName: PureFileName(info.Key),
		Category:     ti.Category,
		Icon:         ti.Icon,
	}, nil
}

// Fetch opens the object at key. ErrNotFound passes through untouched so
// callers can map it to a 404.
func (s *Service) Fetch(ctx context.Context, key string) (ObjectInfo, io.ReadCloser, error) {
	key = strings.TrimPrefix(key, "/")
	info, rc, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ObjectInfo{}, nil, err
		}
		return ObjectInfo{}, nil, fmt.Errorf("fetch %q: %w: %v", key, ErrStoreUnavailable, err)
	}
	return info, rc, nil
}

// Remove deletes the object at key. Removing an absent key succeeds; delete
// is idempotent all the way down.
func (s *Service) Remove(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")
	if err := s.store.Delete(ctx, key); err != nil {
		return fmt.Errorf("remove %q: %w: %v", key, ErrStoreUnavailable, err)
	}
	return nil
}
