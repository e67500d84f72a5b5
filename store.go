package pannier

import (
	"context"
	"io"
	"sort"
	"strings"
)

// ObjectStore is the flat key/value capability everything else builds on.
// Implementations can use the local filesystem, SQLite, Postgres, or memory.
//
// All methods accept a context for cancellation and timeout control.
type ObjectStore interface {
	// Put stores body under key, overwriting any existing object. The
	// declared content type is recorded as-is, never sniffed.
	Put(ctx context.Context, key, contentType string, body io.Reader) (ObjectInfo, error)

	// Get returns the object's metadata and an open reader for its payload.
	// Returns ErrNotFound if the key is absent. The caller closes the reader.
	Get(ctx context.Context, key string) (ObjectInfo, io.ReadCloser, error)

	// Delete removes the object. Deleting an absent key is a no-op, not an
	// error.
	Delete(ctx context.Context, key string) error

	// List returns the one-level view below prefix. With delimiter "/",
	// keys containing a further "/" after the prefix are grouped into
	// CommonPrefixes; the rest are returned as Objects. With an empty
	// delimiter all matching keys are returned as Objects.
	//
	// Implementations return complete listings; truncation is a defect of
	// the adapter, not something callers handle.
	List(ctx context.Context, prefix, delimiter string) (Listing, error)
}

// Delimit computes a delimiter listing from a flat set of objects. Backends
// without native delimiter support filter by prefix and hand the survivors
// here so the grouping math lives in one place.
func Delimit(objects []ObjectInfo, prefix, delimiter string) Listing {
	var listing Listing
	seen := make(map[string]bool)

	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, prefix) {
			continue
		}
		rest := obj.Key[len(prefix):]
		if rest == "" {
			// The prefix itself names an object (a placeholder); it is a
			// direct child, not a sub-prefix.
			listing.Objects = append(listing.Objects, obj)
			continue
		}
		if delimiter != "" {
			if i := strings.Index(rest, delimiter); i >= 0 {
				cp := prefix + rest[:i+len(delimiter)]
				if !seen[cp] {
					seen[cp] = true
					listing.CommonPrefixes = append(listing.CommonPrefixes, cp)
				}
				continue
			}
		}
		listing.Objects = append(listing.Objects, obj)
	}

	sort.Strings(listing.CommonPrefixes)
	sort.Slice(listing.Objects, func(i, j int) bool {
		return listing.Objects[i].Key < listing.Objects[j].Key
	})

	return listing
}
