package pannier

import (
	"context"
	"fmt"
	"strings"
)

// Resolver turns a flat key listing into a one-level directory/file view.
// Directories are derived entities: one exists if and only if at least one
// object key starts with prefix + name + "/". They carry no metadata of
// their own and are recomputed on every call.
type Resolver struct {
	store ObjectStore
}

// NewResolver creates a Resolver over store.
func NewResolver(store ObjectStore) *Resolver {
	return &Resolver{store: store}
}

// NormalizePrefix appends a trailing "/" to a non-empty prefix that lacks
// one. The empty prefix stays empty and lists the root level.
func NormalizePrefix(prefix string) string {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

// Resolve lists the level directly below prefix. Placeholder objects (keys
// ending in "/") are dropped, never surfaced as files. origin is the public
// base URL used for file links and share text.
func (r *Resolver) Resolve(ctx context.Context, prefix, origin string) (DirListing, error) {
	prefix = NormalizePrefix(prefix)

	listing, err := r.store.List(ctx, prefix, "/")
	if err != nil {
		return DirListing{}, fmt.Errorf("resolve %q: %w: %v", prefix, ErrStoreUnavailable, err)
	}

	out := DirListing{
		Prefix:      prefix,
		Directories: make([]Directory, 0, len(listing.CommonPrefixes)),
		Files:       make([]File, 0, len(listing.Objects)),
	}

	for _, cp := range listing.CommonPrefixes {
		out.Directories = append(out.Directories, Directory{
			Name: strings.TrimSuffix(strings.TrimPrefix(cp, prefix), "/"),
			Path: cp,
		})
	}

	for _, obj := range listing.Objects {
		if strings.HasSuffix(obj.Key, "/") {
			continue // directory placeholder
		}
		out.Files = append(out.Files, fileEntry(obj, origin))
	}

	return out, nil
}

func fileEntry(obj ObjectInfo, origin string) File {
	name := obj.Key
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	pure := PureFileName(obj.Key)

	ti := TypeFor(obj.ContentType, name)
	url := origin + "/" + obj.Key

	var ext string
	if i := strings.LastIndex(name, "."); i >= 0 {
		ext = strings.ToLower(name[i+1:])
	}

	return File{
		Name:        name,
		PureName:    pure,
		Key:         obj.Key,
		Size:        obj.Size,
		UploadedAt:  obj.UploadedAt,
		ContentType: obj.ContentType,
		Category:    ti.Category,
		Icon:        ti.Icon,
		Extension:   ext,
		URL:         url,
		ShareText:   ShareText(ti.Category, pure, url),
	}
}

// ShareText renders the share string for a file: images as an embed
// reference, everything else as a plain link.
func ShareText(category, pureName, url string) string {
	if category == CategoryImage {
		return fmt.Sprintf("![%s](%s)", pureName, url)
	}
	return fmt.Sprintf("[%s](%s)", pureName, url)
}
