package pannier

import (
	"io"
	"time"
)

// ObjectInfo describes a stored object. The key is the sole identity;
// everything else is metadata captured at upload time.
type ObjectInfo struct {
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	ETag        string    `json:"etag,omitempty"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Listing is the result of a delimiter list: the keys directly below the
// prefix, plus the distinct one-segment-deeper prefixes. The two sets are
// disjoint.
type Listing struct {
	CommonPrefixes []string
	Objects        []ObjectInfo
}

// Directory is a virtual directory entry derived from a common prefix.
// Path is the full prefix, usable as the next browse argument.
type Directory struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// File is a browse-view file entry.
type File struct {
	Name        string    `json:"name"`
	PureName    string    `json:"nameWithoutExt"`
	Key         string    `json:"key"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded"`
	ContentType string    `json:"contentType"`
	Category    string    `json:"category"`
	Icon        string    `json:"icon"`
	Extension   string    `json:"extension"`
	URL         string    `json:"url"`
	ShareText   string    `json:"markdown"`
}

// DirListing is the resolver output for one prefix: the one-level view of
// the namespace below it.
type DirListing struct {
	Prefix      string      `json:"prefix"`
	Directories []Directory `json:"directories"`
	Files       []File      `json:"files"`
}

// UploadInput carries one multipart upload.
type UploadInput struct {
	FileName      string
	ContentType   string
	UseCustomPath bool
	CustomPath    string
	Body          io.Reader
}

// UploadResult is the upload response payload.
type UploadResult struct {
	Success      bool   `json:"success"`
	URL          string `json:"url"`
	Key          string `json:"fileName"`
	PureFileName string `json:"pureFileName"`
	Category     string `json:"category"`
	Icon         string `json:"icon"`
}
