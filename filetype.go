package pannier

import (
	"path"
	"sort"
	"strings"
)

// File categories used for icons, previews and share-text rendering.
const (
	CategoryImage    = "image"
	CategoryDocument = "document"
	CategoryArchive  = "archive"
	CategoryAudio    = "audio"
	CategoryVideo    = "video"
	CategoryCode     = "code"
	CategoryUnknown  = "unknown"
)

// TypeInfo describes how a content type is presented and stored.
type TypeInfo struct {
	Ext      string
	Category string
	Icon     string
	Accept   string
}

var fileTypes = map[string]TypeInfo{
	"image/jpeg":    {Ext: "jpg", Category: CategoryImage, Icon: "🖼️", Accept: ".jpg,.jpeg"},
	"image/png":     {Ext: "png", Category: CategoryImage, Icon: "🖼️", Accept: ".png"},
	"image/gif":     {Ext: "gif", Category: CategoryImage, Icon: "🖼️", Accept: ".gif"},
	"image/webp":    {Ext: "webp", Category: CategoryImage, Icon: "🖼️", Accept: ".webp"},
	"image/svg+xml": {Ext: "svg", Category: CategoryImage, Icon: "🖼️", Accept: ".svg"},

	"application/pdf":    {Ext: "pdf", Category: CategoryDocument, Icon: "📄", Accept: ".pdf"},
	"application/msword": {Ext: "doc", Category: CategoryDocument, Icon: "📝", Accept: ".doc"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {Ext: "docx", Category: CategoryDocument, Icon: "📝", Accept: ".docx"},
	"application/vnd.ms-excel": {Ext: "xls", Category: CategoryDocument, Icon: "📊", Accept: ".xls"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {Ext: "xlsx", Category: CategoryDocument, Icon: "📊", Accept: ".xlsx"},
	"application/vnd.ms-powerpoint": {Ext: "ppt", Category: CategoryDocument, Icon: "📈", Accept: ".ppt"},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {Ext: "pptx", Category: CategoryDocument, Icon: "📈", Accept: ".pptx"},
	"text/plain": {Ext: "txt", Category: CategoryDocument, Icon: "📄", Accept: ".txt"},
	"text/csv":   {Ext: "csv", Category: CategoryDocument, Icon: "📊", Accept: ".csv"},

	"application/zip":              {Ext: "zip", Category: CategoryArchive, Icon: "🗜️", Accept: ".zip"},
	"application/x-rar-compressed": {Ext: "rar", Category: CategoryArchive, Icon: "🗜️", Accept: ".rar"},
	"application/x-7z-compressed":  {Ext: "7z", Category: CategoryArchive, Icon: "🗜️", Accept: ".7z"},

	"audio/mpeg": {Ext: "mp3", Category: CategoryAudio, Icon: "🎵", Accept: ".mp3"},
	"audio/wav":  {Ext: "wav", Category: CategoryAudio, Icon: "🎵", Accept: ".wav"},
	"audio/ogg":  {Ext: "ogg", Category: CategoryAudio, Icon: "🎵", Accept: ".ogg"},
	"audio/mp4":  {Ext: "m4a", Category: CategoryAudio, Icon: "🎵", Accept: ".m4a"},

	"video/mp4":       {Ext: "mp4", Category: CategoryVideo, Icon: "🎬", Accept: ".mp4"},
	"video/avi":       {Ext: "avi", Category: CategoryVideo, Icon: "🎬", Accept: ".avi"},
	"video/quicktime": {Ext: "mov", Category: CategoryVideo, Icon: "🎬", Accept: ".mov"},
	"video/x-msvideo": {Ext: "avi", Category: CategoryVideo, Icon: "🎬", Accept: ".avi"},

	"application/json":       {Ext: "json", Category: CategoryCode, Icon: "📄", Accept: ".json"},
	"text/html":              {Ext: "html", Category: CategoryCode, Icon: "🌐", Accept: ".html"},
	"text/css":               {Ext: "css", Category: CategoryCode, Icon: "🎨", Accept: ".css"},
	"text/javascript":        {Ext: "js", Category: CategoryCode, Icon: "⚡", Accept: ".js"},
	"application/javascript": {Ext: "js", Category: CategoryCode, Icon: "⚡", Accept: ".js"},
}

// TypeFor resolves presentation info for a content type, falling back to the
// file extension when the content type is empty or unrecognized, and finally
// to an unknown-category entry carrying the raw extension.
func TypeFor(contentType, fileName string) TypeInfo {
	if ti, ok := fileTypes[normalizeContentType(contentType)]; ok {
		return ti
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(fileName), "."))
	for _, ti := range fileTypes {
		if ti.Ext == ext {
			return ti
		}
	}

	if ext == "" {
		ext = "bin"
	}
	return TypeInfo{Ext: ext, Category: CategoryUnknown, Icon: "📁"}
}

// KnownContentType reports whether the declared content type appears in the
// supported-type table.
func KnownContentType(contentType string) bool {
	_, ok := fileTypes[normalizeContentType(contentType)]
	return ok
}

// AcceptTypes returns the comma-joined accept list for upload forms.
func AcceptTypes() string {
	accepts := make([]string, 0, len(fileTypes))
	for _, ti := range fileTypes {
		accepts = append(accepts, ti.Accept)
	}
	sort.Strings(accepts)
	return strings.Join(accepts, ",")
}

func normalizeContentType(ct string) string {
	// Strip parameters such as "; charset=utf-8".
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	return strings.ToLower(strings.TrimSpace(ct))
}
