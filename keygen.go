package pannier

import (
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"

// SanitizeCustomPath trims surrounding whitespace and slashes from a
// user-chosen upload path. An all-slash or blank input sanitizes to "".
func SanitizeCustomPath(p string) string {
	return strings.Trim(strings.TrimSpace(p), "/")
}

// NewObjectKey builds the storage key for an upload:
// "{sanitized custom path}/{timestamp36}{random36}.{ext}", with the path
// segment omitted when customPath sanitizes to empty. The time-and-random
// segment makes concurrent uploads to the same path collision-free without
// coordination.
func NewObjectKey(customPath, ext string, now time.Time) string {
	name := UniqueID(now) + "." + ext
	if cp := SanitizeCustomPath(customPath); cp != "" {
		return cp + "/" + name
	}
	return name
}

// UniqueID returns the base36 millisecond timestamp followed by eleven
// random base36 digits.
func UniqueID(now time.Time) string {
	var b strings.Builder
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	for range 11 {
		b.WriteByte(base36Digits[rand.IntN(len(base36Digits))])
	}
	return b.String()
}

// PureFileName returns the last key segment without its extension. A name
// that is all extension (".gitignore") is returned as-is.
func PureFileName(key string) string {
	name := key
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}
