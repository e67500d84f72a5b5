// Package sqlstore provides database-backed ObjectStores: SQLite through
// database/sql and PostgreSQL through pgxpool. Payloads live in the row next
// to their metadata, which keeps the store a single moving part at the cost
// of ruling out very large objects.
//
// Prefix listing pushes a LIKE filter to the database; the delimiter grouping
// happens in pannier.Delimit so both dialects share the exact same math.
package sqlstore

import "strings"

const tableName = "pannier_objects"

// objectColumns is the expected schema, checked by Validate on open.
var objectColumns = []string{"key", "content_type", "etag", "size", "body", "uploaded_at"}

// escapeLikePattern escapes LIKE wildcards in a prefix so user keys
// containing "%" or "_" match literally.
func escapeLikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
