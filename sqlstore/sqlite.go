package sqlstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/quaelen/pannier"
)

// SQLiteStore is an ObjectStore on a single SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the database at dsn and runs migrations.
func OpenSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Validate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Validate checks that the objects table carries the expected columns. A
// mismatch means the file belongs to a different schema version or a
// different application entirely.
func (s *SQLiteStore) Validate(ctx context.Context) error {
	query := fmt.Sprintf(`PRAGMA table_info(%q)`, tableName)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	actual := make(map[string]bool)
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("validate schema: scan column: %w", err)
		}
		actual[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("validate schema: rows: %w", err)
	}

	for _, col := range objectColumns {
		if !actual[col] {
			return fmt.Errorf("validate schema: table %s missing column %s", tableName, col)
		}
	}
	return nil
}

// Migrate creates the objects table when absent.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			key TEXT NOT NULL PRIMARY KEY,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			size INTEGER NOT NULL,
			body BLOB NOT NULL,
			uploaded_at TEXT NOT NULL
		)
	`, tableName)

	if _, err := s.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("migrate: create table: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Put(ctx context.Context, key, contentType string, body io.Reader) (pannier.ObjectInfo, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("put %q: read body: %w", key, err)
	}

	sum := sha256.Sum256(data)
	info := pannier.ObjectInfo{
		Key:         key,
		Size:        int64(len(data)),
		ETag:        hex.EncodeToString(sum[:]),
		ContentType: contentType,
		UploadedAt:  s.now().UTC(),
	}

	query := fmt.Sprintf(`
		INSERT INTO %q (key, content_type, etag, size, body, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			content_type = excluded.content_type,
			etag = excluded.etag,
			size = excluded.size,
			body = excluded.body,
			uploaded_at = excluded.uploaded_at
	`, tableName)

	_, err = s.db.ExecContext(ctx, query,
		key, contentType, info.ETag, info.Size, data, info.UploadedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("put %q: %w", key, err)
	}
	return info, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (pannier.ObjectInfo, io.ReadCloser, error) {
	query := fmt.Sprintf(`
		SELECT content_type, etag, size, body, uploaded_at
		FROM %q
		WHERE key = ?
	`, tableName)

	var info pannier.ObjectInfo
	var data []byte
	var uploadedAt string

	err := s.db.QueryRowContext(ctx, query, key).Scan(
		&info.ContentType, &info.ETag, &info.Size, &data, &uploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, pannier.ErrNotFound)
		}
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, err)
	}

	info.Key = key
	info.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: parse uploaded_at: %w", key, err)
	}

	return info, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %q WHERE key = ?`, tableName)
	if _, err := s.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context, prefix, delimiter string) (pannier.Listing, error) {
	query := fmt.Sprintf(`
		SELECT key, content_type, etag, size, uploaded_at
		FROM %q
		WHERE key LIKE ? || '%%' ESCAPE '\'
		ORDER BY key
	`, tableName)

	rows, err := s.db.QueryContext(ctx, query, escapeLikePattern(prefix))
	if err != nil {
		return pannier.Listing{}, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer func() { _ = rows.Close() }()

	var objects []pannier.ObjectInfo
	for rows.Next() {
		var info pannier.ObjectInfo
		var uploadedAt string

		if err := rows.Scan(&info.Key, &info.ContentType, &info.ETag, &info.Size, &uploadedAt); err != nil {
			return pannier.Listing{}, fmt.Errorf("list %q: scan: %w", prefix, err)
		}

		info.UploadedAt, err = time.Parse(time.RFC3339Nano, uploadedAt)
		if err != nil {
			return pannier.Listing{}, fmt.Errorf("list %q: parse uploaded_at: %w", prefix, err)
		}
		objects = append(objects, info)
	}
	if err := rows.Err(); err != nil {
		return pannier.Listing{}, fmt.Errorf("list %q: rows: %w", prefix, err)
	}

	return pannier.Delimit(objects, prefix, delimiter), nil
}
