package sqlstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quaelen/pannier"
)

// PostgresStore is an ObjectStore on a PostgreSQL database.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects to dsn and runs migrations.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	s := &PostgresStore{pool: pool, now: time.Now}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.Validate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Validate checks that the objects table carries the expected columns.
func (s *PostgresStore) Validate(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = $1
	`, tableName)
	if err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	defer rows.Close()

	actual := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
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
func (s *PostgresStore) Migrate(ctx context.Context) error {
	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q (
			key TEXT NOT NULL PRIMARY KEY,
			content_type TEXT NOT NULL,
			etag TEXT NOT NULL,
			size BIGINT NOT NULL,
			body BYTEA NOT NULL,
			uploaded_at TIMESTAMPTZ NOT NULL
		)
	`, tableName)

	if _, err := s.pool.Exec(ctx, createSQL); err != nil {
		return fmt.Errorf("migrate: create table: %w", err)
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) Put(ctx context.Context, key, contentType string, body io.Reader) (pannier.ObjectInfo, error) {
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
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (key) DO UPDATE SET
			content_type = EXCLUDED.content_type,
			etag = EXCLUDED.etag,
			size = EXCLUDED.size,
			body = EXCLUDED.body,
			uploaded_at = EXCLUDED.uploaded_at
	`, tableName)

	_, err = s.pool.Exec(ctx, query, key, contentType, info.ETag, info.Size, data, info.UploadedAt)
	if err != nil {
		return pannier.ObjectInfo{}, fmt.Errorf("put %q: %w", key, err)
	}
	return info, nil
}

func (s *PostgresStore) Get(ctx context.Context, key string) (pannier.ObjectInfo, io.ReadCloser, error) {
	query := fmt.Sprintf(`
		SELECT content_type, etag, size, body, uploaded_at
		FROM %q
		WHERE key = $1
	`, tableName)

	var info pannier.ObjectInfo
	var data []byte

	err := s.pool.QueryRow(ctx, query, key).Scan(
		&info.ContentType, &info.ETag, &info.Size, &data, &info.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, pannier.ErrNotFound)
		}
		return pannier.ObjectInfo{}, nil, fmt.Errorf("get %q: %w", key, err)
	}

	info.Key = key
	return info, io.NopCloser(bytes.NewReader(data)), nil
}

func (s *PostgresStore) Delete(ctx context.Context, key string) error {
	query := fmt.Sprintf(`DELETE FROM %q WHERE key = $1`, tableName)
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, prefix, delimiter string) (pannier.Listing, error) {
	query := fmt.Sprintf(`
		SELECT key, content_type, etag, size, uploaded_at
		FROM %q
		WHERE key LIKE $1 || '%%' ESCAPE '\'
		ORDER BY key
	`, tableName)

	rows, err := s.pool.Query(ctx, query, escapeLikePattern(prefix))
	if err != nil {
		return pannier.Listing{}, fmt.Errorf("list %q: %w", prefix, err)
	}
	defer rows.Close()

	var objects []pannier.ObjectInfo
	for rows.Next() {
		var info pannier.ObjectInfo
		if err := rows.Scan(&info.Key, &info.ContentType, &info.ETag, &info.Size, &info.UploadedAt); err != nil {
			return pannier.Listing{}, fmt.Errorf("list %q: scan: %w", prefix, err)
		}
		objects = append(objects, info)
	}
	if err := rows.Err(); err != nil {
		return pannier.Listing{}, fmt.Errorf("list %q: rows: %w", prefix, err)
	}

	return pannier.Delimit(objects, prefix, delimiter), nil
}
