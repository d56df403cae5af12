// SPDX-License-Identifier: Apache-2.0

// Package store persists encrypted cache blobs of collections and
// items in a local sqlite database. Blobs arrive already encrypted
// under the account's main cipher key; the database, like the server,
// only ever holds opaque ciphertext.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kodumbeats/etebase-go/internal/logger"
)

// ErrNotCached is returned when a uid has no cached blob.
var ErrNotCached = errors.New("not cached")

const schema = `
CREATE TABLE IF NOT EXISTS collections (
	uid  TEXT PRIMARY KEY,
	blob BLOB NOT NULL
);
CREATE TABLE IF NOT EXISTS items (
	col_uid TEXT NOT NULL,
	uid     TEXT NOT NULL,
	blob    BLOB NOT NULL,
	PRIMARY KEY (col_uid, uid)
);
`

// LocalCache is the sqlite-backed blob cache.
type LocalCache struct {
	db  *sql.DB
	log *logger.Logger
}

// NewLocalCache opens (and if needed creates) the cache database at
// path; ":memory:" yields an ephemeral cache.
func NewLocalCache(path string, log *logger.Logger) (*LocalCache, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &LocalCache{db: db, log: log}, nil
}

// Close releases the database handle.
func (c *LocalCache) Close() error {
	return c.db.Close()
}

// SaveCollection upserts a collection cache blob.
func (c *LocalCache) SaveCollection(ctx context.Context, uid string, blob []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO collections (uid, blob) VALUES (?, ?)
		 ON CONFLICT (uid) DO UPDATE SET blob = excluded.blob`,
		uid, blob,
	)
	if err != nil {
		c.log.Err(err).Str("uid", uid).Msg("failed to save collection cache blob")
		return fmt.Errorf("save collection %s: %w", uid, err)
	}
	return nil
}

// LoadCollection returns the cached blob for uid, or ErrNotCached.
func (c *LocalCache) LoadCollection(ctx context.Context, uid string) ([]byte, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT blob FROM collections WHERE uid = ?`, uid,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("collection %s: %w", uid, ErrNotCached)
	}
	if err != nil {
		c.log.Err(err).Str("uid", uid).Msg("failed to load collection cache blob")
		return nil, fmt.Errorf("load collection %s: %w", uid, err)
	}
	return blob, nil
}

// ListCollectionUIDs returns the uids of all cached collections.
func (c *LocalCache) ListCollectionUIDs(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT uid FROM collections ORDER BY uid`)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan collection uid: %w", err)
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}

// DeleteCollection removes a collection blob and all item blobs under
// it.
func (c *LocalCache) DeleteCollection(ctx context.Context, uid string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete collection %s: %w", uid, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM items WHERE col_uid = ?`, uid); err != nil {
		return fmt.Errorf("delete items of %s: %w", uid, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE uid = ?`, uid); err != nil {
		return fmt.Errorf("delete collection %s: %w", uid, err)
	}
	return tx.Commit()
}

// SaveItem upserts an item cache blob under its collection.
func (c *LocalCache) SaveItem(ctx context.Context, colUID, uid string, blob []byte) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO items (col_uid, uid, blob) VALUES (?, ?, ?)
		 ON CONFLICT (col_uid, uid) DO UPDATE SET blob = excluded.blob`,
		colUID, uid, blob,
	)
	if err != nil {
		c.log.Err(err).Str("col_uid", colUID).Str("uid", uid).Msg("failed to save item cache blob")
		return fmt.Errorf("save item %s/%s: %w", colUID, uid, err)
	}
	return nil
}

// LoadItem returns the cached blob for an item, or ErrNotCached.
func (c *LocalCache) LoadItem(ctx context.Context, colUID, uid string) ([]byte, error) {
	var blob []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT blob FROM items WHERE col_uid = ? AND uid = ?`, colUID, uid,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("item %s/%s: %w", colUID, uid, ErrNotCached)
	}
	if err != nil {
		return nil, fmt.Errorf("load item %s/%s: %w", colUID, uid, err)
	}
	return blob, nil
}

// ListItemUIDs returns the uids of all cached items of a collection.
func (c *LocalCache) ListItemUIDs(ctx context.Context, colUID string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT uid FROM items WHERE col_uid = ? ORDER BY uid`, colUID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items of %s: %w", colUID, err)
	}
	defer rows.Close()

	var uids []string
	for rows.Next() {
		var uid string
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scan item uid: %w", err)
		}
		uids = append(uids, uid)
	}
	return uids, rows.Err()
}

// DeleteItem removes one item blob.
func (c *LocalCache) DeleteItem(ctx context.Context, colUID, uid string) error {
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM items WHERE col_uid = ? AND uid = ?`, colUID, uid,
	); err != nil {
		return fmt.Errorf("delete item %s/%s: %w", colUID, uid, err)
	}
	return nil
}
