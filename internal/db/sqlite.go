// Package db opens and migrates the SQLite store backing the review workflow.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

type poolMode int

const (
	poolWrite poolMode = iota
	poolRead
)

const defaultReadPoolSize = 4

// OpenSQLitePair opens the two pools the store runs on: a single-connection
// write pool that takes immediate transactions, and a wider read pool for
// queue and listing queries. Both run WAL with foreign keys enforced.
//
// readMaxOpen sizes the read pool; 0 picks the default.
func OpenSQLitePair(path string, readMaxOpen int) (writeDB, readDB *sql.DB, err error) {
	writeDB, err = openPool(path, poolWrite, 1)
	if err != nil {
		return nil, nil, err
	}

	if readMaxOpen <= 0 {
		readMaxOpen = defaultReadPoolSize
	}
	readDB, err = openPool(path, poolRead, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, err
	}

	return writeDB, readDB, nil
}

func openPool(path string, mode poolMode, maxOpen int) (*sql.DB, error) {
	pool, err := sql.Open("sqlite3", dsn(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	pool.SetMaxOpenConns(maxOpen)
	pool.SetMaxIdleConns(maxOpen)
	pool.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return pool, nil
}

// dsn appends the hardening parameters: WAL journaling, a 5s busy timeout so
// readers wait out writer bursts instead of failing, NORMAL sync (safe under
// WAL), and enforced foreign keys. The write pool additionally takes the
// write lock up front to avoid deadlocks on transaction upgrade.
func dsn(path string, mode poolMode) string {
	params := url.Values{}
	params.Set("_journal_mode", "WAL")
	params.Set("_busy_timeout", "5000")
	params.Set("_synchronous", "NORMAL")
	params.Set("_foreign_keys", "on")
	if mode == poolWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
