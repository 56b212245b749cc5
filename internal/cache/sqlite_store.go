package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
)

// sqliteStore 将响应缓存保存在单张 cache 表中，适合多进程共享一个缓存文件。
type sqliteStore struct {
	db *sql.DB

	// sqlite 单写者限制，所有写操作串行化。
	writeMu sync.Mutex
}

// NewSQLiteStore 以 filename 打开（必要时建表）SQLite 缓存。
// filename 为空时使用共享内存库，主要供测试与临时实例使用。
func NewSQLiteStore(filename string) (Store, error) {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	db, err := sql.Open("sqlite", filename)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS cache (
		key TEXT PRIMARY KEY,
		expires INTEGER,
		bytes BLOB
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache table: %w", err)
	}
	if _, err := db.Exec("CREATE INDEX IF NOT EXISTS expires_idx ON cache (expires)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("create expires index: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var expires int64
	var b []byte
	err := s.db.QueryRowContext(ctx, "SELECT expires, bytes FROM cache WHERE key = ?", key).Scan(&expires, &b)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if time.Now().After(time.Unix(expires, 0)) {
		_ = s.Purge(ctx, key)
		return nil, false, nil
	}
	return b, true, nil
}

func (s *sqliteStore) Put(ctx context.Context, key string, expires time.Time, b []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, expires, bytes) VALUES (?, ?, ?)",
		key, expires.Unix(), b)
	return err
}

func (s *sqliteStore) Purge(ctx context.Context, key string) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE key = ?", key)
	return err
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}
