package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// NewDiskStore 以 basePath 为根目录构建磁盘缓存。
// 条目以 key 的 sha1 寻址，文件 ModTime 记录绝对过期时间。
func NewDiskStore(basePath string) (Store, error) {
	if basePath == "" {
		return nil, errors.New("storage path required")
	}

	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("resolve storage path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage path: %w", err)
	}

	return &diskStore{
		basePath: abs,
		locks:    make(map[string]*entryLock),
	}, nil
}

// diskStore 通过 entryLock 避免同一 key 并发写入，同时复用 basePath。
type diskStore struct {
	basePath string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

func (s *diskStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	default:
	}

	filePath := s.path(key)
	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}

	// ModTime 即过期时刻。
	if time.Now().After(info.ModTime()) {
		_ = s.Purge(ctx, key)
		return nil, false, nil
	}

	b, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return b, true, nil
}

func (s *diskStore) Put(ctx context.Context, key string, expires time.Time, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := s.lockEntry(key)
	defer unlock()

	filePath := s.path(key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".cache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(b)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}

	return os.Chtimes(filePath, expires, expires)
}

func (s *diskStore) Purge(ctx context.Context, key string) error {
	unlock := s.lockEntry(key)
	defer unlock()

	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (s *diskStore) Close() error {
	return nil
}

func (s *diskStore) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

// path 把任意 key 映射到 basePath 下的两级目录，避免单目录文件过多。
func (s *diskStore) path(key string) string {
	sum := sha1.Sum([]byte(key))
	name := hex.EncodeToString(sum[:])
	return filepath.Join(s.basePath, name[:2], name)
}
