package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	blobExt    = ".blob"
	backupDir  = ".backups"
	backupTime = "20060102-150405.000000000"
)

// FileOptions configures a File store
type FileOptions struct {
	// Backups is how many previous versions of each key are kept; 0 disables backups
	Backups int
}

// File stores each key as its own file under a directory. Writes go to a
// temporary file that is renamed over the old one.
type File struct {
	dir    string
	opts   FileOptions
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewFile creates a file store rooted at dir, creating it if needed
func NewFile(dir string, opts FileOptions, logger *zap.Logger) (*File, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if opts.Backups > 0 {
		if err := os.MkdirAll(filepath.Join(dir, backupDir), 0o755); err != nil {
			return nil, fmt.Errorf("create backup dir: %w", err)
		}
	}
	return &File{dir: dir, opts: opts, logger: logger}, nil
}

func fileName(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}
	return url.PathEscape(key) + blobExt, nil
}

func (f *File) path(key string) (string, error) {
	name, err := fileName(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(f.dir, name), nil
}

func (f *File) Load(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (f *File) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}

	if f.opts.Backups > 0 {
		if err := f.backup(key, p); err != nil {
			f.logger.Warn("Failed to back up key", zap.String("key", key), zap.Error(err))
		}
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

// backup copies the current value of key into the backup directory and
// prunes the oldest copies beyond the configured count
func (f *File) backup(key, current string) error {
	data, err := os.ReadFile(current)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	stem := url.PathEscape(key)
	name := fmt.Sprintf("%s-%s%s", stem, time.Now().UTC().Format(backupTime), blobExt)
	if err := os.WriteFile(filepath.Join(f.dir, backupDir, name), data, 0o600); err != nil {
		return err
	}

	backups, err := f.backupsOf(stem)
	if err != nil {
		return err
	}
	for i := f.opts.Backups; i < len(backups); i++ {
		if err := os.Remove(backups[i]); err != nil {
			return err
		}
	}
	return nil
}

// backupsOf lists backup files for a key stem, newest first
func (f *File) backupsOf(stem string) ([]string, error) {
	dir := filepath.Join(f.dir, backupDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		rest, ok := strings.CutPrefix(name, stem+"-")
		if e.IsDir() || !ok || !strings.HasSuffix(rest, blobExt) {
			continue
		}
		// Timestamp part must parse so "a" does not pick up "a-b" backups
		if _, err := time.Parse(backupTime, strings.TrimSuffix(rest, blobExt)); err != nil {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(out)))
	return out, nil
}

// Backups returns the backup paths kept for key, newest first
func (f *File) Backups(key string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.opts.Backups == 0 {
		return nil, nil
	}
	return f.backupsOf(url.PathEscape(key))
}

func (f *File) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrClosed
	}
	p, err := f.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, blobExt) {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, blobExt))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
