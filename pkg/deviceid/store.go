package deviceid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StorageKey is the only key the resolver reads or writes.
const StorageKey = "pharmhub.deviceId"

// ErrNotFound is returned by Load when no device ID is stored.
var ErrNotFound = errors.New("deviceid: no stored device id")

// Store persists the device ID under StorageKey.
type Store interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Locker is implemented by stores shared between processes. The resolver
// holds the lock across its re-check and write, so two processes starting
// at once settle on one ID.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// MemoryStore keeps the ID in memory.
type MemoryStore struct {
	mu sync.Mutex
	id string
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Load(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.id == "" {
		return "", ErrNotFound
	}
	return m.id, nil
}

func (m *MemoryStore) Save(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = ""
	return nil
}

const (
	defaultStaleLock = 10 * time.Second
	lockPollInterval = 25 * time.Millisecond
)

// FileStore keeps a small JSON document on disk. Writes go to a temp file
// renamed over the original. Unknown keys in the document are preserved.
type FileStore struct {
	path      string
	staleLock time.Duration
}

// NewFileStore stores at path. Parent directories are created on write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: filepath.Clean(path), staleLock: defaultStaleLock}
}

// DefaultPath is $XDG_CONFIG_HOME/pharmhub/device.json or the platform
// equivalent.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pharmhub", "device.json"), nil
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(context.Context) (string, error) {
	doc, err := f.read()
	if err != nil {
		return "", err
	}
	id, _ := doc[StorageKey].(string)
	if id == "" {
		return "", ErrNotFound
	}
	return id, nil
}

func (f *FileStore) Save(_ context.Context, id string) error {
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc[StorageKey] = id
	return f.write(doc)
}

func (f *FileStore) Clear(context.Context) error {
	doc, err := f.read()
	if err != nil {
		return err
	}
	if _, ok := doc[StorageKey]; !ok {
		return nil
	}
	delete(doc, StorageKey)
	return f.write(doc)
}

// Lock creates <path>.lock exclusively, waiting while another holder has
// it. A marker older than the stale timeout is treated as abandoned. Each
// marker carries a token unique to its holder and unlock only removes a
// marker that still holds that token.
func (f *FileStore) Lock(ctx context.Context) (func() error, error) {
	lockPath := f.path + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o700); err != nil {
		return nil, fmt.Errorf("deviceid: create dir: %w", err)
	}
	token := fmt.Sprintf("%d %s\n", os.Getpid(), uuid.NewString())

	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		fh, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			_, werr := fh.WriteString(token)
			if cerr := fh.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(lockPath)
				return nil, fmt.Errorf("deviceid: lock: %w", werr)
			}
			return func() error { return releaseLock(lockPath, token) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("deviceid: lock: %w", err)
		}

		if f.breakStale(lockPath) {
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("deviceid: lock: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// breakStale reports whether the marker is gone and creation should be
// retried at once. A stale marker is first renamed to a name private to this
// caller, so of several contenders only one claims it. If the claimed file is
// not the one that was judged stale, another holder replaced it in between
// and it is linked back into place.
func (f *FileStore) breakStale(lockPath string) bool {
	st, err := os.Stat(lockPath)
	if err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	if time.Since(st.ModTime()) <= f.staleLock {
		return false
	}

	claimed := lockPath + "." + uuid.NewString()
	if err := os.Rename(lockPath, claimed); err != nil {
		return errors.Is(err, fs.ErrNotExist)
	}
	defer os.Remove(claimed)

	cst, err := os.Stat(claimed)
	if err == nil && os.SameFile(st, cst) && time.Since(cst.ModTime()) > f.staleLock {
		return true
	}
	_ = os.Link(claimed, lockPath)
	return false
}

func releaseLock(lockPath, token string) error {
	b, err := os.ReadFile(lockPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("deviceid: unlock: %w", err)
	}
	if string(b) != token {
		// Broken as stale and now held by someone else.
		return nil
	}
	if err := os.Remove(lockPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deviceid: unlock: %w", err)
	}
	return nil
}

func (f *FileStore) read() (map[string]any, error) {
	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("deviceid: read %s: %w", f.path, err)
	}

	doc := map[string]any{}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("deviceid: decode %s: %w", f.path, err)
	}
	return doc, nil
}

func (f *FileStore) write(doc map[string]any) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("deviceid: create dir: %w", err)
	}

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".device-*.json")
	if err != nil {
		return fmt.Errorf("deviceid: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("deviceid: write: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("deviceid: replace %s: %w", f.path, err)
	}
	return nil
}
