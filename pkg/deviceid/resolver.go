// Package deviceid gives each client profile a stable device identifier and
// describes the software it runs.
//
// The ID is generated once, persisted, and survives logout. Only Reset
// replaces it. The server uses it to tell a returning device from a new one,
// so it is not derived from anything that changes with browser updates.
package deviceid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

// Identity is the device ID together with the parsed user agent.
type Identity struct {
	DeviceID string `json:"deviceId"`
	Info
}

// Metadata converts the identity to the login wire shape.
func (id Identity) Metadata(userAgent string) authsdk.DeviceMetadata {
	return authsdk.DeviceMetadata{
		Browser:        id.Browser.Name,
		BrowserVersion: id.Browser.Version,
		OS:             id.OS.Name,
		OSVersion:      id.OS.Version,
		DeviceType:     id.DeviceType,
		Vendor:         id.Vendor,
		UserAgent:      userAgent,
	}
}

type Resolver struct {
	store Store
	newID func() string
	log   *slog.Logger

	group singleflight.Group
}

type Option func(*Resolver)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// WithIDGenerator replaces the UUIDv4 generator.
func WithIDGenerator(fn func() string) Option {
	return func(r *Resolver) { r.newID = fn }
}

func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		newID: func() string { return uuid.NewString() },
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureDeviceID returns the stored ID, creating and persisting one on
// first use. Concurrent callers in one process share a single store round
// trip; callers in different processes are serialized by the store's lock
// when it has one. A caller whose ctx ends stops waiting without failing the
// others.
func (r *Resolver) EnsureDeviceID(ctx context.Context) (string, error) {
	work := context.WithoutCancel(ctx)
	ch := r.group.DoChan(StorageKey, func() (any, error) {
		return r.ensure(work)
	})
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("deviceid: ensure: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (r *Resolver) ensure(ctx context.Context) (string, error) {
	id, err := r.store.Load(ctx)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", fmt.Errorf("deviceid: load: %w", err)
	}

	if l, ok := r.store.(Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return "", err
		}
		defer func() {
			if err := unlock(); err != nil {
				r.log.Warn("device id unlock failed", "err", err)
			}
		}()

		// Another process may have written while we waited.
		id, err := r.store.Load(ctx)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", fmt.Errorf("deviceid: load: %w", err)
		}
	}

	id = r.newID()
	if err := r.store.Save(ctx, id); err != nil {
		return "", fmt.Errorf("deviceid: save: %w", err)
	}
	r.log.Info("device id created", "device_id", id)
	return id, nil
}

// Reset forgets the stored ID. The next EnsureDeviceID creates a new one.
func (r *Resolver) Reset(ctx context.Context) error {
	if l, ok := r.store.(Locker); ok {
		unlock, err := l.Lock(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = unlock() }()
	}
	if err := r.store.Clear(ctx); err != nil {
		return fmt.Errorf("deviceid: clear: %w", err)
	}
	r.log.Info("device id reset")
	return nil
}

// Resolve returns the device ID and a description of userAgent.
func (r *Resolver) Resolve(ctx context.Context, userAgent string) (Identity, error) {
	id, err := r.EnsureDeviceID(ctx)
	if err != nil {
		return Identity{}, err
	}
	return Identity{DeviceID: id, Info: ParseUserAgent(userAgent)}, nil
}
