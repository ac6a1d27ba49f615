package cache

import (
	"sync"
	"time"
)

// credentialSlot holds the single cached credential and its expiry.
type credentialSlot struct {
	secret    string
	expiresAt int64 // UnixNano timestamp, 0 means empty slot
}

func (s *credentialSlot) isExpired(now int64) bool {
	return s.expiresAt != 0 && now > s.expiresAt
}

// CredentialStore is a thread-safe, single-slot credential cache with TTL
// support. At most one live credential exists at a time; storing a new one
// overwrites the previous secret. Expired entries are evicted lazily on
// Retrieve and, when a janitor interval is configured, swept in the
// background so a stale secret does not linger in memory.
type CredentialStore struct {
	mu            sync.Mutex
	slot          credentialSlot
	defaultTTL    time.Duration
	janitorOnce   sync.Once
	stopOnce      sync.Once
	janitorTicker *time.Ticker
	stopJanitorCh chan struct{}
}

// Option is a functional option type for CredentialStore configuration.
type Option func(*CredentialStore)

// WithTTL sets the default time-to-live applied by Store when the caller
// does not specify one.
func WithTTL(ttl time.Duration) Option {
	return func(c *CredentialStore) {
		c.defaultTTL = ttl
	}
}

// WithJanitorInterval sets the interval at which the janitor wipes an
// expired credential. If interval is 0 or negative, no janitor runs and
// eviction happens only lazily on Retrieve.
func WithJanitorInterval(interval time.Duration) Option {
	return func(c *CredentialStore) {
		if interval > 0 {
			c.janitorTicker = time.NewTicker(interval)
			c.stopJanitorCh = make(chan struct{})
		}
	}
}

// NewCredentialStore creates an empty store with optional configuration.
func NewCredentialStore(opts ...Option) *CredentialStore {
	c := &CredentialStore{
		defaultTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CredentialStore) startJanitor() {
	c.janitorOnce.Do(func() {
		if c.janitorTicker == nil {
			return
		}
		go func() {
			for {
				select {
				case <-c.janitorTicker.C:
					c.evictExpired()
				case <-c.stopJanitorCh:
					c.janitorTicker.Stop()
					return
				}
			}
		}()
	})
}

// Store replaces any existing cached credential with a new one expiring at
// now + ttl. A ttl of 0 uses the store's default; a negative ttl clears the
// slot instead.
func (c *CredentialStore) Store(secret string, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if ttl < 0 {
		c.Clear()
		return
	}

	c.mu.Lock()
	c.wipeLocked()
	c.slot = credentialSlot{
		secret:    secret,
		expiresAt: time.Now().Add(ttl).UnixNano(),
	}
	c.mu.Unlock()

	if c.janitorTicker != nil {
		c.startJanitor()
	}
}

// Retrieve returns the cached secret while it is unexpired. An expired
// entry is cleared atomically on the failed read (lazy eviction).
func (c *CredentialStore) Retrieve() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slot.expiresAt == 0 {
		return "", false
	}
	if c.slot.isExpired(time.Now().UnixNano()) {
		c.wipeLocked()
		return "", false
	}
	return c.slot.secret, true
}

// ExpiresAt reports the expiry of the live credential, or false when the
// slot is empty or expired. The secret itself is not exposed.
func (c *CredentialStore) ExpiresAt() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.slot.expiresAt == 0 || c.slot.isExpired(time.Now().UnixNano()) {
		return time.Time{}, false
	}
	return time.Unix(0, c.slot.expiresAt), true
}

// Clear unconditionally discards any cached credential. It is idempotent
// and succeeds even when nothing is cached.
func (c *CredentialStore) Clear() {
	c.mu.Lock()
	c.wipeLocked()
	c.mu.Unlock()
}

func (c *CredentialStore) evictExpired() {
	c.mu.Lock()
	if c.slot.isExpired(time.Now().UnixNano()) {
		c.wipeLocked()
	}
	c.mu.Unlock()
}

// wipeLocked overwrites the secret before releasing the slot. Go strings
// are immutable so this cannot scrub the backing array, but it drops the
// last reference promptly. Callers must hold c.mu.
func (c *CredentialStore) wipeLocked() {
	c.slot.secret = ""
	c.slot.expiresAt = 0
}

// Close wipes the slot and stops the janitor goroutine if one is running.
// The store must not be used after Close.
func (c *CredentialStore) Close() {
	c.Clear()
	if c.stopJanitorCh != nil {
		c.stopOnce.Do(func() { close(c.stopJanitorCh) })
	}
}
