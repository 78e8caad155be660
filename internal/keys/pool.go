// Package keys manages the rotating pool of provider API credentials.
package keys

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ErrNoCredentials is returned when no source yields a single API key.
var ErrNoCredentials = errors.New("no API credentials found")

// DefaultCooldown is how long a failed credential stays out of rotation.
const DefaultCooldown = time.Hour

// Credential is one API key. Index is the stable 1-based ordinal from the source.
type Credential struct {
	Index    int
	Secret   string
	FailedAt time.Time
}

// Redacted returns a display-safe form of the secret.
func (c Credential) Redacted() string {
	if len(c.Secret) <= 8 {
		return "****"
	}
	return c.Secret[:4] + "..." + c.Secret[len(c.Secret)-4:]
}

// CredentialStatus is a read-only view of a pooled credential.
type CredentialStatus struct {
	Index       int        `json:"index"`
	Key         string     `json:"key"`
	Current     bool       `json:"current"`
	CoolingDown bool       `json:"cooling_down"`
	FailedAt    *time.Time `json:"failed_at,omitempty"`
}

// Pool holds the credentials and the rotation cursor. All methods are safe for
// concurrent use; batches running in parallel share one pool.
type Pool struct {
	mu       sync.Mutex
	source   Source
	creds    []Credential
	current  int
	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// Option configures a Pool.
type Option func(*Pool)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(p *Pool) { p.cooldown = d }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Pool) { p.now = now }
}

// WithLogger sets the logger used for reload warnings.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// NewPool loads the initial credential set from src. It fails when the source
// errors or yields no keys.
func NewPool(src Source, opts ...Option) (*Pool, error) {
	p := &Pool{
		source:   src,
		cooldown: DefaultCooldown,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	secrets, err := src.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	if len(secrets) == 0 {
		return nil, ErrNoCredentials
	}
	p.creds = build(secrets)
	return p, nil
}

func build(secrets []string) []Credential {
	creds := make([]Credential, len(secrets))
	for i, s := range secrets {
		creds[i] = Credential{Index: i + 1, Secret: s}
	}
	return creds
}

// Current returns the credential at the rotation cursor.
func (p *Pool) Current() Credential {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creds[p.current]
}

// Rotate advances the cursor to the next eligible credential, starting after
// the current one. The origin is considered last, so a healthy single-key pool
// rotates onto itself. It returns false when nothing is eligible.
func (p *Pool) Rotate() (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.nextLocked(p.current)
	if !ok {
		return Credential{}, false
	}
	p.current = idx
	return p.creds[idx], true
}

// Next returns the first eligible credential after the 0-based position pos
// without moving the cursor. pos itself is considered last; an out-of-range
// pos starts the walk at the first credential.
func (p *Pool) Next(pos int) (Credential, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.nextLocked(pos)
	if !ok {
		return Credential{}, false
	}
	return p.creds[idx], true
}

func (p *Pool) nextLocked(pos int) (int, bool) {
	n := len(p.creds)
	if pos < 0 || pos >= n {
		pos = n - 1
	}
	idx := pos
	for {
		idx = (idx + 1) % n
		if p.eligibleLocked(idx) {
			return idx, true
		}
		if idx == pos {
			return 0, false
		}
	}
}

// MarkFailed starts the cooldown for c. Marks for a credential that a reload
// has since replaced are ignored.
func (p *Pool) MarkFailed(c Credential) {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := c.Index - 1
	if i < 0 || i >= len(p.creds) || p.creds[i].Secret != c.Secret {
		return
	}
	p.creds[i].FailedAt = p.now()
}

// Eligible reports whether c is currently outside its cooldown.
func (p *Pool) Eligible(c Credential) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	i := c.Index - 1
	if i < 0 || i >= len(p.creds) || p.creds[i].Secret != c.Secret {
		return false
	}
	return p.eligibleLocked(i)
}

// eligibleLocked clears expired failure marks as a side effect.
func (p *Pool) eligibleLocked(i int) bool {
	c := &p.creds[i]
	if c.FailedAt.IsZero() {
		return true
	}
	if p.now().Sub(c.FailedAt) >= p.cooldown {
		c.FailedAt = time.Time{}
		return true
	}
	return false
}

// Reload re-reads the source. A failed or empty read keeps the current set and
// only logs a warning. A successful read replaces the set, clears every failure
// mark and clamps the cursor. It reports whether the set was replaced.
func (p *Pool) Reload() bool {
	secrets, err := p.source.Load()
	if err != nil {
		p.logger.Warn("credential reload failed, keeping previous keys", "error", err)
		return false
	}
	if len(secrets) == 0 {
		p.logger.Warn("credential reload found no keys, keeping previous keys")
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.creds = build(secrets)
	if p.current >= len(p.creds) {
		p.current = len(p.creds) - 1
	}
	return true
}

// Len returns the number of pooled credentials.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.creds)
}

// Index returns the 0-based rotation cursor.
func (p *Pool) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Restore moves the cursor back to idx. Out-of-range values are ignored.
func (p *Pool) Restore(idx int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if idx >= 0 && idx < len(p.creds) {
		p.current = idx
	}
}

// Snapshot returns a redacted view of the pool.
func (p *Pool) Snapshot() []CredentialStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]CredentialStatus, len(p.creds))
	for i, c := range p.creds {
		st := CredentialStatus{
			Index:   c.Index,
			Key:     c.Redacted(),
			Current: i == p.current,
		}
		if !c.FailedAt.IsZero() {
			failedAt := c.FailedAt
			st.FailedAt = &failedAt
			st.CoolingDown = p.now().Sub(c.FailedAt) < p.cooldown
		}
		out[i] = st
	}
	return out
}
