package keys_test

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitai/internal/keys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// mutableSource returns whatever the test last assigned.
type mutableSource struct {
	secrets []string
	err     error
}

func (s *mutableSource) Load() ([]string, error) { return s.secrets, s.err }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newPool(t *testing.T, src keys.Source, clock *fakeClock) *keys.Pool {
	t.Helper()
	p, err := keys.NewPool(src, keys.WithClock(clock.Now), keys.WithLogger(quiet))
	require.NoError(t, err)
	return p
}

func TestNewPool_NoKeysFailsFast(t *testing.T) {
	_, err := keys.NewPool(&mutableSource{})
	assert.ErrorIs(t, err, keys.ErrNoCredentials)
}

func TestNewPool_SourceErrorFailsFast(t *testing.T) {
	_, err := keys.NewPool(&mutableSource{err: errors.New("boom")})
	assert.ErrorIs(t, err, keys.ErrNoCredentials)
	assert.Contains(t, err.Error(), "boom")
}

func TestPool_CurrentStartsAtFirstKey(t *testing.T) {
	p := newPool(t, &mutableSource{secrets: []string{"a", "b"}}, &fakeClock{})
	c := p.Current()
	assert.Equal(t, 1, c.Index)
	assert.Equal(t, "a", c.Secret)
}

func TestPool_RotateWalksInOrderAndWraps(t *testing.T) {
	p := newPool(t, &mutableSource{secrets: []string{"a", "b", "c"}}, &fakeClock{})

	var got []string
	for i := 0; i < 4; i++ {
		c, ok := p.Rotate()
		require.True(t, ok)
		got = append(got, c.Secret)
	}
	assert.Equal(t, []string{"b", "c", "a", "b"}, got)
}

func TestPool_RotateSkipsRecentlyFailed(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := newPool(t, &mutableSource{secrets: []string{"a", "b", "c"}}, clock)

	p.MarkFailed(keys.Credential{Index: 2, Secret: "b"})
	c, ok := p.Rotate()
	require.True(t, ok)
	assert.Equal(t, "c", c.Secret)
}

func TestPool_RotateReturnsNoneWhenAllFailed(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := newPool(t, &mutableSource{secrets: []string{"a", "b"}}, clock)

	p.MarkFailed(keys.Credential{Index: 1, Secret: "a"})
	p.MarkFailed(keys.Credential{Index: 2, Secret: "b"})

	_, ok := p.Rotate()
	assert.False(t, ok)
	assert.Equal(t, 0, p.Index(), "cursor must not move when nothing is eligible")
}

func TestPool_RotateSingleHealthyKeyReturnsItself(t *testing.T) {
	p := newPool(t, &mutableSource{secrets: []string{"only"}}, &fakeClock{})
	c, ok := p.Rotate()
	require.True(t, ok)
	assert.Equal(t, "only", c.Secret)
}

func TestPool_NextDoesNotMoveCursor(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := newPool(t, &mutableSource{secrets: []string{"a", "b", "c"}}, clock)
	p.MarkFailed(keys.Credential{Index: 2, Secret: "b"})

	c, ok := p.Next(0)
	require.True(t, ok)
	assert.Equal(t, "c", c.Secret)
	assert.Equal(t, 0, p.Index())

	c, ok = p.Next(2)
	require.True(t, ok)
	assert.Equal(t, "a", c.Secret)
}

func TestPool_NextOutOfRangeStartsAtFirstKey(t *testing.T) {
	p := newPool(t, &mutableSource{secrets: []string{"a", "b"}}, &fakeClock{})
	c, ok := p.Next(-1)
	require.True(t, ok)
	assert.Equal(t, "a", c.Secret)

	c, ok = p.Next(9)
	require.True(t, ok)
	assert.Equal(t, "a", c.Secret)
}

func TestPool_NextChecksPositionLast(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := newPool(t, &mutableSource{secrets: []string{"a", "b"}}, clock)
	p.MarkFailed(keys.Credential{Index: 2, Secret: "b"})

	c, ok := p.Next(0)
	require.True(t, ok)
	assert.Equal(t, "a", c.Secret)

	p.MarkFailed(keys.Credential{Index: 1, Secret: "a"})
	_, ok = p.Next(0)
	assert.False(t, ok)
}

func TestPool_CooldownExpires(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := newPool(t, &mutableSource{secrets: []string{"a", "b"}}, clock)

	b := keys.Credential{Index: 2, Secret: "b"}
	p.MarkFailed(b)
	assert.False(t, p.Eligible(b))

	clock.Advance(keys.DefaultCooldown)
	assert.True(t, p.Eligible(b))

	c, ok := p.Rotate()
	require.True(t, ok)
	assert.Equal(t, "b", c.Secret)
}

func TestPool_ReloadClearsFailuresAndReplacesKeys(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	src := &mutableSource{secrets: []string{"a", "b"}}
	p := newPool(t, src, clock)

	p.MarkFailed(keys.Credential{Index: 1, Secret: "a"})
	p.MarkFailed(keys.Credential{Index: 2, Secret: "b"})

	src.secrets = []string{"a", "b", "c"}
	require.True(t, p.Reload())
	assert.Equal(t, 3, p.Len())
	assert.True(t, p.Eligible(keys.Credential{Index: 1, Secret: "a"}))
}

func TestPool_ReloadClampsCursor(t *testing.T) {
	src := &mutableSource{secrets: []string{"a", "b", "c"}}
	p := newPool(t, src, &fakeClock{})
	p.Restore(2)

	src.secrets = []string{"x"}
	require.True(t, p.Reload())
	assert.Equal(t, 0, p.Index())
	assert.Equal(t, "x", p.Current().Secret)
}

func TestPool_ReloadKeepsPreviousSetOnFailure(t *testing.T) {
	src := &mutableSource{secrets: []string{"a", "b"}}
	p := newPool(t, src, &fakeClock{})

	src.secrets, src.err = nil, errors.New("file vanished")
	assert.False(t, p.Reload())
	assert.Equal(t, 2, p.Len())

	src.err = nil
	assert.False(t, p.Reload(), "empty reload must not wipe the pool")
	assert.Equal(t, "a", p.Current().Secret)
}

func TestPool_MarkFailedIgnoresReplacedCredential(t *testing.T) {
	src := &mutableSource{secrets: []string{"a"}}
	p := newPool(t, src, &fakeClock{t: time.Now()})

	stale := p.Current()
	src.secrets = []string{"fresh"}
	require.True(t, p.Reload())

	p.MarkFailed(stale)
	assert.True(t, p.Eligible(p.Current()))
}

func TestPool_RestoreIgnoresOutOfRange(t *testing.T) {
	p := newPool(t, &mutableSource{secrets: []string{"a", "b"}}, &fakeClock{})
	p.Restore(1)
	p.Restore(7)
	p.Restore(-1)
	assert.Equal(t, 1, p.Index())
}

func TestPool_SnapshotRedactsSecrets(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	p := newPool(t, &mutableSource{secrets: []string{"gsk_abcdefghijklmnop", "short"}}, clock)
	p.MarkFailed(keys.Credential{Index: 2, Secret: "short"})

	snap := p.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "gsk_...mnop", snap[0].Key)
	assert.True(t, snap[0].Current)
	assert.Equal(t, "****", snap[1].Key)
	assert.True(t, snap[1].CoolingDown)
	assert.NotNil(t, snap[1].FailedAt)
}

func TestEnvSource_StopsAtFirstGap(t *testing.T) {
	env := map[string]string{
		"TEST_KEY_1": "one",
		"TEST_KEY_2": " two ",
		"TEST_KEY_4": "four",
	}
	src := keys.EnvSource{Prefix: "TEST_KEY", Lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}

	got, err := src.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestFileSource_ReadsDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("GROQ_API_KEY_1=first\nGROQ_API_KEY_2=second\nOTHER=x\n"), 0o600))

	got, err := keys.FileSource{Path: path, Prefix: "GROQ_API_KEY"}.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestFileSource_ReadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("GROQ_API_KEY_1: yaml-one\n"), 0o600))

	got, err := keys.FileSource{Path: path, Prefix: "GROQ_API_KEY"}.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"yaml-one"}, got)
}

func TestFileSource_MissingFile(t *testing.T) {
	_, err := keys.FileSource{Path: filepath.Join(t.TempDir(), "nope.env"), Prefix: "K"}.Load()
	assert.Error(t, err)
}

func TestChainSource_FirstNonEmptyWins(t *testing.T) {
	chain := keys.ChainSource{
		keys.SourceFunc(func() ([]string, error) { return nil, errors.New("no file") }),
		keys.SourceFunc(func() ([]string, error) { return nil, nil }),
		keys.SourceFunc(func() ([]string, error) { return []string{"env"}, nil }),
	}
	got, err := chain.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"env"}, got)
}

func TestChainSource_ReportsErrorsWhenEmpty(t *testing.T) {
	chain := keys.ChainSource{
		keys.SourceFunc(func() ([]string, error) { return nil, errors.New("no file") }),
	}
	got, err := chain.Load()
	assert.Empty(t, got)
	assert.ErrorContains(t, err, "no file")
}
