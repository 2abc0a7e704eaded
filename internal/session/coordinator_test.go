package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkosenkov/fieldvault/internal/crypto"
	"github.com/pkosenkov/fieldvault/internal/logger"
	"github.com/pkosenkov/fieldvault/internal/session"
)

// countingDeriver wraps the real deriver and counts how many derivations
// actually ran.
type countingDeriver struct {
	crypto.KeyDeriver
	calls atomic.Int64
}

func (d *countingDeriver) DeriveKey(accountID string) ([]byte, error) {
	d.calls.Add(1)
	// Slow the derivation down a little so concurrent callers overlap.
	time.Sleep(50 * time.Millisecond)
	return d.KeyDeriver.DeriveKey(accountID)
}

// corruptingCipher breaks the self-test round trip a configurable number of
// times.
type corruptingCipher struct {
	crypto.FieldCipher
	failures atomic.Int64
}

func (c *corruptingCipher) Decrypt(key []byte, ciphertext string) (any, error) {
	if c.failures.Add(-1) >= 0 {
		return "corrupted-probe", nil
	}
	return c.FieldCipher.Decrypt(key, ciphertext)
}

func TestInitialize_SingleFlight(t *testing.T) {
	deriver := &countingDeriver{KeyDeriver: crypto.NewKeyDeriver()}
	coord := session.NewCoordinator(deriver, crypto.NewFieldCipher(), logger.Nop())

	const callers = 5
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = coord.Initialize(context.Background(), "user-1")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "caller %d", i)
	}
	assert.Equal(t, int64(1), deriver.calls.Load(), "expected exactly one derivation")
	assert.True(t, coord.IsReady())
}

func TestInitialize_ReadyAccountIsNoOp(t *testing.T) {
	deriver := &countingDeriver{KeyDeriver: crypto.NewKeyDeriver()}
	coord := session.NewCoordinator(deriver, crypto.NewFieldCipher(), logger.Nop())

	require.NoError(t, coord.Initialize(context.Background(), "user-1"))
	require.NoError(t, coord.Initialize(context.Background(), "user-1"))

	assert.Equal(t, int64(1), deriver.calls.Load())
}

func TestInitialize_EmptyAccountRefused(t *testing.T) {
	coord := session.NewCoordinator(crypto.NewKeyDeriver(), crypto.NewFieldCipher(), logger.Nop())

	err := coord.Initialize(context.Background(), "")
	assert.ErrorIs(t, err, session.ErrNoAccount)
	assert.False(t, coord.IsReady())
}

func TestInitialize_SelfTestFailureIsRetryable(t *testing.T) {
	cipher := &corruptingCipher{FieldCipher: crypto.NewFieldCipher()}
	cipher.failures.Store(1)
	coord := session.NewCoordinator(crypto.NewKeyDeriver(), cipher, logger.Nop())

	err := coord.Initialize(context.Background(), "user-1")
	require.ErrorIs(t, err, session.ErrSelfTest)
	assert.False(t, coord.IsReady())

	_, ok := coord.Key()
	assert.False(t, ok, "failed coordinator must not expose a key")

	// The corruption was transient; a later attempt succeeds.
	require.NoError(t, coord.Initialize(context.Background(), "user-1"))
	assert.True(t, coord.IsReady())
}

func TestWaitForReady_TimesOut(t *testing.T) {
	coord := session.NewCoordinator(crypto.NewKeyDeriver(), crypto.NewFieldCipher(), logger.Nop())

	start := time.Now()
	ready := coord.WaitForReady(context.Background(), 200*time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ready)
	assert.Less(t, elapsed, time.Second, "WaitForReady must not hang")
}

func TestWaitForReady_SeesLateInitialization(t *testing.T) {
	coord := session.NewCoordinator(crypto.NewKeyDeriver(), crypto.NewFieldCipher(), logger.Nop())

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = coord.Initialize(context.Background(), "user-1")
	}()

	assert.True(t, coord.WaitForReady(context.Background(), 3*time.Second))
}

func TestClear_DropsKeyState(t *testing.T) {
	coord := session.NewCoordinator(crypto.NewKeyDeriver(), crypto.NewFieldCipher(), logger.Nop())
	require.NoError(t, coord.OnSignIn(context.Background(), "user-1"))

	key, ok := coord.Key()
	require.True(t, ok)
	require.Len(t, key, 32)

	coord.OnSignOut()

	assert.False(t, coord.IsReady())
	_, ok = coord.Key()
	assert.False(t, ok)

	// Account switch after sign-out derives a fresh key.
	require.NoError(t, coord.OnSignIn(context.Background(), "user-2"))
	assert.True(t, coord.IsReady())
}
