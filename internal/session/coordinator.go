// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

// Package session owns the per-account encryption key lifecycle: derive on
// sign-in, hold in memory while the session lasts, drop on sign-out. The
// Coordinator is an explicit struct injected into the store layer rather
// than a package-level singleton, so "cleared on sign-out" is enforced by
// ownership instead of convention.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pkosenkov/fieldvault/internal/crypto"
	"github.com/pkosenkov/fieldvault/internal/logger"
)

// State is the coordinator's position in its lifecycle.
type State int

const (
	// Uninitialized means no key exists and none is being derived.
	Uninitialized State = iota

	// Initializing means a derivation is in flight.
	Initializing

	// Ready means a key passed its self-test and is usable.
	Ready

	// Failed means the last derivation or self-test failed. A later
	// Initialize call may retry.
	Failed
)

// readyPollInterval is the sleep between readiness checks in WaitForReady.
const readyPollInterval = 50 * time.Millisecond

// Coordinator guarantees single-flight key setup per account, exposes a
// bounded wait for readiness, and tears down key state on sign-out.
//
// The symmetric key is the only shared mutable resource of the subsystem.
// It is replaced wholesale under the coordinator's lock, never mutated in
// place, and no other component writes it.
type Coordinator struct {
	deriver crypto.KeyDeriver
	cipher  crypto.FieldCipher
	log     *logger.Logger

	flight singleflight.Group

	mu        sync.RWMutex
	state     State
	accountID string
	key       []byte
}

// NewCoordinator constructs a Coordinator. The cipher is needed for the
// post-derivation self-test.
func NewCoordinator(deriver crypto.KeyDeriver, cipher crypto.FieldCipher, log *logger.Logger) *Coordinator {
	return &Coordinator{
		deriver: deriver,
		cipher:  cipher,
		log:     log,
	}
}

// Initialize derives and self-tests the key for accountID. A concurrent
// call for the same account joins the in-flight derivation and observes the
// same outcome; a call for an account whose key is already ready is a no-op
// success. Returns ErrNoAccount, ErrKeyDerivation, or ErrSelfTest.
func (c *Coordinator) Initialize(ctx context.Context, accountID string) error {
	if accountID == "" {
		return ErrNoAccount
	}

	c.mu.RLock()
	alreadyReady := c.state == Ready && c.accountID == accountID
	c.mu.RUnlock()
	if alreadyReady {
		return nil
	}

	_, err, _ := c.flight.Do(accountID, func() (any, error) {
		return nil, c.initialize(ctx, accountID)
	})
	return err
}

func (c *Coordinator) initialize(ctx context.Context, accountID string) error {
	// Re-check under the flight: a caller that queued behind the winning
	// derivation must not start a second one.
	c.mu.Lock()
	if c.state == Ready && c.accountID == accountID {
		c.mu.Unlock()
		return nil
	}
	c.state = Initializing
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		c.setFailed()
		return fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}

	key, err := c.deriver.DeriveKey(accountID)
	if err != nil {
		c.setFailed()
		c.log.Error().Err(err).Msg("key derivation failed")
		return fmt.Errorf("%w: %v", ErrKeyDerivation, err)
	}

	if err = c.selfTest(key); err != nil {
		c.setFailed()
		c.log.Error().Err(err).Msg("key self-test failed")
		return err
	}

	c.mu.Lock()
	c.state = Ready
	c.accountID = accountID
	c.key = key
	c.mu.Unlock()

	c.log.Info().Msg("encryption key ready")
	return nil
}

// selfTest encrypts a fresh random value with the candidate key and checks
// the round trip, catching primitive-configuration mistakes before any real
// data is touched.
func (c *Coordinator) selfTest(key []byte) error {
	probe := uuid.NewString()

	ct, err := c.cipher.Encrypt(key, probe)
	if err != nil {
		return fmt.Errorf("%w: encrypt probe: %v", ErrSelfTest, err)
	}

	got, err := c.cipher.Decrypt(key, ct)
	if err != nil {
		return fmt.Errorf("%w: decrypt probe: %v", ErrSelfTest, err)
	}
	if got != probe {
		return fmt.Errorf("%w: probe mismatch", ErrSelfTest)
	}

	return nil
}

func (c *Coordinator) setFailed() {
	c.mu.Lock()
	c.state = Failed
	c.mu.Unlock()
}

// IsReady reports whether a self-tested key is available.
func (c *Coordinator) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state == Ready
}

// Key returns the current key. The second return value is false unless the
// coordinator is Ready. Callers must treat the slice as read-only.
func (c *Coordinator) Key() ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state != Ready {
		return nil, false
	}
	return c.key, true
}

// WaitForReady polls until a key is ready, the timeout elapses, or ctx is
// cancelled. It always returns a definite answer within the timeout; it
// never hangs.
func (c *Coordinator) WaitForReady(ctx context.Context, timeout time.Duration) bool {
	if c.IsReady() {
		return true
	}
	if timeout <= 0 {
		return false
	}

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	tick := time.NewTicker(readyPollInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			return false
		case <-tick.C:
			if c.IsReady() {
				return true
			}
		}
	}
}

// Clear drops the key and resets all state so nothing of the previous
// account's key remains reachable. Called on sign-out and account switch.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.key {
		c.key[i] = 0
	}
	c.key = nil
	c.accountID = ""
	c.state = Uninitialized
}

// OnSignIn is the lifecycle hook the auth layer calls once sign-in
// completes.
func (c *Coordinator) OnSignIn(ctx context.Context, accountID string) error {
	return c.Initialize(ctx, accountID)
}

// OnSignOut is the lifecycle hook the auth layer calls on sign-out.
func (c *Coordinator) OnSignOut() {
	c.Clear()
}
