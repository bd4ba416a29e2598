// Package session implements the slot registry (spec.md Sec.4.5, C12): the
// mapping from a connected peer's stable identity to its numeric slot,
// persisted so a reconnecting peer gets back the same slot (and therefore
// the same unit-ownership authority) rather than a fresh one. Grounded on
// internal/auth/session.go's Redis-backed SessionManager — the in-memory
// cache plus periodic-flush-to-Redis shape, generalized from a
// login-session TTL store to a slot-identity map that is written through
// immediately (losing a slot assignment on a crash would silently hand a
// unit's seat to the next joiner, which spec.md Sec.7 treats as worse than
// an extra Redis round trip).
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrSessionFull is returned when every slot in a session is already
// assigned to a different identity.
var ErrSessionFull = errors.New("session: no free slots")

// Registry maps a session's connected-peer identities (JWT subject claims)
// to stable integer slots.
type Registry struct {
	client    *redis.Client
	sessionID string
	maxSlots  int

	mu        sync.RWMutex
	slotOf    map[string]int // identity -> slot
	identityOf map[int]string // slot -> identity
}

// NewRegistry constructs a Registry for sessionID, backed by client. If
// client is nil, the registry operates in-memory only (useful for tests and
// the "standalone play" mode spec.md Sec.6 calls out as supported without a
// backing store).
func NewRegistry(client *redis.Client, sessionID string, maxSlots int) *Registry {
	return &Registry{
		client:     client,
		sessionID:  sessionID,
		maxSlots:   maxSlots,
		slotOf:     map[string]int{},
		identityOf: map[int]string{},
	}
}

// Slot returns identity's assigned slot, assigning the lowest free slot on
// first contact and persisting the assignment so a later reconnect with the
// same identity recovers it (spec.md Sec.4.5).
func (r *Registry) Slot(ctx context.Context, identity string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if slot, ok := r.slotOf[identity]; ok {
		return slot, nil
	}

	if r.client != nil {
		if slot, ok, err := r.loadFromRedis(ctx, identity); err != nil {
			return 0, err
		} else if ok {
			r.slotOf[identity] = slot
			r.identityOf[slot] = identity
			return slot, nil
		}
	}

	for slot := 0; slot < r.maxSlots; slot++ {
		if _, taken := r.identityOf[slot]; !taken {
			r.slotOf[identity] = slot
			r.identityOf[slot] = identity
			if r.client != nil {
				if err := r.saveToRedis(ctx, identity, slot); err != nil {
					return 0, err
				}
			}
			return slot, nil
		}
	}
	return 0, ErrSessionFull
}

// Release frees identity's slot, letting a future joiner reuse it. The host
// (slot 0) is never releasable through this path; host reassignment is an
// explicit out-of-band operation.
func (r *Registry) Release(ctx context.Context, identity string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	slot, ok := r.slotOf[identity]
	if !ok || slot == 0 {
		return nil
	}
	delete(r.slotOf, identity)
	delete(r.identityOf, slot)

	if r.client == nil {
		return nil
	}
	return r.client.Del(ctx, r.redisKey(identity)).Err()
}

// IdentityOf returns the identity currently holding slot, if any.
func (r *Registry) IdentityOf(slot int) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.identityOf[slot]
	return identity, ok
}

func (r *Registry) redisKey(identity string) string {
	return fmt.Sprintf("simsession:%s:slot:%s", r.sessionID, identity)
}

func (r *Registry) loadFromRedis(ctx context.Context, identity string) (int, bool, error) {
	data, err := r.client.Get(ctx, r.redisKey(identity)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("session: redis get: %w", err)
	}
	var slot int
	if err := json.Unmarshal(data, &slot); err != nil {
		return 0, false, fmt.Errorf("session: unmarshal slot: %w", err)
	}
	return slot, true, nil
}

func (r *Registry) saveToRedis(ctx context.Context, identity string, slot int) error {
	data, err := json.Marshal(slot)
	if err != nil {
		return fmt.Errorf("session: marshal slot: %w", err)
	}
	return r.client.Set(ctx, r.redisKey(identity), data, 0).Err()
}
