// Package seat implements unit ownership/authority (spec.md Sec.4.5, C9):
// who may issue MOVE/CLOSE_PATH/SET_PATH/CLEAR/PLAY/PAUSE for a unit, the
// PIN-challenge acquisition flow for foreign units, and the auditable
// ownerHistory log. Grounded on internal/auth/session.go's Redis-backed
// SessionManager (the "claim a slot, track who holds it" shape) and
// internal/auth/service.go's credential-check idiom, generalized from
// login/session auth to per-unit seat authority.
package seat

import "mud-platform-backend/internal/unit"

// DenyReason names why an acquisition attempt was rejected (used for the
// seat_deny_total{reason} metric, SPEC_FULL Sec.4.12).
type DenyReason string

const (
	DenyOccupied   DenyReason = "occupied"
	DenyWrongPIN   DenyReason = "wrong_pin"
	DenyLocked     DenyReason = "locked"
	DenyNoSuchUnit DenyReason = "no_such_unit"
)

// Result is the outcome of an acquisition attempt.
type Result struct {
	Granted bool
	Reason  DenyReason
}

// IsAuthorized reports whether slot may issue a mutating command against u
// this tick (spec.md Sec.4.5's gating rule): the owner always may; a
// selectedBy slot that isn't the owner may not mutate (selection grants
// visibility/claim rights, not control, until ownership transfers).
func IsAuthorized(u *unit.Unit, slot int) bool {
	return u.Seat.OwnerSlot == slot
}

// Acquire attempts to transfer ownership of u to slot (spec.md Sec.4.5's
// seat-acquisition protocol):
//   - a unit with no current owner (OwnerSlot < 0) is granted to anyone;
//   - a unit already owned by slot is a no-op grant;
//   - a foreign, owned unit is gated by its SeatPolicy: SeatOpen grants
//     freely, SeatPIN1Digit requires a correct pin, SeatLocked never grants
//     except to the host (slot 0) overriding.
func Acquire(u *unit.Unit, slot int, pin *int, tick uint64, isHost bool) Result {
	if u.Seat.OwnerSlot == slot {
		return Result{Granted: true}
	}
	if u.Seat.OwnerSlot < 0 {
		transfer(u, slot, tick, unit.MethodSeatClaim)
		return Result{Granted: true}
	}

	switch u.Seat.SeatPolicy {
	case unit.SeatOpen:
		transfer(u, slot, tick, unit.MethodSeatClaim)
		return Result{Granted: true}
	case unit.SeatPIN1Digit:
		if u.Seat.SeatPinDigit == nil || pin == nil || *pin != *u.Seat.SeatPinDigit {
			return Result{Reason: DenyWrongPIN}
		}
		transfer(u, slot, tick, unit.MethodPINCapture)
		return Result{Granted: true}
	case unit.SeatLocked:
		if isHost {
			transfer(u, slot, tick, unit.MethodTransfer)
			return Result{Granted: true}
		}
		return Result{Reason: DenyLocked}
	default:
		return Result{Reason: DenyOccupied}
	}
}

// Release clears ownership when slot is the current owner (an explicit seat
// release request), returning the unit to unowned so the next Acquire
// grants freely (spec.md Sec.4.5).
func Release(u *unit.Unit, slot int) {
	if u.Seat.OwnerSlot != slot {
		return
	}
	u.Seat.OwnerSlot = -1
	u.Seat.SelectedBySlot = nil
}

// Select records that slot is looking at/considering u without granting
// control (spec.md Sec.4.5's SELECT/DESELECT commands).
func Select(u *unit.Unit, slot int) {
	s := slot
	u.Seat.SelectedBySlot = &s
}

// Deselect clears the selection marker only; ownership is untouched.
func Deselect(u *unit.Unit, slot int) {
	if u.Seat.SelectedBySlot != nil && *u.Seat.SelectedBySlot == slot {
		u.Seat.SelectedBySlot = nil
	}
}

// HostOverride forcibly transfers ownership regardless of policy, for host
// moderation (spec.md Sec.4.5).
func HostOverride(u *unit.Unit, slot int, tick uint64) {
	transfer(u, slot, tick, unit.MethodTransfer)
}

func transfer(u *unit.Unit, slot int, tick uint64, method unit.OwnershipMethod) {
	prev := u.Seat.OwnerSlot
	u.Seat.OwnerSlot = slot
	u.Seat.SelectedBySlot = &slot
	u.Seat.OwnerHistory = append(u.Seat.OwnerHistory, unit.OwnershipEvent{
		Slot:         slot,
		PreviousSlot: prev,
		AcquiredAt:   tick,
		Method:       method,
	})
}

// History returns the full, append-only ownership audit log for u
// (SPEC_FULL Sec.10's "seat.History audit query").
func History(u *unit.Unit) []unit.OwnershipEvent {
	out := make([]unit.OwnershipEvent, len(u.Seat.OwnerHistory))
	copy(out, u.Seat.OwnerHistory)
	return out
}
