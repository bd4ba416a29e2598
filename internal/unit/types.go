// Package unit implements the per-unit path-following state machine
// (spec.md Sec.4.1, C5): the fixed per-tick update order, terrain
// projection, look-ahead steering, curve-aware speed modulation, the
// water/rock-bounce/transition-arc/keyboard-override sub-state machines,
// and the render-interpolation snapshot pair.
package unit

import (
	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/path"
	"mud-platform-backend/internal/rng"
	"mud-platform-backend/internal/terrain"
)

// WaterState is the water sub-machine's state (spec.md Sec.4.3).
type WaterState int

const (
	WaterNormal WaterState = iota
	WaterSlowing
	WaterShoreExit
	WaterRecovering
)

func (s WaterState) String() string {
	switch s {
	case WaterNormal:
		return "normal"
	case WaterSlowing:
		return "slowing"
	case WaterShoreExit:
		return "shore_exit"
	case WaterRecovering:
		return "recovering"
	default:
		return "unknown"
	}
}

// Capabilities are the terrain-interaction abilities of a unit, set at
// construction and immutable thereafter.
type Capabilities struct {
	CanSwim           bool
	CanWalkUnderwater bool // spec.md Sec.9: treated equivalently to CanSwim for pathing.
}

func (c Capabilities) canEnterWater() bool {
	return c.CanSwim || c.CanWalkUnderwater
}

// Unit is the authoritative per-vehicle state (spec.md Sec.3).
type Unit struct {
	ID int

	Position          geomath.Vec3
	HeadingQuaternion geomath.Quat
	VelocityDirection geomath.Vec3
	SpeedFactor       float64 // in [0,1]
	CurrentTurnSpeed  float64
	lastTangentDot    float64

	Waypoints          []path.Waypoint
	Path               []path.Point
	PathIndex          int
	PathSegmentIndices map[string]int
	IsPathClosed       bool
	LoopingEnabled     bool

	LastWaypointID   string
	TargetWaypointID string

	Capabilities Capabilities
	GroundOffset float64
	MoveSpeed    float64 // base (unmodulated) move speed, meters/second

	Water     waterMachine
	Bounce    bounceMachine
	Transition transitionMachine
	Keyboard   keyboardMachine

	// advisory flags (spec.md Sec.7 / SPEC_FULL Sec.10)
	IsStuck   bool
	IsBlocked bool

	IsFollowingPath   bool
	PausedByCommand   bool
	HasWaitTimer      float64
	blockingFlagTimer float64
	stuckTimer        float64
	lastStuckCheckPos geomath.Vec3
	stuckCheckClock   float64
	obstacleScanClock float64

	RNG       *rng.Substream
	VisualRNG *rng.Substream

	// PendingInput is the manual Input last stamped by the transport layer
	// for this unit; simloop reads it once per tick and hands it to Tick.
	PendingInput Input

	Seat SeatState

	interpPrevPos  geomath.Vec3
	interpPrevQuat geomath.Quat
	interpCurrPos  geomath.Vec3
	interpCurrQuat geomath.Quat
}

// SeatState mirrors spec.md Sec.4.5/Sec.3's per-unit ownership fields. The
// seat package owns all mutation logic; Unit only stores the resulting
// state so that gating and rendering can read it without a package cycle.
type SeatState struct {
	OwnerSlot      int
	SelectedBySlot *int
	SeatPolicy     SeatPolicy
	SeatPinDigit   *int // host-only; never serialized to guests.
	OwnerHistory   []OwnershipEvent
}

// SeatPolicy controls how a foreign unit's seat may be acquired.
type SeatPolicy int

const (
	SeatOpen SeatPolicy = iota
	SeatPIN1Digit
	SeatLocked
)

// OwnershipMethod tags how a seat transition happened (spec.md Sec.3).
type OwnershipMethod string

const (
	MethodSpawn      OwnershipMethod = "SPAWN"
	MethodPINCapture OwnershipMethod = "PIN_CAPTURE"
	MethodSeatClaim  OwnershipMethod = "SEAT_CLAIM"
	MethodTransfer   OwnershipMethod = "TRANSFER"
)

// OwnershipEvent is one entry in a unit's ownerHistory (spec.md Sec.3).
type OwnershipEvent struct {
	Slot         int
	PreviousSlot int
	AcquiredAt   uint64 // tick
	Method       OwnershipMethod
}

// New constructs a fresh unit snapped onto the terrain at spawnDir, owned by
// spawnSlot (spec.md Sec.3 Lifecycle).
func New(id int, spawnDir geomath.Vec3, spawnSlot int, caps Capabilities, groundOffset, moveSpeed float64, rngStream, visualStream *rng.Substream) *Unit {
	dir := spawnDir.Normalized()
	u := &Unit{
		ID:                 id,
		Position:           dir,
		HeadingQuaternion:  geomath.AlignUpAxis(geomath.Identity(), dir),
		VelocityDirection:  geomath.Vec3{},
		Capabilities:       caps,
		GroundOffset:       groundOffset,
		MoveSpeed:          moveSpeed,
		PathSegmentIndices: map[string]int{},
		RNG:                rngStream,
		VisualRNG:          visualStream,
		Seat: SeatState{
			OwnerSlot:      spawnSlot,
			SelectedBySlot: intPtr(spawnSlot),
			SeatPolicy:     SeatOpen,
		},
	}
	u.Seat.OwnerHistory = append(u.Seat.OwnerHistory, OwnershipEvent{
		Slot: spawnSlot, PreviousSlot: -1, AcquiredAt: 0, Method: MethodSpawn,
	})
	return u
}

func intPtr(v int) *int { return &v }

// SnapToTerrain projects the unit's position onto oracle's surface at its
// fixed ground offset. New leaves Position at the unit sphere's surface
// (radius 1), so a freshly spawned unit does not yet satisfy the
// terrain-lock invariant (spec.md Sec.3/Sec.8) until either this runs or
// the unit takes its first Tick; callers that spawn a unit outside the tick
// loop (cmd/simserver's spawnUnits) must call this once, immediately.
func (u *Unit) SnapToTerrain(oracle terrain.Oracle) {
	u.Position = reprojectOntoTerrain(u.Position, oracle, u.GroundOffset)
}

// Input is the per-tick keyboard/pointer input for one unit (spec.md
// Sec.4.1 step 13-14).
type Input struct {
	MoveForward float64 // -1..1
	TurnInput   float64 // -1..1
	Hovered     bool    // pointer hovering this unit suppresses speed target
}

func (in Input) hasDirectionalInput() bool {
	return in.MoveForward != 0 || in.TurnInput != 0
}

// SetManualInput records the latest manual-control input the transport
// layer received for this unit, consumed by simloop on the next Tick.
func (u *Unit) SetManualInput(in Input) {
	u.PendingInput = in
}

// HasPath reports whether the unit has a built path to follow.
func (u *Unit) HasPath() bool {
	return len(u.Path) > 0
}

// SnapshotPrev captures the authoritative pose into the render-interp "prev"
// buffer (spec.md Sec.4.7 step 1).
func (u *Unit) SnapshotPrev() {
	u.interpPrevPos = u.Position
	u.interpPrevQuat = u.HeadingQuaternion
}

// SnapshotCurr captures the authoritative pose into the render-interp "curr"
// buffer (spec.md Sec.4.7 step 4).
func (u *Unit) SnapshotCurr() {
	u.interpCurrPos = u.Position
	u.interpCurrQuat = u.HeadingQuaternion
}

// InterpolatedPose returns the render pose at alpha in [0,1] between the
// last two tick snapshots (spec.md Sec.4.7).
func (u *Unit) InterpolatedPose(alpha float64) (geomath.Vec3, geomath.Quat) {
	pos := geomath.LerpVec3(u.interpPrevPos, u.interpCurrPos, alpha)
	quat := geomath.Slerp(u.interpPrevQuat, u.interpCurrQuat, alpha)
	return pos, quat
}
