package simloop

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mud-platform-backend/internal/command"
	"mud-platform-backend/internal/geomath"
	"mud-platform-backend/internal/obstacle"
	"mud-platform-backend/internal/rng"
	"mud-platform-backend/internal/terrain"
	"mud-platform-backend/internal/unit"
)

type flatOracle struct{ radius, water float64 }

func (f flatOracle) RadiusAt(dir geomath.Vec3) float64   { return f.radius }
func (f flatOracle) NormalAt(p geomath.Vec3) geomath.Vec3 { return p.Normalized() }
func (f flatOracle) WaterLevel() float64                 { return f.water }
func (f flatOracle) BaseRadius() float64                 { return f.radius }

type passObstacle struct{}

func (passObstacle) CheckAndSlide(from, to geomath.Vec3) obstacle.SlideResult {
	return obstacle.SlideResult{Position: to}
}

func newLoopWithOneUnit() (*Loop, *unit.Unit, *command.Queue) {
	deps := unit.Dependencies{Terrain: flatOracle{radius: 100, water: -10}, Obstacle: passObstacle{}}
	q := command.NewQueue()
	l := New(deps, q, zerolog.Nop())

	root := rng.NewRoot(7)
	u := unit.New(1, geomath.Vec3{X: 1}, 0, unit.Capabilities{CanSwim: true}, 0.5, 5.0, root.Split("u1"), root.SplitVisual("u1"))
	l.AddUnit(u)
	return l, u, q
}

func TestLoopStepAdvancesTick(t *testing.T) {
	l, _, _ := newLoopWithOneUnit()
	require.Equal(t, uint64(0), l.CurrentTick())
	l.Step(TickDuration)
	assert.Equal(t, uint64(1), l.CurrentTick())
}

func TestLoopGatesUnauthorizedCommand(t *testing.T) {
	l, u, q := newLoopWithOneUnit()
	require.Equal(t, 0, u.Seat.OwnerSlot)

	q.Enqueue(command.Command{
		Tick: 0, IssuedBySlot: 1, UnitID: 1, Type: command.Move,
		Waypoints: []command.WaypointInput{{ID: "a", Position: [3]float64{0, 0, 100}}},
	})
	l.Step(TickDuration)

	assert.False(t, u.HasPath(), "a command from a non-owning slot must be dropped")
}

func TestLoopAppliesAuthorizedMoveCommand(t *testing.T) {
	l, u, q := newLoopWithOneUnit()

	q.Enqueue(command.Command{
		Tick: 0, IssuedBySlot: 0, UnitID: 1, Type: command.Move,
		Waypoints: []command.WaypointInput{{ID: "a", Position: [3]float64{0, 0, 100}}},
	})
	l.Step(TickDuration)

	assert.True(t, u.HasPath())
}

func TestLoopDrainsOnlyCommandsForCurrentTick(t *testing.T) {
	l, u, q := newLoopWithOneUnit()

	q.Enqueue(command.Command{
		Tick: 5, IssuedBySlot: 0, UnitID: 1, Type: command.Move,
		Waypoints: []command.WaypointInput{{ID: "a", Position: [3]float64{0, 0, 100}}},
	})
	l.Step(TickDuration)

	assert.False(t, u.HasPath(), "a command stamped for a future tick must not apply early")
	assert.Equal(t, 1, q.Len())
}
