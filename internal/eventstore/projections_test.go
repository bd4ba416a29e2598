package eventstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mud-platform-backend/internal/command"
)

func movePayload(t *testing.T, unitID int, tick uint64, wp command.WaypointInput) json.RawMessage {
	t.Helper()
	data, err := json.Marshal(commandPayload{
		Tick:      tick,
		UnitID:    unitID,
		Type:      command.Move,
		Waypoints: []command.WaypointInput{wp},
	})
	require.NoError(t, err)
	return data
}

func TestProjectionManagerDispatchesToRegisteredProjection(t *testing.T) {
	pose := NewUnitPoseProjection()
	pm := NewProjectionManager()
	pm.RegisterProjection(pose)
	ctx := context.Background()

	wp := command.WaypointInput{ID: "wp-1", Position: [3]float64{1, 2, 3}}
	err := pm.ProjectEvent(ctx, Event{
		ID:        "evt-1",
		EventType: commandEventType,
		Payload:   movePayload(t, 4, 7, wp),
	})
	require.NoError(t, err)

	rec, ok := pose.Snapshot(4)
	require.True(t, ok)
	assert.Equal(t, string(command.Move), rec.LastCommandType)
	assert.Equal(t, uint64(7), rec.LastTick)
	require.Len(t, rec.LastWaypoints, 1)
	assert.Equal(t, wp.Position, rec.LastWaypoints[0].Position)
}

func TestProjectionManagerStopsOnFirstError(t *testing.T) {
	pm := NewProjectionManager()
	pm.RegisterProjection(failingProjection{})

	err := pm.ProjectEvent(context.Background(), Event{ID: "evt-1", EventType: commandEventType})
	require.Error(t, err)
	assert.ErrorContains(t, err, "projection failing failed to handle event evt-1")
}

type failingProjection struct{}

func (failingProjection) Name() string { return "failing" }
func (failingProjection) HandleEvent(ctx context.Context, event Event) error {
	return assert.AnError
}
