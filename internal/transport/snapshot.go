package transport

import "mud-platform-backend/internal/unit"

// Snapshot builds the wire-format SnapshotData for tick from the given
// units, in stable unit-ID order so clients can diff consecutive snapshots
// without re-sorting.
func Snapshot(tick uint64, units []*unit.Unit) SnapshotData {
	out := SnapshotData{Tick: tick, Units: make([]UnitSnapshot, len(units))}
	for i, u := range units {
		out.Units[i] = UnitSnapshot{
			UnitID:     u.ID,
			Position:   [3]float64{u.Position.X, u.Position.Y, u.Position.Z},
			Quaternion: [4]float64{u.HeadingQuaternion.W, u.HeadingQuaternion.X, u.HeadingQuaternion.Y, u.HeadingQuaternion.Z},
			OwnerSlot:  u.Seat.OwnerSlot,
			IsStuck:    u.IsStuck,
			IsBlocked:  u.IsBlocked,
		}
	}
	return out
}
