package command

// Factory stamps raw client-issued requests with the (tick, issuedBySlot)
// pair that command ordering depends on, so that no client can forge a
// different slot or tick for its own input (spec.md Sec.4.5: "Input Factory
// stamping {tick, issuedBySlot}").
type Factory struct {
	currentTick func() uint64
}

// NewFactory builds a Factory that stamps commands with whatever tick
// currentTick reports at call time (normally simloop.Loop.CurrentTick).
func NewFactory(currentTick func() uint64) *Factory {
	return &Factory{currentTick: currentTick}
}

// Stamp produces a Command for slot issuing a command of typ against
// unitID, attaching the current tick. waypoints is nil for commands that
// don't carry one (SELECT/DESELECT/CLOSE_PATH/CLEAR/PLAY/PAUSE).
func (f *Factory) Stamp(slot, unitID int, typ Type, waypoints []WaypointInput) Command {
	return Command{
		Tick:         f.currentTick(),
		IssuedBySlot: slot,
		UnitID:       unitID,
		Type:         typ,
		Waypoints:    waypoints,
	}
}
