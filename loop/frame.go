package loop

// Frame is handed to every system during one scheduler pass.
type Frame struct {
	// DeltaTime is the time covered by this frame, in seconds.
	DeltaTime float64
	Commands  *Commands
}

func newFrame(dt float64) *Frame {
	return &Frame{
		DeltaTime: dt,
		Commands:  newCommands(),
	}
}
