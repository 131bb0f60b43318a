// Package loop runs game systems once per frame and flushes deferred work at the
// end of each frame. Pacing is left to the caller: call Once from an existing
// frame callback, or Run to tick on a timer.
package loop

// System is a unit of per-frame behaviour. Implementations keep their own state
// between frames.
type System interface {
	Execute(frame *Frame)
}
