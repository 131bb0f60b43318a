package loop

// Commands buffers work that must run after every system has seen the frame,
// such as locking a piece that landed while input is still being processed.
type Commands struct {
	defers []func()
}

func newCommands() *Commands {
	return &Commands{}
}

// Defer queues fn to run when the frame is flushed.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, fn)
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.defers)
}

// Flush runs the queued functions in order and resets the buffer. Functions
// deferred while flushing run in the same flush.
func (c *Commands) Flush() {
	for i := 0; i < len(c.defers); i++ {
		c.defers[i]()
	}
	c.defers = c.defers[:0]
}
