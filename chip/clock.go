// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package chip

// Clock is a monotonic nanosecond clock. The zero value is a clock at time 0.
//
type Clock struct {
	now uint64
}

// Now returns the current time.
//
func (c *Clock) Now() uint64 { return c.now }

// Advance moves the clock forward by delta nanoseconds.
//
func (c *Clock) Advance(delta uint64) { c.now += delta }

// Reset sets the clock back to 0.
//
func (c *Clock) Reset() { c.now = 0 }

// IsTimeout returns true if at least timeout nanoseconds have elapsed since
// start.
//
func (c *Clock) IsTimeout(start, timeout uint64) bool {
	return Since(c.now, start) >= timeout
}

// Since returns now - start, or 0 if start is in the future.
//
func Since(now, start uint64) uint64 {
	if start > now {
		return 0
	}
	return now - start
}

// AddDelay returns base + delay, saturating at the maximum time value.
//
func AddDelay(base, delay uint64) uint64 {
	t := base + delay
	if t < base {
		return ^uint64(0)
	}
	return t
}

// Timer records the start of a running time window. The zero value is a
// stopped timer.
//
type Timer struct {
	start   uint64
	running bool
}

// Start starts the timer at now unless it is already running.
//
func (t *Timer) Start(now uint64) {
	if !t.running {
		t.start, t.running = now, true
	}
}

// Restart starts the timer at now, even if it is already running.
//
func (t *Timer) Restart(now uint64) { t.start, t.running = now, true }

// Stop stops the timer.
//
func (t *Timer) Stop() { *t = Timer{} }

// Running returns true if the timer is running.
//
func (t Timer) Running() bool { return t.running }

// Started returns the start time of a running timer.
//
func (t Timer) Started() uint64 { return t.start }

// Elapsed returns the time elapsed since the timer was started, or 0 if it is
// stopped.
//
func (t Timer) Elapsed(now uint64) uint64 {
	if !t.running {
		return 0
	}
	return Since(now, t.start)
}

// Expired returns true if the timer is running and at least d nanoseconds
// have elapsed since it was started.
//
func (t Timer) Expired(now, d uint64) bool {
	return t.running && Since(now, t.start) >= d
}
