// Package longpress detects a press held past a threshold, the gesture that
// opens the likers list of a post.
package longpress

import (
	"sync"
	"time"
)

// Threshold is how long a press must last to count as a long press.
const Threshold = 500 * time.Millisecond

type State int

const (
	Idle State = iota
	Pressing
	Held
)

func (s State) String() string {
	switch s {
	case Pressing:
		return "pressing"
	case Held:
		return "held"
	default:
		return "idle"
	}
}

type timer interface {
	Stop() bool
}

// Detector is a timer driven state machine: idle -> pressing -> held.
// Release or Leave returns it to idle.
type Detector struct {
	mu        sync.Mutex
	state     State
	t         timer
	gen       uint64
	threshold time.Duration
	onHold    func()
	afterFunc func(time.Duration, func()) timer
}

// New returns a Detector that calls onHold once the press reaches threshold.
// onHold runs on the timer goroutine.
func New(threshold time.Duration, onHold func()) *Detector {
	return &Detector{
		threshold: threshold,
		onHold:    onHold,
		afterFunc: func(d time.Duration, f func()) timer { return time.AfterFunc(d, f) },
	}
}

// Press starts a press. It does not arm when there is nothing to show,
// i.e. likes is zero, and reports whether it armed.
func (d *Detector) Press(likes int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if likes <= 0 {
		return false
	}
	d.stopLocked()
	d.gen++
	gen := d.gen
	d.state = Pressing
	d.t = d.afterFunc(d.threshold, func() { d.fire(gen) })
	return true
}

func (d *Detector) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.state != Pressing {
		d.mu.Unlock()
		return
	}
	d.state = Held
	d.t = nil
	d.mu.Unlock()

	if d.onHold != nil {
		d.onHold()
	}
}

// Release ends the press. It reports whether the press had become a long
// press, in which case the caller should not treat it as a tap.
func (d *Detector) Release() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	held := d.state == Held
	d.resetLocked()
	return held
}

// Leave cancels the press when the pointer leaves the target.
func (d *Detector) Leave() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
}

func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Detector) resetLocked() {
	d.stopLocked()
	d.gen++
	d.state = Idle
}

func (d *Detector) stopLocked() {
	if d.t != nil {
		d.t.Stop()
		d.t = nil
	}
}
