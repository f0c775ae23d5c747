// Package outer models the persistent clock domain of the debug module: the
// control word and the component that owns it.
package outer

import (
	"github.com/sarchlab/dmsim/debug/crossing"
	"github.com/sarchlab/dmsim/debug/dmi"
)

// Control is the persistent control word. It survives the reset of
// everything else and decides which hart is selected and which harts are
// asked to halt.
type Control struct {
	active   bool
	ndmReset bool
	hartSel  uint32
	haltReq  []bool
}

// NewControl creates a control word in its quiescent state.
func NewControl() *Control {
	return &Control{
		haltReq: make([]bool, 1<<dmi.HartSelBits),
	}
}

// Write applies a dmcontrol write. It returns the event that the resettable
// domain must observe and whether there is one.
//
// While inactive, every field other than dmactive is dropped. The active bit
// is applied after the other fields, so one write can both activate the
// module and select a hart. Clearing dmactive returns every field to its
// quiescent value.
func (c *Control) Write(v uint32) (crossing.ControlEvent, bool) {
	w := dmi.DecodeDMControl(v)

	if !w.DMActive {
		wasActive := c.active
		c.reset()

		return crossing.ControlEvent{}, wasActive
	}

	c.ndmReset = w.NDMReset
	c.hartSel = w.HartSel

	switch {
	case w.HaltReq:
		c.haltReq[c.hartSel] = true
	case w.ResumeReq:
		c.haltReq[c.hartSel] = false
	}

	c.active = true

	return crossing.ControlEvent{
		Active:    true,
		HartSel:   c.hartSel,
		ResumeReq: w.ResumeReq && !w.HaltReq,
		NDMReset:  c.ndmReset,
	}, true
}

// Read returns the current value of the control word. The resume request is
// a one-shot action and always reads as zero.
func (c *Control) Read() uint32 {
	return dmi.DMControl{
		HaltReq:  c.haltReq[c.hartSel],
		HartSel:  c.hartSel,
		NDMReset: c.ndmReset,
		DMActive: c.active,
	}.Encode()
}

// Active tells if the debug module is active.
func (c *Control) Active() bool {
	return c.active
}

// HartSel returns the selected hart.
func (c *Control) HartSel() uint32 {
	return c.hartSel
}

// NDMReset tells if the rest of the system is held in reset.
func (c *Control) NDMReset() bool {
	return c.ndmReset
}

// HaltRequested tells if the hart is being asked to halt.
func (c *Control) HaltRequested(hart int) bool {
	if hart < 0 || hart >= len(c.haltReq) {
		return false
	}

	return c.haltReq[hart]
}

func (c *Control) reset() {
	c.active = false
	c.ndmReset = false
	c.hartSel = 0

	for i := range c.haltReq {
		c.haltReq[i] = false
	}
}
