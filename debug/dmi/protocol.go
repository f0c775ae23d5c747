// Package dmi defines the control-bus protocol that an external debugger
// uses to reach the debug module, together with the register map and field
// layouts of the registers it exposes.
package dmi

import (
	"fmt"

	"github.com/sarchlab/dmsim/sim"
)

// Op is the operation of a control-bus request.
type Op uint8

// Control-bus operations.
const (
	OpNone Op = iota
	OpRead
	OpWrite
)

func (o Op) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("op(%d)", uint8(o))
	}
}

// RspKind is the status of a control-bus response.
type RspKind uint8

// Response kinds. RspReservedBusy is produced by the transport in front of
// the debug module when it has no transaction slot; the debug module itself
// never produces it.
const (
	RspSuccess RspKind = iota
	RspFailure
	RspHWFailure
	RspReservedBusy
)

func (k RspKind) String() string {
	switch k {
	case RspSuccess:
		return "success"
	case RspFailure:
		return "failure"
	case RspHWFailure:
		return "hw-failure"
	case RspReservedBusy:
		return "busy"
	default:
		return fmt.Sprintf("rsp(%d)", uint8(k))
	}
}

// Req is a control-bus request.
type Req struct {
	sim.MsgMeta

	Addr uint32
	Data uint32
	Op   Op
}

// Meta returns the meta data of the request.
func (r *Req) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

func (r *Req) String() string {
	return fmt.Sprintf("%s 0x%02x 0x%08x", r.Op, r.Addr, r.Data)
}

// ReqBuilder can build control-bus requests.
type ReqBuilder struct {
	src, dst sim.Port
	addr     uint32
	data     uint32
	op       Op
}

// WithSrc sets the source of the request.
func (b ReqBuilder) WithSrc(src sim.Port) ReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request.
func (b ReqBuilder) WithDst(dst sim.Port) ReqBuilder {
	b.dst = dst
	return b
}

// WithAddr sets the register address of the request.
func (b ReqBuilder) WithAddr(addr uint32) ReqBuilder {
	b.addr = addr
	return b
}

// WithData sets the data of the request.
func (b ReqBuilder) WithData(data uint32) ReqBuilder {
	b.data = data
	return b
}

// WithOp sets the operation of the request.
func (b ReqBuilder) WithOp(op Op) ReqBuilder {
	b.op = op
	return b
}

// Build creates a new request.
func (b ReqBuilder) Build() *Req {
	r := &Req{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = 9
	r.Addr = b.addr
	r.Data = b.data
	r.Op = b.op

	return r
}

// Rsp is a control-bus response.
type Rsp struct {
	sim.MsgMeta

	RespondTo string
	Data      uint32
	Kind      RspKind
}

// Meta returns the meta data of the response.
func (r *Rsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the request that the response responds to.
func (r *Rsp) GetRspTo() string {
	return r.RespondTo
}

// RspBuilder can build control-bus responses.
type RspBuilder struct {
	src, dst sim.Port
	rspTo    string
	data     uint32
	kind     RspKind
}

// WithSrc sets the source of the response.
func (b RspBuilder) WithSrc(src sim.Port) RspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response.
func (b RspBuilder) WithDst(dst sim.Port) RspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets the ID of the request that the response responds to.
func (b RspBuilder) WithRspTo(id string) RspBuilder {
	b.rspTo = id
	return b
}

// WithData sets the data of the response.
func (b RspBuilder) WithData(data uint32) RspBuilder {
	b.data = data
	return b
}

// WithKind sets the status of the response.
func (b RspBuilder) WithKind(kind RspKind) RspBuilder {
	b.kind = kind
	return b
}

// Build creates a new response.
func (b RspBuilder) Build() *Rsp {
	r := &Rsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = 5
	r.RespondTo = b.rspTo
	r.Data = b.data
	r.Kind = b.kind

	return r
}
