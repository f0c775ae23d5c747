// Package mem defines the system-bus transactions exchanged between the
// debug module, its bus adapter, and the targets.
package mem

import (
	"github.com/sarchlab/dmsim/sim"
)

var (
	accessReqByteOverhead = 12
	accessRspByteOverhead = 4
)

// AccessReq abstracts read and write requests that are sent over the system
// bus.
type AccessReq interface {
	sim.Msg
	GetAddress() uint64
	GetByteSize() uint64
}

// AccessRsp is a response on the system bus.
type AccessRsp interface {
	sim.Rsp
	IsDenied() bool
}

// A ReadReq is a request to load data from an address.
type ReadReq struct {
	sim.MsgMeta

	Address        uint64
	AccessByteSize uint64
}

// Meta returns the message meta.
func (r *ReadReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetByteSize returns the number of byte that the request is accessing.
func (r *ReadReq) GetByteSize() uint64 {
	return r.AccessByteSize
}

// GetAddress returns the address that the request is accessing
func (r *ReadReq) GetAddress() uint64 {
	return r.Address
}

// ReadReqBuilder can build read requests.
type ReadReqBuilder struct {
	src, dst          sim.Port
	address, byteSize uint64
}

// WithSrc sets the source of the request to build.
func (b ReadReqBuilder) WithSrc(src sim.Port) ReadReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b ReadReqBuilder) WithDst(dst sim.Port) ReadReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the address of the request to build.
func (b ReadReqBuilder) WithAddress(address uint64) ReadReqBuilder {
	b.address = address
	return b
}

// WithByteSize sets the byte size of the request to build.
func (b ReadReqBuilder) WithByteSize(byteSize uint64) ReadReqBuilder {
	b.byteSize = byteSize
	return b
}

// Build creates a new ReadReq
func (b ReadReqBuilder) Build() *ReadReq {
	r := &ReadReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = accessReqByteOverhead
	r.Address = b.address
	r.AccessByteSize = b.byteSize

	return r
}

// A WriteReq is a request to store data to an address. Bytes whose dirty
// mask entry is false are not written. A nil mask writes every byte.
type WriteReq struct {
	sim.MsgMeta

	Address   uint64
	Data      []byte
	DirtyMask []bool
}

// Meta returns the meta data attached to a request.
func (r *WriteReq) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetByteSize returns the number of byte that the request is writing.
func (r *WriteReq) GetByteSize() uint64 {
	return uint64(len(r.Data))
}

// GetAddress returns the address that the request is accessing
func (r *WriteReq) GetAddress() uint64 {
	return r.Address
}

// IsByteDirty tells if the i-th byte of the request is to be written.
func (r *WriteReq) IsByteDirty(i int) bool {
	if r.DirtyMask == nil {
		return true
	}

	return r.DirtyMask[i]
}

// WriteReqBuilder can build write requests.
type WriteReqBuilder struct {
	src, dst  sim.Port
	address   uint64
	data      []byte
	dirtyMask []bool
}

// WithSrc sets the source of the request to build.
func (b WriteReqBuilder) WithSrc(src sim.Port) WriteReqBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the request to build.
func (b WriteReqBuilder) WithDst(dst sim.Port) WriteReqBuilder {
	b.dst = dst
	return b
}

// WithAddress sets the address of the request to build.
func (b WriteReqBuilder) WithAddress(address uint64) WriteReqBuilder {
	b.address = address
	return b
}

// WithData sets the data of the request to build.
func (b WriteReqBuilder) WithData(data []byte) WriteReqBuilder {
	b.data = data
	return b
}

// WithDirtyMask sets the dirty mask of the request to build.
func (b WriteReqBuilder) WithDirtyMask(mask []bool) WriteReqBuilder {
	b.dirtyMask = mask
	return b
}

// Build creates a new WriteReq
func (b WriteReqBuilder) Build() *WriteReq {
	r := &WriteReq{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.Address = b.address
	r.Data = b.data
	r.TrafficBytes = len(r.Data) + accessReqByteOverhead
	r.DirtyMask = b.dirtyMask

	return r
}

// A DataReadyRsp is the response to a ReadReq. A denied response carries no
// meaningful data.
type DataReadyRsp struct {
	sim.MsgMeta

	RespondTo string
	Data      []byte
	Denied    bool
}

// Meta returns the meta data attached to each message.
func (r *DataReadyRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the request that the response is responding to.
func (r *DataReadyRsp) GetRspTo() string {
	return r.RespondTo
}

// IsDenied tells if the bus refused the access.
func (r *DataReadyRsp) IsDenied() bool {
	return r.Denied
}

// DataReadyRspBuilder can build data ready responses.
type DataReadyRspBuilder struct {
	src, dst sim.Port
	rspTo    string
	data     []byte
	denied   bool
}

// WithSrc sets the source of the response to build.
func (b DataReadyRspBuilder) WithSrc(src sim.Port) DataReadyRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response to build.
func (b DataReadyRspBuilder) WithDst(dst sim.Port) DataReadyRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets ID of the request that the response is replying to.
func (b DataReadyRspBuilder) WithRspTo(id string) DataReadyRspBuilder {
	b.rspTo = id
	return b
}

// WithData sets the data of the response to build.
func (b DataReadyRspBuilder) WithData(data []byte) DataReadyRspBuilder {
	b.data = data
	return b
}

// Denied marks the access as refused by the bus.
func (b DataReadyRspBuilder) Denied() DataReadyRspBuilder {
	b.denied = true
	return b
}

// Build creates a new DataReadyRsp
func (b DataReadyRspBuilder) Build() *DataReadyRsp {
	r := &DataReadyRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = len(b.data) + accessRspByteOverhead
	r.RespondTo = b.rspTo
	r.Data = b.data
	r.Denied = b.denied

	return r
}

// A WriteDoneRsp is the response to a WriteReq.
type WriteDoneRsp struct {
	sim.MsgMeta

	RespondTo string
	Denied    bool
}

// Meta returns the meta data associated with the message.
func (r *WriteDoneRsp) Meta() *sim.MsgMeta {
	return &r.MsgMeta
}

// GetRspTo returns the ID of the request that the response is responding to.
func (r *WriteDoneRsp) GetRspTo() string {
	return r.RespondTo
}

// IsDenied tells if the bus refused the access.
func (r *WriteDoneRsp) IsDenied() bool {
	return r.Denied
}

// WriteDoneRspBuilder can build write done responses.
type WriteDoneRspBuilder struct {
	src, dst sim.Port
	rspTo    string
	denied   bool
}

// WithSrc sets the source of the response to build.
func (b WriteDoneRspBuilder) WithSrc(src sim.Port) WriteDoneRspBuilder {
	b.src = src
	return b
}

// WithDst sets the destination of the response to build.
func (b WriteDoneRspBuilder) WithDst(dst sim.Port) WriteDoneRspBuilder {
	b.dst = dst
	return b
}

// WithRspTo sets ID of the request that the response is replying to.
func (b WriteDoneRspBuilder) WithRspTo(id string) WriteDoneRspBuilder {
	b.rspTo = id
	return b
}

// Denied marks the access as refused by the bus.
func (b WriteDoneRspBuilder) Denied() WriteDoneRspBuilder {
	b.denied = true
	return b
}

// Build creates a new WriteDoneRsp
func (b WriteDoneRspBuilder) Build() *WriteDoneRsp {
	r := &WriteDoneRsp{}
	r.ID = sim.GetIDGenerator().Generate()
	r.Src = b.src
	r.Dst = b.dst
	r.TrafficBytes = accessRspByteOverhead
	r.RespondTo = b.rspTo
	r.Denied = b.denied

	return r
}
