package sim

import (
	"log"
	"sync"
)

// HookPosPortMsgSend marks when a message is sent out from the port.
var HookPosPortMsgSend = &HookPos{Name: "Port Msg Send"}

// HookPosPortMsgRecvd marks when an inbound message arrives at the port.
var HookPosPortMsgRecvd = &HookPos{Name: "Port Msg Recv"}

// HookPosPortMsgRetrieve marks when an inbound message is retrieved from the
// incoming buffer.
var HookPosPortMsgRetrieve = &HookPos{Name: "Port Msg Retrieve"}

// A Port is owned by a component and is used to plugin connections
type Port interface {
	Named
	Hookable

	SetConnection(conn Connection)
	Component() Component

	// For connection
	Deliver(msg Msg) *SendError
	NotifyAvailable()
	RetrieveOutgoing() Msg
	PeekOutgoing() Msg

	// For component
	CanSend() bool
	Send(msg Msg) *SendError
	RetrieveIncoming() Msg
	PeekIncoming() Msg
}

type defaultPort struct {
	HookableBase

	lock sync.Mutex
	name string
	comp Component
	conn Connection

	incomingBuf Buffer
	outgoingBuf Buffer
}

// NewPort creates a new port with default behavior.
func NewPort(
	comp Component,
	incomingBufCap, outgoingBufCap int,
	name string,
) Port {
	p := new(defaultPort)
	p.comp = comp
	p.incomingBuf = NewBuffer(name+".IncomingBuf", incomingBufCap)
	p.outgoingBuf = NewBuffer(name+".OutgoingBuf", outgoingBufCap)
	p.name = name

	return p
}

func (p *defaultPort) Name() string {
	return p.name
}

func (p *defaultPort) SetConnection(conn Connection) {
	if p.conn != nil {
		log.Panicf("port %s already connected to %s, now connecting to %s",
			p.name, p.conn.Name(), conn.Name())
	}

	p.conn = conn
}

func (p *defaultPort) Component() Component {
	return p.comp
}

func (p *defaultPort) CanSend() bool {
	p.lock.Lock()
	defer p.lock.Unlock()

	return p.outgoingBuf.CanPush()
}

func (p *defaultPort) Send(msg Msg) *SendError {
	p.msgMustBeValid(msg)

	p.lock.Lock()
	if !p.outgoingBuf.CanPush() {
		p.lock.Unlock()
		return NewSendError()
	}

	msg.Meta().SendTime = p.now()
	p.outgoingBuf.Push(msg)
	p.invokeMsgHook(HookPosPortMsgSend, msg)
	p.lock.Unlock()

	p.conn.NotifySend()

	return nil
}

func (p *defaultPort) Deliver(msg Msg) *SendError {
	p.lock.Lock()

	if !p.incomingBuf.CanPush() {
		p.lock.Unlock()
		return NewSendError()
	}

	wasEmpty := p.incomingBuf.Size() == 0
	msg.Meta().RecvTime = p.now()
	p.invokeMsgHook(HookPosPortMsgRecvd, msg)
	p.incomingBuf.Push(msg)
	p.lock.Unlock()

	if p.comp != nil && wasEmpty {
		p.comp.NotifyRecv(p)
	}

	return nil
}

func (p *defaultPort) RetrieveIncoming() Msg {
	p.lock.Lock()

	item := p.incomingBuf.Pop()
	if item == nil {
		p.lock.Unlock()
		return nil
	}

	wasFull := p.incomingBuf.Size() == p.incomingBuf.Capacity()-1
	p.lock.Unlock()

	if wasFull && p.conn != nil {
		p.conn.NotifyAvailable(p)
	}

	msg := item.(Msg)
	p.invokeMsgHook(HookPosPortMsgRetrieve, msg)

	return msg
}

func (p *defaultPort) RetrieveOutgoing() Msg {
	p.lock.Lock()

	item := p.outgoingBuf.Pop()
	if item == nil {
		p.lock.Unlock()
		return nil
	}

	wasFull := p.outgoingBuf.Size() == p.outgoingBuf.Capacity()-1
	p.lock.Unlock()

	if wasFull && p.comp != nil {
		p.comp.NotifyPortFree(p)
	}

	return item.(Msg)
}

func (p *defaultPort) PeekIncoming() Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	item := p.incomingBuf.Peek()
	if item == nil {
		return nil
	}

	return item.(Msg)
}

func (p *defaultPort) PeekOutgoing() Msg {
	p.lock.Lock()
	defer p.lock.Unlock()

	item := p.outgoingBuf.Peek()
	if item == nil {
		return nil
	}

	return item.(Msg)
}

// NotifyAvailable is called by the connection to notify the port that the
// connection is available again
func (p *defaultPort) NotifyAvailable() {
	if p.comp != nil {
		p.comp.NotifyPortFree(p)
	}
}

func (p *defaultPort) now() VTimeInSec {
	if tt, ok := p.comp.(TimeTeller); ok {
		return tt.CurrentTime()
	}

	return 0
}

func (p *defaultPort) invokeMsgHook(pos *HookPos, msg Msg) {
	if p.NumHooks() == 0 {
		return
	}

	p.InvokeHook(HookCtx{
		Domain: p,
		Now:    p.now(),
		Pos:    pos,
		Item:   msg,
	})
}

func (p *defaultPort) msgMustBeValid(msg Msg) {
	if msg.Meta().Src != Port(p) {
		log.Panicf("port %s is not the src of the msg", p.name)
	}

	if msg.Meta().Dst == nil {
		log.Panic("dst is not given")
	}

	if msg.Meta().Src == msg.Meta().Dst {
		log.Panic("sending back to src")
	}

	if p.conn == nil {
		log.Panicf("port %s is not connected", p.name)
	}
}
