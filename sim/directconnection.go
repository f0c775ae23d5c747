package sim

// DirectConnection connects ports without latency. Messages are moved from
// the outgoing buffer of the source port to the incoming buffer of the
// destination port in the same cycle they are sent.
type DirectConnection struct {
	*TickingComponent

	nextPortID int
	ports      []Port
}

// NewDirectConnection creates a new DirectConnection object
func NewDirectConnection(
	name string,
	engine Engine,
	freq Freq,
) *DirectConnection {
	c := new(DirectConnection)
	c.TickingComponent = NewSecondaryTickingComponent(name, engine, freq, c)

	return c
}

// PlugIn marks the port connects to this DirectConnection.
func (c *DirectConnection) PlugIn(port Port) {
	c.Lock()
	defer c.Unlock()

	c.ports = append(c.ports, port)
	port.SetConnection(c)
}

// NotifyAvailable is called by a port to notify that the connection can
// deliver to the port again.
func (c *DirectConnection) NotifyAvailable(p Port) {
	for _, port := range c.ports {
		if port == p {
			continue
		}

		port.NotifyAvailable()
	}

	c.TickNow()
}

// NotifySend is called by a port to notify that the connection can start
// to tick now.
func (c *DirectConnection) NotifySend() {
	c.TickNow()
}

// Tick delivers the messages waiting in the outgoing buffers.
func (c *DirectConnection) Tick() bool {
	madeProgress := false

	for i := 0; i < len(c.ports); i++ {
		portID := (i + c.nextPortID) % len(c.ports)
		madeProgress = c.forwardMany(c.ports[portID]) || madeProgress
	}

	if len(c.ports) > 0 {
		c.nextPortID = (c.nextPortID + 1) % len(c.ports)
	}

	return madeProgress
}

func (c *DirectConnection) forwardMany(port Port) bool {
	madeProgress := false

	for {
		head := port.PeekOutgoing()
		if head == nil {
			break
		}

		err := head.Meta().Dst.Deliver(head)
		if err != nil {
			break
		}

		if c.NumHooks() > 0 {
			c.InvokeHook(HookCtx{
				Domain: c,
				Now:    c.CurrentTime(),
				Pos:    HookPosConnDeliver,
				Item:   head,
			})
		}

		madeProgress = true
		port.RetrieveOutgoing()
	}

	return madeProgress
}
