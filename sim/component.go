package sim

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// A PortOwner is an element that can communicate with others through ports.
type PortOwner interface {
	AddPort(name string, port Port)
	GetPortByName(name string) Port
	Ports() []Port
}

// A Component is a element that is being simulated.
type Component interface {
	Named
	Handler
	Hookable
	PortOwner

	NotifyRecv(port Port)
	NotifyPortFree(port Port)
}

// ComponentBase provides some functions that other component can use.
type ComponentBase struct {
	HookableBase
	sync.Mutex

	name  string
	ports map[string]Port
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	c := new(ComponentBase)
	c.name = name
	c.ports = make(map[string]Port)

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}

// AddPort registers a port under the given name.
func (c *ComponentBase) AddPort(name string, port Port) {
	if _, found := c.ports[name]; found {
		log.Panicf("port %s already exists in %s", name, c.name)
	}

	c.ports[name] = port
}

// GetPortByName returns the port by the name of the port.
func (c *ComponentBase) GetPortByName(name string) Port {
	port, found := c.ports[name]
	if !found {
		names := make([]string, 0, len(c.ports))
		for n := range c.ports {
			names = append(names, n)
		}

		sort.Strings(names)
		log.Panic(fmt.Sprintf(
			"port %s is not available on component %s, available ports: %v",
			name, c.name, names))
	}

	return port
}

// Ports returns all the ports owned by the component, sorted by name.
func (c *ComponentBase) Ports() []Port {
	names := make([]string, 0, len(c.ports))
	for n := range c.ports {
		names = append(names, n)
	}

	sort.Strings(names)

	list := make([]Port, 0, len(names))
	for _, n := range names {
		list = append(list, c.ports[n])
	}

	return list
}
