package sim

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// A Named object is an object that has a name.
type Named interface {
	Name() string
}

// NamedHookable represents something that both has a name and can be hooked.
type NamedHookable interface {
	Named
	Hookable
	InvokeHook(ctx HookCtx)
}

// ComponentBase provides the name, the lock, and the hooks that every
// simulated or managed component carries.
type ComponentBase struct {
	HookableBase
	sync.Mutex

	name string
}

// NewComponentBase creates a new ComponentBase
func NewComponentBase(name string) *ComponentBase {
	if name == "" {
		log.Panic("component name must not be empty")
	}

	c := new(ComponentBase)
	c.name = name

	return c
}

// Name returns the name of the component.
func (c *ComponentBase) Name() string {
	return c.name
}
