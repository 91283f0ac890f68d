package extension

import (
	"fmt"
	"sync"

	"github.com/viant/procadj/service/apply"
	"github.com/viant/x"
)

// SinkFactory builds an apply sink from vendor specific options.
type SinkFactory func(options map[string]interface{}) (apply.Sink, error)

// Sinks provides a registry of named apply-sink implementations
type Sinks struct {
	types     *Types
	factories map[string]SinkFactory
	mux       sync.RWMutex
}

func (s *Sinks) Types() *Types {
	return s.types
}

// Lookup returns a factory by name
func (s *Sinks) Lookup(name string) SinkFactory {
	s.mux.RLock()
	defer s.mux.RUnlock()
	return s.factories[name]
}

// Register registers a factory under a vendor name
func (s *Sinks) Register(name string, factory SinkFactory) {
	s.mux.Lock()
	defer s.mux.Unlock()
	s.factories[name] = factory
}

// New builds a sink for the named vendor
func (s *Sinks) New(name string, options map[string]interface{}) (apply.Sink, error) {
	factory := s.Lookup(name)
	if factory == nil {
		return nil, fmt.Errorf("extension: unknown sink vendor: %s", name)
	}
	return factory(options)
}

// NewSinks creates a new sink registry
func NewSinks(goTypes ...*x.Type) *Sinks {
	ret := &Sinks{
		types:     NewTypes(),
		factories: make(map[string]SinkFactory),
	}
	for _, t := range goTypes {
		if t != nil {
			ret.types.Register(t)
		}
	}
	return ret
}
