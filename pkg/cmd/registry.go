package cmd

import (
	"fmt"
	"sort"
	"sync"
)

// Registry stores commands by name and alias. It does not perform dispatch;
// adapters look commands up and invoke them with their own context.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
	aliases  map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
		aliases:  make(map[string]string),
	}
}

// Register adds a command, wrapped by mws, under its name and aliases.
// Registering a name or alias twice is an error.
func (r *Registry) Register(c Command, mws ...Middleware) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if r.taken(name) {
		return fmt.Errorf("command %q already registered", name)
	}
	var aliases []string
	if a, ok := c.(Aliased); ok {
		aliases = a.Aliases()
	}
	for _, alias := range aliases {
		if alias == name || r.taken(alias) {
			return fmt.Errorf("alias %q of %q already registered", alias, name)
		}
	}

	r.commands[name] = Apply(c, mws...)
	for _, alias := range aliases {
		r.aliases[alias] = name
	}
	return nil
}

func (r *Registry) taken(name string) bool {
	_, cmd := r.commands[name]
	_, alias := r.aliases[name]
	return cmd || alias
}

// Get returns the command registered under name or alias, or nil.
func (r *Registry) Get(name string) Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[name]; ok {
		name = target
	}
	return r.commands[name]
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry) GetAll() []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Command, 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}
