// Package cmd provides a transport-agnostic command core: a command is something
// with a name, description, and Run(ctx, invocation). How it is parsed and
// dispatched (chat prefix, CLI) is defined by adapters that wrap this.
package cmd

import (
	"context"
	"strings"
)

// Invocation carries what any runner can pass: the name the command was
// called by, its arguments and an opaque payload. Adapters set Data to their
// context (e.g. the chat message being answered).
type Invocation struct {
	Name string
	Args []string
	Data interface{}
}

// Raw returns the arguments joined back into a single string.
func (inv *Invocation) Raw() string {
	return strings.Join(inv.Args, " ")
}

// Command is the universal contract: identity plus execution.
type Command interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) error
}

// Aliased is implemented by commands reachable under more than one name.
type Aliased interface {
	Aliases() []string
}

// Usage is implemented by commands that document their arguments.
type Usage interface {
	Usage() string
}

// Parse splits a chat line into a command name and arguments. ok is false
// when the line does not start with prefix or names nothing.
func Parse(prefix, line string) (name string, args []string, ok bool) {
	line = strings.TrimSpace(line)
	if prefix == "" || !strings.HasPrefix(line, prefix) {
		return "", nil, false
	}
	fields := strings.Fields(strings.TrimPrefix(line, prefix))
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}
