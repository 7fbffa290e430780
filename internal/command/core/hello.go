package core

import (
	"context"
	"fmt"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/pkg/cmd"
)

type HelloCommand struct{}

func (c *HelloCommand) Name() string        { return "hello" }
func (c *HelloCommand) Aliases() []string   { return []string{"ciao"} }
func (c *HelloCommand) Description() string { return "Say hello" }
func (c *HelloCommand) Category() string    { return category }

func (c *HelloCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, ok := command.From(inv)
	if !ok {
		return fmt.Errorf("unsupported invocation payload %T", inv.Data)
	}
	mc.Send(fmt.Sprintf("👋 Ciao <@%s>!", mc.UserID))
	return nil
}
