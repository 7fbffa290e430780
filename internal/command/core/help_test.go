package core

import (
	"context"
	"strings"
	"testing"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/pkg/cmd"
)

type musicStub struct{}

func (musicStub) Name() string                               { return "next" }
func (musicStub) Description() string                        { return "Skip to the next track" }
func (musicStub) Aliases() []string                          { return []string{"skip"} }
func (musicStub) Category() string                           { return "🎵 Music" }
func (musicStub) Run(context.Context, *cmd.Invocation) error { return nil }

type plainStub struct{}

func (plainStub) Name() string                               { return "ping" }
func (plainStub) Description() string                        { return "Pong" }
func (plainStub) Run(context.Context, *cmd.Invocation) error { return nil }

func TestHelpGroupsByCategory(t *testing.T) {
	r := cmd.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(plainStub{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	passthrough := func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, c.Run)
	}
	if err := r.Register(musicStub{}, passthrough); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var got string
	mc := &command.MessageContext{Prefix: "!", Reply: func(m string) error { got = m; return nil }}
	if err := r.Get("comandi").Run(context.Background(), &cmd.Invocation{Name: "comandi", Data: mc}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	music := strings.Index(got, "**🎵 Music**")
	info := strings.Index(got, "**🕯️ Information**")
	other := strings.Index(got, "**Other**")
	if music < 0 || info < 0 || other < 0 {
		t.Fatalf("missing section in:\n%s", got)
	}
	if !(music < info && info < other) {
		t.Fatalf("sections out of order:\n%s", got)
	}
	if !strings.Contains(got, "`!next` - Skip to the next track (alias: skip)") {
		t.Fatalf("wrapped command lost its aliases:\n%s", got)
	}
}

func TestHelpRejectsForeignPayload(t *testing.T) {
	r := cmd.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Get("help").Run(context.Background(), &cmd.Invocation{Data: "nope"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestHelloMentionsAuthor(t *testing.T) {
	r := cmd.NewRegistry()
	if err := Register(r); err != nil {
		t.Fatalf("Register: %v", err)
	}

	var got string
	mc := &command.MessageContext{UserID: "42", Prefix: "!", Reply: func(m string) error { got = m; return nil }}
	if err := r.Get("ciao").Run(context.Background(), &cmd.Invocation{Name: "ciao", Data: mc}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != "👋 Ciao <@42>!" {
		t.Fatalf("reply = %q", got)
	}
}
