package cmd

import (
	"context"
	"slices"
	"testing"
)

type stubCommand struct {
	name    string
	aliases []string
	ran     int
}

func (s *stubCommand) Name() string        { return s.name }
func (s *stubCommand) Description() string { return s.name + " command" }
func (s *stubCommand) Aliases() []string   { return s.aliases }
func (s *stubCommand) Run(context.Context, *Invocation) error {
	s.ran++
	return nil
}

func TestRegistryAliases(t *testing.T) {
	r := NewRegistry()
	next := &stubCommand{name: "next", aliases: []string{"skip"}}
	if err := r.Register(next); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubCommand{name: "clear"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if Root(r.Get("skip")) != next || Root(r.Get("next")) != next {
		t.Fatal("alias does not resolve to the command")
	}
	if r.Get("nope") != nil {
		t.Fatal("unknown name resolved")
	}

	var names []string
	for _, c := range r.GetAll() {
		names = append(names, c.Name())
	}
	if !slices.Equal(names, []string{"clear", "next"}) {
		t.Fatalf("GetAll = %v", names)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&stubCommand{name: "leave", aliases: []string{"stop"}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register(&stubCommand{name: "stop"}); err == nil {
		t.Fatal("name clashing with alias accepted")
	}
	if err := r.Register(&stubCommand{name: "halt", aliases: []string{"leave"}}); err == nil {
		t.Fatal("alias clashing with name accepted")
	}
}

func TestRegisterAppliesMiddleware(t *testing.T) {
	r := NewRegistry()
	var order []string
	mw := func(tag string) Middleware {
		return func(c Command) Command {
			return Wrap(c, func(ctx context.Context, inv *Invocation) error {
				order = append(order, tag)
				return c.Run(ctx, inv)
			})
		}
	}
	inner := &stubCommand{name: "queue"}
	if err := r.Register(inner, mw("inner"), mw("outer")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if err := r.Get("queue").Run(context.Background(), &Invocation{}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(order, []string{"outer", "inner"}) || inner.ran != 1 {
		t.Fatalf("order = %v ran = %d", order, inner.ran)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		wantName string
		wantArgs []string
		wantOK   bool
	}{
		{"!play never gonna", "play", []string{"never", "gonna"}, true},
		{"  !SKIP ", "skip", nil, true},
		{"!", "", nil, false},
		{"play something", "", nil, false},
		{"!yt   lofi  beats", "yt", []string{"lofi", "beats"}, true},
	}
	for _, tt := range tests {
		name, args, ok := Parse("!", tt.line)
		if name != tt.wantName || ok != tt.wantOK || !slices.Equal(args, tt.wantArgs) {
			t.Errorf("Parse(%q) = %q %v %v", tt.line, name, args, ok)
		}
	}
}
