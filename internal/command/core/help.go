// Package core holds commands that describe the bot itself.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/keshon/badante/internal/command"
	"github.com/keshon/badante/pkg/cmd"
)

const (
	category = "🕯️ Information"
	fallback = "Other"
)

// categoryWeights orders help sections; unknown categories sort last by name.
var categoryWeights = map[string]int{
	"🎵 Music": 10,
	category:  20,
}

type HelpCommand struct {
	Registry *cmd.Registry
}

func (c *HelpCommand) Name() string        { return "help" }
func (c *HelpCommand) Aliases() []string   { return []string{"comandi"} }
func (c *HelpCommand) Description() string { return "Get a list of available commands" }
func (c *HelpCommand) Category() string    { return category }

func (c *HelpCommand) Run(_ context.Context, inv *cmd.Invocation) error {
	mc, ok := command.From(inv)
	if !ok {
		return fmt.Errorf("unsupported invocation payload %T", inv.Data)
	}
	mc.Send(buildHelpByCategory(c.Registry.GetAll(), mc.Prefix))
	return nil
}

func buildHelpByCategory(all []cmd.Command, prefix string) string {
	categoryMap := make(map[string][]cmd.Command)
	for _, c := range all {
		cat := fallback
		if cc, ok := cmd.Root(c).(command.Categorized); ok && cc.Category() != "" {
			cat = cc.Category()
		}
		categoryMap[cat] = append(categoryMap[cat], c)
	}

	cats := make([]string, 0, len(categoryMap))
	for cat := range categoryMap {
		cats = append(cats, cat)
	}
	sort.Slice(cats, func(i, j int) bool {
		wi, oki := categoryWeights[cats[i]]
		wj, okj := categoryWeights[cats[j]]
		if oki != okj {
			return oki
		}
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})

	var sb strings.Builder
	for _, cat := range cats {
		sb.WriteString(fmt.Sprintf("**%s**\n", cat))
		cmds := categoryMap[cat]
		sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
		for _, c := range cmds {
			sb.WriteString(helpLine(c, prefix))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func helpLine(c cmd.Command, prefix string) string {
	root := cmd.Root(c)
	name := prefix + c.Name()
	if u, ok := root.(cmd.Usage); ok && u.Usage() != "" {
		name += " " + u.Usage()
	}
	line := fmt.Sprintf("`%s` - %s", name, c.Description())
	if a, ok := root.(cmd.Aliased); ok && len(a.Aliases()) > 0 {
		line += fmt.Sprintf(" (alias: %s)", strings.Join(a.Aliases(), ", "))
	}
	return line + "\n"
}

// Register adds the help command to r.
func Register(r *cmd.Registry, mws ...cmd.Middleware) error {
	for _, c := range []cmd.Command{
		&HelpCommand{Registry: r},
		&HelloCommand{},
	} {
		if err := r.Register(c, mws...); err != nil {
			return err
		}
	}
	return nil
}
