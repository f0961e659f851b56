package monitor

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

type cmdFunc func(m *Monitor, out io.Writer, args []string) error

type command struct {
	Name  string
	Usage string
	Desc  string
	Run   cmdFunc
}

type registry struct {
	cmds map[string]command
}

func newRegistry() *registry {
	return &registry{cmds: make(map[string]command)}
}

func (r *registry) register(cmd command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	if cmd.Name == "" {
		return fmt.Errorf("monitor registry: empty command name")
	}
	if cmd.Run == nil {
		return fmt.Errorf("monitor registry: %q has no handler", cmd.Name)
	}
	if _, ok := r.cmds[cmd.Name]; ok {
		return fmt.Errorf("monitor registry: duplicate command %q", cmd.Name)
	}
	r.cmds[cmd.Name] = cmd
	return nil
}

func (r *registry) lookup(name string) (command, bool) {
	cmd, ok := r.cmds[name]
	return cmd, ok
}

func (r *registry) names() []string {
	out := make([]string, 0, len(r.cmds))
	for name := range r.cmds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
