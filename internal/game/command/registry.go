package command

import (
	"fmt"
	"sort"
)

// Registry maps command names and aliases to Command definitions.
type Registry struct {
	commands map[string]*Command
	aliases  map[string]string
}

// NewRegistry creates a Registry populated with cmds.
//
// Postcondition: Returns an error if any name or alias is used twice.
func NewRegistry(cmds []Command) (*Registry, error) {
	r := &Registry{
		commands: make(map[string]*Command, len(cmds)),
		aliases:  make(map[string]string),
	}
	taken := func(word string) bool {
		_, isName := r.commands[word]
		_, isAlias := r.aliases[word]
		return isName || isAlias
	}
	for i := range cmds {
		cmd := &cmds[i]
		if taken(cmd.Name) {
			return nil, fmt.Errorf("command %q: name already registered", cmd.Name)
		}
		r.commands[cmd.Name] = cmd
		for _, alias := range cmd.Aliases {
			if taken(alias) {
				return nil, fmt.Errorf("command %q: alias %q already registered", cmd.Name, alias)
			}
			r.aliases[alias] = cmd.Name
		}
	}
	return r, nil
}

// DefaultRegistry creates a Registry with BuiltinCommands.
// It panics if the built-in table is inconsistent.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(BuiltinCommands())
	if err != nil {
		panic(fmt.Sprintf("building default registry: %v", err))
	}
	return r
}

// Resolve looks up a command by name or alias.
func (r *Registry) Resolve(word string) (*Command, bool) {
	if cmd, ok := r.commands[word]; ok {
		return cmd, true
	}
	if canonical, ok := r.aliases[word]; ok {
		return r.commands[canonical], true
	}
	return nil, false
}

// Commands returns every command sorted by name.
func (r *Registry) Commands() []*Command {
	out := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// InCategories returns the commands in any of cats, sorted by category in
// the order given and then by name.
func (r *Registry) InCategories(cats ...string) []*Command {
	var out []*Command
	for _, cat := range cats {
		for _, cmd := range r.Commands() {
			if cmd.Category == cat {
				out = append(out, cmd)
			}
		}
	}
	return out
}
