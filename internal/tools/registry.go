package tools

import (
	"context"
	"fmt"
	"sort"
)

// Registry maps tool name to declaration. It doubles as the single
// capability handed to the sandboxed executor: Call is the only way a plan
// reaches anything outside the process.
type Registry map[string]Tool

// Call looks up a tool, validates the arguments against its schema, and
// invokes it. Lookup and validation failures come back as *CallError too:
// from the loop's point of view a misaddressed call and a failed call are
// the same non-fatal event.
func (r Registry) Call(ctx context.Context, name string, args map[string]any) (Result, error) {
	t, ok := r[name]
	if !ok {
		return Result{}, &CallError{ToolName: name, Err: fmt.Errorf("tool not found (available: %v)", r.Names())}
	}
	if err := t.ValidateArgs(args); err != nil {
		return Result{}, &CallError{ToolName: name, Err: err}
	}
	res, err := t.Fn(ctx, args)
	if err != nil {
		return Result{}, &CallError{ToolName: name, Err: err}
	}
	return res, nil
}

// Names returns the sorted tool names.
func (r Registry) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Servers returns the sorted set of server ids present in the registry.
func (r Registry) Servers() []string {
	seen := make(map[string]bool)
	for _, t := range r {
		seen[t.Server] = true
	}
	servers := make([]string, 0, len(seen))
	for s := range seen {
		servers = append(servers, s)
	}
	sort.Strings(servers)
	return servers
}

// FilterByServers returns the subset of tools belonging to any of the given
// servers. An empty or unknown selection returns the registry unchanged so
// the planner always has a catalog to work with.
func (r Registry) FilterByServers(servers []string) Registry {
	if len(servers) == 0 {
		return r
	}
	want := make(map[string]bool, len(servers))
	for _, s := range servers {
		want[s] = true
	}
	filtered := make(Registry)
	for name, t := range r {
		if want[t.Server] {
			filtered[name] = t
		}
	}
	if len(filtered) == 0 {
		return r
	}
	return filtered
}
