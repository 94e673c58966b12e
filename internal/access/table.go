package access

import (
	"fmt"
	"strings"
)

// Table maps "METHOD /pattern" keys to the requirement guarding the route.
type Table map[string]Requirement

// RouteKey builds the lookup key for a method and chi route pattern.
func RouteKey(method, pattern string) string {
	return strings.ToUpper(method) + " " + normalizePattern(pattern)
}

// Lookup returns the requirement registered for the route.
func (t Table) Lookup(method, pattern string) (Requirement, bool) {
	req, ok := t[RouteKey(method, pattern)]
	return req, ok
}

// Validate reports requirements naming policies the engine does not know.
func (t Table) Validate(engine *Engine) error {
	for key, req := range t {
		if req.Policy != "" && !engine.HasPolicy(req.Policy) {
			return fmt.Errorf("route %s references unknown access policy %q", key, req.Policy)
		}
	}
	return nil
}

func normalizePattern(pattern string) string {
	pattern = strings.TrimSpace(pattern)
	if len(pattern) > 1 {
		pattern = strings.TrimSuffix(pattern, "/")
	}
	if pattern == "" {
		return "/"
	}
	return pattern
}
