// ABOUTME: Ordered active-agent resolution when a session is (re)loaded
// ABOUTME: Persisted value beats page default beats absent, as a tagged result

package handoff

import "strings"

// Source tags where a resolved active agent came from.
type Source int

const (
	// SourceNone means no agent is set; the backend uses its default.
	SourceNone Source = iota

	// SourcePersisted means the agent was stored for this exact
	// (tenant, session) pair, e.g. by an earlier handoff.
	SourcePersisted

	// SourcePageDefault means the surrounding page or view supplied the
	// agent, e.g. an admin previewing a specific agent.
	SourcePageDefault
)

// String implements fmt.Stringer.
func (s Source) String() string {
	switch s {
	case SourcePersisted:
		return "persisted"
	case SourcePageDefault:
		return "page_default"
	default:
		return "none"
	}
}

// ResolveActiveAgent applies the load-time precedence for the active agent.
// A persisted agent always wins over the page-supplied default so that an
// admin's default never silently overrides an in-progress handoff.
func ResolveActiveAgent(persisted, pageDefault string) (string, Source) {
	if id := strings.TrimSpace(persisted); id != "" {
		return id, SourcePersisted
	}
	if id := strings.TrimSpace(pageDefault); id != "" {
		return id, SourcePageDefault
	}
	return "", SourceNone
}
