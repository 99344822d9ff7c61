// Package handoff interprets backend replies that move a conversation
// between agents.
//
// Apply folds one reply into the transcript with a fixed ordering:
// ordinary bot reply, then a synthesized transfer notice, then the new
// agent's initial reply. An effectiveAssistantId without an explicit
// handoff is a silent correction of the active agent, with no notice.
//
// ResolveActiveAgent is the load-time precedence function: an agent
// persisted for the exact (tenant, session) pair beats the page-supplied
// default, which beats nothing. The result carries a Source tag so the
// precedence is testable on its own.
package handoff
