// Package convo defines conversation transcripts and their persistence.
//
// A transcript is a slice of Message values, each tagged with a Kind
// (user, bot, or handoff notice). Handoff notices are presentation-only:
// they render in the transcript but are excluded from the history window
// sent to the backend.
//
// The Store persists one Record per (tenant, session) pair in a key-value
// store. Saving an empty transcript deletes the key instead of writing an
// empty record, and unreadable persisted state is treated as absent rather
// than failing the load.
package convo
