// Package chat coordinates a conversation between the local transcript and
// the backend chat API.
//
// # Overview
//
// The Controller owns one active conversation at a time, keyed by the pair
// (tenant, session). It loads persisted state on Start, appends the user's
// turn optimistically, calls the backend, and applies the reply, including
// any agent handoff it carries.
//
//	controller := chat.New(store, identity, client, chat.Options{})
//	controller.Start(ctx, "default")
//	controller.Send(ctx, "hello")
//
// # Send Lifecycle
//
// Each Send moves through a small state machine:
//
//  1. Idle: nothing in flight, input accepted
//  2. Sending: the user turn is persisted and the request is in flight
//  3. Idle or Failed: the reply was applied, or an error turn was appended
//
// Send is a no-op while a request is in flight. A minimum artificial delay
// keeps the bot reply from landing before the user turn is readable; the
// controller waits for both the network and the delay timer before applying
// anything.
//
// # Stale Responses
//
// The (tenant, session) pair is captured when the request starts. If the
// conversation was reset or the tenant switched while the request was in
// flight, the response is discarded rather than applied to the wrong
// transcript.
//
// # Agent Selection
//
// The active agent is resolved from persisted conversation state first,
// then from the configured page default. Handoffs written by the backend
// take precedence and persist for subsequent turns.
package chat
