// Package session manages the persisted conversation session token.
//
// One short random token identifies the conversation thread across all
// tenants. It is created on first use, reused until an explicit Reset,
// and replacing it is the sole mechanism behind "start new conversation".
package session
