// Package console serves the local web UI over the chat controller.
//
// Pages are server-rendered html/template views: the chat transcript with
// a tenant switcher, plus thin admin editors for agents and tenants that
// pass form values straight through to the backend. Bot turns render
// their markdown; user text is always escaped.
//
// A bcrypt password gates the console behind an in-memory cookie session;
// an empty password hash disables the gate for local development. Each
// chat page load refreshes the tenant catalog, standing in for a browser
// tab regaining visibility.
package console
