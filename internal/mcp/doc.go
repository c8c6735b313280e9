// Package mcp exposes the civic answer pipeline over the Model Context
// Protocol, so AI agents can ask questions, inspect routing, and pull
// procedures as structured tools.
//
// Three tools are registered: civic_ask answers a question (optionally
// inside a session), civic_explain reports the routing decision for a
// query without answering it, and civic_procedure looks up a step-by-step
// procedure template by service and action.
//
// The server speaks the stdio transport, which is why the daemon's MCP
// mode must keep stdout free of log output.
package mcp
