// Package domain maps MCP tool calls onto character sheet operations.
//
// Each tool forwards to the character API through the sheet client and
// returns the resulting record as structured output. No rules are applied
// here; rolls, pins and modifiers come back from the service as-is.
package domain
