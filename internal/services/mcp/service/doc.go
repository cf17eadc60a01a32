// Package service runs the character tools over an MCP transport.
package service
