// Package tools converts the tool descriptors advertised by an MCP server
// into tool definitions for the language model.
package tools
