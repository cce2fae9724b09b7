// Package processor answers a user query with the help of the tools
// advertised by an MCP server.
//
// Every query lists the tools, asks the model once, and when the model
// requests tools, calls each of them in order followed by a plain
// completion that acknowledges the result.
// Failures of a single tool call are reported in the answer text
// and never abort the query.
package processor
