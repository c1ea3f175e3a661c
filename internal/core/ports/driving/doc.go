// Package driving lists the use cases the CLI, the MCP server and the HTTP
// API may invoke. The services package implements them.
package driving
