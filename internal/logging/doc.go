// Package logging configures structured JSON logging for scoutsearch.
//
// Logs go to a size-rotated file under ~/.scoutsearch/logs/ and, unless the
// process speaks MCP over stdio, also to stderr. The viewer reads those
// files back for the logs command.
package logging
