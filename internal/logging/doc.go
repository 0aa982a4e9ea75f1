// Package logging builds the slog loggers used by the CLI and the export
// engine.
//
// Console output is a single human-readable line per record; JSON output
// uses ts/level/msg keys so it can be shipped to a log collector unchanged.
// Logs are written to stderr by default because stdout carries command
// output (and, for "export -o -", the container itself).
package logging
