// Package logging wires log/slog with the handlers and helper attributes used
// across Shelfmark.
//
// Two output formats exist: a compact console format for interactive use and
// JSON for machine consumption. Component loggers attach a standardized
// "component" attribute; the console handler hoists it into the message
// prefix. Context helpers carry the per-resolution correlation id into every
// log line of the layers beneath the pipeline.
package logging
