// Package memory provides the persisted conversation log shared with the desktop app.
//
// Persistence model:
//   - The log is a JSON array of chat messages, rewritten in full on every run.
//   - Content keeps its original JSON shape (string, object or typed parts list).
//   - Fields this package does not know about are carried through unchanged.
//   - The first entry may be the framing message, marked with "framing": true.
package memory
