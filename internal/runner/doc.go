// Package runner executes one bridge invocation: it merges the persisted
// memory log with the incoming messages, trims and saves it, asks the
// provider for a reply and reports the result.
//
// Invariant:
//   - the memory file is written before the provider is called and never
//     contains the reply; the desktop app appends it on its next call.
//
// Flow:
//
//	load -> merge -> trim -> save -> generate -> result
package runner
