// SPDX-License-Identifier: MPL-2.0

// Package applet provides the applet registry and dispatcher of the multicall binary.
//
// An applet is a self-contained utility (cat, chmod, rm, ...) selected by the
// name the binary is invoked under. Each applet is described by a Descriptor
// holding its name, usage text, argument-count contract and entry point.
// Descriptors are registered once, usually from init() functions, and are
// never modified afterwards.
//
// The Dispatcher enforces the argument-count contract before an applet runs:
// too few or too many arguments, or "--help" as the first argument, print the
// usage text and fail without calling the entry point. Otherwise a fresh
// Invocation is built and handed to the entry.
//
// # Entry Kinds
//
// Entries come in two shapes:
//   - MainFunc: a full applet that receives the whole argument vector.
//   - FileAction: a per-operand callback. The dispatcher parses the applet's
//     options and then calls the action once per operand.
//
// # Errors
//
// Entries report failure by returning an error. The dispatcher prints it as
// "<applet>: <description>" and exits with status 1, unless the error is an
// ExitError carrying its own status.
package applet
