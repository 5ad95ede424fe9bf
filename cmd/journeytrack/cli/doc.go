// Copyright 2026 The JourneyTrack Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the journeytrack
// operator CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a params struct bound to
// flags via struct tags, and a Run function. Commands are assembled
// into a tree in cmd/journeytrack/main.go and dispatched via
// [Command.Execute], which handles flag parsing, subcommand routing,
// and structured help output with examples.
//
// Flag binding is declarative: a command's Params function returns a
// pointer to a struct whose fields carry flag/desc/default tags, and
// [BindFlags] turns those tags into a [pflag.FlagSet]. Embedding
// [JSONOutput] in a params struct adds the --json flag and the
// EmitJSON helper for machine-readable output.
package cli
