// Package cli provides the interactive moodiary command-line client.
//
// It wires configuration, the local pending store, the backend document
// store, and an interactive REPL that keeps working offline. Typical flow:
// prompt for credentials, start a background connectivity watcher, and
// execute user commands.
//
// Key features:
//   - Register / Login / Logout
//   - Write, edit and soft-delete diary entries (offline saves queue locally)
//   - List, search and date-filter the merged entry view
//   - Trash view with restore and permanent purge
//   - Textual mood insights (daily series, month heatmap)
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, diary.Monitor, and runREPL for details.
package cli
