package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Write(ctx context.Context) error
	Voice(ctx context.Context) error
	Edit(ctx context.Context) error
	Delete(ctx context.Context) error
	List(ctx context.Context) error
	Search(ctx context.Context) error
	Trash(ctx context.Context) error
	Restore(ctx context.Context) error
	Purge(ctx context.Context) error
	Insights(ctx context.Context) error
	Sync(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the moodiary CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help           : show available commands
//	  - register       : create an account
//	  - login          : authenticate
//	  - exit | quit    : leave the program
//
//	Logged in:
//	  - help           : show available commands
//	  - write          : write today's entry
//	  - voice          : save an entry from an audio clip
//	  - edit           : edit an entry
//	  - delete         : move an entry to the trash
//	  - list           : refresh and list entries
//	  - search         : search the listed entries
//	  - trash          : list trashed entries
//	  - restore        : restore a trashed entry
//	  - purge          : permanently delete a trashed entry
//	  - insights       : show mood insights
//	  - sync           : force a sync pass
//	  - logout         : log out
//	  - exit | quit    : leave the program
//
// Any errors returned by command handlers are ignored here; handlers should
// log their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("md> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: write, voice, edit, delete, (l)ist, search, trash, restore, purge, insights, sync, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "write":
			_ = a.Write(ctx)

		case "voice":
			_ = a.Voice(ctx)

		case "edit":
			_ = a.Edit(ctx)

		case "delete":
			_ = a.Delete(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "search":
			_ = a.Search(ctx)

		case "trash":
			_ = a.Trash(ctx)

		case "restore":
			_ = a.Restore(ctx)

		case "purge":
			_ = a.Purge(ctx)

		case "insights":
			_ = a.Insights(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
