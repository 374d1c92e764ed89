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
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	More(ctx context.Context) error
	Filter(ctx context.Context, arg string) error
	Save(ctx context.Context, url, title string) error
	SetStatus(ctx context.Context, arg string, read bool) error
	SetStarred(ctx context.Context, arg string, starred bool) error
	Delete(ctx context.Context, arg string) error
	Sync(ctx context.Context) error
	Status(ctx context.Context) error
}

// runREPL reads a line from the provided scanner, parses the first token as
// the command, and dispatches to methods on 'a'. Unknown commands are
// reported back to the user. The loop exits on scanner EOF or when the user
// types "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, scanner *bufio.Scanner) {
	for {
		printlnFn("readsync > ")
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			printlnFn("Available commands: login, logout, (l)ist, more, filter unread|read|all,")
			printlnFn("  save <url> [title], read <n>, unread <n>, star <n>, unstar <n>,")
			printlnFn("  delete <n>, sync, status, exit")

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "more":
			_ = a.More(ctx)

		case "filter":
			if len(args) == 0 {
				printlnFn("Usage: filter unread|read|all")
				continue
			}
			_ = a.Filter(ctx, args[0])

		case "save":
			if len(args) == 0 {
				printlnFn("Usage: save <url> [title]")
				continue
			}
			_ = a.Save(ctx, args[0], strings.Join(args[1:], " "))

		case "read":
			if len(args) == 0 {
				printlnFn("Usage: read <n>")
				continue
			}
			_ = a.SetStatus(ctx, args[0], true)

		case "unread":
			if len(args) == 0 {
				printlnFn("Usage: unread <n>")
				continue
			}
			_ = a.SetStatus(ctx, args[0], false)

		case "star":
			if len(args) == 0 {
				printlnFn("Usage: star <n>")
				continue
			}
			_ = a.SetStarred(ctx, args[0], true)

		case "unstar":
			if len(args) == 0 {
				printlnFn("Usage: unstar <n>")
				continue
			}
			_ = a.SetStarred(ctx, args[0], false)

		case "delete":
			if len(args) == 0 {
				printlnFn("Usage: delete <n>")
				continue
			}
			_ = a.Delete(ctx, args[0])

		case "sync":
			_ = a.Sync(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func (a *App) repl(ctx context.Context) {
	printlnFn("readsync CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(a.reader)
	runREPL(ctx, a, scanner)
}
