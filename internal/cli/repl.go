package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

const helpText = "Available commands: status, list, register, upload, generate, url, resolve, downsize, srcset, delete, render, settings, encrypt, stats, exit"

// execIface is the command surface the REPL dispatches to. *App satisfies
// it; tests use a recording stub.
type execIface interface {
	Status(ctx context.Context, args []string) error
	List(ctx context.Context, args []string) error
	Register(ctx context.Context, args []string) error
	Upload(ctx context.Context, args []string) error
	Generate(ctx context.Context, args []string) error
	URL(ctx context.Context, args []string) error
	Resolve(ctx context.Context, args []string) error
	Downsize(ctx context.Context, args []string) error
	Srcset(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Render(ctx context.Context, args []string) error
	Settings(ctx context.Context, args []string) error
	Encrypt(ctx context.Context, args []string) error
	Stats(ctx context.Context, args []string) error
}

// runREPL reads one command per line from reader and dispatches it. A
// command error is printed and the loop continues. It returns on end of
// input or on "exit"/"quit".
func runREPL(ctx context.Context, a execIface, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprint(w, "offloader> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(w)
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var cmdErr error
		switch cmd {
		case "help":
			fmt.Fprintln(w, helpText)
		case "status":
			cmdErr = a.Status(ctx, args)
		case "l", "list":
			cmdErr = a.List(ctx, args)
		case "register":
			cmdErr = a.Register(ctx, args)
		case "upload":
			cmdErr = a.Upload(ctx, args)
		case "generate":
			cmdErr = a.Generate(ctx, args)
		case "url":
			cmdErr = a.URL(ctx, args)
		case "resolve":
			cmdErr = a.Resolve(ctx, args)
		case "downsize":
			cmdErr = a.Downsize(ctx, args)
		case "srcset":
			cmdErr = a.Srcset(ctx, args)
		case "delete":
			cmdErr = a.Delete(ctx, args)
		case "render":
			cmdErr = a.Render(ctx, args)
		case "settings":
			cmdErr = a.Settings(ctx, args)
		case "encrypt":
			cmdErr = a.Encrypt(ctx, args)
		case "stats":
			cmdErr = a.Stats(ctx, args)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}

		if cmdErr != nil {
			fmt.Fprintln(w, "Error:", cmdErr)
		}
	}
}
