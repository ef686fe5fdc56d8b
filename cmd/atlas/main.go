package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/MrSnakeDoc/atlas/internal/app"
	"github.com/MrSnakeDoc/atlas/internal/version"
)

const usage = `usage: atlas [command] [flags]

commands:
  serve     compile periodically and serve the catalog over HTTP (default)
  compile   compile once and write the artifacts, see "atlas compile -h"
  version   print build information
`

func main() {
	cmd, args := "serve", os.Args[1:]
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		a, err := app.New()
		if err != nil {
			log.Fatalf("❌ atlas failed to start: %v", err)
		}
		if err := a.Run(); err != nil {
			log.Fatalf("❌ atlas failed: %v", err)
		}
	case "compile":
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		code := app.Compile(ctx, args, os.Stdout, os.Stderr)
		stop()
		os.Exit(code)
	case "version":
		fmt.Println(version.String())
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(app.ExitInternal)
	}
}
