package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/loglens/internal/app"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override loglens config path (optional)")
	anchor := flag.String("anchor", "", "line to open the context window at: a line number or text to search for")
	tail := flag.Bool("tail", false, "start in live tail mode")
	file := flag.String("file", "", "read a local log file instead of the API")
	apiBind := flag.String("api", "", "log API host:port (overrides api_bind)")
	printMode := flag.Bool("print", false, "print the anchor window and exit instead of starting the UI")
	pollSeconds := flag.Int("poll", 0, "tail refresh interval in seconds (optional, defaults to 5s)")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := app.Options{
		ConfigPath: *configPath,
		Anchor:     *anchor,
		Tail:       *tail,
		File:       *file,
		APIBind:    *apiBind,
		Print:      *printMode,
	}
	if poll := *pollSeconds; poll > 0 {
		opts.PollEvery = poll
	}

	if err := app.Run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "loglens: %v\n", err)
		return 1
	}
	return 0
}
