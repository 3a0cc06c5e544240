package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/tinyrange/minilang/internal/playground"
)

func main() {
	fs := flag.NewFlagSet("playground", flag.ExitOnError)
	addr := fs.String("addr", ":8080", "listen address")
	maxSteps := fs.Int("max-steps", 1_000_000, "per-request step limit for the interpreter and IR executor (0 = unlimited)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	logger := log.New(os.Stderr, "playground: ", log.LstdFlags)
	srv := playground.New(&playground.Options{MaxSteps: *maxSteps, Logger: logger})
	logger.Printf("listening on %s", *addr)
	if err := http.ListenAndServe(*addr, srv); err != nil {
		logger.Fatal(err)
	}
}
