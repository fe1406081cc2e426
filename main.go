package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/tauri-postgres/tauri-e2e/e2etests"
	"github.com/tauri-postgres/tauri-e2e/framework"
)

func main() {
	var params commandParams
	if !params.Read(os.Args, os.Stderr) {
		os.Exit(1)
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	// An interrupt cancels whatever setup step is in progress; teardown still runs.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println()
	framework.PrintFilterDescription(params.filters, params.disabledChecks())

	fmt.Printf("Running test suite against %s\n", params.applicationPath())

	testLogger := &ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}

	results := e2etests.RunTestSuite(ctx, params.environment(mainDebugLogger), params.filters.AsFilter, testLogger)

	fmt.Println()
	framework.PrintResults(os.Stdout, results)
	if !results.OK() {
		stop()
		os.Exit(1)
	}
}
