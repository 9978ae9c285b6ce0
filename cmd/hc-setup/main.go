// Command hc-setup configures HC-05/HC-06 Bluetooth serial modules over
// their AT interface and pairs a master with a slave.
//
// Usage:
//
//	hc-setup <command> [flags]
//
// Commands:
//
//	detect   Find the AT profile and module family on a port
//	plan     Print the commands a setup would send, without a port
//	setup    Configure one module
//	pair     Configure a slave and a master and connect them
//	cache    List or look up cached slave addresses
//
// Every command accepts -config, -capture and -log-level.
//
// Examples:
//
//	# Detect the module on a port
//	hc-setup detect -port /dev/ttyUSB0
//
//	# Name a module and set its PIN
//	hc-setup setup -port /dev/ttyUSB0 -name beacon -pin 4321
//
//	# Pair on two adapters and record the AT traffic
//	hc-setup pair -slave /dev/ttyUSB0 -master /dev/ttyUSB1 -capture pair.atlog
//
//	# Pair on one adapter, swapping modules when prompted
//	hc-setup pair -mode one -port /dev/ttyUSB0
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const usage = `hc-setup - HC-05/HC-06 AT configurator

Usage:
  hc-setup <command> [flags]

Commands:
  detect   Find the AT profile and module family on a port
  plan     Print the commands a setup would send, without a port
  setup    Configure one module
  pair     Configure a slave and a master and connect them
  cache    List or look up cached slave addresses

Use "hc-setup <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "detect":
		err = runDetect(ctx, args)
	case "plan":
		err = runPlan(args)
	case "setup":
		err = runSetup(ctx, args)
	case "pair":
		err = runPair(ctx, args)
	case "cache":
		err = runCache(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}
