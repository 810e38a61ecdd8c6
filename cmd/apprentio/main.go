package main

import (
	"fmt"
	"os"
	"strings"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	daemonAddr = "http://127.0.0.1:7433"
	pidFile    = "apprentio.pid"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "config":
		err = cmdConfig()
	case "serve":
		err = cmdServe()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "exercise":
		err = cmdExercise(os.Args[2:])
	case "student":
		err = cmdStudent(os.Args[2:])
	case "sequence":
		err = cmdSequence(os.Args[2:])
	case "revisions":
		err = cmdRevisions(os.Args[2:])
	case "stats":
		err = cmdStats()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("apprentio %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Apprentio - Adaptive Learning Engine

Usage:
  apprentio <command> [arguments]

Setup Commands:
  init            Initialize Apprentio (first-time setup)
  config          Show current configuration

Daemon Commands:
  serve           Run the local daemon in the foreground
  start           Start the local daemon in the background
  stop            Stop the local daemon
  status          Show daemon status
  logs            View daemon logs

Catalog Commands:
  exercise list   List available exercises
  exercise info   Show exercise details
  stats           Show catalog statistics

Student Commands:
  student create  Register a new student
  student show    Show a student's progress
  sequence        Show the next adaptive exercise sequence
  revisions       Show due revisions for a student

Other:
  help            Show this help message
  version         Show version information

Examples:
  apprentio start                                 # Start local daemon
  apprentio student create --name Lea --level ce1
  apprentio sequence <student-id> --concept addition_retenue
  apprentio exercise list`)
}

// renderScoreBar creates a visual bar for a 0-100 score
func renderScoreBar(score int, width int) string {
	filled := score * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
