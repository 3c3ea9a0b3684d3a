package main

import (
	"fmt"
	"os"
	"strings"
)

// uiMode selects the progress view of multi-file layout runs.
type uiMode uint8

const (
	uiModeAuto uiMode = iota // on when stderr is a terminal
	uiModeOn
	uiModeOff
)

var uiModeNames = map[string]uiMode{"": uiModeAuto, "auto": uiModeAuto, "on": uiModeOn, "off": uiModeOff}

func readUIMode(value string) (uiMode, error) {
	mode, ok := uiModeNames[strings.ToLower(strings.TrimSpace(value))]
	if !ok {
		return uiModeAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
	}
	return mode, nil
}

// shouldUseTUI resolves mode against the terminal the view would draw on.
func shouldUseTUI(mode uiMode, out *os.File) bool {
	if mode == uiModeAuto {
		return isTerminal(out)
	}
	return mode == uiModeOn
}
