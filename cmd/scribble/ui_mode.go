package main

import (
	"fmt"
	"os"
	"strings"
)

type uiMode string

const (
	uiModeAuto uiMode = "auto"
	uiModeOn   uiMode = "on"
	uiModeOff  uiMode = "off"
)

// parseSwitch reads an auto|on|off flag value. always/never and
// true/false are accepted as spellings of on/off.
func parseSwitch(flag, value string) (uiMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return uiModeAuto, nil
	case "on", "always", "true":
		return uiModeOn, nil
	case "off", "never", "false":
		return uiModeOff, nil
	}
	return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
}

func readUIMode(value string) (uiMode, error) {
	return parseSwitch("ui", value)
}

// shouldUseTUI resolves auto against stdout, where the progress view draws.
func shouldUseTUI(mode uiMode) bool {
	if mode == uiModeAuto {
		return isTerminal(os.Stdout)
	}
	return mode == uiModeOn
}

// readColorMode resolves --color; auto follows whether out is a terminal.
func readColorMode(value string, out *os.File) (bool, error) {
	mode, err := parseSwitch("color", value)
	if err != nil {
		return false, err
	}
	if mode == uiModeAuto {
		return out != nil && isTerminal(out), nil
	}
	return mode == uiModeOn, nil
}
