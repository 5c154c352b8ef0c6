// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides styled terminal output for the workbench CLI.
//
// When stdout is not a TTY (pipes, CI), machine mode strips all styling
// and emits plain prefixed lines instead.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Workbench palette - deep ocean teals and arctic waters.
var (
	ColorTealBright  = lipgloss.Color("#2CD7C7") // highlights, success
	ColorTealPrimary = lipgloss.Color("#20B9B4") // main brand color
	ColorSlate       = lipgloss.Color("#2C4A54") // muted text, borders
	ColorWarning     = lipgloss.Color("#F4D03F")
	ColorError       = lipgloss.Color("#E74C3C")
)

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Box     lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorTealBright),
	Muted:   lipgloss.NewStyle().Foreground(ColorSlate),
	Success: lipgloss.NewStyle().Foreground(ColorTealBright),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Box: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorTealPrimary).
		Padding(0, 1),
}

// machineMode is true when stdout is not a terminal.
var machineMode = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

// SetMachineMode overrides TTY detection, mainly for tests.
func SetMachineMode(on bool) {
	machineMode = on
}

// Titlef prints a bold title line.
func Titlef(format string, args ...any) {
	printStyled(Styles.Title, "", format, args...)
}

// Successf prints a success line.
func Successf(format string, args ...any) {
	printStyled(Styles.Success, "OK: ", format, args...)
}

// Warnf prints a warning line.
func Warnf(format string, args ...any) {
	printStyled(Styles.Warning, "WARN: ", format, args...)
}

// Errorf prints an error line.
func Errorf(format string, args ...any) {
	printStyled(Styles.Error, "ERROR: ", format, args...)
}

// Mutedf prints a de-emphasized line.
func Mutedf(format string, args ...any) {
	printStyled(Styles.Muted, "", format, args...)
}

// Boxf prints content inside a rounded box, or as plain lines in machine
// mode.
func Boxf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if machineMode {
		fmt.Println(msg)
		return
	}
	fmt.Println(Styles.Box.Render(msg))
}

func printStyled(style lipgloss.Style, machinePrefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if machineMode {
		fmt.Println(machinePrefix + msg)
		return
	}
	fmt.Println(style.Render(msg))
}
