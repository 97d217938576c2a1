package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// terminalPrompter asks y/N questions on the terminal and prints alerts to stderr.
type terminalPrompter struct {
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
	// assumeYes skips the question, for --yes.
	assumeYes bool
}

func newTerminalPrompter(in io.Reader, out, errOut io.Writer) *terminalPrompter {
	return &terminalPrompter{in: bufio.NewReader(in), out: out, errOut: errOut}
}

func (p *terminalPrompter) Confirm(message string) bool {
	if p.assumeYes {
		return true
	}
	fmt.Fprintf(p.out, "%s [y/N]: ", message)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

func (p *terminalPrompter) Alert(message string) {
	fmt.Fprintf(p.errOut, "! %s\n", message)
}
