package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter collects input from the operator: the captcha solution and
// yes/no confirmations. Abstracted from transport so scripted doubles can
// drive the authentication engine.
type Prompter interface {
	// ReadCaptcha returns the solution for the challenge image saved at path.
	ReadCaptcha(path string) (string, error)
	// Confirm asks a yes/no question; defaultYes is used on empty input.
	Confirm(prompt string, defaultYes bool) (bool, error)
}

// StdinPrompter reads answers interactively from standard input.
type StdinPrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewStdinPrompter() *StdinPrompter {
	return &StdinPrompter{in: bufio.NewReader(os.Stdin), out: os.Stdout}
}

func (p *StdinPrompter) ReadCaptcha(path string) (string, error) {
	fmt.Fprintf(p.out, "Open %s and enter the captcha solution: ", path)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (p *StdinPrompter) Confirm(prompt string, defaultYes bool) (bool, error) {
	suffix := " [y/N]"
	if defaultYes {
		suffix = " [Y/n]"
	}

	for {
		fmt.Fprintf(p.out, "%s%s: ", prompt, suffix)
		line, err := p.in.ReadString('\n')
		if err != nil && line == "" {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "":
			return defaultYes, nil
		case "y", "yes", "д", "да":
			return true, nil
		case "n", "no", "н", "нет":
			return false, nil
		}
		fmt.Fprintln(p.out, "Please answer 'y' or 'n'.")
	}
}
