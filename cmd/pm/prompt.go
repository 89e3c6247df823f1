package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads lines and masked secrets. Secrets fall back to plain line
// reads when the input is not a terminal, so the CLI can be scripted.
type prompter struct {
	r   *bufio.Reader
	out io.Writer
	fd  int
	tty bool
}

func newPrompter(f *os.File, out io.Writer) *prompter {
	fd := int(f.Fd())
	return &prompter{
		r:   bufio.NewReader(f),
		out: out,
		fd:  fd,
		tty: term.IsTerminal(fd),
	}
}

func newScriptedPrompter(r io.Reader, out io.Writer) *prompter {
	return &prompter{r: bufio.NewReader(r), out: out, fd: -1}
}

// line returns the next input line without its terminator. io.EOF is only
// returned when nothing was read.
func (p *prompter) line(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(p.out, prompt)
	}
	s, err := p.r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && s != "") {
		return "", err
	}
	return strings.TrimRight(s, "\r\n"), nil
}

func (p *prompter) secret(prompt string) (string, error) {
	if !p.tty {
		return p.line(prompt)
	}

	fmt.Fprint(p.out, prompt)
	pw, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	defer zeroBytes(pw)
	return string(pw), nil
}

func (p *prompter) confirm(question string) (bool, error) {
	for {
		answer, err := p.line(question + " (y/n): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "please answer y or n")
	}
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
