// Package prompt asks the user for credentials and note text on a terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrNoInput is returned when input ends before a required answer.
var ErrNoInput = errors.New("no input")

// Prompter reads answers line by line.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
}

// New returns a Prompter reading from in and printing questions to out.
func New(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Ask prints question and returns the trimmed answer.
func (p *Prompter) Ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", ErrNoInput
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// Credentials asks for whichever of email, password and name are still empty.
// name is only asked for when withName is set.
func (p *Prompter) Credentials(email, password, name string, withName bool) (string, string, string, error) {
	var err error
	if email == "" {
		if email, err = p.Ask("Email: "); err != nil {
			return "", "", "", err
		}
	}
	if password == "" {
		if password, err = p.Ask("Password: "); err != nil {
			return "", "", "", err
		}
	}
	if withName && name == "" {
		if name, err = p.Ask("Name: "); err != nil {
			return "", "", "", err
		}
	}
	return email, password, name, nil
}

// NoteContent asks for note text, either loaded from a file or typed in.
func (p *Prompter) NoteContent() (string, error) {
	path, err := p.Ask("Enter file path to load (leave empty for manual input): ")
	if err != nil {
		return "", err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file %q: %w", path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return p.Ask("Enter content: ")
}
