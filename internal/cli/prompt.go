package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

func (a *App) lineReader() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.In)
	}
	return a.reader
}

// prompt reads one line from the input, without its line ending.
func (a *App) prompt(label string) (string, error) {
	fmt.Fprint(a.Err, label)
	line, err := a.lineReader().ReadString('\n')
	if errors.Is(err, io.EOF) && line == "" {
		return "", errors.New("input closed")
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptPassword disables echo when the input is a terminal and falls back
// to a plain line read otherwise, which lets scripts pipe the password in.
func (a *App) promptPassword(label string) (string, error) {
	file, ok := a.In.(*os.File)
	if !ok || !term.IsTerminal(int(file.Fd())) {
		return a.prompt(label)
	}

	fmt.Fprint(a.Err, label)
	password, err := term.ReadPassword(int(file.Fd()))
	fmt.Fprintln(a.Err)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
