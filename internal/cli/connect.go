package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jakoblorz/sqlcipher"
	"golang.org/x/term"
)

// connect opens the configured database. With --key-prompt the key is read
// from the terminal without echo, or from the first line of stdin when stdin
// is not a terminal.
func (a *app) connect(prompt io.Writer) (*sqlcipher.Connection, error) {
	cfg := a.cfg.Connection()
	if a.keyPrompt {
		key, err := a.readKey(prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
		cfg.Key = key
	}
	conn, err := sqlcipher.ConnectConfig(cfg, sqlcipher.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Path, err)
	}
	return conn, nil
}

func (a *app) readKey(prompt io.Writer) (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_, _ = fmt.Fprint(prompt, "Key: ")
		b, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(prompt)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	r := bufio.NewReader(a.stdin)
	a.stdin = r
	line, err := r.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
