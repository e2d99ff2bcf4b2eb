package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/AlseFum/Texus/lang"
	"github.com/AlseFum/Texus/log"
)

const defaultEditor = "vi"

// editCommand implements [tea.ExecCommand] for the edit-parse-retry loop.
//
// A file-backed template is edited in place and reloaded. A template read
// from standard input is formatted to a temporary file and, once it parses,
// replaces the in-memory template. On parse error the user is prompted to
// re-edit; declining exits the program.
type editCommand struct {
	tmpl    Template
	ast     *lang.AST
	ctxFunc func() context.Context
	newAST  *lang.AST
	logger  log.Logger
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit loop. It returns [ErrEditDeclined] when the user
// declines to fix a parse error.
func (c *editCommand) Run() error {
	ctx := c.ctxFunc()

	path := c.tmpl.Path()
	temporary := path == ""

	if temporary {
		tmp, err := c.tempFile(ctx)
		if err != nil {
			return err
		}

		defer os.Remove(tmp)

		path = tmp
	}

	for {
		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, path)
		if err != nil {
			return err
		}

		// An emptied scratch file cancels the edit.
		if temporary && len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		ast, parseErr := c.reload(ctx, temporary, string(data))

		c.logger.TraceContext(ctx, "editor parse attempt",
			slog.String("path", path),
			slog.Int("content_length", len(data)),
			slog.Bool("success", parseErr == nil))

		if parseErr == nil {
			c.newAST = ast

			return nil
		}

		fmt.Fprintf(c.stderr, "\n%s\n", parseErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}
	}
}

// tempFile writes the formatted template to a new private file.
func (c *editCommand) tempFile(ctx context.Context) (string, error) {
	var buf bytes.Buffer
	if c.ast != nil {
		if err := c.ast.Format(ctx, &buf, 4); err != nil {
			return "", fmt.Errorf("format template: %w", err)
		}
	}

	f, err := os.CreateTemp(os.TempDir(), "texus-repl-*.gen")
	if err != nil {
		return "", err
	}

	defer f.Close()

	if err := f.Chmod(0o600); err != nil {
		os.Remove(f.Name())

		return "", err
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		os.Remove(f.Name())

		return "", err
	}

	return f.Name(), nil
}

// reload parses the edited template. Scratch edits are validated before
// they replace the in-memory template.
func (c *editCommand) reload(
	ctx context.Context,
	temporary bool,
	text string,
) (*lang.AST, error) {
	if temporary {
		if _, err := lang.ParseString(ctx, text, lang.WithLogger(c.logger)); err != nil {
			return nil, err
		}

		c.tmpl.Replace(text)
	}

	return c.tmpl.Load(ctx)
}

// runEditor launches the user's editor on path and returns the edited
// content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
