// Package shell provides the executor that runs configure and build commands.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"

	"github.com/creack/pty"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

// Executor implements ports.Executor using os/exec, attached to a PTY where supported.
type Executor struct{}

var _ ports.Executor = (*Executor)(nil)

// NewExecutor creates a new Executor.
func NewExecutor() *Executor {
	return &Executor{}
}

// Execute runs cmd and waits for it to complete.
func (e *Executor) Execute(
	ctx context.Context,
	cmd *domain.Command,
	env []string,
	stdout, stderr io.Writer,
) error {
	if len(cmd.Args) == 0 {
		return nil
	}

	c := prepare(ctx, cmd, env)

	err := runWithPTY(c, stdout)
	if errors.Is(err, pty.ErrUnsupported) {
		c = prepare(ctx, cmd, env)
		err = runWithPipes(c, stdout, stderr)
	}
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	wrapped := zerr.Wrap(err, domain.ErrCommandFailed.Error())
	wrapped = zerr.With(wrapped, "command", cmd.String())
	wrapped = zerr.With(wrapped, "dir", cmd.Dir)
	return zerr.With(wrapped, "exit_code", exitCode)
}

func prepare(ctx context.Context, cmd *domain.Command, env []string) *exec.Cmd {
	name := cmd.Args[0]
	cmdEnv := resolveEnvironment(os.Environ(), env, cmd.Env)

	// Resolve against the merged PATH so tools installed into the prefix win.
	executable := name
	if !filepath.IsAbs(name) && !strings.ContainsRune(name, filepath.Separator) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	c := exec.CommandContext(ctx, executable, cmd.Args[1:]...) //nolint:gosec // registry-provided command
	c.Args[0] = name
	c.Dir = cmd.Dir
	c.Env = cmdEnv
	return c
}

// runWithPTY merges stdout and stderr through a pseudo-terminal so tools keep line buffering.
func runWithPTY(c *exec.Cmd, out io.Writer) error {
	ptmx, err := pty.Start(c)
	if err != nil {
		return err
	}

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		defer func() { _ = ptmx.Close() }()
		_, _ = io.Copy(out, ptmx)
	}()

	err = c.Wait()
	<-ioDone
	return err
}

func runWithPipes(c *exec.Cmd, stdout, stderr io.Writer) error {
	c.Stdout = stdout
	c.Stderr = stderr
	return c.Run()
}

// resolveEnvironment merges the inherited environment, the build overlay and
// command-scoped variables, in increasing priority. Overlay PATH entries are
// prepended to the inherited PATH.
func resolveEnvironment(sysEnv, overlay []string, cmdEnv map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overlay)+len(cmdEnv))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok && k != "" {
			envMap[k] = v
		}
	}

	applyOverlay(envMap, overlay)

	for k, v := range cmdEnv {
		envMap[k] = v
	}

	result := make([]string, 0, len(envMap))
	for k, v := range envMap {
		result = append(result, k+"="+v)
	}
	slices.Sort(result)
	return result
}

func applyOverlay(envMap map[string]string, overlay []string) {
	for _, entry := range overlay {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if k == domain.PathVar {
			if sysPath := envMap[k]; sysPath != "" && v != "" {
				v = v + string(os.PathListSeparator) + sysPath
			} else if v == "" {
				v = sysPath
			}
		}
		envMap[k] = v
	}
}

// lookPath searches for an executable in the directories named by PATH in env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, domain.PathVar+"=") {
			path = strings.TrimPrefix(e, domain.PathVar+"=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
