package domain

import "strings"

// Command is a single external process invocation.
type Command struct {
	// Args holds the program followed by its arguments.
	Args []string
	// Dir is the working directory of the process.
	Dir string
	// Env holds variables set for this command only, on top of the run's overlay.
	Env map[string]string
}

// NewCommand creates a command running in dir.
func NewCommand(dir string, args ...string) *Command {
	return &Command{Args: args, Dir: dir}
}

// WithEnv sets a command-scoped variable.
func (c *Command) WithEnv(key, value string) *Command {
	if c.Env == nil {
		c.Env = make(map[string]string)
	}
	c.Env[key] = value
	return c
}

// String renders the command line for logs and error metadata.
func (c *Command) String() string {
	return strings.Join(c.Args, " ")
}
