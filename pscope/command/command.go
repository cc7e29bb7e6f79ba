package command

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

var Commands = []*Command{
	cmdSimulate,
	cmdValidate,
	cmdVersion,
}

// Command is one pscope subcommand. Each command owns its flag set; flags
// are registered at package init via cmd.Flag.String(...).
type Command struct {
	// Run runs the command and reports success. Returning false prints
	// the command's default parameters and usage.
	Run func(cmd *Command, args []string) bool

	// UsageLine is the one-line usage message, starting with the
	// command name.
	UsageLine string

	// Short is the short description shown in the 'pscope help' output.
	Short string

	// Long is the long description shown in 'pscope help <command>'.
	Long string

	// Flag is a set of flags specific to this command.
	Flag flag.FlagSet

	IsDebug *bool
}

// Name returns the command's name: the first word in the usage line.
func (c *Command) Name() string {
	name := c.UsageLine
	if i := strings.Index(name, " "); i >= 0 {
		name = name[:i]
	}
	return name
}

func (c *Command) Usage() {
	fmt.Fprintf(os.Stderr, "Example: pscope %s\n", c.UsageLine)
	fmt.Fprintf(os.Stderr, "Default Usage:\n")
	c.Flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "Description:\n")
	fmt.Fprintf(os.Stderr, "  %s\n", strings.TrimSpace(c.Long))
	os.Exit(2)
}

// Runnable reports whether the command can be run; otherwise it is a
// documentation pseudo-command.
func (c *Command) Runnable() bool {
	return c.Run != nil
}
