// Package cliflags implements the CLI surface of spec §6 shared by every
// role executable (cmd/nimo-source, cmd/nimo-sink, cmd/nimo-filter,
// cmd/nimo-registryd): the -h/-v/-a/-i/-c/-d/-l/-n/-t flag table and the
// exit-code contract of spec §6/§7, grounded in the teacher's
// cmd/dittofs/commands package (spf13/cobra, PersistentFlags on a root
// command, an ExitCoder-style sentinel error feeding os.Exit in main).
package cliflags

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// Exit codes, exactly as spec §6/§7.
const (
	ExitNormal           = 0
	ExitInvalidArgument  = 1
	ExitRegistryNotFound = 2
	ExitUncaught         = -1
)

// ExitCoder is the sentinel error type RunE returns to carry a specific
// process exit code back to main, which is the only place os.Exit is
// called (cobra's own Execute return value is otherwise just "did this
// fail or not").
type ExitCoder struct {
	Code int
	Err  error
}

func (e *ExitCoder) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitCoder) Unwrap() error { return e.Err }

// Exit wraps err (which may be nil) in an ExitCoder carrying code. Exit(0,
// nil) returns nil: cobra treats a nil RunE return as success and main's
// CodeOf(nil) is 0, so there's no need to manufacture a sentinel for the
// ordinary case.
func Exit(code int, err error) error {
	if code == ExitNormal && err == nil {
		return nil
	}
	return &ExitCoder{Code: code, Err: err}
}

// CodeOf extracts the process exit code from whatever cmd.Execute
// returned. A plain error that isn't an ExitCoder is the "uncaught" case of
// spec §7: the top-level handler sets exit code -1.
func CodeOf(err error) int {
	if err == nil {
		return ExitNormal
	}
	var ec *ExitCoder
	if errors.As(err, &ec) {
		return ec.Code
	}
	return ExitUncaught
}

// Flags holds the values of the common flag table. Every role main
// constructs one, registers it on its root command, and inspects it in
// RunE.
type Flags struct {
	ConfigPath string
	Detail     bool
	Log        bool
	Node       string
	Tag        string

	showArgs    bool
	showInfo    bool
	showVersion bool
}

// Register adds the common flag table to cmd. -h/--help is left to
// cobra's own default handling (prints usage, exits 0, matching the
// table's "-h / --help ... exit 0" exactly).
func Register(cmd *cobra.Command, f *Flags) {
	cmd.Flags().StringVarP(&f.ConfigPath, "config", "c", "", "load configuration file")
	cmd.Flags().BoolVarP(&f.Detail, "detail", "d", false, "verbose output")
	cmd.Flags().BoolVarP(&f.Log, "log", "l", false, "enable logging")
	cmd.Flags().StringVarP(&f.Node, "node", "n", "", "override node name")
	cmd.Flags().StringVarP(&f.Tag, "tag", "t", "", "tag appended to node name")
	cmd.Flags().BoolVarP(&f.showArgs, "args", "a", false, "print argument-format descriptors and exit")
	cmd.Flags().BoolVarP(&f.showInfo, "info", "i", false, "print role, options, matching criteria, and description, and exit")
	cmd.Flags().BoolVarP(&f.showVersion, "vers", "v", false, "print version and exit")
}

// ArgDescriptor documents one positional argument a role executable
// accepts beyond the common flag table (e.g. nimo-pulse's "duration"
// cycle-length argument), the shape of the original's ArgumentDescriptor
// hierarchy collapsed to the one piece -a needs to print.
type ArgDescriptor struct {
	Name        string
	Type        string
	Required    bool
	Default     string
	Description string
}

// RoleInfo is what -i/--info prints: role identity, the channel
// constraints and matching criteria a registry client would use to find
// this node's channels, and a human description.
type RoleInfo struct {
	Role             string
	Description      string
	MatchingCriteria string
	Args             []ArgDescriptor
}

// Handle checks the three "print X and exit 0" flags in the table's order
// (-v, -a, -i) and, if one was set, writes its output to w and returns a
// non-nil handled so the caller's RunE returns immediately. At most one of
// these is acted on per invocation; cobra's flag parsing doesn't enforce
// mutual exclusion but spec §6 only ever documents them being used alone.
func (f *Flags) Handle(w io.Writer, progName, version string, info RoleInfo) (handled bool, err error) {
	switch {
	case f.showVersion:
		fmt.Fprintf(w, "%s %s\n", progName, version)
		return true, nil
	case f.showArgs:
		printArgs(w, info.Args)
		return true, nil
	case f.showInfo:
		printInfo(w, progName, info)
		return true, nil
	default:
		return false, nil
	}
}

func printArgs(w io.Writer, args []ArgDescriptor) {
	if len(args) == 0 {
		fmt.Fprintln(w, "(no positional arguments)")
		return
	}
	for _, a := range args {
		mode := "optional"
		if a.Required {
			mode = "required"
		}
		fmt.Fprintf(w, "%s\t%s\t%s", a.Name, a.Type, mode)
		if a.Default != "" {
			fmt.Fprintf(w, "\tdefault=%s", a.Default)
		}
		fmt.Fprintf(w, "\t%s\n", a.Description)
	}
}

func printInfo(w io.Writer, progName string, info RoleInfo) {
	fmt.Fprintf(w, "%s: %s\n", progName, info.Role)
	fmt.Fprintf(w, "%s\n", info.Description)
	fmt.Fprintf(w, "matching criteria: %s\n", info.MatchingCriteria)
	fmt.Fprintln(w, "options:")
	fmt.Fprintln(w, "  -h, --help     print usage and exit")
	fmt.Fprintln(w, "  -v, --vers     print version and exit")
	fmt.Fprintln(w, "  -a, --args     print argument-format descriptors and exit")
	fmt.Fprintln(w, "  -i, --info     print this information and exit")
	fmt.Fprintln(w, "  -c, --config   load configuration file")
	fmt.Fprintln(w, "  -d, --detail   verbose output")
	fmt.Fprintln(w, "  -l, --log      enable logging")
	fmt.Fprintln(w, "  -n, --node     override node name")
	fmt.Fprintln(w, "  -t, --tag      tag appended to node name")
}

// ConstructNodeName builds a node's registry name from the -n/--node
// override, a role-specific default base, and the -t/--tag suffix,
// mirroring the original's ConstructNodeName(tag, node, defaultBase): an
// explicit -n replaces the default base, and a non-empty tag is then
// appended to whichever name results as a trailing slash-separated segment.
func ConstructNodeName(nodeFlag, defaultBase, tag string) string {
	name := defaultBase
	if nodeFlag != "" {
		name = nodeFlag
	}
	if tag != "" {
		name = name + "/" + tag
	}
	return name
}
