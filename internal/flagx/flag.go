// Package flagx lets several components parse their own subset of the
// process arguments without tripping over each other's flags.
package flagx

import (
	"flag"
	"strings"
)

// FilterArgs returns the subset of command-line arguments that belong to
// the flags listed in allowedFlags, together with their values.
//
// Supported formats:
//  1. Flag and value as separate arguments:  -m /etc/lease.md
//  2. Flag and value combined with '=':      -config=/etc/leasekeeper.json
//
// An argument following a flag is taken as its value only when it does not
// start with "-", so "-m -i 48" keeps "-m" without a value.
//
// Parameters:
//
//	args          the command-line arguments (usually os.Args[1:])
//	allowedFlags  flag names to keep (e.g. []string{"-a", "-d", "-c", "-config"})
//
// Returns:
//
//	A non-nil slice with the allowed flags and their values, in input order.
func FilterArgs(args []string, allowedFlags []string) []string {
	// Set of allowed names for constant-time lookup
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	// Empty, not nil, so callers can hand it straight to FlagSet.Parse
	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		// Case 1: "-flag=value"
		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name, _, _ := strings.Cut(arg, "=")
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		// Case 2: "-flag" with the value, if any, in the next argument
		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++ // value consumed
			}
		}
	}

	return filtered
}

// ConfigFileFlag extracts the config file path given with -c or -config.
//
// Only these two flags are parsed; everything else in args is ignored, so
// the server can read its JSON config before its own flag set runs, and
// test binaries can pass their -test.* flags untouched.
//
// Parameters:
//
//	args  the command-line arguments (usually os.Args[1:])
//
// Returns:
//
//	The path of the last -c / -config occurrence, or "" when neither is set.
func ConfigFileFlag(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	fs.StringVar(&path, "c", "", "path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return path
}
