package main

import "strings"

// legacyFlags are the single-dash forms accepted by older launch scripts.
var legacyFlags = []string{"-headless", "-dirs=", "-exts=", "-actions=", "-logfile="}

// rewriteLegacyArgs turns -headless and -name=value arguments into their
// double-dash equivalents so cobra can parse them.
func rewriteLegacyArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, rewriteLegacyArg(arg))
	}
	return out
}

func rewriteLegacyArg(arg string) string {
	for _, flag := range legacyFlags {
		if strings.HasSuffix(flag, "=") {
			if strings.HasPrefix(arg, flag) {
				return "-" + arg
			}
		} else if arg == flag {
			return "-" + arg
		}
	}
	return arg
}
