package main

import (
	"fmt"
	"os"

	_ "github.com/qai-labs/mavdiscovery/logging"

	"github.com/qai-labs/mavdiscovery/cmd"
)

// singleDashAliases rewrites the exact single-dash spellings the original
// C++ parser accepted (main.cpp's `arg == "-rpc_config"` style comparisons)
// to the double-dash form pflag resolves as a long flag. pflag treats any
// other single-dash token as shorthand clustering, so nothing else here
// is touched.
var singleDashAliases = map[string]string{
	"-rpc_config":     "--rpc_config",
	"-rpc-config":     "--rpc-config",
	"-package_config": "--package_config",
	"-package-config": "--package-config",
}

func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if alias, ok := singleDashAliases[a]; ok {
			a = alias
		}
		out[i] = a
	}
	return out
}

func main() {
	os.Args = normalizeArgs(os.Args)
	if err := cmd.CMD.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
