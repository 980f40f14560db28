// Command agentctl generates CX agent configurations from the command line
// and keeps them in a local store.
//
// Usage:
//
//	agentctl create "<prompt>" [--language en-US] [--platform voiceowl] [--format json|yaml] [--jq expr] [--save]
//	agentctl tools "<prompt>"
//	agentctl example
//	agentctl list
//	agentctl show <agent_id>
//	agentctl workers [--registry file.json]
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "agentctl",
		Short:         "CX phone-agent configuration generator",
		Long:          "agentctl turns a plain-language description of a phone agent into a complete agent configuration.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String("store", defaultStoreDir(), "Directory of the local agent store")
	rootCmd.PersistentFlags().StringP("format", "o", formatJSON, "Output format: json or yaml")
	rootCmd.PersistentFlags().String("jq", "", "jq expression applied to the output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log pipeline progress to stderr")

	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newToolsCommand())
	rootCmd.AddCommand(newExampleCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newWorkersCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
