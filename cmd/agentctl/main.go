// cmd/agentctl/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"voice-agent-workers/internal/common/config"
	"voice-agent-workers/internal/common/logger"
	"voice-agent-workers/internal/tools"
	"voice-agent-workers/internal/tools/builtin"
)

var version = "dev"

type globalFlags struct {
	configPath string
	verbose    bool
}

func main() {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:           "agentctl",
		Short:         "Operate the voice agent locally",
		Long:          "agentctl runs conversation turns against the configured LLM and inspects the tool registry and persona catalog.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "path to a config file (defaults to configs/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(newChatCmd(flags), newToolsCmd(flags), newPersonasCmd(flags))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (f *globalFlags) load() (*config.Config, error) {
	if f.configPath != "" {
		return config.LoadFromFile(f.configPath)
	}
	return config.Load()
}

func (f *globalFlags) logger() logger.Logger {
	if f.verbose {
		return logger.NewStructured("debug", "console")
	}
	return logger.NewStructured("warn", "console")
}

// localRegistry builds the tool registry on backends that need no running
// infrastructure.
func localRegistry(cfg *config.Config, log logger.Logger) (*tools.Registry, error) {
	local := *cfg
	local.Tools.Orders.Source = "mock"
	local.Tools.Orders.CacheTTL = 0
	local.Tools.Email.Provider = "log"
	local.Tools.Tickets.Sink = "memory"
	local.Tools.Handoff.Notifier = "none"
	return builtin.NewRegistry(&local, builtin.Dependencies{}, log)
}
