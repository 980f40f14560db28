package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cx-agent-builder/internal/common/config"
	"cx-agent-builder/internal/common/logger"
	"cx-agent-builder/internal/models"
	"cx-agent-builder/internal/pipeline"
	"cx-agent-builder/internal/service"
	"cx-agent-builder/internal/store"
	"cx-agent-builder/pkg/registry"
)

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cx-agent-builder"
	}
	return filepath.Join(home, ".cx-agent-builder", "agents")
}

// newService builds a service with no backends. The LLM settings come from
// the usual configuration files and environment; a missing configuration
// leaves the rule engine in charge.
func newService(cmd *cobra.Command) *service.AgentService {
	verbose, _ := cmd.Flags().GetBool("verbose")
	log := logger.NewNoOpLogger()
	if verbose {
		log = logger.NewStructured("debug", "console")
	}

	var llmCfg config.LLMConfig
	if cfg, err := config.Load(); err == nil {
		llmCfg = cfg.LLM
	} else {
		log.Warn("configuration not loaded, using rule-based generation", map[string]interface{}{"error": err.Error()})
	}

	pl := pipeline.New(pipeline.NewStrategy(llmCfg, log), pipeline.WithLogger(log))
	return service.NewAgentService(pl, service.Dependencies{}, log)
}

func newRenderer(cmd *cobra.Command) (*renderer, error) {
	format, _ := cmd.Flags().GetString("format")
	expr, _ := cmd.Flags().GetString("jq")
	return newRendererFor(cmd.OutOrStdout(), format, expr)
}

func openStore(cmd *cobra.Command) (*store.LocalStore, error) {
	dir, _ := cmd.Flags().GetString("store")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	return store.OpenLocalStore(dir)
}

func generate(cmd *cobra.Command, args []string) (*models.AgentCreateResponse, error) {
	language, _ := cmd.Flags().GetString("language")
	platform, _ := cmd.Flags().GetString("platform")

	req := models.AgentCreateRequest{
		UserPrompt: strings.Join(args, " "),
		Language:   language,
		Platform:   platform,
	}.WithDefaults()

	verbose, _ := cmd.Flags().GetBool("verbose")
	var observe pipeline.Observer
	if verbose {
		observe = func(ev models.StageEvent) {
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] %s\n", ev.Stage, ev.Message)
		}
	}

	resp := newService(cmd).Create(context.Background(), req, observe)
	if !resp.Success {
		return resp, errors.New(resp.Message)
	}
	return resp, nil
}

func addRequestFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("language", "l", models.DefaultLanguage, "Language tag of the agent")
	cmd.Flags().StringP("platform", "p", models.DefaultPlatform, "Target deployment platform")
}

func newCreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <prompt>",
		Short: "Generate an agent configuration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newRenderer(cmd)
			if err != nil {
				return err
			}

			resp, err := generate(cmd, args)
			if err != nil {
				return err
			}

			if save, _ := cmd.Flags().GetBool("save"); save {
				local, err := openStore(cmd)
				if err != nil {
					return err
				}
				defer local.Close()
				if err := local.Put(resp.AgentConfig); err != nil {
					return fmt.Errorf("failed to save agent: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "saved %s\n", resp.AgentConfig.AgentID)
			}

			return out.Render(resp)
		},
	}

	addRequestFlags(cmd)
	cmd.Flags().Bool("save", false, "Keep the generated configuration in the local store")
	return cmd
}

func newToolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools <prompt>",
		Short: "Print only the OpenAI tools schema for a prompt",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newRenderer(cmd)
			if err != nil {
				return err
			}
			resp, err := generate(cmd, args)
			if err != nil {
				return err
			}
			return out.Render(resp.OpenAIToolsSchema)
		},
	}

	addRequestFlags(cmd)
	return cmd
}

func newExampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Generate the built-in example agent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newRenderer(cmd)
			if err != nil {
				return err
			}
			return out.Render(newService(cmd).Example(context.Background()))
		},
	}
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			local, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer local.Close()

			agents, err := local.List()
			if err != nil {
				return err
			}

			if expr, _ := cmd.Flags().GetString("jq"); expr != "" {
				out, err := newRenderer(cmd)
				if err != nil {
					return err
				}
				return out.Render(agents)
			}
			return writeSummaries(cmd.OutOrStdout(), agents)
		},
	}
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <agent_id>",
		Short: "Print a saved agent configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newRenderer(cmd)
			if err != nil {
				return err
			}

			local, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer local.Close()

			cfg, err := local.Get(args[0])
			if errors.Is(err, store.ErrAgentNotFound) {
				return fmt.Errorf("agent %q not found", args[0])
			}
			if err != nil {
				return err
			}
			return out.Render(cfg)
		},
	}
}

func newWorkersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workers",
		Short: "Describe the Zeebe job types served by the worker manager",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := newRenderer(cmd)
			if err != nil {
				return err
			}

			reg := registry.Default()
			if path, _ := cmd.Flags().GetString("registry"); path != "" {
				if reg, err = registry.LoadRegistry(path); err != nil {
					return err
				}
			}
			return out.Render(reg)
		},
	}

	cmd.Flags().String("registry", "", "Read activities from a registry JSON file instead")
	return cmd
}

func writeSummaries(w io.Writer, agents []store.AgentSummary) error {
	if len(agents) == 0 {
		_, err := fmt.Fprintln(w, "No saved agents")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT ID\tNAME\tDOMAIN\tMODE\tSAVED")
	for _, a := range agents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			a.AgentID, a.Name, a.Domain, a.GenerationMode, a.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
