package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/part5/internal/foundry"
	"github.com/soyeahso/part5/internal/tutor"
)

func newAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Manage the remote tutor agent",
	}

	cmd.AddCommand(newAgentInfoCmd())
	cmd.AddCommand(newAgentCreateCmd())
	cmd.AddCommand(newAgentDeleteCmd())
	return cmd
}

func newAgentInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info [agent-id]",
		Short: "Show details about a remote agent",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			id := cfg.Project.AgentID
			if len(args) > 0 {
				id = args[0]
			}
			if id == "" {
				return fmt.Errorf("no agent id given and AGENT_ID is not set")
			}

			agent, err := newProjectClient(cfg).GetAgent(cmd.Context(), id)
			if err != nil {
				return err
			}

			fmt.Printf("Agent: %s\n", agent.ID)
			fmt.Printf("  Name:  %s\n", agent.Name)
			fmt.Printf("  Model: %s\n", agent.Model)
			if agent.Instructions != "" {
				fmt.Printf("  Instructions:\n%s\n", agent.Instructions)
			}
			return nil
		},
	}
}

func newAgentCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create",
		Short: "Create a reusable tutor agent and print its id",
		Long: "Creates a remote agent with the configured model and tutor instructions.\n" +
			"Export the printed id as AGENT_ID to reuse the agent across sessions\n" +
			"instead of provisioning a fresh one per run.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			instructions, err := tutor.LoadInstructions(cfg.Agent.InstructionsFile)
			if err != nil {
				return err
			}

			agent, err := newProjectClient(cfg).CreateAgent(cmd.Context(), foundry.CreateAgentRequest{
				Model:        cfg.Project.Model,
				Name:         cfg.Agent.Name,
				Instructions: instructions,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Created agent: %s (model %s)\n", agent.ID, agent.Model)
			fmt.Printf("Reuse it with: export AGENT_ID=%s\n", agent.ID)
			return nil
		},
	}
}

func newAgentDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <agent-id>",
		Short: "Delete a remote agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if err := newProjectClient(cfg).DeleteAgent(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Deleted agent %s\n", args[0])
			return nil
		},
	}
}
