package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soyeahso/part5/internal/store"
	"github.com/soyeahso/part5/internal/tutor"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Review recorded practice sessions",
	}

	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionShowCmd())
	return cmd
}

// openTranscriptStore opens the transcript database for review commands.
func openTranscriptStore() (tutor.TranscriptStore, func(), error) {
	db, err := store.Open(paths.Database, log)
	if err != nil {
		return nil, nil, fmt.Errorf("open transcript database: %w", err)
	}
	return store.NewSQLiteTranscriptStore(db), func() { db.Close() }, nil
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded practice sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			transcripts, closeStore, err := openTranscriptStore()
			if err != nil {
				return err
			}
			defer closeStore()

			sessions, err := transcripts.Sessions()
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("No recorded sessions yet.")
				return nil
			}

			for _, s := range sessions {
				fmt.Printf("  %s  %s  agent=%s\n",
					s.ID, s.StartedAt.Format("2006-01-02 15:04"), s.AgentID)
			}
			return nil
		},
	}
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the transcript of one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			transcripts, closeStore, err := openTranscriptStore()
			if err != nil {
				return err
			}
			defer closeStore()

			turns, err := transcripts.Turns(args[0])
			if err != nil {
				return err
			}
			if len(turns) == 0 {
				return fmt.Errorf("no turns recorded for session %s", args[0])
			}

			for _, turn := range turns {
				fmt.Printf("[%s] %s\n%s\n\n",
					turn.CreatedAt.Format("15:04:05"), turn.Role, turn.Content)
			}
			return nil
		},
	}
}
