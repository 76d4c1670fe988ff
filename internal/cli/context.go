package cli

import (
	"fmt"

	"github.com/jordannaegle/mnemo/internal/engine"
	"github.com/spf13/cobra"
)

var (
	ctxConversation string
	ctxProject      string
	ctxSearch       string
	ctxMaxTokens    int
)

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Assemble the layered memory context for a conversation",
	RunE:  runContext,
}

func init() {
	contextCmd.Flags().StringVar(&ctxConversation, "conversation", "", "conversation id")
	contextCmd.Flags().StringVar(&ctxProject, "project", "", "project path")
	contextCmd.Flags().StringVar(&ctxSearch, "query", "", "search text for the fifth layer")
	contextCmd.Flags().IntVar(&ctxMaxTokens, "max-tokens", 0, "token budget (default from config)")
}

func runContext(cmd *cobra.Command, args []string) error {
	db, eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	result := eng.GetContext(engine.ContextRequest{
		ConversationID: ctxConversation,
		ProjectPath:    ctxProject,
		SearchText:     ctxSearch,
		MaxTokens:      ctxMaxTokens,
	})
	if result.Status == engine.StatusError {
		return fmt.Errorf("context: %s", result.Error)
	}

	fmt.Println(result.FormattedPrompt)
	fmt.Printf("\n%d memories, mean confidence %.2f\n", result.Stats.TotalLoaded, result.Stats.AvgConfidence)
	return nil
}
