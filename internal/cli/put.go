package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jordannaegle/mnemo/internal/engine"
	"github.com/spf13/cobra"
)

var (
	putType       string
	putScope      string
	putScopeID    string
	putSource     string
	putConfidence float64
	putTags       string
	putPrivacy    string
)

var putCmd = &cobra.Command{
	Use:   "put [content]",
	Short: "Store a memory",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPut,
}

func init() {
	putCmd.Flags().StringVarP(&putType, "type", "t", "fact", "memory type: preference, fact, context, skill, instruction, relationship")
	putCmd.Flags().StringVar(&putScope, "scope", "global", "scope: global, project, conversation")
	putCmd.Flags().StringVar(&putScopeID, "scope-id", "", "project path or conversation id (required for non-global scope)")
	putCmd.Flags().StringVar(&putSource, "source", "user_stated", "provenance: user_stated, ai_inferred, agent_stored, system")
	putCmd.Flags().Float64VarP(&putConfidence, "confidence", "c", 0, "initial confidence 0..1 (default from config)")
	putCmd.Flags().StringVar(&putTags, "tags", "", "comma-separated tags")
	putCmd.Flags().StringVar(&putPrivacy, "privacy", "", "privacy level: always_include, normal, sensitive, never_share")
}

func runPut(cmd *cobra.Command, args []string) error {
	db, eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	req := engine.StoreRequest{
		Content:      strings.Join(args, " "),
		Type:         putType,
		Scope:        putScope,
		ScopeID:      putScopeID,
		Source:       putSource,
		Tags:         splitTags(putTags),
		PrivacyLevel: putPrivacy,
	}
	if cmd.Flags().Changed("confidence") {
		req.Confidence = &putConfidence
	}

	result := eng.Store(req)
	if !result.Success {
		return fmt.Errorf("store: %s", result.Error)
	}

	b, _ := json.Marshal(result)
	fmt.Println(string(b))
	return nil
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
