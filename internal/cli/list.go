package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jordannaegle/mnemo/internal/store"
	"github.com/spf13/cobra"
)

var (
	listScope   string
	listScopeID string
	listTypes   string
	listMinConf float64
	listPrivacy string
	listTags    string
	listSort    string
	listAsc     bool
	listLimit   int
	listOffset  int
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Query memories with filters",
	RunE:  runList,
}

func init() {
	listCmd.Flags().StringVar(&listScope, "scope", "", "filter by scope")
	listCmd.Flags().StringVar(&listScopeID, "scope-id", "", "filter by scope id")
	listCmd.Flags().StringVar(&listTypes, "types", "", "comma-separated types")
	listCmd.Flags().Float64Var(&listMinConf, "min-confidence", 0, "inclusive confidence lower bound")
	listCmd.Flags().StringVar(&listPrivacy, "privacy", "", "comma-separated privacy levels (default excludes never_share)")
	listCmd.Flags().StringVar(&listTags, "tags", "", "comma-separated tag substrings")
	listCmd.Flags().StringVar(&listSort, "sort", "", "sort key: confidence, accessed_at, created_at, access_count")
	listCmd.Flags().BoolVar(&listAsc, "asc", false, "sort ascending")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "max results")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "pagination offset")
}

func runList(cmd *cobra.Command, args []string) error {
	db, eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	f := store.QueryFilter{
		Scope:         listScope,
		MinConfidence: listMinConf,
		SortBy:        listSort,
		SortAsc:       listAsc,
		Limit:         listLimit,
		Offset:        listOffset,
		Tags:          splitTags(listTags),
	}
	if cmd.Flags().Changed("scope-id") {
		f.ScopeID = &listScopeID
	}
	if listTypes != "" {
		f.Types = strings.Split(listTypes, ",")
	}
	if listPrivacy != "" {
		f.PrivacyLevels = strings.Split(listPrivacy, ",")
	}

	memories := eng.Query(f)
	b, _ := json.MarshalIndent(memories, "", "  ")
	fmt.Println(string(b))
	return nil
}
