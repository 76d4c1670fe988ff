package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run confidence decay and eviction once",
	RunE:  runDecay,
}

func runDecay(cmd *cobra.Command, args []string) error {
	db, eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := eng.RunDecay()
	if err != nil {
		return err
	}
	fmt.Printf("decayed %d, evicted %d\n", result.Updated, result.Deleted)
	return nil
}
