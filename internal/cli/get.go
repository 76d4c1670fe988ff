package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Fetch a memory by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

func runGet(cmd *cobra.Command, args []string) error {
	db, eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	m, err := eng.Get(args[0])
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("memory %s not found", args[0])
	}

	b, _ := json.MarshalIndent(m, "", "  ")
	fmt.Println(string(b))
	return nil
}
