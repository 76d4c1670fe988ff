package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a memory by id",
	Args:  cobra.ExactArgs(1),
	RunE:  runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	db, eng, _, err := openEngine()
	if err != nil {
		return err
	}
	defer db.Close()

	if !eng.Delete(args[0]) {
		return fmt.Errorf("memory %s not found", args[0])
	}
	fmt.Printf("deleted %s\n", args[0])
	return nil
}
