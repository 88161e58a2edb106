package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nbforge/kernelbridge/version"
)

// VersionCmd shows version information
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		info := version.Get()

		if asJSON {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Println(info.String())
		return nil
	},
}

func init() {
	VersionCmd.Flags().Bool("json", false, "Output version as JSON")
}
