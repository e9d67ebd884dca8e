package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/snapbench/snapbench/internal/sysinfo"
)

var envCmd = &cobra.Command{
	Use:   "env",
	Short: "Print the runtime environment a benchmark would run under",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(sysinfo.Collect().String())
	},
}

func init() {
	rootCmd.AddCommand(envCmd)
}
