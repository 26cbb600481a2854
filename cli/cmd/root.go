package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/singlestore-labs/okql"
)

var rootCmd = &cobra.Command{
	Use:          "okql <query>",
	Short:        "okql",
	Long:         `Translates a KQL pipe query into SQL.`,
	SilenceUsage: true,
	Args:         cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kql := args[0]
		fmt.Printf("KQL: %s\n", kql)

		sql, err := okql.KqlToSql("input.kql", kql)
		if err != nil {
			fmt.Printf("Errors:\n%s\n", err)
			return err
		}
		fmt.Printf("SQL:\n%s", sql)
		return nil
	},
}

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}
