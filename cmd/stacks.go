package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spigell/screener/internal/questionbank"
)

var stacksCmd = &cobra.Command{
	Use:   "stacks",
	Short: "List supported technologies by category",
	RunE: func(cmd *cobra.Command, _ []string) error {
		bank, err := questionbank.Default()
		if err != nil {
			return err
		}
		printStacks(cmd.OutOrStdout(), bank)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stacksCmd)
}

// printStacks lists every category. Technologies with dedicated questions are
// marked with an asterisk.
func printStacks(out io.Writer, bank *questionbank.Bank) {
	for _, category := range bank.Categories() {
		names := make([]string, 0, len(category.Technologies))
		for _, tech := range category.Technologies {
			if _, ok := bank.Lookup(tech); ok {
				tech += "*"
			}
			names = append(names, tech)
		}
		fmt.Fprintf(out, "%s:\n  %s\n", category.Name, strings.Join(names, ", "))
	}
	fmt.Fprintln(out, "\n* dedicated question set, other technologies get general questions")
}
