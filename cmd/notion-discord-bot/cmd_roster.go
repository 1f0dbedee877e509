package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nakanoasaservice/notion-to-discord-bot/internal/roster"
)

var rosterCount bool

func init() {
	rootCmd.AddCommand(rosterCmd)
	rosterCmd.Flags().BoolVar(&rosterCount, "count", false, "print only the number of ids")
}

var rosterCmd = &cobra.Command{
	Use:   "roster [file]",
	Short: "Print the student ids found in an attendance CSV",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(args)
		if err != nil {
			return err
		}
		ids, err := roster.ParseIDs(bytes.NewReader(data))
		if err != nil {
			return err
		}
		if rosterCount {
			fmt.Fprintln(os.Stdout, len(ids))
			return nil
		}
		for _, id := range ids {
			fmt.Fprintln(os.Stdout, id)
		}
		return nil
	},
}
