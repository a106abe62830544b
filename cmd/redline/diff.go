package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/xxxsen/redline/internal/differ"
	"github.com/xxxsen/redline/internal/model"
)

func newDiffCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "diff <original> <modified>",
		Short: "print line change records between two files",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			original, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			modified, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			changes := differ.Snapshots(string(original), string(modified))
			return printChanges(cmd.OutOrStdout(), changes, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print records as json")
	return cmd
}

func printChanges(w io.Writer, changes []model.ChangeSnapshot, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(changes)
	}
	for _, c := range changes {
		switch c.Type {
		case model.ChangeTypeAddition:
			fmt.Fprintf(w, "+ %d: %s\n", c.LineNumber, c.Content)
		case model.ChangeTypeDeletion:
			fmt.Fprintf(w, "- %d: %s\n", c.LineNumber, c.Content)
		default:
			original := ""
			if c.OriginalContent != nil {
				original = *c.OriginalContent
			}
			fmt.Fprintf(w, "~ %d: %s -> %s\n", c.LineNumber, original, c.Content)
		}
	}
	return nil
}
