package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAnimeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "anime KEYWORD...",
		Short: "Look up an anime subject on bgm.tv",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			keyword := strings.Join(args, " ")
			result := app.bangumi.Search(cmd.Context(), keyword)
			if result.Meta.Err != "" {
				return fmt.Errorf("bangumi search: %s", result.Meta.Err)
			}

			if jsonOutput {
				return writeJSON(cmd, result.Data)
			}

			out := cmd.OutOrStdout()
			if result.Data == nil {
				fmt.Fprintf(out, "No subject found for %q\n", keyword)
				return nil
			}

			subject := result.Data
			name := subject.NameCN
			if name == "" {
				name = subject.Name
			}
			fmt.Fprintf(out, "%s (bgm.tv subject %d)\n", name, subject.ID)
			if subject.NameCN != "" && subject.Name != subject.NameCN {
				fmt.Fprintf(out, "  original: %s\n", subject.Name)
			}
			if subject.Date != "" {
				fmt.Fprintf(out, "  aired: %s\n", subject.Date)
			}
			if subject.Score > 0 {
				fmt.Fprintf(out, "  score: %.1f", subject.Score)
				if subject.Rank > 0 {
					fmt.Fprintf(out, " (rank %d)", subject.Rank)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")
	return cmd
}
