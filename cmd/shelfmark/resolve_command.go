package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"shelfmark/internal/resolver"
	"shelfmark/internal/services/emby"
	"shelfmark/internal/services/nullbr"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var year string
	var mediaType string
	var externalID string
	var provider string
	var searchQueries []string
	var withResources bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "resolve TITLE [TITLE...]",
		Short: "Check whether titles exist in the library",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if mediaType != "movie" && mediaType != "tv" {
				return fmt.Errorf("invalid --type %q (movie or tv)", mediaType)
			}
			if externalID != "" && len(args) > 1 {
				return fmt.Errorf("--id applies to a single title")
			}

			app, err := ctx.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			outcomes := make([]resolver.Outcome, len(args))
			group, groupCtx := errgroup.WithContext(cmd.Context())
			for i, title := range args {
				i, title := i, title
				group.Go(func() error {
					outcomes[i] = app.resolver.Resolve(groupCtx, resolver.Query{
						Title:            title,
						Year:             year,
						MediaType:        mediaType,
						SearchQueries:    searchQueries,
						ExternalID:       externalID,
						ExternalProvider: provider,
					})
					return nil
				})
			}
			if err := group.Wait(); err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(cmd, outcomes)
			}

			out := cmd.OutOrStdout()
			for i, outcome := range outcomes {
				if i > 0 {
					fmt.Fprintln(out)
				}
				printOutcome(out, app, outcome, withResources, cmd)
			}

			for _, outcome := range outcomes {
				if outcome.Status == resolver.StatusError {
					return fmt.Errorf("one or more lookups failed")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&year, "year", "y", "", "Release year hint")
	cmd.Flags().StringVarP(&mediaType, "type", "t", "movie", "Media type (movie or tv)")
	cmd.Flags().StringVar(&externalID, "id", "", "External provider id for a direct library lookup")
	cmd.Flags().StringVar(&provider, "provider", "", "Provider of --id (default douban)")
	cmd.Flags().StringSliceVar(&searchQueries, "search", nil, "Alternate search spellings")
	cmd.Flags().BoolVar(&withResources, "resources", false, "Look up downloadable resources for missing titles")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit JSON instead of text")

	return cmd
}

func printOutcome(out io.Writer, app *app, outcome resolver.Outcome, withResources bool, cmd *cobra.Command) {
	header := outcome.Title
	if outcome.MediaType == "tv" {
		header += " [tv]"
	}
	fmt.Fprintln(out, header)
	fmt.Fprintf(out, "  %s\n", outcome.StatusMessage)

	switch outcome.Status {
	case resolver.StatusFound:
		printLibraryItem(out, app, outcome.Item)
		for _, extra := range extraItems(outcome) {
			fmt.Fprintf(out, "  also: %s (%d)\n", extra.Name, extra.ProductionYear)
		}
	case resolver.StatusNotFound:
		printCatalogResults(out, outcome.TMDBResults)
		if withResources && outcome.TMDBID != 0 {
			printResources(out, app.nullbr.GetAllResources(cmd.Context(), outcome.TMDBID, outcome.MediaType))
		}
	}
}

func printLibraryItem(out io.Writer, app *app, item *emby.Item) {
	if item == nil {
		return
	}
	if item.ProductionYear != 0 {
		fmt.Fprintf(out, "  year: %d\n", item.ProductionYear)
	}
	for _, season := range item.Seasons {
		fmt.Fprintf(out, "  %s: %d episodes\n", season.Name, season.RecursiveItemCount)
	}
	if url := app.library.WebURL(item); url != "" {
		fmt.Fprintf(out, "  %s\n", url)
	}
}

func extraItems(outcome resolver.Outcome) []emby.Item {
	if len(outcome.Items) < 2 {
		return nil
	}
	return outcome.Items[1:]
}

func printCatalogResults(out io.Writer, results []resolver.CatalogItem) {
	if len(results) == 0 {
		return
	}
	limit := min(len(results), 5)
	rows := make([][]string, 0, limit)
	for _, item := range results[:limit] {
		rows = append(rows, []string{
			strconv.FormatInt(item.ID, 10),
			item.Title,
			item.Year,
			item.MediaType,
		})
	}
	rendered := renderTable([]string{"TMDB ID", "Title", "Year", "Type"}, rows, []columnAlignment{alignRight})
	fmt.Fprintln(out, indent(rendered, "  "))
}

func printResources(out io.Writer, resources nullbr.Resources) {
	if !resources.HasData {
		fmt.Fprintln(out, "  resources: none indexed")
		return
	}
	for _, item := range resources.Items115 {
		fmt.Fprintf(out, "  115: %s (%s) %s\n", item.Title, item.Size, item.ShareLink)
	}
	for _, item := range resources.Magnets {
		fmt.Fprintf(out, "  magnet: %s (%s)\n", item.Name, item.Size)
	}
}

func indent(block, prefix string) string {
	lines := strings.Split(block, "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}
