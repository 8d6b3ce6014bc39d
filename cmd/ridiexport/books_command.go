package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"ridiexport/internal/library"
)

type bookView struct {
	ID         string `json:"id"`
	Format     string `json:"format"`
	Downloaded bool   `json:"downloaded"`
	Size       int64  `json:"size"`
	Path       string `json:"path"`
}

func newBooksCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var includeAll bool

	cmd := &cobra.Command{
		Use:   "books",
		Short: "List downloaded books for the active account",
		RunE: func(cmd *cobra.Command, args []string) error {
			active, err := ctx.activeCredential()
			if err != nil {
				return err
			}
			scanner, err := ctx.scanner()
			if err != nil {
				return err
			}

			var books []library.Book
			if includeAll {
				books, err = scanner.ScanAll(active.UserID)
			} else {
				books, err = scanner.Scan(active.UserID)
			}
			if err != nil {
				return err
			}

			views := make([]bookView, 0, len(books))
			var total int64
			for _, book := range books {
				present := book.IsPresent()
				var size int64
				if present {
					size = book.DataSize()
					total += size
				}
				views = append(views, bookView{
					ID:         book.ID,
					Format:     book.Format.String(),
					Downloaded: present,
					Size:       size,
					Path:       book.Path,
				})
			}
			if jsonOutput {
				return writeJSON(cmd, views)
			}

			out := cmd.OutOrStdout()
			if len(views) == 0 {
				fmt.Fprintf(out, "No downloaded books for %s\n", active.Label())
				return nil
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				size := "-"
				if v.Downloaded {
					size = humanize.Bytes(uint64(v.Size))
				}
				rows = append(rows, []string{v.ID, v.Format, yesNo(v.Downloaded), size})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Format", "Downloaded", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			fmt.Fprintf(out, "%d books, %s (%s)\n", len(views), humanize.Bytes(uint64(total)), active.Label())
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVarP(&includeAll, "all", "a", false, "Include books that are not downloaded")
	return cmd
}
