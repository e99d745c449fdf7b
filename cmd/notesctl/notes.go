package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"admin-notes-backend/application/commands"
	"admin-notes-backend/application/queries"
	querybus "admin-notes-backend/application/queries/bus"
	"admin-notes-backend/infrastructure/di"

	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the stored notes with their indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(c *di.Container) error {
				result, err := listNotes(cmd, c)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					encoder := json.NewEncoder(out)
					encoder.SetIndent("", "  ")
					return encoder.Encode(result)
				}

				if result.Count == 0 {
					fmt.Fprintln(out, "No notes available.")
					return nil
				}
				for i, note := range result.Notes {
					fmt.Fprintf(out, "%d\t%s\n", i, note)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output in JSON format")
	return cmd
}

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "add <note>",
		Short:   "Append a note",
		Example: `notesctl --store file add "Rotate the API keys"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(c *di.Container) error {
				if err := c.CommandBus.Send(cmd.Context(), commands.AddNoteCommand{Text: args[0]}); err != nil {
					return err
				}
				return printCount(cmd, c)
			})
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete the note at index",
		Long:  "Delete the note at index. Indexes outside the collection leave it unchanged.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(c *di.Container) error {
				if err := c.CommandBus.Send(cmd.Context(), commands.DeleteNoteCommand{Index: index}); err != nil {
					return err
				}
				return printCount(cmd, c)
			})
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <index> <note>",
		Short: "Replace the note at index",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseIndexArg(args[0])
			if err != nil {
				return err
			}
			return withContainer(cmd, func(c *di.Container) error {
				err := c.CommandBus.Send(cmd.Context(), commands.UpdateNoteCommand{
					Index:  index,
					Text:   args[1],
					Strict: true,
				})
				if err != nil {
					return err
				}
				return printCount(cmd, c)
			})
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the notes as CSV or XLSX",
		Long: `Export writes one note per row. Without --output the file is named
admin-notes-YYYY-MM-DD.<format> in the current directory; "-" writes to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withContainer(cmd, func(c *di.Container) error {
				query := queries.ExportNotesQuery{Format: format}
				result, err := querybus.AskAs[*queries.ExportNotesResult](cmd.Context(), c.QueryBus, query)
				if err != nil {
					return err
				}

				if output == "-" {
					_, err := cmd.OutOrStdout().Write(result.Data)
					return err
				}

				path := output
				if path == "" {
					path = result.FileName
				}
				if err := os.WriteFile(path, result.Data, 0o644); err != nil {
					return fmt.Errorf("failed to write export: %w", err)
				}
				abs, _ := filepath.Abs(path)
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported notes to %s\n", abs)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Export format (csv or xlsx)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output path, or - for stdout")
	return cmd
}

func listNotes(cmd *cobra.Command, c *di.Container) (*queries.ListNotesResult, error) {
	return querybus.AskAs[*queries.ListNotesResult](cmd.Context(), c.QueryBus, queries.ListNotesQuery{})
}

func printCount(cmd *cobra.Command, c *di.Container) error {
	result, err := listNotes(cmd, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d notes stored\n", result.Count)
	return nil
}

func parseIndexArg(arg string) (int, error) {
	index, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("index must be an integer, got %q", arg)
	}
	return index, nil
}
