// Package cases holds the case authoring commands: importing case JSON
// documents into the database and inspecting what is stored.
package cases

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jkorri/gumshoe/internal/models"
	"github.com/jkorri/gumshoe/internal/repositories"
	"github.com/jkorri/gumshoe/internal/sqlite"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "cases",
	Title: "Case operations",
}

func init() {
	Import.Flags().String("sqlite-url", "./gumshoe.sqlite", "SQLite URL")
	List.Flags().String("sqlite-url", "./gumshoe.sqlite", "SQLite URL")
	Show.Flags().String("sqlite-url", "./gumshoe.sqlite", "SQLite URL")
}

// openRepository connects to the database named by the command's sqlite-url
// flag and returns a case repository.
func openRepository(cmd *cobra.Command) (*repositories.CaseRepository, error) {
	dbURL, err := cmd.Flags().GetString("sqlite-url")
	if err != nil {
		return nil, err
	}
	dbs, err := sqlite.NewDatabase(dbURL)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	return repositories.NewCaseRepository(dbs, logger), nil
}

var Import = &cobra.Command{
	Use:     "import [files...]",
	GroupID: "cases",
	Short:   "Import case documents",
	Long:    `Imports one or more case JSON files, replacing stored cases with the same id.`,
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := openRepository(cmd)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Database error: %v\n", err)
			return
		}

		ctx := context.Background()
		for _, path := range args {
			var file *os.File
			if file, err = os.Open(path); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Open error: %v\n", err)
				return
			}
			var content []byte
			content, err = io.ReadAll(file)
			_ = file.Close()
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
				return
			}

			var c models.Case
			if err = json.Unmarshal(content, &c); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Parse error in %s: %v\n", path, err)
				return
			}
			if c.ID == "" {
				_, _ = fmt.Fprintf(os.Stderr, "Case in %s has no id\n", path)
				return
			}

			if err = repo.Put(ctx, c); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Import error for %s: %v\n", path, err)
				return
			}
			_, _ = fmt.Fprintf(os.Stdout, "imported %s (%s)\n", c.ID, c.Title)
		}
	},
}

var List = &cobra.Command{
	Use:     "list",
	GroupID: "cases",
	Short:   "List stored cases",
	Run: func(cmd *cobra.Command, _ []string) {
		repo, err := openRepository(cmd)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Database error: %v\n", err)
			return
		}

		cases, err := repo.List(context.Background())
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "List error: %v\n", err)
			return
		}
		for _, c := range cases {
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\t%s\n", c.ID, c.Access, c.Title)
		}
	},
}

var Show = &cobra.Command{
	Use:     "show [id]",
	GroupID: "cases",
	Short:   "Show a stored case as JSON",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repo, err := openRepository(cmd)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Database error: %v\n", err)
			return
		}

		c, err := repo.Get(context.Background(), args[0])
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Lookup error: %v\n", err)
			return
		}
		content, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Encode error: %v\n", err)
			return
		}
		_, _ = fmt.Fprintln(os.Stdout, string(content))
	},
}
