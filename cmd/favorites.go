package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/examlens/internal/favorites"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage saved practice questions",
}

var favoritesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved practice questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFavorites(cmd, func(favs *favorites.Service) error {
			out := cmd.OutOrStdout()
			items := favs.List()
			if len(items) == 0 {
				fmt.Fprintln(out, "No favorites saved yet.")
				return nil
			}
			printTable(out, []string{"ID", "Saved", "Level", "Question"}, favoriteRows(items))
			return nil
		})
	},
}

var favoritesRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a favorite by ID or unique ID prefix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFavorites(cmd, func(favs *favorites.Service) error {
			ok, err := favs.Remove(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("favorite %q not found", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Removed.")
			return nil
		})
	},
}

var favoritesExportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export favorites as JSON (stdout when no file is given)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withFavorites(cmd, func(favs *favorites.Service) error {
			var w io.Writer = cmd.OutOrStdout()
			if len(args) == 1 {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := favs.Export(w); err != nil {
				return fmt.Errorf("export favorites: %w", err)
			}
			return nil
		})
	},
}

// withFavorites opens the store, loads the favorites and runs fn.
func withFavorites(cmd *cobra.Command, fn func(*favorites.Service) error) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	favs, err := favorites.Load(cmd.Context(), s.FavoriteRepo(), log.With("component", "favorites"))
	if err != nil {
		return err
	}
	return fn(favs)
}

func favoriteRows(items []favorites.Favorite) [][]string {
	rows := make([][]string, 0, len(items))
	for _, f := range items {
		rows = append(rows, []string{
			truncate(f.ID, 8),
			f.FavoritedAt.Local().Format("2006-01-02 15:04"),
			string(f.Difficulty),
			truncate(oneLine(f.Question), 54),
		})
	}
	return rows
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func init() {
	favoritesCmd.AddCommand(favoritesListCmd)
	favoritesCmd.AddCommand(favoritesRemoveCmd)
	favoritesCmd.AddCommand(favoritesExportCmd)
}
