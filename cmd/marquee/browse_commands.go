package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/daemonctl"
)

func newTrendingCommand(ctx *commandContext) *cobra.Command {
	var window string
	var page int

	cmd := &cobra.Command{
		Use:   "trending",
		Short: "Show trending movies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.Trending(cmd.Context(), window, page)
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, result)
				}
				printMoviePage(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&window, "window", "w", "", "Trending window: day or week")
	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page")
	return cmd
}

func newPopularCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "popular",
		Short: "Show popular movies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.Popular(cmd.Context(), page)
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, result)
				}
				printMoviePage(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page")
	return cmd
}

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.Search(cmd.Context(), query, page)
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, result)
				}
				printMoviePage(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page")
	return cmd
}

func newMovieCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "movie <tmdb-id>",
		Short: "Show details for one movie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmdbID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || tmdbID < 1 {
				return fmt.Errorf("invalid tmdb id %q", args[0])
			}
			return ctx.withClient(func(client *daemonctl.Client) error {
				movie, err := client.Movie(cmd.Context(), tmdbID)
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, movie)
				}
				printMovieDetail(cmd, movie)
				return nil
			})
		},
	}
}

func newGenresCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "genres",
		Short: "List the genre dictionary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.Genres(cmd.Context())
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, result)
				}
				printGenres(cmd, result.Genres)
				return nil
			})
		},
	}
}

func newGenreCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "genre <genre-id>",
		Short: "Browse movies in a genre",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			genreID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || genreID < 1 {
				return fmt.Errorf("invalid genre id %q", args[0])
			}
			return ctx.withClient(func(client *daemonctl.Client) error {
				result, err := client.GenreMovies(cmd.Context(), genreID, page)
				if err != nil {
					return err
				}
				if ctx.useJSON() {
					return writeJSON(cmd, result)
				}
				printMoviePage(cmd, result)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Result page")
	return cmd
}
