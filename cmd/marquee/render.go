package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/api"
)

const overviewLimit = 72

func printMoviePage(cmd *cobra.Command, page api.MoviePage) {
	out := cmd.OutOrStdout()
	if len(page.Results) == 0 {
		fmt.Fprintln(out, "No movies found.")
		return
	}

	headers := []string{"TMDB ID", "Title", "Year", "Rating", "Genres"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft}
	rows := make([][]string, 0, len(page.Results))
	for _, movie := range page.Results {
		rows = append(rows, []string{
			strconv.FormatInt(movie.TMDBID, 10),
			truncate(movie.Title, overviewLimit),
			releaseYear(movie.ReleaseDate),
			formatRating(movie.VoteAverage, movie.VoteCount),
			genreNames(movie.Genres),
		})
	}

	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	fmt.Fprintf(out, "Page %d of %d (%d results)\n", page.Page, page.TotalPages, page.TotalResults)
}

func printMovieDetail(cmd *cobra.Command, movie api.Movie) {
	rows := [][]string{
		{"TMDB ID", strconv.FormatInt(movie.TMDBID, 10)},
		{"Title", movie.Title},
		{"Release date", movie.ReleaseDate},
		{"Rating", formatRating(movie.VoteAverage, movie.VoteCount)},
		{"Popularity", strconv.FormatFloat(movie.Popularity, 'f', 1, 64)},
		{"Genres", genreNames(movie.Genres)},
	}
	if movie.Runtime > 0 {
		rows = append(rows, []string{"Runtime", fmt.Sprintf("%d min", movie.Runtime)})
	}
	if movie.Tagline != "" {
		rows = append(rows, []string{"Tagline", movie.Tagline})
	}
	if movie.OriginalLanguage != "" {
		rows = append(rows, []string{"Language", movie.OriginalLanguage})
	}
	if movie.PosterURL != "" {
		rows = append(rows, []string{"Poster", movie.PosterURL})
	}
	if movie.SyncedAt != "" {
		rows = append(rows, []string{"Synced", movie.SyncedAt})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
	if movie.Overview != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, movie.Overview)
	}
}

func printGenres(cmd *cobra.Command, genres []api.Genre) {
	out := cmd.OutOrStdout()
	if len(genres) == 0 {
		fmt.Fprintln(out, "No genres available. Run 'marquee sync' first.")
		return
	}
	rows := make([][]string, 0, len(genres))
	for _, genre := range genres {
		rows = append(rows, []string{strconv.FormatInt(genre.ID, 10), genre.Name})
	}
	fmt.Fprintln(out, renderTable([]string{"ID", "Name"}, rows, []columnAlignment{alignRight, alignLeft}))
}

func printStatus(cmd *cobra.Command, status api.DaemonStatus) {
	rows := [][]string{
		{"Running", yesNo(status.Running)},
		{"PID", strconv.Itoa(status.PID)},
		{"Uptime", formatUptime(status.UptimeSec)},
		{"Store", status.StorePath},
		{"Cache backend", status.CacheBackend},
		{"Movies", strconv.FormatInt(status.Movies, 10)},
		{"Genres", strconv.FormatInt(status.Genres, 10)},
		{"Associations", strconv.FormatInt(status.Associations, 10)},
	}
	if status.LastSync != nil {
		rows = append(rows, []string{"Last sync", summarizeRun(*status.LastSync)})
	}
	if status.NextSync != "" {
		rows = append(rows, []string{"Next sync", status.NextSync})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
}

func printSyncRun(cmd *cobra.Command, run api.SyncRun) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sync %s finished in %dms\n", run.ID, run.DurationMS)
	fmt.Fprintf(out, "  inserted=%d updated=%d unchanged=%d skipped=%d\n",
		run.Inserted, run.Updated, run.Unchanged, run.Skipped)
	if run.Error != "" {
		fmt.Fprintf(out, "  error: %s\n", run.Error)
	}
}

func summarizeRun(run api.SyncRun) string {
	summary := fmt.Sprintf("%s (+%d ~%d =%d)", run.StartedAt, run.Inserted, run.Updated, run.Unchanged)
	if run.Error != "" {
		summary += " [failed]"
	}
	return summary
}

func genreNames(genres []api.Genre) string {
	if len(genres) == 0 {
		return "-"
	}
	names := make([]string, 0, len(genres))
	for _, genre := range genres {
		names = append(names, genre.Name)
	}
	return strings.Join(names, ", ")
}

func releaseYear(releaseDate string) string {
	if len(releaseDate) < 4 {
		return "-"
	}
	return releaseDate[:4]
}

func formatRating(average float64, count int64) string {
	if count == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", average, count)
}

func formatUptime(seconds int64) string {
	if seconds <= 0 {
		return "-"
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh%dm", hours, minutes)
	}
	return fmt.Sprintf("%dm%ds", minutes, seconds%60)
}

func truncate(value string, limit int) string {
	if limit <= 3 || len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
