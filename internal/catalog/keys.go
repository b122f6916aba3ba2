package catalog

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// genreListKey addresses the single genre dictionary entry.
const genreListKey = "genres:all"

func trendingKey(window string, page int) string {
	return fmt.Sprintf("trending:window=%s:page=%d", window, page)
}

func popularKey(page int) string {
	return fmt.Sprintf("popular:page=%d", page)
}

func searchKey(query string, page int) string {
	return fmt.Sprintf("search:q=%s:page=%d", normalizeQuery(query), page)
}

func genreKey(genreID int64, page int) string {
	return fmt.Sprintf("genre:id=%d:page=%d", genreID, page)
}

func detailKey(tmdbID int64) string {
	return fmt.Sprintf("detail:id=%d", tmdbID)
}

// normalizeQuery collapses runs of whitespace and Unicode case-folds the
// query so trivially different spellings share one cache entry.
func normalizeQuery(query string) string {
	collapsed := strings.Join(strings.Fields(query), " ")
	return cases.Fold().String(collapsed)
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}
