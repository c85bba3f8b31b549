package query

import (
	"math"

	"github.com/shelfwise/bookstore/internal/store"
	"github.com/shelfwise/bookstore/internal/utils"
)

const (
	DefaultLimit int64 = 10
	DefaultPage  int64 = 1
)

// BuildListQuery turns the raw limit, page and keyword query-string values
// into a store query. Missing, non-numeric or non-positive numbers fall back
// to the defaults; skip is limit*(page-1), saturating at math.MaxInt64 so an
// enormous page lands past the end of the collection.
func BuildListQuery(limit, page, keyword string) store.BookQuery {
	l := utils.ParsePositiveInt(limit, DefaultLimit)
	p := utils.ParsePositiveInt(page, DefaultPage)
	return store.BookQuery{
		TitleContains: keyword,
		Sort:          store.SortTitleAsc,
		Limit:         l,
		Skip:          skipFor(l, p),
	}
}

func skipFor(limit, page int64) int64 {
	if page-1 > math.MaxInt64/limit {
		return math.MaxInt64
	}
	return limit * (page - 1)
}
