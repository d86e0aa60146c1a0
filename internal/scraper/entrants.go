package scraper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/ultra-entrants/internal/entrant"
)

// Entrant table layout: [0]rank [1]age rank [2]results [3]target [4]age
// [5]blank [6]first [7]last [8]city [9]state ...
const (
	entrantTableIndex = 2
	entrantMinCells   = 10
	cellAge           = 4
	cellFirst         = 6
	cellLast          = 7
	cellCity          = 8
	cellRegion        = 9
)

// ErrNoEntrantTable is returned for a page without the entrant table, such as
// a maintenance page or a changed layout
var ErrNoEntrantTable = errors.New("entrant table not found")

// ParseEntrants extracts entrants from an entrants page. Rows that are too
// short or have no name are skipped. A page without the entrant table is
// ErrNoEntrantTable; a table with no entrant rows is an empty roster.
func ParseEntrants(r io.Reader) ([]*entrant.Entrant, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	entrants := make([]*entrant.Entrant, 0)

	table := doc.Find("table").Eq(entrantTableIndex)
	if table.Length() == 0 {
		return nil, ErrNoEntrantTable
	}
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < entrantMinCells {
			return
		}

		text := func(i int) string {
			return strings.TrimSpace(cells.Eq(i).Text())
		}

		e := entrant.NewEntrant(text(cellFirst), text(cellLast), text(cellCity), text(cellRegion), text(cellAge))
		if !e.Valid() {
			return
		}
		entrants = append(entrants, e)
	})

	return entrants, nil
}
