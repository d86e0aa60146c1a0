package scraper

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/ultra-entrants/internal/history"
)

// Results grid layout: [0]link [1]place [2]first [3]last [4]city [5]state
// [6]age [7]division [8]dp [9]time ...
const (
	resultMinCells   = 10
	cellPlace        = 1
	cellResultFirst  = 2
	cellResultLast   = 3
	cellResultCity   = 4
	cellResultState  = 5
	cellResultAge    = 6
	cellDivision     = 7
	cellFinishTime   = 9
	groupHeaderIDPfx = "listghead"
)

// ParseResults extracts one year and distance of results from a rendered
// jqGrid page. Grid scaffolding rows are ignored; data rows without a numeric
// place or a name are skipped and counted. Rows come back sorted by place.
func ParseResults(r io.Reader, year int, distance string) ([]*history.Result, int, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing HTML: %w", err)
	}

	results := make([]*history.Result, 0)
	skipped := 0

	doc.Find("table#list tbody tr").Each(func(i int, row *goquery.Selection) {
		if row.HasClass("jqgfirstrow") || row.HasClass("jqgroup") {
			return
		}
		id, _ := row.Attr("id")
		if id == "" || strings.HasPrefix(id, groupHeaderIDPfx) {
			return
		}

		cells := row.Find("td")
		if cells.Length() < resultMinCells {
			skipped++
			return
		}

		res, ok := parseResultRow(cells, year, distance)
		if !ok {
			skipped++
			return
		}
		results = append(results, res)
	})

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Place < results[j].Place
	})

	return results, skipped, nil
}

func parseResultRow(cells *goquery.Selection, year int, distance string) (*history.Result, bool) {
	text := func(i int) string {
		return strings.TrimSpace(cells.Eq(i).Text())
	}

	place, err := strconv.Atoi(text(cellPlace))
	if err != nil {
		return nil, false
	}

	res := &history.Result{
		Year:      year,
		Distance:  distance,
		Place:     place,
		FirstName: text(cellResultFirst),
		LastName:  text(cellResultLast),
		City:      text(cellResultCity),
		State:     text(cellResultState),
		Division:  text(cellDivision),
		Status:    history.StatusFinished,
	}
	if !res.Valid() {
		return nil, false
	}

	if age, err := strconv.Atoi(text(cellResultAge)); err == nil {
		res.Age = &age
	}

	timeText := text(cellFinishTime)
	res.FinishTimeFormatted = timeText
	switch status := history.ParseStatus(timeText); status {
	case history.StatusDNF, history.StatusDNS, history.StatusDisqualified:
		res.Status = status
	default:
		res.FinishTimeSeconds = history.ParseFinishTime(timeText)
	}

	return res, true
}
