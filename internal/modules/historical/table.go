// Package historical holds daily price data and the contract for fetching it.
package historical

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/aristath/frontier/internal/domain"
)

// Bar is one adjusted daily close.
type Bar struct {
	Date  time.Time `json:"date" msgpack:"d"`
	Close float64   `json:"close" msgpack:"c"`
}

// Series is the daily history of one symbol.
type Series struct {
	Symbol string
	Bars   []Bar
}

// PriceTable is a date-indexed matrix of closes, one column per symbol.
// Rows[t][i] is the close of Symbols[i] on Dates[t]. Dates are ascending and
// every row carries all columns.
type PriceTable struct {
	Symbols []string
	Dates   []time.Time
	Rows    [][]float64
}

// Join inner-joins the series on calendar day (UTC). Days missing from any
// series are dropped. Columns follow the order of the arguments. When a series
// reports a day more than once the last bar wins.
func Join(series ...Series) (*PriceTable, error) {
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: no price series to join", domain.ErrData)
	}

	byDay := make([]map[time.Time]float64, len(series))
	for i, s := range series {
		closes := make(map[time.Time]float64, len(s.Bars))
		for _, bar := range s.Bars {
			closes[day(bar.Date)] = bar.Close
		}
		byDay[i] = closes
	}

	var dates []time.Time
	for d := range byDay[0] {
		inAll := true
		for _, closes := range byDay[1:] {
			if _, ok := closes[d]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	table := &PriceTable{
		Symbols: make([]string, len(series)),
		Dates:   dates,
		Rows:    make([][]float64, len(dates)),
	}
	for i, s := range series {
		table.Symbols[i] = s.Symbol
	}
	for t, d := range dates {
		row := make([]float64, len(series))
		for i := range series {
			row[i] = byDay[i][d]
		}
		table.Rows[t] = row
	}

	return table, nil
}

// Validate checks the table is usable for return computation: at least one
// column, at least two rows and strictly positive finite prices.
func (p *PriceTable) Validate() error {
	if p == nil || len(p.Symbols) == 0 {
		return fmt.Errorf("%w: price table has no columns", domain.ErrData)
	}
	if len(p.Rows) < 2 {
		return fmt.Errorf("%w: price table has %d aligned rows, need at least 2", domain.ErrData, len(p.Rows))
	}
	if len(p.Dates) != len(p.Rows) {
		return fmt.Errorf("%w: %d dates for %d rows", domain.ErrData, len(p.Dates), len(p.Rows))
	}
	for t, row := range p.Rows {
		if len(row) != len(p.Symbols) {
			return fmt.Errorf("%w: row %d has %d prices, expected %d", domain.ErrData, t, len(row), len(p.Symbols))
		}
		for i, price := range row {
			if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
				return fmt.Errorf("%w: invalid price %v for %s on %s", domain.ErrData,
					price, p.Symbols[i], p.Dates[t].Format("2006-01-02"))
			}
		}
	}
	return nil
}

// Len returns the number of aligned rows.
func (p *PriceTable) Len() int {
	return len(p.Rows)
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
