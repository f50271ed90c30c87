package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dnldd/transitperf/shared"
	"github.com/rodaine/table"
)

// formatTime renders the provided unix timestamp in new york time.
func formatTime(unix int64, loc *time.Location) string {
	return time.Unix(unix, 0).In(loc).Format(shared.DisplayLayout)
}

// formatValue renders a value in seconds.
func formatValue(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

// header writes the report title and summary.
func header(w io.Writer, report *shared.Report) error {
	_, err := fmt.Fprintf(w, "%s\n%d entries, %dh chunks\n\n", report.Title(), report.Entries, report.PeriodHours)
	return err
}

// Candlesticks prints the report's candlestick points.
func Candlesticks(w io.Writer, report *shared.Report) error {
	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return err
	}

	err = header(w, report)
	if err != nil {
		return err
	}

	tbl := table.New("Time", "Open", "High", "Low", "Close").WithWriter(w)
	for _, stick := range report.Candlesticks {
		tbl.AddRow(formatTime(stick.X, loc), formatValue(stick.Open()), formatValue(stick.High()),
			formatValue(stick.Low()), formatValue(stick.Close()))
	}

	tbl.Print()

	return nil
}

// Averages prints the report's average points alongside their benchmarks when available.
func Averages(w io.Writer, report *shared.Report) error {
	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return err
	}

	err = header(w, report)
	if err != nil {
		return err
	}

	if len(report.Benchmarks) == 0 {
		tbl := table.New("Time", "Average").WithWriter(w)
		for _, avg := range report.Averages {
			tbl.AddRow(formatTime(avg.X, loc), formatValue(avg.Y))
		}

		tbl.Print()
		return nil
	}

	benchmarks := make(map[int64]float64, len(report.Benchmarks))
	for _, bench := range report.Benchmarks {
		benchmarks[bench.X] = bench.Y
	}

	tbl := table.New("Time", "Average", "Benchmark").WithWriter(w)
	for _, avg := range report.Averages {
		bench := "-"
		value, ok := benchmarks[avg.X]
		if ok {
			bench = formatValue(value)
		}

		tbl.AddRow(formatTime(avg.X, loc), formatValue(avg.Y), bench)
	}

	tbl.Print()

	return nil
}

// Stops prints a station listing.
func Stops(w io.Writer, stops []*shared.Stop) {
	tbl := table.New("Station", "Routes", "Stop IDs").WithWriter(w)
	for _, stop := range stops {
		routes := make([]string, 0, len(stop.RouteIDs))
		for _, id := range shared.RouteIDs() {
			if stop.HasRoute(id) {
				routes = append(routes, id.String())
			}
		}

		tbl.AddRow(stop.Name, strings.Join(routes, ","), strings.Join(stop.IDs, ","))
	}

	tbl.Print()
}

// Reports prints a listing of archived reports.
func Reports(w io.Writer, reports []*shared.Report) error {
	_, loc, err := shared.NewYorkTime()
	if err != nil {
		return err
	}

	tbl := table.New("Created", "Report", "Entries", "Period").WithWriter(w)
	for _, report := range reports {
		tbl.AddRow(formatTime(report.CreatedOn.Unix(), loc), report.Title(), report.Entries,
			fmt.Sprintf("%dh", report.PeriodHours))
	}

	tbl.Print()

	return nil
}
