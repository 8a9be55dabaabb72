// track-report renders an HTML report for a stored track: the track map
// with sector coloring and racing-line overlay, plus speed and elevation
// profiles.
//
// Usage:
//
//	track-report -db trackline.db -track <id> -out report.html
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/apexdata/trackline/internal/raceline"
	"github.com/apexdata/trackline/internal/track"
	"github.com/apexdata/trackline/internal/trackdb"
	"github.com/apexdata/trackline/internal/units"
	"github.com/apexdata/trackline/internal/version"
)

var (
	dbPath  = flag.String("db", "trackline.db", "Path to the sqlite track store")
	trackID = flag.String("track", "", "Track id to report on")
	outPath = flag.String("out", "report.html", "Output HTML file")
	speedIn = flag.String("speed-units", units.KPH, "Speed units for the profile chart (mps, mph, kph)")
)

func main() {
	flag.Parse()
	if *trackID == "" {
		log.Fatal("track id is required (-track)")
	}
	if !units.IsValid(*speedIn) {
		log.Fatalf("invalid speed units %q (valid: %s)", *speedIn, units.GetValidUnitsString())
	}

	db, err := trackdb.Open(*dbPath)
	if err != nil {
		log.Fatalf("open track store: %v", err)
	}
	defer db.Close()

	model, err := db.GetTrack(*trackID)
	if err != nil {
		log.Fatalf("load track: %v", err)
	}
	line, err := db.GetLine(*trackID)
	if err != nil {
		log.Printf("no stored optimal line for %s, map only: %v", *trackID, err)
		line = nil
	}

	page := components.NewPage()
	page.SetPageTitle(fmt.Sprintf("trackline report: %s", model.Name))
	page.AddCharts(trackMapChart(model, line), elevationChart(model))
	if line != nil {
		page.AddCharts(speedChart(line, *speedIn), curvatureChart(line))
	}

	f, err := os.Create(*outPath)
	if err != nil {
		log.Fatalf("create output: %v", err)
	}
	defer f.Close()
	if err := page.Render(f); err != nil {
		log.Fatalf("render report: %v", err)
	}
	log.Printf("wrote %s (trackline %s)", *outPath, version.Version)
}

// trackMapChart plots the centerline colored by sector, the pit lanes, and
// the racing line when available.
func trackMapChart(model *track.Model, line *raceline.Result) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    model.Name,
			Subtitle: fmt.Sprintf("%.1f m, %d points", model.TotalLength, len(model.Points)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "X (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Y (m)"}),
	)

	if model.Sectors.Defined() {
		s := model.Sectors
		addRun(scatter, "sector 1", model.Points[:s.S1End+1])
		addRun(scatter, "sector 2", model.Points[s.S1End:s.S2End+1])
		addRun(scatter, "sector 3", model.Points[s.S2End:])
	} else {
		addRun(scatter, "track", model.Points)
	}
	for _, pit := range model.Pits {
		data := make([]opts.ScatterData, len(pit.Points))
		for i, p := range pit.Points {
			data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
		}
		scatter.AddSeries(fmt.Sprintf("pit %d", pit.ID), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	}
	if line != nil {
		data := make([]opts.ScatterData, len(line.Points))
		for i, p := range line.Points {
			data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
		}
		scatter.AddSeries("racing line", data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	}
	return scatter
}

func addRun(scatter *charts.Scatter, name string, points []track.SplinePoint) {
	data := make([]opts.ScatterData, len(points))
	for i, p := range points {
		data[i] = opts.ScatterData{Value: []interface{}{p.X, p.Y}}
	}
	scatter.AddSeries(name, data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
}

func elevationChart(model *track.Model) *charts.Line {
	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Elevation profile"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Elevation (m)"}),
	)
	xs := make([]string, len(model.Points))
	data := make([]opts.LineData, len(model.Points))
	for i, p := range model.Points {
		xs[i] = fmt.Sprintf("%.0f", p.Dist)
		data[i] = opts.LineData{Value: p.Z}
	}
	chart.SetXAxis(xs).AddSeries("elevation", data)
	return chart
}

func speedChart(line *raceline.Result, speedUnits string) *charts.Line {
	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Speed profile",
			Subtitle: fmt.Sprintf("lap %.2fs, grip %.2f", line.LapTime, line.Grip),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: fmt.Sprintf("Speed (%s)", speedUnits)}),
	)
	xs := make([]string, len(line.Points))
	data := make([]opts.LineData, len(line.Points))
	for i, p := range line.Points {
		xs[i] = fmt.Sprintf("%.0f", p.Dist)
		data[i] = opts.LineData{Value: units.ConvertSpeed(p.Speed, speedUnits)}
	}
	chart.SetXAxis(xs).AddSeries("speed", data)
	return chart
}

func curvatureChart(line *raceline.Result) *charts.Line {
	chart := charts.NewLine()
	chart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Racing-line curvature"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Curvature (1/m)"}),
	)
	xs := make([]string, len(line.Points))
	data := make([]opts.LineData, len(line.Points))
	for i, p := range line.Points {
		xs[i] = fmt.Sprintf("%.0f", p.Dist)
		data[i] = opts.LineData{Value: p.Curvature}
	}
	chart.SetXAxis(xs).AddSeries("curvature", data)
	return chart
}
