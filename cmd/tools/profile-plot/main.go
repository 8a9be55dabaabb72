// profile-plot renders PNG profiles (speed and elevation against lap
// distance) for a stored track, suitable for embedding in writeups where
// the HTML report is too heavy.
//
// Usage:
//
//	profile-plot -db trackline.db -track <id> -out-dir plots/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/apexdata/trackline/internal/trackdb"
)

var (
	dbPath  = flag.String("db", "trackline.db", "Path to the sqlite track store")
	trackID = flag.String("track", "", "Track id to plot")
	outDir  = flag.String("out-dir", ".", "Directory for the PNG files")
)

func main() {
	flag.Parse()
	if *trackID == "" {
		log.Fatal("track id is required (-track)")
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
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("create output dir: %v", err)
	}

	elevPts := make(plotter.XYs, 0, len(model.Points))
	for _, p := range model.Points {
		elevPts = append(elevPts, plotter.XY{X: p.Dist, Y: p.Z})
	}
	if err := savePlot("Elevation profile", "Distance (m)", "Elevation (m)",
		elevPts, filepath.Join(*outDir, "elevation.png")); err != nil {
		log.Fatalf("elevation plot: %v", err)
	}

	line, err := db.GetLine(*trackID)
	if err != nil {
		log.Printf("no stored optimal line for %s, skipping speed plot: %v", *trackID, err)
		return
	}
	speedPts := make(plotter.XYs, 0, len(line.Points))
	for _, p := range line.Points {
		speedPts = append(speedPts, plotter.XY{X: p.Dist, Y: p.Speed})
	}
	title := fmt.Sprintf("Speed profile (lap %.2fs, grip %.2f)", line.LapTime, line.Grip)
	if err := savePlot(title, "Distance (m)", "Speed (m/s)",
		speedPts, filepath.Join(*outDir, "speed.png")); err != nil {
		log.Fatalf("speed plot: %v", err)
	}
}

func savePlot(title, xLabel, yLabel string, pts plotter.XYs, path string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	p.Add(line)
	p.Add(plotter.NewGrid())

	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return err
	}
	log.Printf("wrote %s", path)
	return nil
}
