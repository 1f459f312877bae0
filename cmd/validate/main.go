// Command validate loads the province polygons, fault lines and event CSV
// through the explorer's loader, prepares the snapshot and prints an
// integrity report: row counts, undated events, events outside every
// polygon, and province names that do not line up between the CSV and the
// polygons.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -provinces data/ph_provinces.geojson \
//	  -faults data/gem_active_faults.geojson \
//	  -events "data/[POP] FINAL_merged_earthquake_data.csv"
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/quake-explorer-service/internal/adapter/source"
	"github.com/couchcryptid/quake-explorer-service/internal/config"
	"github.com/couchcryptid/quake-explorer-service/internal/domain"
	"github.com/couchcryptid/quake-explorer-service/internal/pipeline"
)

// maxListed caps the names printed per phase.
const maxListed = 20

// phase tracks the findings of one check. Only load failures are fatal.
type phase struct {
	name     string
	fatal    bool
	findings []string
}

func (p *phase) notef(format string, args ...any) {
	p.findings = append(p.findings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.findings) == 0 }

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}

	provinces := flag.String("provinces", cfg.ProvincesPath, "province polygons (.geojson, .json or .shp)")
	faults := flag.String("faults", cfg.FaultsPath, "active fault lines (.geojson, .json or .shp)")
	events := flag.String("events", cfg.EventsPath, "merged earthquake event CSV")
	matching := flag.String("name-matching", cfg.NameMatching, "province name matching: exact or canonical")
	verbose := flag.Bool("v", false, "log loader output to stderr")
	flag.Parse()

	matcher, err := domain.NewNameMatcher(*matching)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	var logOut io.Writer = io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))

	loader := source.NewLoader(source.Options{
		ProvincesPath:        *provinces,
		FaultsPath:           *faults,
		EventsPath:           *events,
		ProvinceKeyProperty:  cfg.ProvinceKeyProperty,
		FaultCatalogProperty: cfg.FaultCatalogProperty,
		FaultCatalogMatch:    cfg.FaultCatalogMatch,
	}, logger)

	src := loader.Load(context.Background())
	snap := pipeline.NewSnapshot(src, matcher, logger)

	os.Exit(run(os.Stdout, src, snap))
}

func run(w io.Writer, src domain.Sources, snap *pipeline.Snapshot) int {
	fmt.Fprintln(w, "=== Earthquake Source Integrity Validation ===")
	fmt.Fprintln(w)

	phases := []*phase{
		validateLoad(src),
		validateDates(snap),
		validateJoinCoverage(snap),
		validateNameAlignment(snap),
	}

	fatal := false
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case !p.passed() && p.fatal:
			status = fmt.Sprintf("\033[31mFAIL (%d)\033[0m", len(p.findings))
			fatal = true
		case !p.passed():
			status = fmt.Sprintf("\033[33mWARN (%d)\033[0m", len(p.findings))
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rows: %d provinces, %d faults, %d events\n", snap.Provinces.Len(), snap.Faults.Len(), snap.Events.Len())
	fmt.Fprintf(w, "Derived: %d province averages, %d population rows, %d count rows, %d years\n",
		len(snap.Map.Averages), len(snap.Map.Population), len(snap.Trends.Counts), len(snap.Trends.Overall))
	fmt.Fprintf(w, "Status: sources=%s map=%s trends=%s\n", snap.SourceStatus, snap.Map.Status, snap.Trends.Status)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, f := range p.findings {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, f)
		}
	}

	if fatal {
		fmt.Fprintln(w, "\nValidation FAILED.")
		return 1
	}
	fmt.Fprintln(w, "\nSources loaded.")
	return 0
}

func validateLoad(src domain.Sources) *phase {
	p := &phase{name: "Source load", fatal: true}
	if src.Status == domain.StatusDegraded {
		p.notef("%s: %v", src.Failed, src.Err)
	}
	return p
}

func validateDates(snap *pipeline.Snapshot) *phase {
	p := &phase{name: "Event dates"}
	undated := 0
	for _, e := range snap.Events.Rows {
		if !e.HasDate() {
			undated++
		}
	}
	if undated > 0 {
		p.notef("%d of %d events have no parseable date and are excluded from trends and bubble maps", undated, snap.Events.Len())
	}
	return p
}

func validateJoinCoverage(snap *pipeline.Snapshot) *phase {
	p := &phase{name: "Spatial join coverage"}
	if snap.Provinces.Empty() {
		return p
	}

	outside, noCoords := 0, 0
	for _, e := range snap.Events.Rows {
		if !e.HasCoords() {
			noCoords++
			continue
		}
		if !insideAny(snap.Provinces, orb.Point{e.Longitude, e.Latitude}) {
			outside++
		}
	}
	if noCoords > 0 {
		p.notef("%d events have no usable coordinates", noCoords)
	}
	if outside > 0 {
		p.notef("%d events fall outside every province polygon", outside)
	}

	joined := make(map[string]bool, len(snap.Map.Averages))
	for _, r := range snap.Map.Averages {
		joined[snap.Matcher.Key(r.Province)] = true
	}
	var empty []string
	for _, prov := range snap.Provinces.Provinces {
		if !joined[snap.Matcher.Key(prov.Name)] {
			empty = append(empty, prov.Name)
		}
	}
	if len(empty) > 0 {
		p.notef("%d polygons have no events: %s", len(empty), listed(empty))
	}
	return p
}

func validateNameAlignment(snap *pipeline.Snapshot) *phase {
	p := &phase{name: "Province name alignment"}
	if snap.Provinces.Empty() {
		return p
	}

	seen := make(map[string]bool)
	var missing []string
	for _, e := range snap.Events.Rows {
		if e.Province == "" || seen[e.Province] {
			continue
		}
		seen[e.Province] = true
		if _, ok := snap.Provinces.Lookup(e.Province, snap.Matcher); !ok {
			missing = append(missing, e.Province)
		}
	}
	if len(missing) > 0 {
		p.notef("%d CSV provinces have no polygon: %s", len(missing), listed(missing))
	}
	return p
}

func insideAny(set *domain.ProvinceSet, pt orb.Point) bool {
	for _, prov := range set.Provinces {
		if prov.Intersects(pt) {
			return true
		}
	}
	return false
}

func listed(names []string) string {
	sort.Strings(names)
	if len(names) > maxListed {
		return fmt.Sprintf("%v and %d more", names[:maxListed], len(names)-maxListed)
	}
	return fmt.Sprintf("%v", names)
}
