package engine

import (
	"context"
	"runtime"
	"sort"

	"github.com/paulmach/orb"
	"github.com/uber/h3-go/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hexymap/hexy/src/project_types"
)

const (
	DefaultResolution         = 9
	DefaultCentroidResolution = 5
)

type Options struct {
	Resolution         int
	CentroidResolution int
	Workers            int
}

func DefaultOptions() Options {
	return Options{
		Resolution:         DefaultResolution,
		CentroidResolution: DefaultCentroidResolution,
		Workers:            runtime.NumCPU(),
	}
}

func toCell(p orb.Point, resolution int) h3.Cell {
	return h3.LatLngToCell(h3.NewLatLng(p.Lat(), p.Lon()), resolution)
}

// TrackCells returns every cell the track passes through, in order, with
// consecutive duplicates removed. Gaps between fixes are filled with the
// grid path between their cells.
func TrackCells(track orb.LineString, resolution int) []h3.Cell {
	cells := []h3.Cell{}
	var prev h3.Cell
	for i, p := range track {
		cell := toCell(p, resolution)
		if i == 0 {
			cells = append(cells, cell)
			prev = cell
			continue
		}
		if cell == prev {
			continue
		}
		path := prev.GridPath(cell)
		filled := false
		for _, step := range path {
			// path includes both ends; the start is already in
			if step == prev || !step.IsValid() {
				continue
			}
			cells = append(cells, step)
			filled = true
		}
		if !filled || cells[len(cells)-1] != cell {
			// no path (pentagon distortion or a very long jump)
			cells = append(cells, cell)
		}
		prev = cell
	}
	return cells
}

// hasTrack reports whether the activity has a line to draw. A lone fix is
// GPS noise from a paused recording and is left off the map.
func hasTrack(a project_types.Activity) bool { return len(a.Track) >= 2 }

// PolyfillAll collects the cells of every track, de-duplicated and sorted.
// Tracks are converted on up to opts.Workers goroutines.
func PolyfillAll(ctx context.Context, activities []project_types.Activity, opts Options) ([]h3.Cell, error) {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	perActivity := make([][]h3.Cell, len(activities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range activities {
		if !hasTrack(activities[i]) {
			continue
		}
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perActivity[i] = TrackCells(activities[i].Track, opts.Resolution)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[h3.Cell]bool{}
	all := []h3.Cell{}
	for _, cells := range perActivity {
		for _, c := range cells {
			if !seen[c] {
				seen[c] = true
				all = append(all, c)
			}
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all, nil
}

func CellStrings(cells []h3.Cell) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.String()
	}
	return out
}

// Centroid is the center of the coarse cell holding the most track points.
// Ties go to the lower cell index. Tracks of fewer than two points are
// ignored, the same as on the map. Nil when nothing has a track.
func Centroid(activities []project_types.Activity, resolution int) *project_types.Point {
	counts := map[h3.Cell]int{}
	for _, a := range activities {
		if !hasTrack(a) {
			continue
		}
		for _, p := range a.Track {
			counts[toCell(p, resolution)]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	var best h3.Cell
	bestCount := 0
	for c, n := range counts {
		if n > bestCount || (n == bestCount && c < best) {
			best, bestCount = c, n
		}
	}
	ll := best.LatLng()
	return &project_types.Point{X: ll.Lng, Y: ll.Lat}
}

// Build turns decoded activities into the payload the map draws.
func Build(ctx context.Context, activities []project_types.Activity, opts Options) (*project_types.Data, error) {
	cells, err := PolyfillAll(ctx, activities, opts)
	if err != nil {
		return nil, err
	}
	fc, err := ActivitiesGeoJSON(activities)
	if err != nil {
		return nil, err
	}
	return &project_types.Data{
		Activities: fc,
		Cells:      CellStrings(cells),
		Hexes:      HexesGeoJSON(cells),
		Centroid:   Centroid(activities, opts.CentroidResolution),
	}, nil
}
