package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/plus3/blocks/game"
	"github.com/plus3/blocks/loop"
	"github.com/plus3/blocks/shape"
)

// GameResult is what one goroutine hands back after its game ends.
type GameResult struct {
	Frames      int64
	GameOver    bool
	Interrupted bool
	FrameTime   Stats
	Stats       *game.Stats
	Scheduler   *loop.SchedulerStats
}

type Report struct {
	// Configuration
	Duration  time.Duration
	Games     int
	Parallel  int
	System    shape.System
	Seed      uint64
	Rows      int
	Cols      int
	MaxPieces int
	Shapes    []shape.Geometry

	// Results
	Finished       int
	Interrupted    int
	TotalFrames    int64
	TotalTime      time.Duration
	FrameTime      Stats
	Systems        []loop.SystemStats
	Totals         *game.Stats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// Collect merges per-game results. It runs after every game goroutine returned.
func (r *Report) Collect(results []GameResult) {
	bySystem := make(map[string]*loop.SystemStats)
	var order []string

	for _, res := range results {
		if res.Stats == nil {
			continue
		}
		r.TotalFrames += res.Frames
		r.FrameTime.Samples = append(r.FrameTime.Samples, res.FrameTime.Samples...)
		r.Totals.Merge(res.Stats, len(r.Shapes))
		if res.GameOver {
			r.Finished++
		}
		if res.Interrupted {
			r.Interrupted++
		}

		for _, sys := range res.Scheduler.Systems {
			agg, ok := bySystem[sys.Name]
			if !ok {
				agg = &loop.SystemStats{Name: sys.Name, MinDuration: sys.MinDuration}
				bySystem[sys.Name] = agg
				order = append(order, sys.Name)
			}
			agg.ExecutionCount += sys.ExecutionCount
			agg.TotalDuration += sys.TotalDuration
			agg.MinDuration = min(agg.MinDuration, sys.MinDuration)
			agg.MaxDuration = max(agg.MaxDuration, sys.MaxDuration)
		}
	}

	r.FrameTime.Finalize()
	for _, name := range order {
		agg := bySystem[name]
		if agg.ExecutionCount > 0 {
			agg.AvgDuration = agg.TotalDuration / time.Duration(agg.ExecutionCount)
		}
		r.Systems = append(r.Systems, *agg)
	}
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# Blocks Simulation Report

## Configuration
- **Wall Clock Limit:** {{.Duration}}
- **Games:** {{.Games}} ({{.Parallel}} in parallel)
- **Rotation System:** {{.System.Name}}
- **Seed:** {{.Seed}}
- **Grid:** {{.Rows}}x{{.Cols}}
- **Max Pieces Per Game:** {{.MaxPieces}}

## Games
- **Topped Out:** {{.Finished}}
- **Interrupted:** {{.Interrupted}}
- **Pieces Locked:** {{.Totals.Locked}}
- **Lines Cleared:** {{.Totals.Lines}}
{{- range $n := clearSizes}}
  - **{{$n}} row clears:** {{$.Totals.Clears $n}}
{{- end}}

## Piece Distribution
{{- range .Shapes}}
- {{.Name}}: {{$.Totals.Spawns .ID}}
{{- end}}

## Performance Results
- **Total Frames:** {{.TotalFrames}}
- **Total Time:** {{.TotalTime}}
- **Frame Time:**
  - **Avg:** {{.FrameTime.Avg}}
  - **Min:** {{.FrameTime.Min}}
  - **Max:** {{.FrameTime.Max}}
{{- range .Systems}}
- **{{.Name}}:** avg {{.AvgDuration}}, min {{.MinDuration}}, max {{.MaxDuration}} over {{.ExecutionCount}} runs
{{- end}}

## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end) -> delta: {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{.MemStatsEnd.PauseTotalNs | ns}}
- **Num GC Cycles:** {{ usub .MemStatsEnd.NumGC .MemStatsStart.NumGC }}
{{end}}
`

	fm := template.FuncMap{
		"clearSizes": func() []int {
			sizes := make([]int, game.MaxClear)
			for i := range sizes {
				sizes[i] = i + 1
			}
			return sizes
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns uint64) string {
			return time.Duration(ns).String()
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return fmt.Errorf("parsing report template: %w", err)
	}

	return tmpl.Execute(w, r)
}
