package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/klauspost/compress/gzip"

	"github.com/mkrogh/shopfloor/config"
)

// OutputManager owns the run's output directory. Per-tick records go to a
// gzip-compressed CSV; the heatmap, summary, and perf samples are plain CSV
// written at flush time.
type OutputManager struct {
	dir string

	ticksFile *os.File
	ticksGzip *gzip.Writer
	perfFile  *os.File

	ticksHeaderWritten bool
	perfHeaderWritten  bool
}

// NewOutputManager creates the output directory and opens the per-tick
// stream. Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir}

	f, err := os.Create(filepath.Join(dir, "ticks.csv.gz"))
	if err != nil {
		return nil, fmt.Errorf("creating ticks.csv.gz: %w", err)
	}
	om.ticksFile = f
	om.ticksGzip = gzip.NewWriter(f)

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.ticksFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// WriteConfig saves the effective configuration next to the data.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteTicks appends one tick's agent records to the compressed stream.
func (om *OutputManager) WriteTicks(records []TickRecord) error {
	if om == nil || len(records) == 0 {
		return nil
	}

	if !om.ticksHeaderWritten {
		if err := gocsv.Marshal(records, om.ticksGzip); err != nil {
			return fmt.Errorf("writing ticks: %w", err)
		}
		om.ticksHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.ticksGzip); err != nil {
		return fmt.Errorf("writing ticks: %w", err)
	}
	return nil
}

// WritePerf appends one phase-timing sample to perf.csv.
func (om *OutputManager) WritePerf(rec PerfRecord) error {
	if om == nil {
		return nil
	}

	records := []PerfRecord{rec}
	if !om.perfHeaderWritten {
		if err := gocsv.Marshal(records, om.perfFile); err != nil {
			return fmt.Errorf("writing perf: %w", err)
		}
		om.perfHeaderWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, om.perfFile); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// WriteHeatmap writes the presence heatmap as heatmap.csv.
func (om *OutputManager) WriteHeatmap(h *Heatmap) error {
	if om == nil || h == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(om.dir, "heatmap.csv"))
	if err != nil {
		return fmt.Errorf("creating heatmap.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal(h.Cells(), f); err != nil {
		return fmt.Errorf("writing heatmap: %w", err)
	}
	return nil
}

// WriteSummary writes the end-of-run summary as summary.csv.
func (om *OutputManager) WriteSummary(s RunSummary) error {
	if om == nil {
		return nil
	}

	f, err := os.Create(filepath.Join(om.dir, "summary.csv"))
	if err != nil {
		return fmt.Errorf("creating summary.csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.Marshal([]RunSummary{s}, f); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes the compressed stream and closes all files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	if om.ticksGzip != nil {
		if err := om.ticksGzip.Close(); err != nil {
			firstErr = err
		}
	}
	if om.ticksFile != nil {
		if err := om.ticksFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if om.perfFile != nil {
		if err := om.perfFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
