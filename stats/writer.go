package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type ThroughputRecord struct {
	Game     string
	Workers  int
	Duration time.Duration
	Playouts int64
	Moves    int64
	Snapshot Snapshot
}

// PlayoutsPerSecond is the rate across all workers.
func (r ThroughputRecord) PlayoutsPerSecond() float64 {
	if r.Duration <= 0 {
		return 0
	}
	return float64(r.Playouts) / r.Duration.Seconds()
}

type MatchRecord struct {
	ID        int
	Game      string
	Agents    []string
	Goals     []int
	Moves     int
	StartTime time.Time
	Duration  time.Duration
}

type LatchRecord struct {
	Game     string
	Base     string
	Polarity bool
	Goal     string
	Value    bool
}

type Writer struct {
	baseDir string
}

// NewWriter creates a directory under root named by the current time.
func NewWriter(root string) (*Writer, error) {
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(root, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteThroughput(records []ThroughputRecord) error {
	header := []string{"game", "workers", "duration", "playouts", "moves", "playouts_per_second",
		"writes", "noop_writes", "dirty_marks", "recomputes"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Game,
			strconv.Itoa(r.Workers),
			r.Duration.String(),
			strconv.FormatInt(r.Playouts, 10),
			strconv.FormatInt(r.Moves, 10),
			strconv.FormatFloat(r.PlayoutsPerSecond(), 'f', 1, 64),
			strconv.FormatInt(r.Snapshot.Get(Writes), 10),
			strconv.FormatInt(r.Snapshot.Get(NoopWrites), 10),
			strconv.FormatInt(r.Snapshot.Get(DirtyMarks), 10),
			strconv.FormatInt(r.Snapshot.Get(Recomputes), 10),
		})
	}
	return w.write("throughput.csv", header, rows)
}

func (w *Writer) WriteMatches(records []MatchRecord) error {
	header := []string{"id", "game", "agents", "goals", "moves", "start_time", "duration"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		goals := make([]string, len(r.Goals))
		for i, g := range r.Goals {
			goals[i] = strconv.Itoa(g)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.ID),
			r.Game,
			strings.Join(r.Agents, " "),
			strings.Join(goals, " "),
			strconv.Itoa(r.Moves),
			r.StartTime.Format(time.RFC3339),
			r.Duration.String(),
		})
	}
	return w.write("matches.csv", header, rows)
}

func (w *Writer) WriteLatches(records []LatchRecord) error {
	header := []string{"game", "base", "polarity", "goal", "value"}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Game,
			r.Base,
			strconv.FormatBool(r.Polarity),
			r.Goal,
			strconv.FormatBool(r.Value),
		})
	}
	return w.write("latches.csv", header, rows)
}

func (w *Writer) write(name string, header []string, rows [][]string) error {
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", name, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", name, err)
	}
	return nil
}
