package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/doodle/internal/metrics"
)

// Store keeps benchmark runs on disk, one directory per run holding
// metadata.json and frames.csv.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Backend       string             `json:"backend"`
	SurfaceWidth  int                `json:"surface_width"`
	SurfaceHeight int                `json:"surface_height"`
	RenderWidth   int                `json:"render_width"`
	RenderHeight  int                `json:"render_height"`
	Palette       []float64          `json:"palette"`
	Frames        int                `json:"frames"`
	Metrics       map[string]float64 `json:"metrics"`
}

func (s *Store) Save(meta RunMetadata, frames []metrics.Frame) (string, error) {
	now := time.Now()
	meta.ID = fmt.Sprintf("bench_%d_%s", now.Unix(), uuid.NewString()[:8])
	meta.Timestamp = now
	meta.Frames = len(frames)

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "frames.csv"))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write([]string{"tick", "time", "ms"}); err != nil {
		return "", err
	}
	for _, f := range frames {
		row := []string{
			strconv.FormatUint(f.Tick, 10),
			strconv.FormatFloat(f.Time, 'f', 6, 64),
			strconv.FormatFloat(float64(f.Duration)/float64(time.Millisecond), 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return meta.ID, nil
}

// List returns all readable runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadFrameTimes returns the per-frame durations of a run in milliseconds.
func (s *Store) LoadFrameTimes(runID string) ([]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, "frames.csv"))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}

	times := make([]float64, 0, len(records))
	for i := 1; i < len(records); i++ {
		if len(records[i]) < 3 {
			continue
		}
		ms, err := strconv.ParseFloat(records[i][2], 64)
		if err != nil {
			continue
		}
		times = append(times, ms)
	}
	return times, nil
}
