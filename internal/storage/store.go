package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kmaitland/pgan/internal/metrics"
)

// Store persists training runs under a base directory: one directory per
// run holding metadata.json and losses.csv.
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
	ID          string             `json:"id"`
	Model       string             `json:"model"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        uint64             `json:"seed"`
	BatchSize   int                `json:"batch_size"`
	Epochs      int                `json:"epochs"`
	Hyperparams map[string]float64 `json:"hyperparams"`
	FinalLosses map[string]float64 `json:"final_losses"`
}

func (s *Store) Save(model string, seed uint64, batchSize int, hyperparams map[string]float64, hist *metrics.History) (string, error) {
	runID := fmt.Sprintf("%s_%d", model, time.Now().Unix())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	final := make(map[string]float64, len(hist.Names))
	for _, name := range hist.Names {
		final[name] = hist.Last(name)
	}

	meta := RunMetadata{
		ID:          runID,
		Model:       model,
		Timestamp:   time.Now(),
		Seed:        seed,
		BatchSize:   batchSize,
		Epochs:      hist.Len(),
		Hyperparams: hyperparams,
		FinalLosses: final,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "losses.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := append([]string{"epoch"}, hist.Names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i, row := range hist.Rows {
		rec := []string{strconv.Itoa(hist.Epochs[i])}
		for _, val := range row {
			rec = append(rec, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}

	return runID, nil
}

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

		metaPath := filepath.Join(s.baseDir, entry.Name(), "metadata.json")
		data, err := os.ReadFile(metaPath)
		if err != nil {
			continue
		}

		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		runs = append(runs, meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadHistory reads a run's loss series back from losses.csv.
func (s *Store) LoadHistory(runID string) (*metrics.History, error) {
	csvPath := filepath.Join(s.baseDir, runID, "losses.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return metrics.NewHistory(), nil
	}

	hist := metrics.NewHistory(records[0][1:]...)
	for _, rec := range records[1:] {
		if len(rec) != len(records[0]) {
			continue
		}
		epoch, err := strconv.Atoi(rec[0])
		if err != nil {
			continue
		}
		vals := make([]float64, 0, len(rec)-1)
		for _, field := range rec[1:] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				v = 0
			}
			vals = append(vals, v)
		}
		hist.Append(epoch, vals...)
	}
	return hist, nil
}
