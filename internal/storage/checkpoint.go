package storage

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"gorgonia.org/tensor"

	"github.com/kmaitland/pgan/internal/nets"
)

// paramRecord is the on-disk form of one trainable tensor.
type paramRecord struct {
	Name  string
	Shape []int
	Data  []float64
}

// CheckpointDir names the periodic snapshot directory for an epoch.
func CheckpointDir(base string, epoch int) string {
	return filepath.Join(base, fmt.Sprintf("checkpoints_%d", epoch))
}

// SaveCheckpoint writes one gob file per sub-network into dir. Each file
// holds the network's named parameters.
func SaveCheckpoint(dir string, networks map[string][]nets.Param) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for name, params := range networks {
		records := make([]paramRecord, 0, len(params))
		for _, p := range params {
			data := p.Value.Data().([]float64)
			records = append(records, paramRecord{
				Name:  p.Name,
				Shape: append([]int(nil), p.Value.Shape()...),
				Data:  append([]float64(nil), data...),
			})
		}

		f, err := os.Create(filepath.Join(dir, name+".gob"))
		if err != nil {
			return err
		}
		if err := gob.NewEncoder(f).Encode(records); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
	}
	return nil
}

// LoadCheckpoint reads every sub-network snapshot in dir, keyed by the
// file's base name.
func LoadCheckpoint(dir string) (map[string][]nets.Param, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]nets.Param)
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".gob" {
			continue
		}

		f, err := os.Open(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		var records []paramRecord
		if err := gob.NewDecoder(f).Decode(&records); err != nil {
			f.Close()
			return nil, err
		}
		f.Close()

		params := make([]nets.Param, 0, len(records))
		for _, r := range records {
			params = append(params, nets.Param{
				Name: r.Name,
				Value: tensor.New(
					tensor.WithShape(r.Shape...),
					tensor.WithBacking(append([]float64(nil), r.Data...)),
				),
			})
		}
		name := entry.Name()
		out[name[:len(name)-len(".gob")]] = params
	}
	return out, nil
}
