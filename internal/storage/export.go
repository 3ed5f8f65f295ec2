package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/san-kum/atomsim/internal/world"
)

// jsonFloat encodes non-finite values as null.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type ExportData struct {
	Run     RunMetadata   `json:"run"`
	Columns []string      `json:"columns"`
	Rows    [][]jsonFloat `json:"rows"`
}

func NewExportData(meta RunMetadata, samples []world.Sample) ExportData {
	data := ExportData{
		Run:     meta,
		Columns: Columns,
		Rows:    make([][]jsonFloat, len(samples)),
	}
	data.Run.Metrics = finite(meta.Metrics)
	for i, s := range samples {
		data.Rows[i] = []jsonFloat{
			jsonFloat(s.Iteration), jsonFloat(s.Time), jsonFloat(s.Atoms),
			jsonFloat(s.Temperature), jsonFloat(s.Pressure), jsonFloat(s.Area),
			jsonFloat(s.Density), jsonFloat(s.Energy), jsonFloat(s.PistonY),
		}
	}
	return data
}

func ExportJSON(path string, meta RunMetadata, samples []world.Sample) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, meta, samples)
}

func WriteJSON(w io.Writer, meta RunMetadata, samples []world.Sample) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewExportData(meta, samples))
}
