package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/finfoot/internal/dynamo"
)

// ExportData is the single-document JSON form of a run.
type ExportData struct {
	Metadata RunMetadata `json:"metadata"`
	Times    []float64   `json:"times"`
	States   [][]float64 `json:"states"`
}

// NewExport pairs meta with an in-memory trajectory.
func NewExport(meta RunMetadata, traj *dynamo.Trajectory) ExportData {
	meta.Components = Columns(traj.Layout())
	meta.Points = traj.Len()
	meta.Metrics = finite(meta.Metrics)
	data := ExportData{
		Metadata: meta,
		Times:    traj.Times(),
		States:   make([][]float64, traj.Len()),
	}
	for i := range data.States {
		data.States[i] = traj.At(i).State.RawValues()
	}
	return data
}

// ExportStored pairs stored metadata with its loaded states.
func ExportStored(meta RunMetadata, states *States) ExportData {
	return ExportData{Metadata: meta, Times: states.Times, States: states.Rows}
}

func ExportJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
