package solver

import (
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/chazu/topomesh/pkg/kernel"
)

// Recording is a captured solver run: the design mesh the goals select on
// and the frames the solver produced.
type Recording struct {
	Mesh   *kernel.Mesh
	Frames []Frame
}

type recordingJSON struct {
	Mesh struct {
		Positions []float32 `json:"positions"`
		Indices   []uint32  `json:"indices"`
	} `json:"mesh"`
	Frames []Frame `json:"frames"`
}

// DecodeRecording reads a recording of the form
//
//	{"mesh": {"positions": [...], "indices": [...]}, "frames": [...]}
//
// Every frame must carry a valid density field.
func DecodeRecording(r io.Reader) (*Recording, error) {
	var raw recordingJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "solver: decode recording")
	}
	if len(raw.Mesh.Positions)%3 != 0 {
		return nil, errors.Errorf("solver: %d mesh positions is not a multiple of 3", len(raw.Mesh.Positions))
	}
	for i, f := range raw.Frames {
		if err := f.Field.Validate(); err != nil {
			return nil, errors.Wrapf(err, "solver: frame %d", i)
		}
	}

	rec := &Recording{
		Mesh:   &kernel.Mesh{Vertices: raw.Mesh.Positions, Indices: raw.Mesh.Indices, PartName: "design"},
		Frames: raw.Frames,
	}
	if len(rec.Mesh.Indices) > 0 {
		rec.Mesh.RecomputeNormals()
	}
	log.Debugf("recording: %d mesh vertices, %d frames", rec.Mesh.VertexCount(), len(rec.Frames))
	return rec, nil
}

// LoadRecording decodes the recording stored at path.
func LoadRecording(path string) (*Recording, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "solver: open recording")
	}
	defer f.Close()
	return DecodeRecording(f)
}

// Stepper returns a Replay over the recorded frames.
func (r *Recording) Stepper() *Replay {
	return NewReplay(r.Frames)
}
