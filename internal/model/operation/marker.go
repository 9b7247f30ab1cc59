package operation

import (
	"encoding/json"

	"github.com/dshills/docmodel/internal/model/tree"
)

// Marker sets, moves or removes a named marker. A nil NewRange removes the
// marker, a nil OldRange means it did not exist.
type Marker struct {
	base

	Name        string
	OldRange    *tree.Range
	NewRange    *tree.Range
	AffectsData bool
}

// NewMarker creates a marker operation. The ranges are copied.
func NewMarker(name string, oldRange, newRange *tree.Range, affectsData bool, baseVersion int) *Marker {
	return &Marker{
		base:        base{baseVersion: baseVersion},
		Name:        name,
		OldRange:    cloneRange(oldRange),
		NewRange:    cloneRange(newRange),
		AffectsData: affectsData,
	}
}

// Kind returns KindMarker.
func (op *Marker) Kind() Kind { return KindMarker }

// Type returns "marker".
func (op *Marker) Type() string { return "marker" }

// Clone returns a deep copy.
func (op *Marker) Clone() Operation {
	c := *op
	c.OldRange = cloneRange(op.OldRange)
	c.NewRange = cloneRange(op.NewRange)
	return &c
}

// Validate checks the new range.
func (op *Marker) Validate() error {
	if op.Name == "" {
		return invalid(op, "marker name is empty")
	}
	if op.NewRange != nil {
		if err := op.NewRange.Validate(); err != nil {
			return invalidCause(op, err, "new range")
		}
	}
	return nil
}

// Execute updates the marker collection.
func (op *Marker) Execute(markers MarkerApplier) error {
	if markers == nil {
		return invalid(op, "no marker collection")
	}
	if op.NewRange == nil {
		markers.RemoveMarker(op.Name)
		return nil
	}
	markers.SetMarker(op.Name, *op.NewRange, op.AffectsData)
	return nil
}

// Reversed restores the old range.
func (op *Marker) Reversed(*tree.RootElement) Operation {
	return NewMarker(op.Name, op.NewRange, op.OldRange, op.AffectsData, op.baseVersion+1)
}

type markerJSON struct {
	Type        string          `json:"type"`
	BaseVersion int             `json:"baseVersion"`
	Name        string          `json:"name"`
	OldRange    *tree.RangeJSON `json:"oldRange"`
	NewRange    *tree.RangeJSON `json:"newRange"`
	AffectsData bool            `json:"affectsData"`
}

func rangeJSON(r *tree.Range) *tree.RangeJSON {
	if r == nil {
		return nil
	}
	j := r.ToJSON()
	return &j
}

// MarshalJSON implements json.Marshaler.
func (op *Marker) MarshalJSON() ([]byte, error) {
	return json.Marshal(markerJSON{
		Type:        op.Type(),
		BaseVersion: op.baseVersion,
		Name:        op.Name,
		OldRange:    rangeJSON(op.OldRange),
		NewRange:    rangeJSON(op.NewRange),
		AffectsData: op.AffectsData,
	})
}

func decodeRange(j *tree.RangeJSON, roots tree.RootResolver) (*tree.Range, error) {
	if j == nil {
		return nil, nil
	}
	r, err := j.Range(roots)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (j markerJSON) decode(roots tree.RootResolver) (Operation, error) {
	oldRange, err := decodeRange(j.OldRange, roots)
	if err != nil {
		return nil, err
	}
	newRange, err := decodeRange(j.NewRange, roots)
	if err != nil {
		return nil, err
	}
	return &Marker{
		base:        base{baseVersion: j.BaseVersion},
		Name:        j.Name,
		OldRange:    oldRange,
		NewRange:    newRange,
		AffectsData: j.AffectsData,
	}, nil
}
