package eji

import (
	"encoding/json"
	"fmt"
)

// Direction classifies how a metric moved between two years. Higher values
// mean more burden, so a rise is a worsening.
type Direction int

const (
	Unchanged Direction = iota
	Worsened
	Improved
	Incomparable
)

var directionNames = [...]string{"unchanged", "worsened", "improved", "incomparable"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Discrepancy colors.
const (
	WorsenedColor     = "red"
	ImprovedColor     = "green"
	IncomparableColor = "white"
)

// Discrepancy is the change in one metric between a baseline and another year.
// Delta is always the non-negative magnitude.
type Discrepancy struct {
	Metric    MetricID  `json:"metric"`
	Baseline  Value     `json:"baseline"`
	Other     Value     `json:"other"`
	Delta     float64   `json:"delta"`
	Direction Direction `json:"direction"`
}

// CompareValues applies the discrepancy rules to a single metric.
func CompareValues(m MetricID, baseline, other Value) Discrepancy {
	d := Discrepancy{Metric: m, Baseline: baseline, Other: other}
	switch {
	case !baseline.Valid || !other.Valid:
		d.Direction = Incomparable
	case baseline.Float64 < other.Float64:
		d.Direction = Worsened
		d.Delta = other.Float64 - baseline.Float64
	case other.Float64 < baseline.Float64:
		d.Direction = Improved
		d.Delta = baseline.Float64 - other.Float64
	default:
		d.Direction = Unchanged
	}
	return d
}

// Compare computes a discrepancy for every metric, in the order given.
func Compare(baseline, other map[MetricID]Value, metrics []MetricID) []Discrepancy {
	out := make([]Discrepancy, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, CompareValues(m, baseline[m], other[m]))
	}
	return out
}

// CompareRows compares two GeoRows over metrics.
func CompareRows(baseline, other GeoRow, metrics []MetricID) []Discrepancy {
	return Compare(baseline.Values, other.Values, metrics)
}

// WorsenedIncrement is the segment stacked on the baseline bar.
func (d Discrepancy) WorsenedIncrement() float64 {
	if d.Direction == Worsened {
		return d.Delta
	}
	return 0
}

// ImprovedIncrement is the segment stacked on the other year's bar.
func (d Discrepancy) ImprovedIncrement() float64 {
	if d.Direction == Improved {
		return d.Delta
	}
	return 0
}

// Signed is other minus baseline: negative is an improvement.
func (d Discrepancy) Signed() float64 {
	switch d.Direction {
	case Worsened:
		return d.Delta
	case Improved:
		return -d.Delta
	default:
		return 0
	}
}

// Color is the indicator color for the direction.
func (d Discrepancy) Color() string {
	switch d.Direction {
	case Worsened:
		return WorsenedColor
	case Improved:
		return ImprovedColor
	default:
		return IncomparableColor
	}
}
