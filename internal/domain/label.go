package domain

import "sort"

// Label is a recognized image label with its confidence in percent.
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// NormalizeLabels drops labels below minConfidence, orders the rest by
// descending confidence and keeps at most maxLabels of them. A maxLabels
// value of zero or less keeps every label above the floor. The result is
// never nil.
func NormalizeLabels(labels []Label, maxLabels int, minConfidence float64) []Label {
	out := make([]Label, 0, len(labels))
	for _, l := range labels {
		if l.Confidence >= minConfidence {
			out = append(out, l)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})

	if maxLabels > 0 && len(out) > maxLabels {
		out = out[:maxLabels]
	}
	return out
}
