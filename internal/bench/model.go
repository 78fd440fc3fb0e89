package bench

import (
	"sort"
	"time"
)

// Sample is one measurement: the per-repetition compile time and peak memory
// of a variant rendered with M repetitions at size N.
type Sample struct {
	M      int     `json:"m"`
	N      int     `json:"n"`
	Time   float64 `json:"time"`   // user CPU seconds per repetition
	Memory int64   `json:"memory"` // peak RSS bytes per repetition
}

// ResultSet is every sample of one benchmark configuration.
type ResultSet struct {
	Name       string    `json:"name"`
	Which      string    `json:"which"`
	Results    []Sample  `json:"results"`
	Baseline   *Sample   `json:"baseline,omitempty"`
	RunID      string    `json:"run_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitzero"`
}

// Results holds result sets by benchmark name, then configuration.
type Results map[string]map[string]ResultSet

// Put stores set under [set.Name][set.Which], replacing only that entry.
func (r Results) Put(set ResultSet) {
	byWhich, ok := r[set.Name]
	if !ok {
		byWhich = make(map[string]ResultSet)
		r[set.Name] = byWhich
	}
	byWhich[set.Which] = set
}

// Get returns the result set for name and which.
func (r Results) Get(name, which string) (ResultSet, bool) {
	set, ok := r[name][which]
	return set, ok
}

// Names returns the benchmark names in sorted order.
func (r Results) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Whichs returns the configurations recorded for name in sorted order.
func (r Results) Whichs(name string) []string {
	whichs := make([]string, 0, len(r[name]))
	for which := range r[name] {
		whichs = append(whichs, which)
	}
	sort.Strings(whichs)
	return whichs
}

// Len returns the number of result sets.
func (r Results) Len() int {
	n := 0
	for _, byWhich := range r {
		n += len(byWhich)
	}
	return n
}
