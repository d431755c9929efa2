package directory

import (
	"reflect"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name       string
		current    []string
		desired    []string
		wantAdd    []string
		wantRemove []string
	}{
		{"both empty", nil, nil, nil, nil},
		{"no change", []string{"a", "b"}, []string{"a", "b"}, nil, nil},
		{"pure addition", nil, []string{"a", "b"}, []string{"a", "b"}, nil},
		{"pure removal", []string{"a", "b"}, nil, nil, []string{"a", "b"}},
		{"swap", []string{"a"}, []string{"b"}, []string{"b"}, []string{"a"}},
		{"overlap", []string{"a", "b", "c"}, []string{"b", "c", "d"}, []string{"d"}, []string{"a"}},
		{"order independent", []string{"b", "a"}, []string{"a", "b"}, nil, nil},
		{"duplicate desired collapses", nil, []string{"a", "a", "b"}, []string{"a", "b"}, nil},
		{"duplicate current collapses", []string{"a", "a"}, nil, nil, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toAdd, toRemove := Diff(tt.current, tt.desired)
			if !reflect.DeepEqual(toAdd, tt.wantAdd) {
				t.Errorf("toAdd = %v, want %v", toAdd, tt.wantAdd)
			}
			if !reflect.DeepEqual(toRemove, tt.wantRemove) {
				t.Errorf("toRemove = %v, want %v", toRemove, tt.wantRemove)
			}
		})
	}
}

// Applying the computed delta to current must yield exactly the desired set,
// and the two halves must never overlap.
func TestDiff_DeltaConverges(t *testing.T) {
	current := []string{"k1", "k2", "k3"}
	desired := []string{"k2", "k4"}

	toAdd, toRemove := Diff(current, desired)

	inCurrent := map[string]bool{}
	for _, c := range current {
		inCurrent[c] = true
	}
	for _, a := range toAdd {
		if inCurrent[a] {
			t.Errorf("toAdd contains %q which is already current", a)
		}
	}
	for _, r := range toRemove {
		if !inCurrent[r] {
			t.Errorf("toRemove contains %q which is not current", r)
		}
	}

	result := map[string]bool{}
	for _, c := range current {
		result[c] = true
	}
	for _, r := range toRemove {
		delete(result, r)
	}
	for _, a := range toAdd {
		result[a] = true
	}
	if len(result) != len(desired) {
		t.Fatalf("applying delta gave %v, want %v", result, desired)
	}
	for _, d := range desired {
		if !result[d] {
			t.Errorf("applying delta lost %q", d)
		}
	}
}

func TestDiff_NoExactMatchNoNormalization(t *testing.T) {
	// Whitespace and case matter; "A" and "a" are different members.
	toAdd, toRemove := Diff([]string{"a"}, []string{"A"})
	if len(toAdd) != 1 || toAdd[0] != "A" {
		t.Errorf("toAdd = %v, want [A]", toAdd)
	}
	if len(toRemove) != 1 || toRemove[0] != "a" {
		t.Errorf("toRemove = %v, want [a]", toRemove)
	}
}
