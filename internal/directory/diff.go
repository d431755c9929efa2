package directory

import "github.com/pboxnet/boxdir/util/slicest"

// Diff computes the delta that converges current to desired:
// toAdd = desired - current, toRemove = current - desired.
//
// Membership is exact equality; no normalization is applied. Duplicates
// within either input collapse to a single element. Output preserves first
// appearance order of the originating slice, which keeps reconciliation
// writes deterministic.
func Diff[T comparable](current, desired []T) (toAdd, toRemove []T) {
	currentSet := slicest.ToMap(current, member)
	desiredSet := slicest.ToMap(desired, member)

	seen := make(map[T]struct{}, len(desired))
	for _, d := range desired {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		if _, ok := currentSet[d]; !ok {
			toAdd = append(toAdd, d)
		}
	}

	seen = make(map[T]struct{}, len(current))
	for _, c := range current {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := desiredSet[c]; !ok {
			toRemove = append(toRemove, c)
		}
	}
	return toAdd, toRemove
}

func member[T comparable](t T) (T, struct{}) {
	return t, struct{}{}
}
