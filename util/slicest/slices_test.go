package slicest

import (
	"errors"
	"strconv"
	"testing"
)

func TestMap(t *testing.T) {
	got := Map([]int{1, 2, 3}, strconv.Itoa)
	want := []string{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("Map returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Map returned %v, want %v", got, want)
		}
	}
}

func TestMap_EmptyInputYieldsNonNil(t *testing.T) {
	got := Map([]string{}, func(s string) string { return s })
	if got == nil {
		t.Fatalf("Map of empty slice must return a non-nil slice")
	}
	if len(got) != 0 {
		t.Fatalf("expected empty slice, got %v", got)
	}
}

func TestMapX_Error(t *testing.T) {
	boom := errors.New("boom")
	_, err := MapX([]int{1, 2}, func(int) (int, error) { return 0, boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
}

func TestToMap(t *testing.T) {
	got := ToMap([]string{"a", "bb"}, func(s string) (string, int) { return s, len(s) })
	if len(got) != 2 || got["a"] != 1 || got["bb"] != 2 {
		t.Fatalf("ToMap returned %v", got)
	}
}
