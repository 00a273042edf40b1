package viewport

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestOffsets(t *testing.T) {
	if diff := cmp.Diff([]int{0, 10, 30, 60}, offsets([]int{10, 20, 30, 40})); diff != "" {
		t.Errorf("offsets mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, offsets(nil))
	assert.Equal(t, 100, sum([]int{10, 20, 30, 40}))
}

func TestIndexLookups(t *testing.T) {
	offs := []int{0, 10, 30, 60}

	for px, want := range map[int]int{0: 0, 9: 0, 10: 1, 11: 1, 30: 2, 31: 2, 60: 3, 61: 3, 1000: 3} {
		assert.Equal(t, want, firstIndex(offs, px), "firstIndex(%d)", px)
	}
	for px, want := range map[int]int{0: 0, 9: 0, 10: 1, 29: 1, 30: 2, 60: 3, 1000: 3} {
		assert.Equal(t, want, lastIndex(offs, px), "lastIndex(%d)", px)
	}

	assert.Equal(t, 0, firstIndex(nil, 50))
	assert.Equal(t, -1, lastIndex(nil, 50))
}
