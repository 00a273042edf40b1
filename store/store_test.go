package store_test

import (
	"testing"

	"github.com/delaneyj/tablestore/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type volumeCounts struct {
	baseArea, volume int
}

//	length  width
//	    \   /
//	   baseArea  height
//	         \   /
//	         volume
func newVolumeStore(t *testing.T, rt *store.Runtime) (*store.Store, *volumeCounts) {
	t.Helper()
	counts := &volumeCounts{}
	s, err := rt.NewStore(
		map[string]any{
			"length": 1,
			"width":  2,
			"height": 3,
		},
		map[string]store.GetterFunc{
			// declared before baseArea on purpose
			"volume": func(s *store.State, g *store.Getters) any {
				counts.volume++
				return store.As[int](s, "height") * store.As[int](g, "baseArea")
			},
			"baseArea": func(s *store.State, g *store.Getters) any {
				counts.baseArea++
				return store.As[int](s, "length") * store.As[int](s, "width")
			},
		},
	)
	require.NoError(t, err)
	return s, counts
}

func TestStoreProducesState(t *testing.T) {
	s, _ := newVolumeStore(t, store.NewRuntime())

	assert.Equal(t, 1, s.Get("length"))
	assert.Equal(t, 2, s.Get("width"))
	assert.Equal(t, 3, s.Get("height"))
	assert.Equal(t, 2, s.Get("baseArea"))
	assert.Equal(t, 6, s.Get("volume"))
	assert.Equal(t, []string{"height", "length", "width"}, s.State().Names())
	assert.Equal(t, []string{"baseArea", "volume"}, s.Getters().Names())
}

func TestStoreCascadingDeps(t *testing.T) {
	s, counts := newVolumeStore(t, store.NewRuntime())
	assert.Equal(t, 0, counts.baseArea)
	assert.Equal(t, 0, counts.volume)

	s.Getters().Get("volume")
	s.Getters().Get("volume")
	assert.Equal(t, 1, counts.baseArea)
	assert.Equal(t, 1, counts.volume)

	require.NoError(t, s.Set("length", 2))
	require.NoError(t, s.Flush())
	assert.Equal(t, 4, s.Getters().Get("baseArea"))
	assert.Equal(t, 12, s.Getters().Get("volume"))
	assert.Equal(t, 2, counts.baseArea)
	assert.Equal(t, 2, counts.volume)
	assert.Equal(t, 2, s.Getters().Evaluations("volume"))
}

func TestStoreWatchOnGetters(t *testing.T) {
	s, _ := newVolumeStore(t, store.NewRuntime())

	var seen []int
	_, err := s.Watch(func() error {
		seen = append(seen, store.As[int](s.Getters(), "volume"))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{6}, seen)

	require.NoError(t, s.Set("length", 2))
	require.NoError(t, s.Flush())
	assert.Equal(t, []int{6, 12}, seen)
}

func TestStoreSynchronousUpdatesTriggerWatchOnce(t *testing.T) {
	s, counts := newVolumeStore(t, store.NewRuntime())

	var seen []int
	_, err := s.Watch(func() error {
		seen = append(seen, store.As[int](s.Getters(), "volume"))
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, s.Set("length", 2))
	require.NoError(t, s.Set("height", 2))
	assert.Equal(t, []int{6}, seen, "nothing runs before the flush")

	require.NoError(t, s.Flush())
	assert.Equal(t, []int{6, 8}, seen)
	assert.Equal(t, 2, counts.volume)
	assert.Equal(t, 2, counts.baseArea)
}

func TestStoreGettersAreReadOnly(t *testing.T) {
	s, _ := newVolumeStore(t, store.NewRuntime())
	assert.Equal(t, 6, s.Get("volume"))

	err := s.Set("volume", 100)
	assert.ErrorIs(t, err, store.ErrReadOnly)
	assert.Equal(t, 6, s.Get("volume"))
}

func TestStoreUnknownField(t *testing.T) {
	s, _ := newVolumeStore(t, store.NewRuntime())

	assert.ErrorIs(t, s.Set("depth", 1), store.ErrUnknownField)
	assert.ErrorIs(t, s.State().Update("depth", func(old any) any { return old }), store.ErrUnknownField)

	_, ok := s.State().Lookup("depth")
	assert.False(t, ok)
	_, ok = s.Getters().Lookup("depth")
	assert.False(t, ok)

	assert.PanicsWithError(t, `store: unknown field "depth"`, func() {
		s.Get("depth")
	})
	assert.Nil(t, s.State().Node("depth"))
	assert.Nil(t, s.Getters().Node("depth"))
}

func TestStoreConstructionErrors(t *testing.T) {
	rt := store.NewRuntime()

	_, err := rt.NewStore(
		map[string]any{"a": 1},
		map[string]store.GetterFunc{
			"a": func(s *store.State, g *store.Getters) any { return 1 },
		},
	)
	assert.ErrorIs(t, err, store.ErrDuplicateName)

	_, err = rt.NewStore(nil, map[string]store.GetterFunc{"b": nil})
	assert.ErrorIs(t, err, store.ErrNilGetter)
}

func TestStoreUpdate(t *testing.T) {
	s, _ := newVolumeStore(t, store.NewRuntime())
	assert.Equal(t, 6, s.Get("volume"))

	require.NoError(t, s.State().Update("height", func(old any) any {
		return old.(int) + 1
	}))
	assert.Equal(t, 4, s.State().Peek("height"))
	assert.Equal(t, 8, s.Get("volume"))
}

func TestAs(t *testing.T) {
	rt := store.NewRuntime()
	s, err := rt.NewStore(map[string]any{
		"name":  "grid",
		"empty": nil,
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, "grid", store.As[string](s, "name"))
	assert.Equal(t, 0, store.As[int](s, "empty"))
	assert.Panics(t, func() {
		store.As[int](s, "name")
	})

	defer func() {
		r := recover()
		require.NotNil(t, r)
		assert.ErrorIs(t, r.(error), store.ErrTypeMismatch)
	}()
	store.As[float64](s.State(), "name")
}

func TestStoresShareRuntimeFlush(t *testing.T) {
	rt := store.NewRuntime()
	a, _ := newVolumeStore(t, rt)
	b, _ := newVolumeStore(t, rt)

	var runs int
	_, err := rt.Watch(func() error {
		runs++
		a.Get("volume")
		b.Get("volume")
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, a.Set("length", 5))
	require.NoError(t, b.Set("width", 5))
	assert.Equal(t, 1, rt.Pending())

	// flushing either store drains the shared runtime
	require.NoError(t, b.Flush())
	assert.Equal(t, 2, runs)
	assert.Equal(t, 0, rt.Pending())
}
