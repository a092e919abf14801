package watch_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
	"github.com/jonwraymond/shadowcopy/watch"
)

var fixed = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sequentialIDs() watch.Option {
	n := 0
	return watch.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func child(t *testing.T, w *shadow.Wrapper, key string) *shadow.Wrapper {
	t.Helper()
	v, err := w.Get(key)
	require.NoError(t, err)
	nw, ok := v.(*shadow.Wrapper)
	require.Truef(t, ok, "%s is %T, not a wrapper", key, v)
	return nw
}

func TestNew_ReportsNestedSet(t *testing.T) {
	raw := object.NewMap().Put("foo", object.NewMap().Put("bar", "val"))
	rec := &watch.Recorder{}
	p := watch.New(raw, "my_foo", rec.Handle, watch.WithClock(func() time.Time { return fixed }), sequentialIDs())

	ok, err := child(t, p, "foo").Set("bar", "sneak!")
	require.NoError(t, err)
	require.True(t, ok)

	changes := rec.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, watch.Change{
		ID:   "id-1",
		Name: "my_foo",
		Op:   shadow.OpSet,
		Path: []string{"foo", "bar"},
		Old:  "val",
		New:  "sneak!",
		At:   fixed,
	}, changes[0])

	foo, _ := raw.Get("foo")
	bar, _ := foo.(*object.Map).Get("bar")
	assert.Equal(t, "sneak!", bar, "mutation reaches the target")
}

func TestNew_DeleteAndDefine(t *testing.T) {
	raw := object.NewMap().Put("a", 1)
	rec := &watch.Recorder{}
	p := watch.New(raw, "doc", rec.Handle, sequentialIDs())

	ok, err := p.DefineProperty("b", object.DataDescriptor(2))
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = p.Delete("a")
	require.NoError(t, err)
	require.True(t, ok)

	changes := rec.Changes()
	require.Len(t, changes, 2)
	assert.Equal(t, shadow.OpDefineProperty, changes[0].Op)
	assert.Nil(t, changes[0].Old)
	assert.Equal(t, 2, changes[0].New)
	assert.Equal(t, shadow.OpDeleteProperty, changes[1].Op)
	assert.Equal(t, []string{"a"}, changes[1].Path)
	assert.Equal(t, 1, changes[1].Old)
	assert.Nil(t, changes[1].New)
	assert.Equal(t, "id-2", changes[1].ID)
}

func TestNew_RefusedWritesAreNotReported(t *testing.T) {
	raw := object.NewMap().Put("a", 1).Freeze()
	rec := &watch.Recorder{}
	p := watch.New(raw, "frozen", rec.Handle)

	ok, err := p.Set("a", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, rec.Changes())
}

func TestNew_ReadsAreNotReported(t *testing.T) {
	rec := &watch.Recorder{}
	p := watch.New(object.NewMap().Put("a", object.NewMap()), "doc", rec.Handle)

	_, err := p.Get("a")
	require.NoError(t, err)
	_, err = p.Has("a")
	require.NoError(t, err)
	_, err = p.OwnKeys()
	require.NoError(t, err)
	assert.Empty(t, rec.Changes())
}

func TestNew_WrapperOptions(t *testing.T) {
	rec := &watch.Recorder{}
	p := watch.New(object.NewMap(), "doc", rec.Handle, watch.WithWrapperOptions(shadow.WithPath("root")))

	_, err := p.Set("k", "v")
	require.NoError(t, err)
	require.Len(t, rec.Changes(), 1)
	assert.Equal(t, []string{"root", "k"}, rec.Changes()[0].Path)
}

func TestNew_DefaultIDsAreUUIDs(t *testing.T) {
	rec := &watch.Recorder{}
	p := watch.New(object.NewMap(), "doc", rec.Handle)

	_, _ = p.Set("a", 1)
	_, _ = p.Set("b", 2)

	changes := rec.Changes()
	require.Len(t, changes, 2)
	assert.Len(t, changes[0].ID, 36)
	assert.NotEqual(t, changes[0].ID, changes[1].ID)
	assert.False(t, changes[0].At.IsZero())
}

func TestNew_NilHandler(t *testing.T) {
	p := watch.New(object.NewMap(), "doc", nil)
	ok, err := p.Set("a", 1)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChain_RunsNextSlots(t *testing.T) {
	rejected := errors.New("rejected")
	next := shadow.TrapSet{
		Set: func(_ *shadow.Invocation, target object.Object, key string, value any) (bool, error) {
			if key == "locked" {
				return false, rejected
			}
			return target.Set(key, value)
		},
	}
	rec := &watch.Recorder{}
	p := shadow.New(object.NewMap(), watch.Chain(next, "doc", rec.Handle))

	_, err := p.Set("locked", 1)
	assert.ErrorIs(t, err, rejected)
	_, err = p.Set("open", 1)
	require.NoError(t, err)

	changes := rec.Changes()
	require.Len(t, changes, 1)
	assert.Equal(t, []string{"open"}, changes[0].Path)
}

func TestTraps_DefinesOnlyMutations(t *testing.T) {
	traps := watch.Traps("doc", nil)
	assert.Equal(t, []shadow.Op{shadow.OpSet, shadow.OpDeleteProperty, shadow.OpDefineProperty}, traps.Ops())
}

func TestRecorder_ConcurrentAndReset(t *testing.T) {
	rec := &watch.Recorder{}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec.Handle(watch.Change{ID: fmt.Sprintf("id-%d", i)})
		}(i)
	}
	wg.Wait()
	assert.Len(t, rec.Changes(), 20)

	snapshot := rec.Changes()
	rec.Reset()
	assert.Empty(t, rec.Changes())
	assert.Len(t, snapshot, 20, "Changes returns a copy")
}

func TestChange_JSON(t *testing.T) {
	c := watch.Change{ID: "x", Name: "doc", Op: shadow.OpDeleteProperty, Path: []string{"a"}, Old: 1, At: fixed}

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","name":"doc","op":"deleteProperty","path":["a"],"old":1,"new":null,"at":"2024-05-01T12:00:00Z"}`, string(data))

	var back watch.Change
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, shadow.OpDeleteProperty, back.Op)
}
