package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/shadowcopy/object"
)

func TestParse_KeepsKeyOrder(t *testing.T) {
	m, err := Parse([]byte(`
zeta: 1
alpha:
  inner: true
  list: [1, two, {k: v}]
mid: ~
`))
	require.NoError(t, err)

	keys, _ := m.OwnKeys()
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, keys)

	zeta, _ := m.Get("zeta")
	assert.Equal(t, 1, zeta)

	alpha, _ := m.Get("alpha")
	require.IsType(t, &object.Map{}, alpha)
	inner, _ := alpha.(*object.Map).Get("inner")
	assert.Equal(t, true, inner)

	list, _ := alpha.(*object.Map).Get("list")
	require.IsType(t, []any{}, list)
	items := list.([]any)
	require.Len(t, items, 3)
	assert.Equal(t, "two", items[1])
	assert.IsType(t, &object.Map{}, items[2])

	has, _ := m.Has("mid")
	assert.True(t, has)
	mid, _ := m.Get("mid")
	assert.Nil(t, mid)
}

func TestParse_JSON(t *testing.T) {
	m, err := Parse([]byte(`{"b": {"c": 2.5}, "a": "x"}`))
	require.NoError(t, err)

	keys, _ := m.OwnKeys()
	assert.Equal(t, []string{"b", "a"}, keys)
	b, _ := m.Get("b")
	c, _ := b.(*object.Map).Get("c")
	assert.Equal(t, 2.5, c)
}

func TestParse_Aliases(t *testing.T) {
	m, err := Parse([]byte("base: &b {x: 1}\ncopy: *b\n"))
	require.NoError(t, err)

	cp, _ := m.Get("copy")
	require.IsType(t, &object.Map{}, cp)
	x, _ := cp.(*object.Map).Get("x")
	assert.Equal(t, 1, x)
}

func TestParse_SelfReferencingAnchor(t *testing.T) {
	for _, text := range []string{
		"a: &x\n  b: *x\n",
		"a: &x [1, *x]\n",
		"a: &x\n  b:\n    c: [*x]\n",
	} {
		_, err := Parse([]byte(text))
		assert.ErrorIs(t, err, ErrAliasCycle, text)
	}

	_, err := ParseValue("&x [*x]")
	assert.ErrorIs(t, err, ErrAliasCycle)
}

func TestParse_RepeatedAliasIsNotACycle(t *testing.T) {
	m, err := Parse([]byte("base: &b {x: 1}\nlist: [*b, *b]\nnested: {y: *b}\n"))
	require.NoError(t, err)

	list, _ := m.Get("list")
	assert.Len(t, list, 2)
}

func TestParse_ExpansionLimit(t *testing.T) {
	laughs := `a: &a ["lol", "lol", "lol", "lol", "lol", "lol", "lol", "lol", "lol"]
b: &b [*a, *a, *a, *a, *a, *a, *a, *a, *a]
c: &c [*b, *b, *b, *b, *b, *b, *b, *b, *b]
d: &d [*c, *c, *c, *c, *c, *c, *c, *c, *c]
e: &e [*d, *d, *d, *d, *d, *d, *d, *d, *d]
f: &f [*e, *e, *e, *e, *e, *e, *e, *e, *e]
g: &g [*f, *f, *f, *f, *f, *f, *f, *f, *f]
h: &h [*g, *g, *g, *g, *g, *g, *g, *g, *g]
i: &i [*h, *h, *h, *h, *h, *h, *h, *h, *h]
`
	_, err := Parse([]byte(laughs), WithMaxNodes(10000))
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = Parse([]byte("a: [1, 2, 3]\n"), WithMaxNodes(4))
	assert.ErrorIs(t, err, ErrTooLarge, "document, root mapping, sequence and three scalars")

	_, err = Parse([]byte("a: [1, 2, 3]\n"), WithMaxNodes(6))
	assert.NoError(t, err)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte("- a\n- b\n"))
	assert.ErrorIs(t, err, ErrNotMapping)

	_, err = Parse([]byte("scalar"))
	assert.ErrorIs(t, err, ErrNotMapping)

	_, err = Parse([]byte("a: [unterminated"))
	assert.Error(t, err)

	m, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		text string
		want any
	}{
		{"3", 3},
		{"true", true},
		{"hello", "hello"},
		{`"3"`, "3"},
		{"[1, 2]", []any{1, 2}},
		{"", nil},
	}
	for _, tt := range tests {
		got, err := ParseValue(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.want, got, tt.text)
	}

	obj, err := ParseValue("{a: 1}")
	require.NoError(t, err)
	assert.IsType(t, &object.Map{}, obj)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	a, _ := m.Get("a")
	assert.Equal(t, 1, a)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func fakeEnv(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestParse_WithEnv(t *testing.T) {
	env := fakeEnv(map[string]string{"HOST": "db.local", "PORT": "5432"})

	m, err := Parse([]byte(`
dsn: "postgres://${HOST}:$PORT/app"
price: "$$5"
port: 5432
nested:
  list: ["${HOST}"]
`), WithEnv(env))
	require.NoError(t, err)

	dsn, _ := m.Get("dsn")
	assert.Equal(t, "postgres://db.local:5432/app", dsn)
	price, _ := m.Get("price")
	assert.Equal(t, "$5", price)
	port, _ := m.Get("port")
	assert.Equal(t, 5432, port)
	nested, _ := m.Get("nested")
	list, _ := nested.(*object.Map).Get("list")
	assert.Equal(t, []any{"db.local"}, list)
}

func TestParse_WithEnvMissing(t *testing.T) {
	_, err := Parse([]byte("a: ${ZED}-${ALPHA}-${ZED}\n"), WithEnv(fakeEnv(nil)))
	require.ErrorIs(t, err, ErrMissingEnv)
	assert.Contains(t, err.Error(), "ALPHA, ZED")
}

func TestParse_WithoutEnvKeepsText(t *testing.T) {
	m, err := Parse([]byte("a: ${HOME}\n"))
	require.NoError(t, err)
	a, _ := m.Get("a")
	assert.Equal(t, "${HOME}", a)
}

func TestParseValue_WithEnv(t *testing.T) {
	v, err := ParseValue("${NAME}", WithEnv(fakeEnv(map[string]string{"NAME": "ann"})))
	require.NoError(t, err)
	assert.Equal(t, "ann", v)
}
