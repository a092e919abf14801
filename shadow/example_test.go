package shadow_test

import (
	"fmt"
	"strings"

	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

func ExampleNew() {
	doc := object.NewMap().Put("foo", object.NewMap().Put("bar", "val"))

	p := shadow.New(doc, shadow.TrapSet{
		Set: func(inv *shadow.Invocation, target object.Object, key string, value any) (bool, error) {
			fmt.Printf("set %s = %v\n", strings.Join(inv.Path(), "."), value)
			return target.Set(key, value)
		},
	})

	foo, _ := p.Get("foo")
	_, _ = foo.(object.Object).Set("bar", "sneak!")

	v, _ := foo.(object.Object).Get("bar")
	fmt.Println(v)
	// Output:
	// set foo.bar = sneak!
	// sneak!
}

func ExampleInvocation_Nest() {
	db := shadow.New(object.NewMap(), shadow.TrapSet{
		Get: func(inv *shadow.Invocation, _ object.Object, _ string) (any, error) {
			return inv.Nest(object.NewFunc(nil)), nil
		},
		Apply: func(inv *shadow.Invocation, _ object.Object, _ any, args []any) (any, error) {
			return fmt.Sprintf("%s(%v)", strings.Join(inv.Path(), "."), args[0]), nil
		},
	})

	sel, _ := db.Get("select")
	from, _ := sel.(object.Object).Get("from")
	where, _ := from.(object.Object).Get("where")
	out, _ := where.(object.Callable).Call(nil, []any{"a === b"})
	fmt.Println(out)
	// Output:
	// select.from.where(a === b)
}
