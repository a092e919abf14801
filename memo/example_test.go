package memo_test

import (
	"fmt"

	"github.com/jonwraymond/shadowcopy/memo"
	"github.com/jonwraymond/shadowcopy/object"
	"github.com/jonwraymond/shadowcopy/shadow"
)

func ExampleMemoizer_Wrap() {
	calls := 0
	lookup := object.NewFunc(func(_ any, args []any) (any, error) {
		calls++
		return fmt.Sprintf("user-%v", args[0]), nil
	})

	m, _ := memo.New(memo.NewMemoryCache())
	root := shadow.New(object.NewMap().Put("lookup", lookup), m.Wrap(shadow.TrapSet{}))

	fn, _ := root.Get("lookup")
	a, _ := fn.(*shadow.Wrapper).Call(nil, []any{7})
	b, _ := fn.(*shadow.Wrapper).Call(nil, []any{7})
	fmt.Println(a, b, calls)
	// Output:
	// user-7 user-7 1
}
