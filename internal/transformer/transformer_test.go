package transformer

import (
	"reflect"
	"sync/atomic"
	"testing"

	"trialinv/pkg/records"
)

/*
addColumnTransformer sets key -> value on every row and declares the column.
Used to verify mutation flows through Chain.
*/
type addColumnTransformer struct {
	key string
	val any
}

func (t addColumnTransformer) Apply(in *records.Table) *records.Table {
	in.AddColumn(t.key, records.KindString)
	for _, r := range in.Rows {
		r[t.key] = t.val
	}
	return in
}

/*
counterTransformer increments *calls whenever Apply is invoked and stamps the
call order onto each row.
*/
type counterTransformer struct {
	calls *int32
	mark  string
}

func (t counterTransformer) Apply(in *records.Table) *records.Table {
	n := atomic.AddInt32(t.calls, 1)
	for _, r := range in.Rows {
		r[t.mark] = n
	}
	return in
}

func makeTable(n int) *records.Table {
	tbl := &records.Table{Columns: []string{"id"}, Kinds: []string{records.KindInt}}
	for i := 0; i < n; i++ {
		tbl.Rows = append(tbl.Rows, records.Record{"id": int64(i)})
	}
	return tbl
}

/*
TestChainApply_CompositionOrder verifies that Chain.Apply passes the output of
each transformer to the next, in declared order.
*/
func TestChainApply_CompositionOrder(t *testing.T) {
	t.Parallel()

	c := Chain{
		addColumnTransformer{key: "a", val: "first"},
		addColumnTransformer{key: "b", val: "second"},
		addColumnTransformer{key: "a", val: "third"},
	}
	out := c.Apply(makeTable(1))

	want := records.Record{"id": int64(0), "a": "third", "b": "second"}
	if !reflect.DeepEqual(out.Rows[0], want) {
		t.Fatalf("composition mismatch:\n got: %#v\nwant: %#v", out.Rows[0], want)
	}
	if !reflect.DeepEqual(out.Columns, []string{"id", "a", "b"}) {
		t.Fatalf("columns = %v", out.Columns)
	}
}

// TestChainApply_FilterThenMutate checks that a filtering Func followed by a
// mutating step only touches survivors.
func TestChainApply_FilterThenMutate(t *testing.T) {
	t.Parallel()

	dropOdd := Func(func(in *records.Table) *records.Table {
		kept := in.Rows[:0]
		for _, r := range in.Rows {
			if r["id"].(int64)%2 == 0 {
				kept = append(kept, r)
			}
		}
		in.Rows = kept
		return in
	})
	out := Chain{dropOdd, addColumnTransformer{key: "tag", val: "ok"}}.Apply(makeTable(5))

	if out.Len() != 3 {
		t.Fatalf("Len = %d, want 3", out.Len())
	}
	for _, r := range out.Rows {
		if r["tag"] != "ok" || r["id"].(int64)%2 != 0 {
			t.Fatalf("unexpected row %#v", r)
		}
	}
}

func TestChainApply_NilAndEmpty(t *testing.T) {
	t.Parallel()

	in := makeTable(3)
	var cNil Chain
	if out := cNil.Apply(in); out != in {
		t.Fatalf("nil chain should return the input table")
	}
	if out := (Chain{}).Apply(in); out != in || out.Len() != 3 {
		t.Fatalf("empty chain changed the table")
	}
}

func TestChainApply_TransformerCalledOnce(t *testing.T) {
	t.Parallel()

	var calls int32
	c := Chain{
		counterTransformer{calls: &calls, mark: "first"},
		counterTransformer{calls: &calls, mark: "second"},
	}
	out := c.Apply(makeTable(2))
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls=%d; want 2", got)
	}
	for _, r := range out.Rows {
		if r["first"] != int32(1) || r["second"] != int32(2) {
			t.Fatalf("unexpected order markers in %#v", r)
		}
	}
}
