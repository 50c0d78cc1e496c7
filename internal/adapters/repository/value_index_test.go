package repository

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"testing"
)

func collect(ix *valueIndex) []string {
	var out []string
	ix.walk(func(id string, _ int) bool {
		out = append(out, id)
		return true
	})
	return out
}

func TestValueIndex_Order(t *testing.T) {
	var ix valueIndex
	ix.insert("b", 100)
	ix.insert("a", 100)
	ix.insert("c", 300)
	ix.insert("d", 50)

	got := collect(&ix)
	want := []string{"c", "a", "b", "d"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	ix.remove("a", 100)
	ix.insert("a", 10)
	got = collect(&ix)
	want = []string{"c", "b", "d", "a"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("after move expected %v, got %v", want, got)
	}
	if ix.len() != 4 {
		t.Errorf("expected len 4, got %d", ix.len())
	}

	// Removing an unknown key is a no-op.
	ix.remove("zzz", 1)
	if ix.len() != 4 {
		t.Errorf("expected len 4 after no-op remove, got %d", ix.len())
	}
}

func TestValueIndex_DenseRanks(t *testing.T) {
	var ix valueIndex
	for id, v := range map[string]int{"a": 500, "b": 400, "c": 400, "d": 300, "e": 300, "f": 100} {
		ix.insert(id, v)
	}

	ranks := map[string]int{}
	ix.denseRanks(func(rank int, id string) bool {
		ranks[id] = rank
		return true
	})
	want := map[string]int{"a": 1, "b": 2, "c": 2, "d": 3, "e": 3, "f": 4}
	for id, r := range want {
		if ranks[id] != r {
			t.Errorf("%s: expected rank %d, got %d", id, r, ranks[id])
		}
	}
}

func TestValueIndex_MatchesSort(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 7))
	var ix valueIndex
	values := map[string]int{}
	for i := range 500 {
		id := fmt.Sprintf("p%03d", i)
		values[id] = r.IntN(50)
		ix.insert(id, values[id])
	}
	// Churn half of them.
	for i := 0; i < 500; i += 2 {
		id := fmt.Sprintf("p%03d", i)
		ix.remove(id, values[id])
		values[id] = r.IntN(50)
		ix.insert(id, values[id])
	}

	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ahead(values[ids[i]], ids[i], values[ids[j]], ids[j])
	})
	if fmt.Sprint(collect(&ix)) != fmt.Sprint(ids) {
		t.Fatal("treap order diverged from a full sort")
	}
}

func BenchmarkValueIndex_Move(b *testing.B) {
	var ix valueIndex
	values := make([]int, 10000)
	for i := range values {
		values[i] = rand.IntN(10000)
		ix.insert(fmt.Sprintf("p%d", i), values[i])
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := i % len(values)
		id := fmt.Sprintf("p%d", k)
		ix.remove(id, values[k])
		values[k] += 16
		ix.insert(id, values[k])
	}
}
