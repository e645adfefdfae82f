package rank

import "testing"

type row struct {
	id     string
	region string
	value  float64
}

func TestAssign_OrdersByMetricDescending(t *testing.T) {
	rows := []row{
		{id: "b", value: 10},
		{id: "a", value: 30},
		{id: "c", value: 20},
	}

	ranked := Assign(rows, func(r row) float64 { return r.value }, func(r row) string { return r.id })

	want := []string{"a", "c", "b"}
	for i, w := range want {
		if ranked[i].Item.id != w || ranked[i].Rank != i+1 {
			t.Errorf("position %d: got (%s, %d), want (%s, %d)", i, ranked[i].Item.id, ranked[i].Rank, w, i+1)
		}
	}
}

func TestAssign_TiesBreakOnKey(t *testing.T) {
	rows := []row{
		{id: "z", value: 10},
		{id: "a", value: 10},
		{id: "m", value: 10},
	}

	// Same metric everywhere; ordering must come from the key alone,
	// regardless of input order.
	ranked := Assign(rows, func(r row) float64 { return r.value }, func(r row) string { return r.id })

	want := []string{"a", "m", "z"}
	for i, w := range want {
		if ranked[i].Item.id != w {
			t.Errorf("position %d: got %s, want %s", i, ranked[i].Item.id, w)
		}
	}
}

func TestAssign_Empty(t *testing.T) {
	ranked := Assign(nil, func(r row) float64 { return r.value }, func(r row) string { return r.id })
	if len(ranked) != 0 {
		t.Errorf("expected empty result, got %d", len(ranked))
	}
}

func TestAssignPartitioned(t *testing.T) {
	rows := []row{
		{id: "sp-1", region: "SP", value: 100},
		{id: "sp-2", region: "SP", value: 200},
		{id: "rj-1", region: "RJ", value: 50},
	}

	byRegion := AssignPartitioned(rows,
		func(r row) string { return r.region },
		func(r row) float64 { return r.value },
		func(r row) string { return r.id })

	if len(byRegion) != 2 {
		t.Fatalf("expected 2 partitions, got %d", len(byRegion))
	}
	sp := byRegion["SP"]
	if sp[0].Item.id != "sp-2" || sp[0].Rank != 1 || sp[1].Rank != 2 {
		t.Errorf("unexpected SP ranking: %+v", sp)
	}
	if byRegion["RJ"][0].Rank != 1 {
		t.Errorf("single-member partition must rank 1, got %+v", byRegion["RJ"])
	}
}
