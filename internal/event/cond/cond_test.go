package cond

import "testing"

type fakeWidget struct {
	id    string
	depth int
}

func (w *fakeWidget) Property(name string) (any, bool) {
	switch name {
	case "id":
		return w.id, true
	case "depth":
		return w.depth, true
	}
	return nil, false
}

func TestMatchMapData(t *testing.T) {
	data := map[string]any{
		"type":  "allowed",
		"count": 3,
		"nested": map[string]any{
			"level": 2,
		},
	}

	tests := []struct {
		name string
		c    Condition
		want bool
	}{
		{"eq match", Condition{FieldData, "type", OpEq, "allowed"}, true},
		{"eq mismatch", Condition{FieldData, "type", OpEq, "denied"}, false},
		{"ne", Condition{FieldData, "type", OpNe, "denied"}, true},
		{"gt", Condition{FieldData, "count", OpGt, 2}, true},
		{"gt false", Condition{FieldData, "count", OpGt, 3}, false},
		{"gte boundary", Condition{FieldData, "count", OpGte, 3}, true},
		{"lt", Condition{FieldData, "count", OpLt, 4}, true},
		{"lte boundary", Condition{FieldData, "count", OpLte, 3}, true},
		{"nested path", Condition{FieldData, "nested.level", OpEq, 2}, true},
		{"missing property", Condition{FieldData, "absent", OpEq, "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Match(data); got != tt.want {
				t.Errorf("Match() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchStructViaJSON(t *testing.T) {
	payload := struct {
		Kind  string `json:"kind"`
		Score int    `json:"score"`
	}{Kind: "gauge", Score: 42}

	if !(Condition{FieldData, "kind", OpEq, "gauge"}).Match(payload) {
		t.Error("expected kind eq gauge to match via JSON lookup")
	}
	if !(Condition{FieldData, "score", OpGte, 42}).Match(payload) {
		t.Error("expected score gte 42 to match")
	}
}

func TestMatchPropertyProvider(t *testing.T) {
	w := &fakeWidget{id: "sidebar", depth: 2}

	if !(Condition{FieldSource, "id", OpEq, "sidebar"}).Match(w) {
		t.Error("expected provider lookup to match id")
	}
	if !(Condition{FieldSource, "depth", OpLte, 2}).Match(w) {
		t.Error("expected provider lookup to match depth")
	}
}

func TestOpIn(t *testing.T) {
	data := map[string]any{"state": "focused"}

	c := Condition{FieldData, "state", OpIn, []any{"hovered", "focused"}}
	if !c.Match(data) {
		t.Error("expected in to match member")
	}

	c.Value = []string{"hidden", "disabled"}
	if c.Match(data) {
		t.Error("expected in to reject non-member")
	}
}

func TestOpContains(t *testing.T) {
	if !(Condition{FieldData, "msg", OpContains, "err"}).Match(map[string]any{"msg": "io error"}) {
		t.Error("expected string contains to match")
	}
	if !(Condition{FieldData, "tags", OpContains, "ui"}).Match(map[string]any{"tags": []any{"ui", "core"}}) {
		t.Error("expected slice contains to match")
	}
}

func TestOpMatches(t *testing.T) {
	data := map[string]any{"path": "widgets/table/row"}

	if !(Condition{FieldData, "path", OpMatches, `^widgets/`}).Match(data) {
		t.Error("expected regexp to match")
	}
	if (Condition{FieldData, "path", OpMatches, `^charts/`}).Match(data) {
		t.Error("expected regexp to reject")
	}
	if (Condition{FieldData, "path", OpMatches, `([`}).Match(data) {
		t.Error("invalid pattern must never match")
	}
}

func TestEmptyPropertyComparesRoot(t *testing.T) {
	if !(Condition{FieldData, "", OpEq, "ping"}).Match("ping") {
		t.Error("empty property should compare the field root itself")
	}
}

func TestNumericCoercionAcrossTypes(t *testing.T) {
	// JSON round-trips turn ints into float64; both sides must still compare.
	if !(Condition{FieldData, "n", OpEq, 7}).Match(map[string]any{"n": float64(7)}) {
		t.Error("int/float comparison should be equal")
	}
}
