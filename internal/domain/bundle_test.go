package domain

import (
	"reflect"
	"testing"
)

func TestBundleOrder(t *testing.T) {
	b := NewBundle()
	b.Set("c.js", &Chunk{FileName: "c.js"})
	b.Set("a.js", &Chunk{FileName: "a.js"})
	b.Set("b.css", &Asset{FileName: "b.css"})

	want := []string{"c.js", "a.js", "b.css"}
	if got := b.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}

	// replacing keeps the position
	b.Set("a.js", &Asset{FileName: "a.js"})
	if got := b.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() after replace = %v, want %v", got, want)
	}
	if e, _ := b.Get("a.js"); !isAsset(e) {
		t.Error("expected replaced entry")
	}

	b.Delete("c.js")
	b.Delete("missing")
	b.Set("c.js", &Chunk{FileName: "c.js"})
	want = []string{"a.js", "b.css", "c.js"}
	if got := b.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() after delete/set = %v, want %v", got, want)
	}
	if b.Len() != 3 {
		t.Errorf("Len() = %d, want 3", b.Len())
	}
}

func TestBundleKeysIsCopy(t *testing.T) {
	b := NewBundle()
	b.Set("a.js", &Chunk{FileName: "a.js"})
	keys := b.Keys()
	keys[0] = "mutated"
	if _, ok := b.Get("a.js"); !ok || b.Keys()[0] != "a.js" {
		t.Error("Keys() must return a copy")
	}
}

func TestEntries(t *testing.T) {
	b := NewBundle()
	asset := &Asset{FileName: "x.svg"}
	b.Set("x.svg", asset)
	entries := b.Entries()
	if len(entries) != 1 || entries[0].Key != "x.svg" || entries[0].Entry != Entry(asset) {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestHasMarker(t *testing.T) {
	cases := map[string]bool{
		"a/node_modules/b.js": true,
		"my_node_modules.js":  true,
		"node_module/x.js":    false,
		"":                    false,
	}
	for in, want := range cases {
		if got := HasMarker(in); got != want {
			t.Errorf("HasMarker(%q) = %v, want %v", in, got, want)
		}
	}
}

func isAsset(e Entry) bool {
	_, ok := e.(*Asset)
	return ok
}
