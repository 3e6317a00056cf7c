package domain

// Bundle is an ordered mapping from output path to Entry. Iteration always
// follows insertion order.
type Bundle struct {
	keys    []string
	entries map[string]Entry
}

func NewBundle() *Bundle {
	return &Bundle{entries: make(map[string]Entry)}
}

// Set stores e under key. An existing key keeps its position.
func (b *Bundle) Set(key string, e Entry) {
	if _, ok := b.entries[key]; !ok {
		b.keys = append(b.keys, key)
	}
	b.entries[key] = e
}

func (b *Bundle) Get(key string) (Entry, bool) {
	e, ok := b.entries[key]
	return e, ok
}

func (b *Bundle) Delete(key string) {
	if _, ok := b.entries[key]; !ok {
		return
	}
	delete(b.entries, key)
	for i, k := range b.keys {
		if k == key {
			b.keys = append(b.keys[:i], b.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in order.
func (b *Bundle) Keys() []string {
	keys := make([]string, len(b.keys))
	copy(keys, b.keys)
	return keys
}

func (b *Bundle) Len() int {
	return len(b.keys)
}

// KeyedEntry pairs a bundle key with its entry.
type KeyedEntry struct {
	Key   string
	Entry Entry
}

// Entries returns the key/entry pairs in order.
func (b *Bundle) Entries() []KeyedEntry {
	out := make([]KeyedEntry, 0, len(b.keys))
	for _, k := range b.keys {
		out = append(out, KeyedEntry{Key: k, Entry: b.entries[k]})
	}
	return out
}
