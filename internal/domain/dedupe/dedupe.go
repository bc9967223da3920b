// Package dedupe tracks distinct keys in first-seen order.
package dedupe

// OrderedSet is a map index over an insertion-ordered slice.
// It is not safe for concurrent use.
type OrderedSet struct {
	seen  map[string]struct{}
	items []string
	fold  func(string) string
}

// NewOrderedSet creates an empty set with configuration options.
func NewOrderedSet(opts ...Option) *OrderedSet {
	d := &OrderedSet{seen: make(map[string]struct{})}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *OrderedSet) key(id string) string {
	if d.fold != nil {
		return d.fold(id)
	}
	return id
}

// SeenAndRecord reports whether id was seen and records it if not.
func (d *OrderedSet) SeenAndRecord(id string) bool {
	k := d.key(id)
	if _, exists := d.seen[k]; exists {
		return true
	}
	d.seen[k] = struct{}{}
	d.items = append(d.items, id)
	return false
}

// Items returns a copy of the recorded ids in first-seen order.
func (d *OrderedSet) Items() []string {
	return append([]string(nil), d.items...)
}

// Distinct returns the distinct values of ids in first-seen order.
func Distinct(ids []string, opts ...Option) []string {
	d := NewOrderedSet(opts...)
	for _, id := range ids {
		d.SeenAndRecord(id)
	}
	return d.Items()
}
