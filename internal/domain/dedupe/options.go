package dedupe

// Option applies a configuration option to the OrderedSet.
type Option func(*OrderedSet)

// WithKeyFold compares ids through fold, e.g. strings.ToLower.
// The first spelling seen is the one kept.
func WithKeyFold(fold func(string) string) Option {
	return func(d *OrderedSet) {
		d.fold = fold
	}
}
