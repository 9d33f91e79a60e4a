package trash

// NewDeleterWithRemovers swaps the filesystem primitives used by Deleter.
func NewDeleterWithRemovers(removeAll, remove func(string) error) *Deleter {
	return &Deleter{removeAll: removeAll, remove: remove}
}
