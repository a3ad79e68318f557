package approval

// Router maps an approval category (the approval definition name) to a
// destination mailbox. The map is loaded once from configuration and
// never mutated, so lookups are safe from any goroutine.
type Router struct {
	destinations map[string]string
}

// NewRouter creates a router over the configured category map
func NewRouter(destinations map[string]string) *Router {
	return &Router{destinations: destinations}
}

// Route returns the destination mailbox for a category. A missing entry
// and an empty configured address are the same outcome: no destination,
// which callers treat as a deliberate skip rather than an error.
func (r *Router) Route(category string) (string, bool) {
	address, ok := r.destinations[category]
	if !ok || address == "" {
		return "", false
	}
	return address, true
}
