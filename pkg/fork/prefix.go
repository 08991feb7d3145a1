package fork

import "fmt"

// BuildPrefixItems implements spec.md §4.9 step 2: scan items in
// reverse counting user messages, cutting before the nth-from-last one.
// n must be >= 1; the returned slice is everything strictly before that
// user message, in original order.
func BuildPrefixItems(items []ResponseItem, n int) ([]ResponseItem, error) {
	if n < 1 {
		return nil, fmt.Errorf("fork: n must be >= 1, got %d", n)
	}

	seen := 0
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Role != RoleUser {
			continue
		}
		seen++
		if seen == n {
			return append([]ResponseItem(nil), items[:i]...), nil
		}
	}
	return nil, fmt.Errorf("fork: only %d user message(s) in history, cannot cut %d back", seen, n)
}
