package projector

import "fmt"

// DuplicatePolicy decides how a requested name maps onto repeated header names.
type DuplicatePolicy int

const (
	// MatchAll selects every header position carrying the requested name.
	MatchAll DuplicatePolicy = iota
	// LastWins selects only the last header position carrying the name.
	LastWins
)

func (p DuplicatePolicy) String() string {
	switch p {
	case MatchAll:
		return "all"
	case LastWins:
		return "last"
	default:
		return fmt.Sprintf("DuplicatePolicy(%d)", int(p))
	}
}

// ParseDuplicatePolicy accepts "all" or "last". The empty string means "all".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch s {
	case "", "all":
		return MatchAll, nil
	case "last":
		return LastWins, nil
	default:
		return MatchAll, fmt.Errorf("invalid duplicates policy %q (expected all or last)", s)
	}
}

// Resolve maps the selection onto header positions. An empty selection
// selects every column in header order. Names absent from the header are
// skipped.
func Resolve(header, selected []string, policy DuplicatePolicy) []int {
	if len(selected) == 0 {
		indexes := make([]int, len(header))
		for i := range header {
			indexes[i] = i
		}
		return indexes
	}
	if policy == LastWins {
		return resolveLast(header, selected)
	}
	return resolveAll(header, selected)
}

func resolveAll(header, selected []string) []int {
	indexes := make([]int, 0, len(selected))
	for _, name := range selected {
		for i, h := range header {
			if h == name {
				indexes = append(indexes, i)
			}
		}
	}
	return indexes
}

func resolveLast(header, selected []string) []int {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		positions[h] = i
	}
	indexes := make([]int, 0, len(selected))
	for _, name := range selected {
		if i, ok := positions[name]; ok {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// Missing returns the selected names that appear nowhere in the header, in
// selection order.
func Missing(header, selected []string) []string {
	known := make(map[string]struct{}, len(header))
	for _, h := range header {
		known[h] = struct{}{}
	}
	var missing []string
	for _, name := range selected {
		if _, ok := known[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
