package gen

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// SortProperties orders props by the given policy and returns a new slice.
// A failing custom function is logged and leaves the input order intact.
func SortProperties(props []*Property, order SortOrder, logger *slog.Logger) []*Property {
	if order.Func != nil {
		sorted, err := safeSort(order.Func, props)
		if err != nil {
			if logger == nil {
				logger = slog.Default()
			}
			logger.Warn("properties sort order failed, keeping declaration order", "error", err)
			return slices.Clone(props)
		}
		return sorted
	}
	out := slices.Clone(props)
	// Casers keep state and are not safe for concurrent use.
	fold := cases.Fold()
	compareNames := func(a, b *Property) int {
		return strings.Compare(fold.String(a.Name), fold.String(b.Name))
	}
	isID := func(p *Property) bool {
		return fold.String(p.Name) == "id"
	}
	switch order.Policy {
	case SortAlphabetical:
		slices.SortStableFunc(out, compareNames)
	case SortIDFirstAlphabetical:
		slices.SortStableFunc(out, func(a, b *Property) int {
			aID, bID := isID(a), isID(b)
			switch {
			case aID && bID:
				return 0
			case aID:
				return -1
			case bID:
				return 1
			}
			return compareNames(a, b)
		})
	}
	return out
}

// safeSort calls fn with recover, rejecting nil results for non-empty input.
func safeSort(fn SortFunc, props []*Property) (sorted []*Property, err error) {
	defer func() {
		if v := recover(); v != nil {
			sorted, err = nil, fmt.Errorf("sort function panics: %v", v)
		}
	}()
	sorted, err = fn(slices.Clone(props))
	if err != nil {
		return nil, err
	}
	if sorted == nil && len(props) > 0 {
		return nil, fmt.Errorf("sort function returned no properties")
	}
	return sorted, nil
}
