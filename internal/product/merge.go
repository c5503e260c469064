package product

// Merge deduplicates products by identifier across the given lists,
// preserving first-occurrence order.
//
// When the same identifier appears more than once, the first record wins
// field by field, except that a field still at its placeholder value is
// upgraded by a later record carrying a real value. Records with an empty
// identifier are dropped. Merging is idempotent: merging a merged list
// again yields the same result.
func Merge(lists ...[]Product) []Product {
	var order []string
	byID := make(map[string]Product)

	for _, list := range lists {
		for _, p := range list {
			if p.ProductID == "" {
				continue
			}
			p = p.normalize()

			existing, ok := byID[p.ProductID]
			if !ok {
				byID[p.ProductID] = p
				order = append(order, p.ProductID)
				continue
			}
			byID[p.ProductID] = upgrade(existing, p)
		}
	}

	merged := make([]Product, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}
	return merged
}

// upgrade fills placeholder fields of base with real values from other.
// Real values in base are never overwritten.
func upgrade(base, other Product) Product {
	if !base.hasRealName() && other.hasRealName() {
		base.Name = other.Name
	}
	if !base.hasRealDescription() && other.hasRealDescription() {
		base.Description = other.Description
	}
	return base
}
