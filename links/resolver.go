package links

// ResolvePageIDs converts an extracted link set to a sequence of page
// identifiers using the provided title -> id lookup table. Links whose
// title is not present in the table are silently dropped. Output order
// mirrors the link set order; ids are not deduplicated.
func ResolvePageIDs(set LinkSet, titleToID map[string]int) []int {
	ids := make([]int, 0, len(set))

	for _, link := range set {
		if id, exists := titleToID[link.Title]; exists {
			ids = append(ids, id)
		}
	}

	return ids
}
