// Package strset provides ordered, duplicate-free string slice helpers.
// Like lists and follower/following lists are stored as JSON arrays that
// must never contain the same entry twice.
package strset

func Has(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Add appends v unless it is already present.
func Add(list []string, v string) []string {
	if Has(list, v) {
		return list
	}
	return append(list, v)
}

// Remove filters v out, preserving the order of the remaining entries.
func Remove(list []string, v string) []string {
	out := list[:0]
	for _, item := range list {
		if item != v {
			out = append(out, item)
		}
	}
	return out
}
