package completion

// maxSortedItems bounds sort-key generation. Editors rarely render more than
// a few hundred suggestions, so relative order beyond this index is not worth
// the cost of preserving.
const maxSortedItems = 300

// unsortedKey sorts after every generated two-letter key.
const unsortedKey = "ZZZZZZZ"

// GenerateSortKey encodes a candidate's original rank as a sort key that
// survives the editor's lexicographic re-sort. Keys are two uppercase letters
// wide and strictly increasing for indexes in [0, maxSortedItems); everything
// at or beyond maxSortedItems shares a fixed trailing key.
func GenerateSortKey(index int) string {
	if index >= maxSortedItems {
		return unsortedKey
	}
	if index <= 25 {
		return string([]byte{'A', byte('A' + index)})
	}
	first := byte('A' + index/25 + 1)
	second := byte('A' + index%25)
	return string([]byte{first, second})
}
