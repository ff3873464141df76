package status

import "github.com/zosarillana/prs-be/internal/domain/entity"

// NextSeriesNo returns the lowest unused series number at or above
// entity.SeriesBase, or max+1 when the used range has no gap.
func NextSeriesNo(existing []int) int {
	used := make(map[int]bool, len(existing))
	max := entity.SeriesBase - 1
	for _, n := range existing {
		used[n] = true
		if n > max {
			max = n
		}
	}

	for n := entity.SeriesBase; n <= max; n++ {
		if !used[n] {
			return n
		}
	}
	return max + 1
}
