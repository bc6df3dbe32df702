package seed

import "strconv"

// rowLabel converts a zero-based row index to A, B, ..., Z, AA, AB, ...
func rowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []byte
	for {
		res = append(res, byte('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// SeatGrid returns labels for rows x cols seats in row-major order:
// A1, A2, ..., B1, ...
func SeatGrid(rows, cols int) []string {
	if rows <= 0 || cols <= 0 {
		return nil
	}
	out := make([]string, 0, rows*cols)
	for r := 0; r < rows; r++ {
		label := rowLabel(r)
		for c := 1; c <= cols; c++ {
			out = append(out, label+strconv.Itoa(c))
		}
	}
	return out
}
