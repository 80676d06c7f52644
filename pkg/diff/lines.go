package diff

import "strings"

// Op classifies a line of an edit script.
type Op int

const (
	Equal  Op = iota // present in both revisions
	Insert           // present in the after revision only
	Delete           // present in the before revision only
)

// Line is one line of an edit script.
type Line struct {
	Op   Op
	Text string
}

// Lines computes the line-level edit script turning a into b.
func Lines(a, b []byte) []Line {
	return myers(splitLines(string(a)), splitLines(string(b)))
}

// splitLines splits s into lines. A trailing newline does not produce an
// extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// myers returns the shortest edit script from a to b, in O((N+M)*D).
func myers(a, b []string) []Line {
	n, m := len(a), len(b)
	switch {
	case n == 0 && m == 0:
		return nil
	case n == 0:
		return uniform(Insert, b)
	case m == 0:
		return uniform(Delete, a)
	}

	offset := n + m
	v := make([]int, 2*offset+1)
	// trace[d] is v after edit distance d was explored.
	var trace [][]int

search:
	for d := 0; d <= offset; d++ {
		for k := -d; k <= d; k += 2 {
			var x int
			if k == -d || (k != d && v[offset+k-1] < v[offset+k+1]) {
				x = v[offset+k+1]
			} else {
				x = v[offset+k-1] + 1
			}
			y := x - k
			for x < n && y < m && a[x] == b[y] {
				x++
				y++
			}
			v[offset+k] = x
			if x >= n && y >= m {
				trace = append(trace, append([]int(nil), v...))
				break search
			}
		}
		trace = append(trace, append([]int(nil), v...))
	}

	return walkBack(trace, a, b)
}

func walkBack(trace [][]int, a, b []string) []Line {
	offset := len(a) + len(b)
	x, y := len(a), len(b)

	var rev []Line
	for d := len(trace) - 1; d > 0; d-- {
		prev := trace[d-1]
		k := x - y
		var prevK int
		if k == -d || (k != d && prev[offset+k-1] < prev[offset+k+1]) {
			prevK = k + 1
		} else {
			prevK = k - 1
		}
		prevX := prev[offset+prevK]
		prevY := prevX - prevK

		for x > prevX && y > prevY {
			x--
			y--
			rev = append(rev, Line{Op: Equal, Text: a[x]})
		}
		if prevK == k-1 {
			x--
			rev = append(rev, Line{Op: Delete, Text: a[x]})
		} else {
			y--
			rev = append(rev, Line{Op: Insert, Text: b[y]})
		}
	}
	for x > 0 && y > 0 {
		x--
		y--
		rev = append(rev, Line{Op: Equal, Text: a[x]})
	}

	out := make([]Line, len(rev))
	for i, l := range rev {
		out[len(rev)-1-i] = l
	}
	return out
}

func uniform(op Op, lines []string) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		out[i] = Line{Op: op, Text: l}
	}
	return out
}
