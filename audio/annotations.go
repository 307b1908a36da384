package audio

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Annotations are marker offsets in seconds into the reference, in file order.
type Annotations []float64

// ParseAnnotations reads one number per line. Blank lines are skipped; any other line that
// is not a number fails the whole file. Errors name the line but never repeat its content.
func ParseAnnotations(r io.Reader) (Annotations, error) {
	var out Annotations
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("annotations: line %d is not a number", line)
		}
		out = append(out, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}
	return out, nil
}
