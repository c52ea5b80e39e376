package tle

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
)

// ParseCatalog reads element sets in the 3-line (name, line 1, line 2) or
// bare 2-line catalog format. Malformed entries are skipped with a warning.
func ParseCatalog(r io.Reader, logger *slog.Logger) ([]Entry, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading TLE data")
	}

	var entries []Entry
	for i := 0; i < len(lines); {
		name := ""
		start := i
		if !isElementLine(lines[i], '1') {
			name = strings.TrimSpace(strings.TrimPrefix(lines[i], "0 "))
			start++
		}
		if start+1 >= len(lines) || !isElementLine(lines[start], '1') || !isElementLine(lines[start+1], '2') {
			logger.Warn("skipping malformed TLE entry", "line_index", i, "name", name)
			i++
			continue
		}

		line1, line2 := lines[start], lines[start+1]
		el, err := ParseLines(line1, line2)
		if err != nil {
			logger.Warn("skipping invalid TLE entry", "line_index", i, "name", name, "error", err)
			i = start + 2
			continue
		}
		if name == "" {
			name = el.Designator
		}

		entries = append(entries, Entry{
			Name:          name,
			CatalogNumber: el.CatalogNumber,
			Epoch:         el.Epoch,
			Elements:      el,
			Line1:         line1,
			Line2:         line2,
		})
		i = start + 2
	}

	return entries, nil
}

func isElementLine(line string, n byte) bool {
	return len(line) >= 2 && line[0] == n && line[1] == ' '
}
