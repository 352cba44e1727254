package samplesource

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	LineTypeReading = "reading"
	LineTypeStatus  = "status"
	LineTypeUnknown = "unknown"
)

// ClassifyLine inspects a line from the sensor node and returns a simple
// type token. Firmware status chatter starts with '#'; readings carry
// key=value pairs.
func ClassifyLine(line string) string {
	if strings.HasPrefix(line, "#") {
		return LineTypeStatus
	}
	if strings.Contains(line, "=") {
		return LineTypeReading
	}
	return LineTypeUnknown
}

// ParseReading parses a reading line of whitespace-separated key=value pairs
// into raw ADC counts, e.g. "moisture_raw=512 temp_raw=301".
func ParseReading(line string) (map[string]int, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty reading line")
	}

	raws := make(map[string]int, len(fields))
	for _, field := range fields {
		key, val, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("malformed reading field %q", field)
		}
		n, err := strconv.Atoi(val)
		if err != nil {
			return nil, fmt.Errorf("reading field %q: %w", field, err)
		}
		raws[key] = n
	}
	return raws, nil
}
