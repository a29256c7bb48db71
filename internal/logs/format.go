package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Record is a decoded run log line.
type Record struct {
	Time    time.Time
	Level   string
	Message string
	Fields  map[string]any
}

var reservedKeys = map[string]struct{}{"time": {}, "level": {}, "msg": {}, "source": {}}

// ParseRecord decodes one JSON log line.
func ParseRecord(line string) (Record, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, fmt.Errorf("decode log line: %w", err)
	}
	rec := Record{Fields: make(map[string]any, len(raw))}
	for key, value := range raw {
		switch key {
		case "time":
			if s, ok := value.(string); ok {
				rec.Time, _ = time.Parse(time.RFC3339Nano, s)
			}
		case "level":
			rec.Level, _ = value.(string)
		case "msg":
			rec.Message, _ = value.(string)
		}
		if _, skip := reservedKeys[key]; !skip {
			rec.Fields[key] = value
		}
	}
	return rec, nil
}

// Format renders a log line for a terminal. Lines that are not JSON are
// returned unchanged.
func Format(line string) string {
	rec, err := ParseRecord(line)
	if err != nil {
		return line
	}
	var b strings.Builder
	if !rec.Time.IsZero() {
		b.WriteString(rec.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s %s", strings.ToUpper(rec.Level), rec.Message)

	keys := make([]string, 0, len(rec.Fields))
	for key := range rec.Fields {
		if key == "run_id" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, rec.Fields[key])
	}
	return b.String()
}
