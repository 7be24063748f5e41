package persistence

import (
	"fmt"
	"strconv"
	"strings"
)

// DynamicMemberRecord is one member entry in a dump line, per spec.md
// §4.6's `interface;penalty;paused;displayname;statekey;callinuse` field
// order.
type DynamicMemberRecord struct {
	Interface   string
	Penalty     int
	Paused      bool
	DisplayName string
	StateKey    string
	CallInUse   bool
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseBoolField(s string) bool { return s == "1" }

// EncodeDynamicMembers serializes records into the single pipe-delimited
// line DumpMembers writes. An empty slice encodes to the empty string,
// which DumpMembers treats as "clear any previous dump".
func EncodeDynamicMembers(records []DynamicMemberRecord) string {
	if len(records) == 0 {
		return ""
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, strings.Join([]string{
			rec.Interface,
			strconv.Itoa(rec.Penalty),
			boolField(rec.Paused),
			rec.DisplayName,
			rec.StateKey,
			boolField(rec.CallInUse),
		}, ";"))
	}
	return strings.Join(lines, "|")
}

// DecodeDynamicMembers parses a line written by EncodeDynamicMembers
// back into records. An empty line decodes to a nil slice and no error.
func DecodeDynamicMembers(line string) ([]DynamicMemberRecord, error) {
	if line == "" {
		return nil, nil
	}
	entries := strings.Split(line, "|")
	records := make([]DynamicMemberRecord, 0, len(entries))
	for _, entry := range entries {
		fields := strings.Split(entry, ";")
		if len(fields) != 6 {
			return nil, fmt.Errorf("persistence: malformed dynamic member entry %q: want 6 fields, got %d", entry, len(fields))
		}
		penalty, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("persistence: malformed penalty in entry %q: %w", entry, err)
		}
		records = append(records, DynamicMemberRecord{
			Interface:   fields[0],
			Penalty:     penalty,
			Paused:      parseBoolField(fields[2]),
			DisplayName: fields[3],
			StateKey:    fields[4],
			CallInUse:   parseBoolField(fields[5]),
		})
	}
	return records, nil
}
