package git

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jlaneve/prompt/internal/types"
)

// statusRecord is a parsed status line. indexID is the blob id of the
// path in the index (hI), empty for untracked and unmerged paths.
type statusRecord struct {
	StatusEntry
	indexID string
}

// parsePorcelainV2 parses the NUL-terminated output of
// `git status --porcelain=v2 -z`.
func parsePorcelainV2(out []byte) ([]StatusEntry, error) {
	records, err := parseStatusRecords(out)
	if err != nil {
		return nil, err
	}
	return entriesOf(records), nil
}

func parseStatusRecords(out []byte) ([]statusRecord, error) {
	var records []statusRecord

	fields := bytes.Split(out, []byte{0})
	for i := 0; i < len(fields); i++ {
		record := fields[i]
		if len(record) == 0 {
			continue
		}

		switch record[0] {
		case '#', '!':
			continue
		case '?':
			records = append(records, statusRecord{StatusEntry: StatusEntry{
				Path:   string(bytes.TrimPrefix(record, []byte("? "))),
				Status: types.StatusWtNew,
			}})
		case '1', '2', 'u':
			parts := bytes.SplitN(record, []byte(" "), fieldCount(record[0]))
			if len(parts) != fieldCount(record[0]) || len(parts[1]) != 2 {
				return nil, fmt.Errorf("malformed status record %q", record)
			}
			rec := statusRecord{StatusEntry: StatusEntry{
				Path:   string(parts[len(parts)-1]),
				Status: types.StatusConflicted,
			}}
			if record[0] != 'u' {
				rec.Status = changeFlags(parts[1][0], parts[1][1])
				rec.indexID = string(parts[7])
			}
			records = append(records, rec)
			// Rename and copy records carry the original path as a
			// separate NUL-terminated field
			if record[0] == '2' {
				i++
			}
		default:
			return nil, fmt.Errorf("unknown status record %q", record)
		}
	}
	return records, nil
}

func entriesOf(records []statusRecord) []StatusEntry {
	if len(records) == 0 {
		return nil
	}
	entries := make([]StatusEntry, len(records))
	for i, rec := range records {
		entries[i] = rec.StatusEntry
	}
	return entries
}

// renameSource reports whether rec may have moved to an untracked path: it
// is gone from the work tree, or with fromRewrites, rewritten in place.
func renameSource(rec statusRecord, fromRewrites bool) bool {
	if rec.indexID == "" || strings.Trim(rec.indexID, "0") == "" {
		return false
	}
	if rec.Status&types.StatusWtDeleted != 0 {
		return true
	}
	return fromRewrites && rec.Status&types.StatusWtModified != 0
}

// untrackedFiles lists the untracked paths whose content can be hashed
func untrackedFiles(records []statusRecord) []string {
	var paths []string
	for _, rec := range records {
		if rec.Status != types.StatusWtNew || rec.indexID != "" {
			continue
		}
		if strings.HasSuffix(rec.Path, "/") || strings.ContainsRune(rec.Path, '\n') {
			continue
		}
		paths = append(paths, rec.Path)
	}
	return paths
}

// pairWorkdirRenames matches rename sources with untracked files whose
// blob id, from hashes, equals the source's index blob. A deleted source
// and its target fold into one renamed entry at the new path, keeping the
// index flags of the source. A rewritten source stays modified and only
// the target becomes renamed. Deletions are matched first; each target is
// used once, in status order.
func pairWorkdirRenames(records []statusRecord, hashes map[string]string, fromRewrites bool) []statusRecord {
	targets := make(map[string][]int)
	for i, rec := range records {
		if rec.Status != types.StatusWtNew || rec.indexID != "" {
			continue
		}
		if id, ok := hashes[rec.Path]; ok {
			targets[id] = append(targets[id], i)
		}
	}
	if len(targets) == 0 {
		return records
	}

	claim := func(id string) (int, bool) {
		candidates := targets[id]
		if len(candidates) == 0 {
			return 0, false
		}
		targets[id] = candidates[1:]
		return candidates[0], true
	}

	moved := make(map[int]bool)
	for i, rec := range records {
		if rec.Status&types.StatusWtDeleted == 0 || !renameSource(rec, false) {
			continue
		}
		if t, ok := claim(rec.indexID); ok {
			records[t].Status = rec.Status&^types.StatusWtDeleted | types.StatusWtRenamed
			moved[i] = true
		}
	}
	if fromRewrites {
		for _, rec := range records {
			if rec.Status&types.StatusWtDeleted != 0 || !renameSource(rec, true) {
				continue
			}
			if t, ok := claim(rec.indexID); ok {
				records[t].Status = types.StatusWtRenamed
			}
		}
	}

	if len(moved) == 0 {
		return records
	}
	kept := records[:0]
	for i, rec := range records {
		if !moved[i] {
			kept = append(kept, rec)
		}
	}
	return kept
}

// fieldCount is the number of space-separated fields of a record type, the
// last one being the path, which may itself contain spaces.
func fieldCount(kind byte) int {
	switch kind {
	case '1':
		return 9 // 1 XY sub mH mI mW hH hI path
	case '2':
		return 10 // 2 XY sub mH mI mW hH hI Xscore path
	default:
		return 11 // u XY sub m1 m2 m3 mW h1 h2 h3 path
	}
}

// changeFlags maps the index (x) and work tree (y) status letters of an
// ordinary or renamed entry.
func changeFlags(x, y byte) types.StatusFlags {
	var f types.StatusFlags
	switch x {
	case 'A', 'C':
		f |= types.StatusIndexNew
	case 'M':
		f |= types.StatusIndexModified
	case 'D':
		f |= types.StatusIndexDeleted
	case 'R':
		f |= types.StatusIndexRenamed
	case 'T':
		f |= types.StatusIndexTypeChange
	}
	switch y {
	case 'A':
		f |= types.StatusWtNew
	case 'M':
		f |= types.StatusWtModified
	case 'D':
		f |= types.StatusWtDeleted
	case 'R':
		f |= types.StatusWtRenamed
	case 'T':
		f |= types.StatusWtTypeChange
	}
	return f
}

// Aggregate ORs together the status of every entry
func Aggregate(entries []StatusEntry) types.StatusFlags {
	var f types.StatusFlags
	for _, e := range entries {
		f |= e.Status
	}
	return f
}
