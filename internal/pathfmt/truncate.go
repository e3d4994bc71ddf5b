package pathfmt

// Separator is the path separator byte. Only POSIX paths are supported.
const Separator = '/'

// DefaultMaxComponents is the number of trailing path components rendered
// when no configuration overrides it.
const DefaultMaxComponents = 3

// TruncatedPath holds the rendered tail of a path.
//
// Ancestors is nil when only the final component is rendered. When present
// it always ends with the separator that precedes Final.
type TruncatedPath struct {
	Ancestors []byte
	Final     []byte
}

// HasAncestors reports whether any ancestor components are rendered
func (t TruncatedPath) HasAncestors() bool {
	return t.Ancestors != nil
}

// String joins ancestors and final component back together
func (t TruncatedPath) String() string {
	return string(t.Ancestors) + string(t.Final)
}

// Truncate keeps the last maxComponents components of path, discarding
// only earlier ancestors. The root path is returned unchanged. Runs of
// separators are collapsed to one before scanning, so "a//b" is treated
// as "a/b".
//
// The returned slices alias path, or a collapsed copy of it.
func Truncate(path []byte, maxComponents int) TruncatedPath {
	if maxComponents < 1 {
		maxComponents = 1
	}
	if len(path) == 0 {
		return TruncatedPath{Final: path}
	}

	path = collapseSeparators(path)

	if len(path) == 1 && path[0] == Separator {
		return TruncatedPath{Final: path}
	}
	if path[len(path)-1] == Separator {
		path = path[:len(path)-1]
	}

	lastStart := componentStart(path, len(path))
	if lastStart == 0 {
		return TruncatedPath{Final: path}
	}
	if maxComponents == 1 {
		return TruncatedPath{Final: path[lastStart:]}
	}

	// Walk back over maxComponents-1 more components. componentStart
	// returns 0 once the beginning is reached, which is then the ancestor
	// start even if fewer components exist.
	ancestorStart := lastStart
	for remaining := maxComponents - 1; remaining > 0 && ancestorStart > 0; remaining-- {
		ancestorStart = componentStart(path, ancestorStart-1)
	}

	return TruncatedPath{
		Ancestors: path[ancestorStart:lastStart],
		Final:     path[lastStart:],
	}
}

// componentStart scans backward from end (exclusive) and returns the offset
// just past the rightmost separator, or 0 if there is none.
func componentStart(path []byte, end int) int {
	for i := end - 1; i >= 0; i-- {
		if path[i] == Separator {
			return i + 1
		}
	}
	return 0
}

// collapseSeparators returns path with every run of separators replaced by
// a single one. The input is returned as-is when it has no such runs.
func collapseSeparators(path []byte) []byte {
	doubled := false
	for i := 1; i < len(path); i++ {
		if path[i] == Separator && path[i-1] == Separator {
			doubled = true
			break
		}
	}
	if !doubled {
		return path
	}

	out := make([]byte, 0, len(path))
	for i, b := range path {
		if b == Separator && i > 0 && path[i-1] == Separator {
			continue
		}
		out = append(out, b)
	}
	return out
}
