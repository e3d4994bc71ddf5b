package types

// StatusFlags is the union of the status of every changed path
type StatusFlags uint16

const (
	StatusConflicted StatusFlags = 1 << iota
	StatusWtNew
	StatusIndexNew
	StatusWtModified
	StatusIndexModified
	StatusWtTypeChange
	StatusIndexTypeChange
	StatusWtRenamed
	StatusIndexRenamed
	StatusWtDeleted
	StatusIndexDeleted
)

// statusOrder is the fixed rendering order of the flags
var statusOrder = []struct {
	flag StatusFlags
	char byte
	name string
}{
	{StatusConflicted, 'C', "conflicted"},
	{StatusWtNew, 'n', "untracked"},
	{StatusIndexNew, 'N', "staged new"},
	{StatusWtModified, 'm', "modified"},
	{StatusIndexModified, 'M', "staged modified"},
	{StatusWtTypeChange, 't', "type changed"},
	{StatusIndexTypeChange, 'T', "staged type change"},
	{StatusWtRenamed, 'r', "renamed"},
	{StatusIndexRenamed, 'R', "staged rename"},
	{StatusWtDeleted, 'd', "deleted"},
	{StatusIndexDeleted, 'D', "staged delete"},
}

// Has reports whether every bit of flag is set
func (f StatusFlags) Has(flag StatusFlags) bool {
	return f&flag == flag
}

// String renders the set flags as characters in the fixed order
// "CnNmMtTrRdD".
func (f StatusFlags) String() string {
	out := make([]byte, 0, len(statusOrder))
	for _, s := range statusOrder {
		if f.Has(s.flag) {
			out = append(out, s.char)
		}
	}
	return string(out)
}

// Names returns a human-readable name for each set flag, in rendering order
func (f StatusFlags) Names() []string {
	var names []string
	for _, s := range statusOrder {
		if f.Has(s.flag) {
			names = append(names, s.name)
		}
	}
	return names
}
