package git

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jlaneve/prompt/internal/types"
)

// Backend defines the repository reads needed to summarize a repository.
// Implementations only ever read repository metadata.
type Backend interface {
	// Head resolves HEAD. Returns ErrUnbornBranch when HEAD names a branch
	// without commits.
	Head() (Reference, error)
	// FindReference looks a reference up without resolving it.
	FindReference(name string) (Reference, error)
	// FindBranch finds a local branch by short name.
	FindBranch(name string) (Branch, error)
	LocalBranches() ([]Branch, error)
	// Upstream returns the remote-tracking branch of b, or ErrNotFound.
	Upstream(b Branch) (Branch, error)
	// BranchRemoteName returns the remote whose fetch refspec maps to the
	// given remote-tracking reference, or ErrNotFound.
	BranchRemoteName(refName string) (string, error)
	// AheadBehind counts commits reachable from local but not upstream and
	// the reverse.
	AheadBehind(local, upstream string) (ahead, behind int, err error)
	// Statuses lists changed paths. Returns ErrBareRepo without a work tree.
	Statuses(opts StatusOptions) ([]StatusEntry, error)
	// Reflog reads the reflog of ref, or ErrNotFound.
	Reflog(ref string) ([]ReflogEntry, error)
	// ShortID abbreviates an object id the way the backend prefers.
	ShortID(oid string) (string, error)
	// State reports an in-progress merge, rebase, etc.
	State() (types.RepositoryState, error)
	// Workdir is the root of the working tree, empty for bare repositories.
	Workdir() string
	GitDir() string
}

// Reference is a named reference such as HEAD or refs/heads/main
type Reference struct {
	Name           string // e.g. "HEAD"
	SymbolicTarget string // e.g. "refs/heads/main", empty when direct
	Target         string // object id, empty when unresolved
}

// Symbolic reports whether the reference points at another reference
func (r Reference) Symbolic() bool {
	return r.SymbolicTarget != ""
}

// Shorthand is the human-readable name: the branch name for a symbolic
// HEAD, "HEAD" when detached.
func (r Reference) Shorthand() string {
	if r.Symbolic() {
		return Shorthand(r.SymbolicTarget)
	}
	return Shorthand(r.Name)
}

// Branch is a local or remote-tracking branch
type Branch struct {
	Name    string // short name, e.g. "main" or "origin/main"
	RefName string // e.g. "refs/heads/main"
	Target  string // object id

	// upstreamRef is the configured upstream of a local branch and track
	// its divergence as for-each-ref reports it, e.g. "ahead 1, behind 2"
	upstreamRef string
	track       string
}

// IsRemote reports whether the branch is a remote-tracking branch
func (b Branch) IsRemote() bool {
	return strings.HasPrefix(b.RefName, remotesPrefix)
}

// StatusOptions controls which changes Statuses reports
type StatusOptions struct {
	IncludeUntracked     bool
	RecurseUntrackedDirs bool
	// RenamesHeadToIndex detects renames between HEAD and the index
	RenamesHeadToIndex bool
	// RenamesIndexToWorkdir pairs paths deleted from the work tree with
	// untracked files of identical content. Needs IncludeUntracked.
	RenamesIndexToWorkdir bool
	// RenamesFromRewrites also treats paths modified in the work tree as
	// sources when their index content reappears as an untracked file
	RenamesFromRewrites bool
}

// PromptStatusOptions are the options used to render the prompt: untracked
// files including those in untracked directories, with rename detection.
func PromptStatusOptions() StatusOptions {
	return StatusOptions{
		IncludeUntracked:      true,
		RecurseUntrackedDirs:  true,
		RenamesHeadToIndex:    true,
		RenamesIndexToWorkdir: true,
		RenamesFromRewrites:   true,
	}
}

// StatusEntry is the status of a single path
type StatusEntry struct {
	Path   string
	Status types.StatusFlags
}

// ReflogEntry is one line of a reflog, newest first
type ReflogEntry struct {
	ID      string
	Message string
}

const (
	headsPrefix   = "refs/heads/"
	remotesPrefix = "refs/remotes/"
	tagsPrefix    = "refs/tags/"
	refsPrefix    = "refs/"
)

// Shorthand strips the well-known namespace prefix from a reference name
func Shorthand(refName string) string {
	for _, prefix := range []string{headsPrefix, remotesPrefix, tagsPrefix, refsPrefix} {
		if strings.HasPrefix(refName, prefix) {
			return strings.TrimPrefix(refName, prefix)
		}
	}
	return refName
}

// CLIBackend implements Backend using the git command line
type CLIBackend struct {
	gitDir    string
	commonDir string
	workdir   string
	git       runner

	// counts holds divergence already reported by for-each-ref, keyed by
	// "local...upstream" object ids
	counts map[string][2]int
}

// Open discovers the repository containing dir, searching parent
// directories. Returns ErrNotRepository when there is none.
func Open(dir string, logger *zap.Logger) (*CLIBackend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := runner{dir: dir, logger: logger}

	out, err := r.runTrimmed("rev-parse", "--absolute-git-dir", "--git-common-dir", "--is-bare-repository", "--is-inside-work-tree")
	if err != nil {
		if exitCode(err) == 128 {
			return nil, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return nil, err
	}

	lines := strings.Split(out, "\n")
	if len(lines) != 4 {
		return nil, fmt.Errorf("unexpected rev-parse output %q", out)
	}
	b := &CLIBackend{gitDir: lines[0], commonDir: lines[1], git: r, counts: make(map[string][2]int)}
	// --git-common-dir is relative to dir unless it lies elsewhere
	if !filepath.IsAbs(b.commonDir) {
		b.commonDir = filepath.Join(dir, b.commonDir)
	}

	if lines[2] != "true" && lines[3] == "true" {
		top, err := r.runTrimmed("rev-parse", "--show-toplevel")
		if err != nil {
			return nil, fmt.Errorf("failed to find work tree root: %w", err)
		}
		b.workdir = top
		b.git.dir = top
	} else {
		b.git.dir = b.gitDir
	}
	return b, nil
}

// Workdir returns the root of the working tree, empty when there is none
func (b *CLIBackend) Workdir() string {
	return b.workdir
}

// GitDir returns the absolute path of the git directory
func (b *CLIBackend) GitDir() string {
	return b.gitDir
}

// Head resolves HEAD
func (b *CLIBackend) Head() (Reference, error) {
	ref, err := b.FindReference("HEAD")
	if err != nil {
		return Reference{}, err
	}

	rev := "HEAD"
	if ref.Symbolic() {
		rev = ref.SymbolicTarget
	}
	oid, err := b.git.verify(rev + "^{commit}")
	if err != nil {
		if ref.Symbolic() && errors.Is(err, ErrNotFound) {
			return ref, ErrUnbornBranch
		}
		return Reference{}, fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	ref.Target = oid
	return ref, nil
}

// FindReference reads name without peeling it. Only symbolic references
// and object ids are reported; the target of a symbolic reference is not
// resolved.
func (b *CLIBackend) FindReference(name string) (Reference, error) {
	if name == "HEAD" {
		if ref, ok := b.readHeadFile(); ok {
			return ref, nil
		}
	}

	target, err := b.git.runTrimmed("symbolic-ref", "-q", name)
	if err == nil {
		return Reference{Name: name, SymbolicTarget: target}, nil
	}
	if exitCode(err) != 1 {
		return Reference{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	// Not symbolic: a direct reference, or nothing at all
	oid, err := b.git.verify(name)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Name: name, Target: oid}, nil
}

// readHeadFile parses HEAD from the git directory. ok is false for
// anything but the two plain forms, which are then left to git.
func (b *CLIBackend) readHeadFile() (Reference, bool) {
	data, err := os.ReadFile(filepath.Join(b.gitDir, "HEAD"))
	if err != nil {
		return Reference{}, false
	}
	content := strings.TrimSpace(string(data))
	if target, ok := strings.CutPrefix(content, "ref: "); ok {
		// reftable repositories keep a placeholder HEAD
		if !strings.HasPrefix(target, refsPrefix) || target == "refs/heads/.invalid" {
			return Reference{}, false
		}
		return Reference{Name: "HEAD", SymbolicTarget: target}, true
	}
	if isObjectID(content) {
		return Reference{Name: "HEAD", Target: content}, true
	}
	return Reference{}, false
}

// isObjectID reports whether s is a full SHA-1 or SHA-256 hex object id
func isObjectID(s string) bool {
	if len(s) != 40 && len(s) != 64 {
		return false
	}
	for _, c := range s {
		if !strings.ContainsRune("0123456789abcdef", c) {
			return false
		}
	}
	return true
}

const branchFormat = "%(refname)%00%(objectname)%00%(upstream)%00%(upstream:track,nobracket)"

// FindBranch finds the local branch with the given short name
func (b *CLIBackend) FindBranch(name string) (Branch, error) {
	refName := headsPrefix + name
	branches, err := b.listBranches(refName)
	if err != nil {
		return Branch{}, err
	}
	// for-each-ref matches path prefixes, so refs/heads/main also lists
	// refs/heads/main/topic
	for _, branch := range branches {
		if branch.RefName == refName {
			return branch, nil
		}
	}
	return Branch{}, fmt.Errorf("%w: branch %s", ErrNotFound, name)
}

// LocalBranches lists every local branch
func (b *CLIBackend) LocalBranches() ([]Branch, error) {
	return b.listBranches(strings.TrimSuffix(headsPrefix, "/"))
}

func (b *CLIBackend) listBranches(pattern string) ([]Branch, error) {
	out, err := b.git.run("for-each-ref", "--format="+branchFormat, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	var branches []Branch
	for _, line := range bytes.Split(out, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		fields := bytes.Split(line, []byte{0})
		if len(fields) != 4 {
			return nil, fmt.Errorf("unexpected for-each-ref line %q", line)
		}
		refName := string(fields[0])
		branches = append(branches, Branch{
			Name:        Shorthand(refName),
			RefName:     refName,
			Target:      string(fields[1]),
			upstreamRef: string(fields[2]),
			track:       string(fields[3]),
		})
	}
	return branches, nil
}

// Upstream resolves the configured upstream of branch. An upstream that
// is configured but does not exist locally is reported as ErrNotFound.
func (b *CLIBackend) Upstream(branch Branch) (Branch, error) {
	if branch.upstreamRef == "" {
		return Branch{}, fmt.Errorf("%w: no upstream for %s", ErrNotFound, branch.Name)
	}
	if branch.track == "gone" {
		return Branch{}, fmt.Errorf("%w: upstream %s of %s", ErrNotFound, branch.upstreamRef, branch.Name)
	}
	oid, err := b.git.verify(branch.upstreamRef)
	if err != nil {
		return Branch{}, err
	}
	if ahead, behind, ok := parseTrack(branch.track); ok && b.counts != nil {
		b.counts[branch.Target+"..."+oid] = [2]int{ahead, behind}
	}
	return Branch{
		Name:    Shorthand(branch.upstreamRef),
		RefName: branch.upstreamRef,
		Target:  oid,
	}, nil
}

// BranchRemoteName finds the single remote whose fetch refspec destination
// matches refName.
func (b *CLIBackend) BranchRemoteName(refName string) (string, error) {
	out, err := b.git.run("config", "-z", "--get-regexp", `^remote\..*\.fetch$`)
	if err != nil {
		// exit 1: no remotes configured
		if exitCode(err) == 1 {
			return "", fmt.Errorf("%w: no remote for %s", ErrNotFound, refName)
		}
		return "", fmt.Errorf("failed to read remote refspecs: %w", err)
	}

	var match string
	for _, entry := range bytes.Split(out, []byte{0}) {
		key, value, ok := bytes.Cut(entry, []byte("\n"))
		if !ok {
			continue
		}
		remote := strings.TrimSuffix(strings.TrimPrefix(string(key), "remote."), ".fetch")
		if !refspecDestinationMatches(string(value), refName) {
			continue
		}
		if match != "" && match != remote {
			return "", fmt.Errorf("%s matches refspecs of remotes %q and %q", refName, match, remote)
		}
		match = remote
	}
	if match == "" {
		return "", fmt.Errorf("%w: no remote for %s", ErrNotFound, refName)
	}
	return match, nil
}

// refspecDestinationMatches reports whether refName falls under the
// destination side of a fetch refspec such as
// "+refs/heads/*:refs/remotes/origin/*".
func refspecDestinationMatches(refspec, refName string) bool {
	refspec = strings.TrimPrefix(refspec, "+")
	if strings.HasPrefix(refspec, "^") {
		return false
	}
	_, dst, ok := strings.Cut(refspec, ":")
	if !ok || dst == "" {
		return false
	}
	prefix, suffix, glob := strings.Cut(dst, "*")
	if !glob {
		return dst == refName
	}
	return len(refName) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(refName, prefix) &&
		strings.HasSuffix(refName, suffix)
}

// parseTrack reads %(upstream:track,nobracket): "", "ahead 1",
// "behind 2" or "ahead 1, behind 2".
func parseTrack(track string) (ahead, behind int, ok bool) {
	if track == "" {
		return 0, 0, true
	}
	for _, part := range strings.Split(track, ", ") {
		kind, count, found := strings.Cut(part, " ")
		if !found {
			return 0, 0, false
		}
		n, err := strconv.Atoi(count)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		switch kind {
		case "ahead":
			ahead = n
		case "behind":
			behind = n
		default:
			return 0, 0, false
		}
	}
	return ahead, behind, true
}

// AheadBehind counts the commits on each side of local...upstream. Counts
// already reported alongside the upstream are reused.
func (b *CLIBackend) AheadBehind(local, upstream string) (int, int, error) {
	if c, ok := b.counts[local+"..."+upstream]; ok {
		return c[0], c[1], nil
	}
	out, err := b.git.runTrimmed("rev-list", "--left-right", "--count", local+"..."+upstream)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count ahead/behind: %w", err)
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("unexpected rev-list output %q", out)
	}
	ahead, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid ahead count %q: %w", fields[0], err)
	}
	behind, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid behind count %q: %w", fields[1], err)
	}
	return ahead, behind, nil
}

// Statuses lists every changed path of the working tree and index
func (b *CLIBackend) Statuses(opts StatusOptions) ([]StatusEntry, error) {
	if b.workdir == "" {
		return nil, ErrBareRepo
	}
	out, err := b.git.run(statusArgs(opts)...)
	if err != nil {
		return nil, fmt.Errorf("failed to read status: %w", err)
	}
	records, err := parseStatusRecords(out)
	if err != nil {
		return nil, err
	}

	if opts.RenamesIndexToWorkdir && opts.IncludeUntracked {
		hashes, err := b.hashUntracked(records, opts.RenamesFromRewrites)
		if err != nil {
			return nil, err
		}
		records = pairWorkdirRenames(records, hashes, opts.RenamesFromRewrites)
	}
	return entriesOf(records), nil
}

// hashUntracked computes the blob ids of untracked files, but only when
// some tracked path could have moved to one of them.
func (b *CLIBackend) hashUntracked(records []statusRecord, fromRewrites bool) (map[string]string, error) {
	hasSource := false
	for _, rec := range records {
		if renameSource(rec, fromRewrites) {
			hasSource = true
			break
		}
	}
	if !hasSource {
		return nil, nil
	}
	paths := untrackedFiles(records)
	if len(paths) == 0 {
		return nil, nil
	}

	out, err := b.git.runInput([]byte(strings.Join(paths, "\n")+"\n"), "hash-object", "--stdin-paths")
	if err != nil {
		return nil, fmt.Errorf("failed to hash untracked files: %w", err)
	}
	ids := strings.Fields(string(out))
	if len(ids) != len(paths) {
		return nil, fmt.Errorf("hash-object returned %d ids for %d paths", len(ids), len(paths))
	}
	hashes := make(map[string]string, len(paths))
	for i, path := range paths {
		hashes[path] = ids[i]
	}
	return hashes, nil
}

func statusArgs(opts StatusOptions) []string {
	args := []string{"status", "--porcelain=v2", "-z", "--ignored=no"}
	switch {
	case opts.IncludeUntracked && opts.RecurseUntrackedDirs:
		args = append(args, "--untracked-files=all")
	case opts.IncludeUntracked:
		args = append(args, "--untracked-files=normal")
	default:
		args = append(args, "--untracked-files=no")
	}
	// Work tree renames are paired by Statuses; git only finds them for
	// intent-to-add paths
	if opts.RenamesHeadToIndex {
		args = append(args, "--find-renames")
	} else {
		args = append(args, "--no-renames")
	}
	return args
}

// Reflog reads the entries of the reflog of ref, newest first, straight
// from the logs directory.
func (b *CLIBackend) Reflog(ref string) ([]ReflogEntry, error) {
	data, err := os.ReadFile(b.reflogPath(ref))
	if errors.Is(err, fs.ErrNotExist) {
		if b.usesReftable() {
			return b.reflogFromGit(ref)
		}
		return nil, fmt.Errorf("%w: reflog %s", ErrNotFound, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reflog %s: %w", ref, err)
	}

	// Each line is "<old> <new> <committer> <time> <tz>\t<message>",
	// oldest first
	var entries []ReflogEntry
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		header, msg, _ := strings.Cut(line, "\t")
		fields := strings.Fields(header)
		if len(fields) < 2 || !isObjectID(fields[1]) {
			return nil, fmt.Errorf("malformed reflog %s line %q", ref, line)
		}
		entries = append(entries, ReflogEntry{ID: fields[1], Message: msg})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: reflog %s", ErrNotFound, ref)
	}
	slices.Reverse(entries)
	return entries, nil
}

// usesReftable reports whether refs and their logs live in reftable files
// rather than under refs/ and logs/
func (b *CLIBackend) usesReftable() bool {
	info, err := os.Stat(filepath.Join(b.commonDir, "reftable"))
	return err == nil && info.IsDir()
}

func (b *CLIBackend) reflogFromGit(ref string) ([]ReflogEntry, error) {
	out, err := b.git.run("reflog", "show", "--format=%H%x00%gs", ref, "--")
	if err != nil {
		if exitCode(err) > 0 {
			return nil, fmt.Errorf("%w: reflog %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("failed to read reflog %s: %w", ref, err)
	}

	var entries []ReflogEntry
	for _, line := range strings.Split(string(out), "\n") {
		if line == "" {
			continue
		}
		id, msg, _ := strings.Cut(line, "\x00")
		entries = append(entries, ReflogEntry{ID: id, Message: msg})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: reflog %s", ErrNotFound, ref)
	}
	return entries, nil
}

// reflogPath places HEAD and per-worktree refs in the git directory and
// every other ref in the common directory shared by linked worktrees.
func (b *CLIBackend) reflogPath(ref string) string {
	dir := b.commonDir
	if dir == "" || !strings.HasPrefix(ref, refsPrefix) ||
		strings.HasPrefix(ref, "refs/bisect/") ||
		strings.HasPrefix(ref, "refs/worktree/") ||
		strings.HasPrefix(ref, "refs/rewritten/") {
		dir = b.gitDir
	}
	return filepath.Join(dir, "logs", filepath.FromSlash(ref))
}

// ShortID abbreviates oid using core.abbrev
func (b *CLIBackend) ShortID(oid string) (string, error) {
	out, err := b.git.runTrimmed("rev-parse", "--short", oid)
	if err != nil {
		return "", fmt.Errorf("failed to abbreviate %s: %w", oid, err)
	}
	return out, nil
}

// State inspects the git directory for an in-progress operation
func (b *CLIBackend) State() (types.RepositoryState, error) {
	return DetectState(b.gitDir), nil
}

// RelToRepoParent returns dir relative to the parent of the work tree
// root, so the repository directory name is the first component. ok is
// false when dir is outside workdir.
func RelToRepoParent(workdir, dir string) (string, bool) {
	parent := filepath.Dir(workdir)
	if parent == workdir {
		return "", false
	}
	inner, err := filepath.Rel(workdir, dir)
	if err != nil || inner == ".." || strings.HasPrefix(inner, "../") {
		return "", false
	}
	return filepath.Join(filepath.Base(workdir), inner), true
}
