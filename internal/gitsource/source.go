// Package gitsource extracts diffs and repository metadata for review.
package gitsource

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	git "gopkg.in/src-d/go-git.v4"
	"gopkg.in/src-d/go-git.v4/plumbing"
)

// DiffMode selects which changes are extracted from the repository.
type DiffMode string

const (
	ModeUnstaged DiffMode = "unstaged"
	ModeStaged   DiffMode = "staged"
	ModeCommit   DiffMode = "commit"
	ModeBranch   DiffMode = "branch"
)

// ErrNotRepository indicates the working directory is not inside a git
// repository.
var ErrNotRepository = errors.New("not a git repository")

// InvalidReferenceError indicates a commit or branch reference that does not
// resolve in the repository.
type InvalidReferenceError struct {
	Ref string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid git reference: %q", e.Ref)
}

// EmptyDiffError indicates the requested diff mode produced no changes.
type EmptyDiffError struct {
	Mode DiffMode
}

func (e *EmptyDiffError) Error() string {
	return fmt.Sprintf("no changes found for %s diff", e.Mode)
}

// RepoInfo is a snapshot of the repository state for status reporting.
type RepoInfo struct {
	Path      string
	Branch    string
	Head      string
	Dirty     bool
	Untracked int
}

// Source reads diffs from a single git repository.
type Source struct {
	path string
	repo *git.Repository
}

// Open opens the repository at path. It returns ErrNotRepository when the
// path is not inside a git working tree.
func Open(path string) (*Source, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, ErrNotRepository
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return &Source{path: path, repo: repo}, nil
}

// Info returns the current repository snapshot.
func (s *Source) Info() (RepoInfo, error) {
	info := RepoInfo{Path: s.path}

	head, err := s.repo.Head()
	if err != nil {
		// Empty repository with no commits yet.
		return info, nil
	}
	info.Head = head.Hash().String()
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	} else {
		info.Branch = "HEAD (detached)"
	}

	wt, err := s.repo.Worktree()
	if err != nil {
		return info, fmt.Errorf("failed to read worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return info, fmt.Errorf("failed to read worktree status: %w", err)
	}
	info.Dirty = !status.IsClean()
	for _, st := range status {
		if st.Worktree == git.Untracked {
			info.Untracked++
		}
	}
	return info, nil
}

// ResolveRef resolves a branch name or commit reference to its hash. An
// unresolvable ref yields InvalidReferenceError.
func (s *Source) ResolveRef(ref string) (string, error) {
	h, err := s.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", &InvalidReferenceError{Ref: ref}
	}
	return h.String(), nil
}

// DefaultBaseBranch returns the first of main/master that resolves, falling
// back to "main".
func (s *Source) DefaultBaseBranch() string {
	for _, name := range []string{"main", "master"} {
		if _, err := s.ResolveRef(name); err == nil {
			return name
		}
	}
	return "main"
}

// Unstaged returns the diff of working tree changes against the index.
func (s *Source) Unstaged() (string, error) {
	out, err := s.runGit("diff")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &EmptyDiffError{Mode: ModeUnstaged}
	}
	return out, nil
}

// Staged returns the diff of index changes against HEAD.
func (s *Source) Staged() (string, error) {
	out, err := s.runGit("diff", "--cached")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &EmptyDiffError{Mode: ModeStaged}
	}
	return out, nil
}

// Commit returns the diff introduced by a single commit.
func (s *Source) Commit(ref string) (string, error) {
	if _, err := s.ResolveRef(ref); err != nil {
		return "", err
	}
	out, err := s.runGit("show", "--format=", ref)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &EmptyDiffError{Mode: ModeCommit}
	}
	return out, nil
}

// Branch returns the diff between a base and a target ref. The spec accepts
// either "base..target" range syntax or a bare branch name compared against
// the default base branch.
func (s *Source) Branch(spec string) (string, error) {
	base, target := s.DefaultBaseBranch(), spec
	if i := strings.Index(spec, ".."); i >= 0 {
		base = spec[:i]
		target = strings.TrimPrefix(spec[i+2:], ".")
	}
	if target == "" {
		target = "HEAD"
	}
	for _, ref := range []string{base, target} {
		if _, err := s.ResolveRef(ref); err != nil {
			return "", err
		}
	}
	out, err := s.runGit("diff", fmt.Sprintf("%s...%s", base, target))
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", &EmptyDiffError{Mode: ModeBranch}
	}
	return out, nil
}

// Diff dispatches to the extractor for the given mode. The ref argument is
// required for commit and branch modes and ignored otherwise.
func (s *Source) Diff(mode DiffMode, ref string) (string, error) {
	switch mode {
	case ModeStaged:
		return s.Staged()
	case ModeCommit:
		return s.Commit(ref)
	case ModeBranch:
		return s.Branch(ref)
	default:
		return s.Unstaged()
	}
}

// FileAt returns the content of a file at a given ref. Missing files return
// an empty string, which covers newly added and deleted paths.
func (s *Source) FileAt(ref, filePath string) string {
	out, err := s.runGit("show", fmt.Sprintf("%s:%s", ref, filePath))
	if err != nil {
		return ""
	}
	return out
}

func (s *Source) runGit(args ...string) (string, error) {
	fullArgs := append([]string{"-C", s.path}, args...)
	cmd := exec.Command("git", fullArgs...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", fmt.Errorf("git command failed: %s", strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git command failed: %w", err)
	}
	return string(out), nil
}
