// Package vcs reads repository metadata from git for the stats tools.
package vcs

import (
	"errors"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Info summarizes a git repository's state.
type Info struct {
	Branch       string    `json:"branch" toon:"branch"`
	Head         string    `json:"head" toon:"head"`
	Commits      int       `json:"commits" toon:"commits"`
	Contributors int       `json:"contributors" toon:"contributors"`
	LastCommitAt time.Time `json:"last_commit_at" toon:"last_commit_at"`
	Remote       string    `json:"remote,omitempty" toon:"remote,omitempty"`
}

// CommitInfo is one log entry.
type CommitInfo struct {
	Hash    string    `json:"hash" toon:"hash"`
	Author  string    `json:"author" toon:"author"`
	Message string    `json:"message" toon:"message"`
	When    time.Time `json:"when" toon:"when"`
}

// ErrNotRepository is returned when the path is not inside a git worktree.
var ErrNotRepository = errors.New("not a git repository")

func open(path string) (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNotRepository
	}
	return repo, err
}

// Describe reports branch, head, commit count, and contributor count for
// the repository containing path.
func Describe(path string) (*Info, error) {
	repo, err := open(path)
	if err != nil {
		return nil, err
	}

	head, err := repo.Head()
	if err != nil {
		return nil, err
	}

	info := &Info{
		Head: head.Hash().String(),
	}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}

	if remotes, err := repo.Remotes(); err == nil && len(remotes) > 0 {
		urls := remotes[0].Config().URLs
		if len(urls) > 0 {
			info.Remote = urls[0]
		}
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return info, nil
	}
	defer iter.Close()

	authors := make(map[string]bool)
	err = iter.ForEach(func(c *object.Commit) error {
		info.Commits++
		authors[c.Author.Email] = true
		if c.Author.When.After(info.LastCommitAt) {
			info.LastCommitAt = c.Author.When
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	info.Contributors = len(authors)
	return info, nil
}

// RecentCommits returns up to n log entries from HEAD.
func RecentCommits(path string, n int) ([]CommitInfo, error) {
	repo, err := open(path)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, err
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []CommitInfo
	err = iter.ForEach(func(c *object.Commit) error {
		if n > 0 && len(out) >= n {
			return errStop
		}
		out = append(out, CommitInfo{
			Hash:    c.Hash.String(),
			Author:  c.Author.Name,
			Message: firstLine(c.Message),
			When:    c.Author.When,
		})
		return nil
	})
	if err != nil && !errors.Is(err, errStop) {
		return nil, err
	}
	return out, nil
}

var errStop = errors.New("stop iteration")

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
