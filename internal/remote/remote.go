// Package remote resolves repository arguments that name a remote git
// repository instead of a local path, and clones them for indexing.
package remote

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Source is a remote repository reference.
type Source struct {
	URL string // normalized clone URL
	Ref string // branch, tag, or SHA (empty = default branch)
}

// Parse decides whether a repository argument names a remote. A path
// that exists locally always wins; otherwise GitHub owner/repo
// shorthand and full git URLs are recognized, optionally suffixed with
// @ref. Returns nil when the argument is not a remote reference.
func Parse(arg string) *Source {
	if _, err := os.Stat(arg); err == nil {
		return nil
	}

	ref := ""
	spec := arg
	// Only an @ after the final path segment separator is a ref; an @
	// earlier in the string is userinfo in a URL.
	if idx := strings.LastIndex(spec, "@"); idx != -1 && idx > strings.LastIndex(spec, "/") {
		ref = spec[idx+1:]
		spec = spec[:idx]
	}

	switch {
	case strings.HasPrefix(spec, "https://"), strings.HasPrefix(spec, "http://"),
		strings.HasPrefix(spec, "git://"), strings.HasPrefix(spec, "ssh://"):
		return &Source{URL: spec, Ref: ref}
	case isGitHubShorthand(spec):
		return &Source{URL: "https://github.com/" + spec, Ref: ref}
	}
	return nil
}

// isGitHubShorthand reports whether spec matches owner/repo: exactly one
// slash and no dots before it (a dot would indicate a hostname).
func isGitHubShorthand(spec string) bool {
	slashIdx := strings.Index(spec, "/")
	if slashIdx == -1 || strings.Count(spec, "/") != 1 {
		return false
	}
	if strings.Contains(spec[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(spec)-1
}

// Clone fetches the repository into a temp directory and returns the
// path. The caller owns cleanup of the returned directory.
func Clone(ctx context.Context, src *Source) (string, error) {
	dir, err := os.MkdirTemp("", "codeprism-remote-*")
	if err != nil {
		return "", err
	}

	opts := &git.CloneOptions{
		URL:   src.URL,
		Depth: 1,
	}
	if src.Ref != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(src.Ref)
		opts.SingleBranch = true
	}

	_, err = git.PlainCloneContext(ctx, dir, false, opts)
	if err != nil && src.Ref != "" {
		// The ref may be a tag rather than a branch.
		opts.ReferenceName = plumbing.NewTagReferenceName(src.Ref)
		os.RemoveAll(dir)
		if dir, mkErr := os.MkdirTemp("", "codeprism-remote-*"); mkErr == nil {
			if _, tagErr := git.PlainCloneContext(ctx, dir, false, opts); tagErr == nil {
				return dir, nil
			}
			os.RemoveAll(dir)
		}
	}
	if err != nil {
		os.RemoveAll(dir)
		return "", fmt.Errorf("clone %s: %w", src.URL, err)
	}
	return dir, nil
}
