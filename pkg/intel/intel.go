// Package intel maintains a local mirror of a community phishing blocklist
// published as a git repository. Domains found in the blocklist short-circuit
// classification: a listed domain is phishing regardless of model output.
package intel

import (
	"bufio"
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/google/go-github/v60/github"
	"golang.org/x/oauth2"
)

// blocklistFile is the file inside the mirror that carries one domain per
// line. Lines starting with # are comments.
const blocklistFile = "domains.txt"

// Feed owns the mirror and the in-memory domain set built from it.
type Feed struct {
	repoURL  string
	cacheDir string
	token    string

	mu      sync.RWMutex
	domains map[string]struct{}
}

// NewFeed returns a feed for repoURL mirrored under cacheDir. An empty
// repoURL yields a disabled feed whose Lookup always misses.
func NewFeed(repoURL, cacheDir, token string) *Feed {
	return &Feed{
		repoURL:  repoURL,
		cacheDir: cacheDir,
		token:    token,
		domains:  make(map[string]struct{}),
	}
}

// Refresh clones or fast-forwards the mirror and reloads the domain set.
func (f *Feed) Refresh(ctx context.Context) error {
	if f.repoURL == "" {
		return nil
	}
	if err := f.sync(ctx); err != nil {
		return err
	}
	return f.reload()
}

// sync brings the local mirror up to date with the remote.
func (f *Feed) sync(ctx context.Context) error {
	repo, err := git.PlainOpen(f.cacheDir)
	if err == git.ErrRepositoryNotExists {
		_, err = git.PlainCloneContext(ctx, f.cacheDir, false, &git.CloneOptions{
			URL:   f.repoURL,
			Depth: 1,
		})
		return err
	}
	if err != nil {
		return err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	err = wt.PullContext(ctx, &git.PullOptions{})
	if err == git.NoErrAlreadyUpToDate {
		return nil
	}
	return err
}

// reload rebuilds the in-memory set from the mirrored blocklist file.
func (f *Feed) reload() error {
	file, err := os.Open(filepath.Join(f.cacheDir, blocklistFile))
	if err != nil {
		return err
	}
	defer file.Close()

	domains := make(map[string]struct{})
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		domains[strings.ToLower(line)] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	f.domains = domains
	f.mu.Unlock()
	log.Printf("intel feed loaded: %d blocklisted domains", len(domains))
	return nil
}

// Lookup reports whether the domain, or any registrable parent of it, is
// blocklisted.
func (f *Feed) Lookup(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return false
	}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for domain != "" {
		if _, ok := f.domains[domain]; ok {
			return true
		}
		idx := strings.Index(domain, ".")
		if idx < 0 {
			break
		}
		domain = domain[idx+1:]
	}
	return false
}

// Size returns the number of loaded blocklist entries.
func (f *Feed) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.domains)
}

// UpstreamPushedAt asks the GitHub API when the blocklist repository last
// received a push, so operators can tell how stale the mirror is. Returns
// the zero time when the repo URL is not a GitHub repository.
func (f *Feed) UpstreamPushedAt(ctx context.Context) (time.Time, error) {
	owner, name, ok := githubRepoPath(f.repoURL)
	if !ok {
		return time.Time{}, nil
	}

	var client *github.Client
	if f.token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: f.token})
		client = github.NewClient(oauth2.NewClient(ctx, ts))
	} else {
		client = github.NewClient(nil)
	}

	repo, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return time.Time{}, err
	}
	if repo.PushedAt == nil {
		return time.Time{}, nil
	}
	return repo.PushedAt.Time, nil
}

// githubRepoPath extracts the owner and repo from a github.com clone URL.
func githubRepoPath(repoURL string) (owner, name string, ok bool) {
	trimmed := strings.TrimSuffix(repoURL, ".git")
	idx := strings.Index(trimmed, "github.com/")
	if idx < 0 {
		return "", "", false
	}
	parts := strings.Split(trimmed[idx+len("github.com/"):], "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
