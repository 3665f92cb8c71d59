package gitctx

import (
	"regexp"
	"strings"

	git "github.com/go-git/go-git/v5"
)

// Remotes returns the fetch URLs of every configured remote. Falls back to
// remote.origin.url via git config when go-git cannot open the repository.
func Remotes(repoPath string) []string {
	if repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true}); err == nil {
		if rs, err := repo.Remotes(); err == nil {
			var urls []string
			for _, r := range rs {
				urls = append(urls, r.Config().URLs...)
			}
			if len(urls) > 0 {
				return urls
			}
		}
	}
	if out, err := runGit(repoPath, "config", "--get", "remote.origin.url"); err == nil && out != "" {
		return []string{out}
	}
	return nil
}

// SSH remotes: git@github.com:owner/repo.git, ssh://git@host/owner/repo
var sshRemote = regexp.MustCompile(`^(?:ssh://)?git@([^:/]+)[:/](.+)$`)

// NormalizeRemoteURL maps equivalent remote spellings onto one form:
// SSH becomes https, ".git" and trailing slashes drop, case folds.
func NormalizeRemoteURL(raw string) string {
	url := strings.TrimSpace(raw)
	if m := sshRemote.FindStringSubmatch(url); m != nil {
		url = "https://" + m[1] + "/" + m[2]
	}
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")
	url = strings.TrimSuffix(url, "/")
	return strings.ToLower(url)
}
