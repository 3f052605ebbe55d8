package corpus

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrRefNotFound indicates the requested reference does not exist in
	// the repository. Callers map this to a distinct exit code so bad
	// input is distinguishable from infrastructure failure.
	ErrRefNotFound = errors.New("reference not found")
)

// CommandExecutor abstracts command execution for testing.
type CommandExecutor interface {
	// Run executes a command and returns its standard output.
	Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error)
}

// DefaultExecutor executes commands using os/exec.
type DefaultExecutor struct{}

// Run executes a command and returns its standard output.
func (e *DefaultExecutor) Run(ctx context.Context, dir string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		// Include stderr in error message for debugging
		if stderr.Len() > 0 {
			return nil, fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}

// GitClient executes git commands.
type GitClient struct {
	executor CommandExecutor
}

// NewGitClient creates a new GitClient with the default command executor.
func NewGitClient() *GitClient {
	return &GitClient{
		executor: &DefaultExecutor{},
	}
}

// NewGitClientWithExecutor creates a GitClient with a custom executor (for testing).
func NewGitClientWithExecutor(executor CommandExecutor) *GitClient {
	return &GitClient{
		executor: executor,
	}
}

// ResolveRef resolves a branch or tag name to its commit SHA using
// ls-remote, without cloning. A ref that looks like a full commit SHA is
// returned as-is since ls-remote cannot list arbitrary commits.
// Returns ErrRefNotFound when the repository has no matching ref.
func (g *GitClient) ResolveRef(ctx context.Context, repoURL, ref string) (string, error) {
	if looksLikeCommitSHA(ref) {
		return strings.ToLower(ref), nil
	}

	output, err := g.executor.Run(ctx, "", "git", "ls-remote", "--heads", "--tags", repoURL, ref)
	if err != nil {
		return "", fmt.Errorf("git ls-remote failed for %s: %w", repoURL, err)
	}

	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", fmt.Errorf("%w: %q in %s", ErrRefNotFound, ref, repoURL)
	}

	// Each line is "<sha>\t<ref>"; the first match wins.
	fields := strings.Fields(lines[0])
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: %q in %s", ErrRefNotFound, ref, repoURL)
	}

	return fields[0], nil
}

// CloneAndCheckout clones the repository into destDir and checks out the
// given ref. Returns the resolved HEAD commit SHA after checkout.
func (g *GitClient) CloneAndCheckout(ctx context.Context, repoURL, ref, destDir string) (string, error) {
	if _, err := g.executor.Run(ctx, "", "git", "clone", "--quiet", repoURL, destDir); err != nil {
		return "", fmt.Errorf("git clone failed for %s: %w", repoURL, err)
	}

	if _, err := g.executor.Run(ctx, destDir, "git", "checkout", "--quiet", ref); err != nil {
		return "", fmt.Errorf("%w: cannot checkout %q: %s", ErrRefNotFound, ref, err)
	}

	return g.HeadCommit(ctx, destDir)
}

// HeadCommit returns the current HEAD commit SHA of a working copy.
func (g *GitClient) HeadCommit(ctx context.Context, repoDir string) (string, error) {
	output, err := g.executor.Run(ctx, repoDir, "git", "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse failed: %w", err)
	}
	return strings.TrimSpace(string(output)), nil
}

// looksLikeCommitSHA reports whether ref is plausibly a full commit SHA.
func looksLikeCommitSHA(ref string) bool {
	if len(ref) != 40 {
		return false
	}
	for _, r := range strings.ToLower(ref) {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
