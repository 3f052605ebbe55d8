package corpus

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestResolveRef_Tag(t *testing.T) {
	executor := NewMockExecutor()
	executor.AddResponse("git ls-remote", []byte(testCommit+"\trefs/tags/v1.0\n"), nil)

	git := NewGitClientWithExecutor(executor)
	commit, err := git.ResolveRef(context.Background(), "https://github.com/example/project.git", "v1.0")
	if err != nil {
		t.Fatalf("ResolveRef failed: %v", err)
	}
	if commit != testCommit {
		t.Errorf("commit = %q, want %q", commit, testCommit)
	}

	call := executor.MustGetLastCall(t)
	if call.Name != "git" || call.Args[0] != "ls-remote" {
		t.Errorf("unexpected command: %s %v", call.Name, call.Args)
	}
	if !strings.Contains(strings.Join(call.Args, " "), "v1.0") {
		t.Errorf("ls-remote should be filtered by ref, got %v", call.Args)
	}
}

func TestResolveRef_FirstMatchWins(t *testing.T) {
	other := strings.Repeat("f", 40)
	executor := NewMockExecutor()
	executor.AddResponse("git ls-remote",
		[]byte(testCommit+"\trefs/heads/main\n"+other+"\trefs/tags/main\n"), nil)

	git := NewGitClientWithExecutor(executor)
	commit, err := git.ResolveRef(context.Background(), "url", "main")
	if err != nil {
		t.Fatalf("ResolveRef failed: %v", err)
	}
	if commit != testCommit {
		t.Errorf("commit = %q, want first listed %q", commit, testCommit)
	}
}

func TestResolveRef_NotFound(t *testing.T) {
	executor := NewMockExecutor()
	executor.AddResponse("git ls-remote", []byte(""), nil)

	git := NewGitClientWithExecutor(executor)
	_, err := git.ResolveRef(context.Background(), "url", "no-such-ref")
	if !errors.Is(err, ErrRefNotFound) {
		t.Errorf("error = %v, want ErrRefNotFound", err)
	}
}

func TestResolveRef_CommitPassthrough(t *testing.T) {
	executor := NewMockExecutor()
	git := NewGitClientWithExecutor(executor)

	upper := strings.ToUpper(testCommit)
	commit, err := git.ResolveRef(context.Background(), "url", upper)
	if err != nil {
		t.Fatalf("ResolveRef failed: %v", err)
	}
	if commit != testCommit {
		t.Errorf("commit = %q, want lowercased %q", commit, testCommit)
	}
	if len(executor.GetCalls()) != 0 {
		t.Error("a full SHA should not hit the remote")
	}
}

func TestResolveRef_ShortSHAIsNotPassedThrough(t *testing.T) {
	executor := NewMockExecutor()
	executor.AddResponse("git ls-remote", []byte(testCommit+"\trefs/heads/abcdef0\n"), nil)

	git := NewGitClientWithExecutor(executor)
	if _, err := git.ResolveRef(context.Background(), "url", "abcdef0"); err != nil {
		t.Fatalf("ResolveRef failed: %v", err)
	}
	if len(executor.GetCalls()) != 1 {
		t.Error("a short hex ref must be resolved via ls-remote")
	}
}

func TestResolveRef_CommandError(t *testing.T) {
	executor := NewMockExecutor()
	executor.AddResponse("git ls-remote", nil, errors.New("network unreachable"))

	git := NewGitClientWithExecutor(executor)
	if _, err := git.ResolveRef(context.Background(), "url", "main"); err == nil {
		t.Error("expected error when ls-remote fails")
	}
}

func TestCloneAndCheckout(t *testing.T) {
	executor := NewMockExecutor()
	executor.AddResponse("git clone", nil, nil)
	executor.AddResponse("git checkout", nil, nil)
	executor.AddResponse("git rev-parse", []byte(testCommit+"\n"), nil)

	git := NewGitClientWithExecutor(executor)
	commit, err := git.CloneAndCheckout(context.Background(), "url", "v1.0", "/tmp/dest")
	if err != nil {
		t.Fatalf("CloneAndCheckout failed: %v", err)
	}
	if commit != testCommit {
		t.Errorf("commit = %q, want %q", commit, testCommit)
	}

	calls := executor.GetCalls()
	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	if calls[1].Dir != "/tmp/dest" {
		t.Errorf("checkout dir = %q, want /tmp/dest", calls[1].Dir)
	}
	if calls[2].Dir != "/tmp/dest" {
		t.Errorf("rev-parse dir = %q, want /tmp/dest", calls[2].Dir)
	}
}

func TestCloneAndCheckout_BadRef(t *testing.T) {
	executor := NewMockExecutor()
	executor.AddResponse("git clone", nil, nil)
	executor.AddResponse("git checkout", nil, errors.New("pathspec did not match"))

	git := NewGitClientWithExecutor(executor)
	_, err := git.CloneAndCheckout(context.Background(), "url", "bogus", "/tmp/dest")
	if !errors.Is(err, ErrRefNotFound) {
		t.Errorf("error = %v, want ErrRefNotFound", err)
	}
}

func TestLooksLikeCommitSHA(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{testCommit, true},
		{strings.ToUpper(testCommit), true},
		{"main", false},
		{"abcdef0", false},
		{strings.Repeat("g", 40), false},
		{"", false},
	}

	for _, tt := range tests {
		if got := looksLikeCommitSHA(tt.ref); got != tt.want {
			t.Errorf("looksLikeCommitSHA(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}
