package approval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExactPatternMatchesWholeCommand(t *testing.T) {
	set := NewPatternSet([]string{"git status"})
	assert.True(t, set.IsApproved("git status"))
	assert.True(t, set.IsApproved("  git status  "))
	assert.False(t, set.IsApproved("git push"))
}

func TestExactPatternMatchesFirstToken(t *testing.T) {
	set := NewPatternSet([]string{"ls"})
	assert.True(t, set.IsApproved("ls"))
	assert.True(t, set.IsApproved("ls -la"))
	assert.True(t, set.IsApproved("ls -la /tmp"))
	assert.False(t, set.IsApproved("lsof -i"))
}

func TestGlobPatternPrefix(t *testing.T) {
	set := NewPatternSet([]string{"git *"})
	assert.True(t, set.IsApproved("git status"))
	assert.True(t, set.IsApproved("git log --oneline"))
	assert.False(t, set.IsApproved("hg status"))
}

func TestGlobEscapesRegexMetacharacters(t *testing.T) {
	set := NewPatternSet([]string{"echo (a+b)*"})
	assert.True(t, set.IsApproved("echo (a+b) > /dev/null"))
	assert.False(t, set.IsApproved("echo aab"))
}

func TestMatchingIsCaseSensitive(t *testing.T) {
	set := NewPatternSet([]string{"ls"})
	assert.False(t, set.IsApproved("LS"))
}

func TestEmptyPatternsRejectEverything(t *testing.T) {
	set := NewPatternSet(nil)
	assert.False(t, set.IsApproved("ls"))
	assert.False(t, set.IsApproved(""))
}

func TestPatternApproverApprovesCoveredCommands(t *testing.T) {
	approver := &PatternApprover{Patterns: NewPatternSet([]string{"ls"})}

	decision, err := approver.Approve(context.Background(), Request{
		Kind:   KindCommand,
		Detail: "ls -la",
	})
	assert.NoError(t, err)
	assert.True(t, decision.Approved)
}

func TestPatternApproverFailsFastOtherwise(t *testing.T) {
	approver := &PatternApprover{Patterns: NewPatternSet([]string{"ls"})}

	decision, err := approver.Approve(context.Background(), Request{
		Kind:   KindCommand,
		Detail: "rm -rf /",
	})
	assert.NoError(t, err)
	assert.False(t, decision.Approved)
	assert.Contains(t, decision.Reason, "non-interactive")

	// Non-command kinds are never pattern-approved.
	decision, _ = approver.Approve(context.Background(), Request{
		Kind:   KindFileWrite,
		Detail: "ls",
	})
	assert.False(t, decision.Approved)
}
