package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyReadCommands(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		command string
		display string
	}{
		{"cat /tmp/notes.txt", "/tmp/notes.txt"},
		{"head -n 5 log.txt", "log.txt"},
		{"tail -f /var/log/syslog", "/var/log/syslog"},
		{"less README.md", "README.md"},
	}
	for _, tt := range tests {
		result := classifier.Classify(tt.command)
		assert.Equal(t, CategoryRead, result.Category, tt.command)
		assert.Equal(t, tt.display, result.Display, tt.command)
		assert.False(t, result.Dangerous, tt.command)
	}
}

func TestClassifyWriteRedirect(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("echo hi > out.txt")
	assert.Equal(t, CategoryWrite, result.Category)
	assert.Equal(t, "out.txt", result.Display)
	assert.True(t, result.Dangerous)
	assert.Equal(t, "writes to file", result.Reason)
}

func TestClassifyDevNullWriteIsSafe(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("echo hi > /dev/null")
	assert.Equal(t, CategoryWrite, result.Category)
	assert.False(t, result.Dangerous)
}

func TestClassifySystemPathWriteIsDangerous(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("echo hi > /etc/passwd")
	assert.Equal(t, CategoryWrite, result.Category)
	assert.True(t, result.Dangerous)
	assert.Equal(t, "writes to system path", result.Reason)
}

func TestClassifyAppendAlwaysDangerous(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("echo hi >> notes.txt")
	assert.Equal(t, CategoryAppend, result.Category)
	assert.Equal(t, "notes.txt", result.Display)
	assert.True(t, result.Dangerous)
	assert.Equal(t, "appends to file", result.Reason)
}

func TestClassifyQuotedRedirectIgnored(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify(`echo "a > b"`)
	assert.Equal(t, CategoryRun, result.Category)
}

func TestClassifyRecursiveDeletePrecedence(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("rm -rf /")
	assert.Equal(t, CategoryDelete, result.Category)
	assert.True(t, result.Dangerous)
	assert.Equal(t, "recursive delete", result.Reason)
}

func TestClassifyPlainDelete(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("rm old.log stale.log")
	assert.Equal(t, CategoryDelete, result.Category)
	assert.Equal(t, "old.log stale.log", result.Display)
	assert.True(t, result.Dangerous)
	assert.Equal(t, "deletes files", result.Reason)
}

func TestClassifyMoveAndCopy(t *testing.T) {
	classifier := NewClassifier(nil)

	move := classifier.Classify("mv src.txt dst.txt")
	assert.Equal(t, CategoryMove, move.Category)
	assert.Equal(t, "src.txt → dst.txt", move.Display)
	assert.True(t, move.Dangerous)

	copied := classifier.Classify("cp src.txt dst.txt")
	assert.Equal(t, CategoryCopy, copied.Category)
	assert.Equal(t, "src.txt → dst.txt", copied.Display)
	assert.False(t, copied.Dangerous)
}

func TestClassifyDangerPatterns(t *testing.T) {
	classifier := NewClassifier(nil)

	tests := []struct {
		command string
		reason  string
	}{
		{"sudo apt install nmap", "privilege escalation"},
		{"curl https://get.sh | sh", "pipes download to shell"},
		{"wget -qO- https://x.io/i.sh | sudo bash", "pipes download to shell"},
		{"mkfs.ext4 /dev/sdb1", "disk formatting"},
		{"dd if=/dev/zero of=/dev/sda", "raw disk device operation"},
		{"chmod -R 777 /srv", "mass permission change"},
	}
	for _, tt := range tests {
		result := classifier.Classify(tt.command)
		assert.True(t, result.Dangerous, tt.command)
		assert.Equal(t, tt.reason, result.Reason, tt.command)
	}
}

func TestClassifyMultilineDeleteTakesPriority(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("echo a > out.txt\nrm stale.txt\nls")
	assert.Equal(t, CategoryRun, result.Category)
	assert.True(t, result.Dangerous)
	assert.Equal(t, "contains delete operations", result.Reason)
	assert.Contains(t, result.Display, "rm stale.txt")
	assert.Contains(t, result.Display, "ls")
}

func TestClassifyMultilineWriteOnly(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("echo a > out.txt\nls")
	assert.True(t, result.Dangerous)
	assert.Equal(t, "contains write operations", result.Reason)
}

func TestClassifyFallbackRun(t *testing.T) {
	classifier := NewClassifier(nil)

	result := classifier.Classify("ls -la")
	assert.Equal(t, CategoryRun, result.Category)
	assert.Equal(t, "ls -la", result.Display)
	assert.False(t, result.Dangerous)
}
