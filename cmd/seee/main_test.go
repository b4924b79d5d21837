package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, base: []string{
		"--config", filepath.Join(dir, "missing.yaml"),
		"--storage", "file",
		"--dir", dir,
		"--dsn", filepath.Join(dir, "seee.db"),
		"--log-level", "error",
	}}
}

func (c *cli) run(stdin string, args ...string) (string, string, error) {
	c.t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetArgs(append(args, c.base...))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func (c *cli) mustRun(stdin string, args ...string) string {
	c.t.Helper()
	out, errOut, err := c.run(stdin, args...)
	require.NoError(c.t, err, errOut)
	return out
}

var (
	idLine   = regexp.MustCompile(`id:\s+(\S+)`)
	codeLine = regexp.MustCompile(`referral code:\s+(\S+)`)
)

func (c *cli) register(username, code string) (id, referralCode string) {
	c.t.Helper()
	out := c.mustRun("", "account", "register", username, "secret", "--referral-code", code)
	require.Contains(c.t, out, "Registered "+username)
	return idLine.FindStringSubmatch(out)[1], codeLine.FindStringSubmatch(out)[1]
}

func TestVersion(t *testing.T) {
	out := newCLI(t).mustRun("", "version")
	assert.Contains(t, out, "seee version ")
}

func TestPaymentsAndCabinet(t *testing.T) {
	c := newCLI(t)
	rootID, rootCode := c.register("root", "")
	midID, midCode := c.register("mid", rootCode)
	buyerID, _ := c.register("buyer", midCode)

	out := c.mustRun("", "pay", buyerID, "1000")
	assert.Contains(t, out, midID)
	assert.Contains(t, out, "150.00")
	assert.Contains(t, out, "70.00")

	out = c.mustRun("", "cabinet", midID)
	assert.Contains(t, out, "Balance: 150.00")
	assert.Contains(t, out, "Commission 15% from level 1")
	assert.Contains(t, out, "buyer")

	out = c.mustRun("", "cabinet", rootID)
	assert.Contains(t, out, "Balance: 70.00")

	_, _, err := c.run("", "pay", buyerID, "-1")
	assert.Error(t, err)
	_, _, err = c.run("", "pay", buyerID, "lots")
	assert.Error(t, err)
}

func TestChatAndSessions(t *testing.T) {
	c := newCLI(t)

	out, errOut, err := c.run("lose weight\nfeel better\n/doc\nexit\n", "chat", "--headless")
	require.NoError(t, err)
	assert.Contains(t, out, "lose weight")
	assert.Contains(t, out, "Bye!")

	m := regexp.MustCompile(`Session (\S+)`).FindStringSubmatch(errOut)
	require.Len(t, m, 2, errOut)
	id := m[1]

	out = c.mustRun("", "session", "ls")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "lose weight")

	out = c.mustRun("", "session", "inspect", id)
	assert.Contains(t, out, `"goal": "feel better"`)

	out = c.mustRun("", "session", "doc", id, "--author", "Alice")
	assert.Contains(t, out, "# lose weight")
	assert.Contains(t, out, "_Prepared for Alice._")

	out = c.mustRun("", "session", "graph", id)
	assert.Contains(t, out, "graph TD")
	assert.Contains(t, out, `"lose weight"`)

	out = c.mustRun("", "chat", id, "--headless")
	assert.Contains(t, out, "parts")

	out = c.mustRun("", "session", "rm", id)
	assert.Contains(t, out, "Removed session")

	_, _, err = c.run("", "session", "inspect", id)
	assert.Error(t, err)
	out = c.mustRun("", "session", "ls")
	assert.Contains(t, out, "No sessions found.")
}

func TestInvalidStorage(t *testing.T) {
	c := newCLI(t)
	c.base[3] = "mongo"
	_, _, err := c.run("", "session", "ls")
	assert.Error(t, err)
}

func TestEncryptedSessions(t *testing.T) {
	t.Setenv("SEEE_ENCRYPTION_KEY", "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=")
	c := newCLI(t)

	_, errOut, err := c.run("lose weight\nfeel better\nexit\n", "chat", "--headless")
	require.NoError(t, err)
	m := regexp.MustCompile(`Session (\S+)`).FindStringSubmatch(errOut)
	require.Len(t, m, 2, errOut)
	id := m[1]

	blob, err := os.ReadFile(filepath.Join(c.base[5], "sessions", id+".json"))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "feel better")
	assert.Contains(t, string(blob), `"sealed"`)

	out := c.mustRun("", "session", "inspect", id)
	assert.Contains(t, out, `"goal": "feel better"`)

	t.Setenv("SEEE_ENCRYPTION_KEY", "not a key")
	_, _, err = c.run("", "session", "inspect", id)
	assert.Error(t, err)
}
