package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const newsletterMessage = "From: news@example.com\nSubject: Issue 12\nList-Unsubscribe: <mailto:u@example.com>\n\nbody\n"

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	err := cmd.Execute()
	return out.String(), err
}

func TestClassifyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.eml")
	require.NoError(t, os.WriteFile(path, []byte(newsletterMessage), 0o600))

	out, err := execute(t, "", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\tNEWSLETTER\t30\n", out)

	out, err = execute(t, "", "--override", "newsletter=5", path)
	require.NoError(t, err)
	assert.Equal(t, path+"\tNEWSLETTER\t5\n", out)
}

func TestClassifyStdinAppliedLabels(t *testing.T) {
	out, err := execute(t, "From: a@example.com\nSubject: hi\n\nbody\n", "-l", "Big SALE", "-l", "meeting", "-")
	require.NoError(t, err)
	assert.Equal(t, "-\tMARKETING\t14\n", out)

	out, err = execute(t, "From: a@example.com\nSubject: hi\n\nbody\n", "--json", "-")
	require.NoError(t, err)
	assert.JSONEq(t, `{"path":"-","category":"","days":30}`, out)
}

func TestClassifyErrors(t *testing.T) {
	_, err := execute(t, "")
	assert.Error(t, err)

	_, err = execute(t, "", filepath.Join(t.TempDir(), "missing.eml"))
	assert.Error(t, err)

	_, err = execute(t, newsletterMessage, "--override", "spam=1", "-")
	assert.Error(t, err)
}

func TestClassifyStdinOnlyOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.eml")
	require.NoError(t, os.WriteFile(path, []byte(newsletterMessage), 0o600))

	out, err := execute(t, newsletterMessage, "-", path, "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only once")
	assert.Empty(t, out)
}
