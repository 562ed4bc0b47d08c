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

func run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = execute(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func writeRef(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "ref.fa")
	require.NoError(t, os.WriteFile(path, []byte(">chr1\nACGTACGTTTGCA\n>chr2\nGGGACGTCC\n"), 0o644))
	return path
}

func TestIndexAndFind(t *testing.T) {
	dir := t.TempDir()
	ref := writeRef(t, dir)

	_, stderr, code := run(t, "index", "-b", "-f", filepath.Join(dir, "ref.fmi"), "-v", filepath.Join(dir, "ref.seqs"), ref)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stderr, "extension changed")
	assert.FileExists(t, filepath.Join(dir, "ref.bifmi"))
	assert.NoFileExists(t, filepath.Join(dir, "ref.fmi"))

	stdout, stderr, code := run(t, "find", "-b", "-a", "-f", filepath.Join(dir, "ref.bifmi"),
		"-s", filepath.Join(dir, "ref.seqs"), "ACGT")
	require.Equal(t, 0, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "#query\treference\toffset\tdistance", lines[0])
	assert.ElementsMatch(t, []string{
		"query1\tchr1\t0\t0",
		"query1\tchr1\t4\t0",
		"query1\tchr2\t3\t0",
	}, lines[1:])
}

func TestFindRealign(t *testing.T) {
	dir := t.TempDir()
	ref := writeRef(t, dir)
	_, stderr, code := run(t, "index", "-f", filepath.Join(dir, "ref.fmi"), "-v", filepath.Join(dir, "ref.seqs"), ref)
	require.Equal(t, 0, code, stderr)

	stdout, stderr, code := run(t, "find", "-f", filepath.Join(dir, "ref.fmi"), "-e", "1",
		"--realign", "-s", filepath.Join(dir, "ref.seqs"), "TTTGCA")
	require.Equal(t, 0, code, stderr)
	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "query1\tchr1\t7\t0\t7\t13\t12\t0\t0\t6=", lines[1])
}

func TestFindReverseComplement(t *testing.T) {
	dir := t.TempDir()
	ref := writeRef(t, dir)
	_, stderr, code := run(t, "index", "-f", filepath.Join(dir, "ref.fmi"), "-v", filepath.Join(dir, "ref.seqs"), ref)
	require.Equal(t, 0, code, stderr)

	stdout, stderr, code := run(t, "find", "-r", "-f", filepath.Join(dir, "ref.fmi"),
		"-s", filepath.Join(dir, "ref.seqs"), "TGCAAA")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "#query\treference\toffset\tdistance\nquery1/rc\tchr1\t7\t0\n", stdout)
}

func TestFindRefusesWrongExtension(t *testing.T) {
	dir := t.TempDir()
	ref := writeRef(t, dir)
	_, _, code := run(t, "index", "-f", filepath.Join(dir, "ref.fmi"), ref)
	require.Equal(t, 0, code)

	_, stderr, code := run(t, "find", "-b", "-f", filepath.Join(dir, "ref.fmi"), "ACGT")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "wrong filename extension")
}

func TestFindErrors(t *testing.T) {
	dir := t.TempDir()
	ref := writeRef(t, dir)
	_, _, code := run(t, "index", "-f", filepath.Join(dir, "ref.fmi"), ref)
	require.Equal(t, 0, code)
	idx := filepath.Join(dir, "ref.fmi")

	_, stderr, code := run(t, "find", "-f", idx)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "no query given")

	_, stderr, code = run(t, "find", "-f", idx, "-e", "1", "-x", "2", "ACGT")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "max_substitutions")

	_, stderr, code = run(t, "find", "-f", idx, "--realign", "ACGT")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "--sequences")

	_, stderr, code = run(t, "find", "ACGT")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "fmindex")
}

func TestFindQueriesFile(t *testing.T) {
	dir := t.TempDir()
	ref := writeRef(t, dir)
	_, _, code := run(t, "index", "-b", "-f", filepath.Join(dir, "ref.bifmi"), ref)
	require.Equal(t, 0, code)

	queries := filepath.Join(dir, "queries.fa")
	require.NoError(t, os.WriteFile(queries, []byte(">q1\nGGGA\n>q2\nCCCCCC\n"), 0o644))
	stdout, stderr, code := run(t, "find", "-b", "-f", filepath.Join(dir, "ref.bifmi"), "-q", queries)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "#query\treference\toffset\tdistance\nq1\t1\t0\t0\n", stdout)
}

func TestPwalign(t *testing.T) {
	stdout, stderr, code := run(t, "pwalign",
		"--free-seq1-leading=false", "--free-seq1-trailing=false",
		"--free-seq2-leading=false", "--free-seq2-trailing=false",
		"ACGT", "AGT")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Seq1: ACGT")
	assert.Contains(t, stdout, "Seq2: A-GT")
	assert.Contains(t, stdout, "Score: 2")
	assert.Contains(t, stderr, "performing global alignment")

	stdout, _, code = run(t, "pwalign", "-a", "local", "--match=1", "--mismatch=-1", "TTACGTTT", "GGACGGG")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Score: 3")

	stdout, _, code = run(t, "pwalign", "--score-only", "-a", "local", "--match=1", "--mismatch=-1", "TTACGTTT", "GGACGGG")
	require.Equal(t, 0, code)
	assert.Equal(t, "Score: 3\n", stdout)

	_, stderr, code = run(t, "pwalign", "ACGT")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "two")

	_, _, code = run(t, "pwalign", "--gap-open=3", "ACGT", "AGT")
	assert.Equal(t, 1, code)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	conf := filepath.Join(dir, "cuba.toml")
	require.NoError(t, os.WriteFile(conf, []byte("[align]\nmode = \"local\"\nmatch = 5\n"), 0o644))

	stdout, stderr, code := run(t, "config", "-c", conf, "--verbose")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `mode = "local"`)
	assert.Contains(t, stdout, "match = 5")

	stdout, _, code = run(t, "pwalign", "-c", conf, "--match=1", "ACGT", "ACGT")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "Score: 4", "flag overrides the file")

	_, stderr, code = run(t, "config", "-c", filepath.Join(dir, "missing.toml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "missing.toml")
}

func TestVersion(t *testing.T) {
	stdout, _, code := run(t, "version")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "cuba version")
}
