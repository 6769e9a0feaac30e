package root

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type runResult struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := ExecuteContext(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	ec, ok := err.(interface{ ExitCode() int })
	if !ok {
		t.Fatalf("error %v carries no exit code", err)
	}
	return ec.ExitCode()
}

const people = "id,name,age\n1,alice,30\n2,bob,25\n3,carol,41\n"

func TestProject_SelectedColumns(t *testing.T) {
	p := writeFile(t, "people.csv", "id,name,age\n1,alice,30\n2,bob,25\n")
	r := run(t, "", p, "name", "id")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if want := "name\tid\nalice\t1\nbob\t2\n"; r.stdout != want {
		t.Fatalf("unexpected output\nwant: %q\n got: %q", want, r.stdout)
	}
	if r.stderr != "" {
		t.Fatalf("unexpected stderr: %q", r.stderr)
	}
}

func TestProject_Top(t *testing.T) {
	p := writeFile(t, "people.csv", people)
	r := run(t, "", "-n", "1", p, "name")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "name\nalice\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
	r = run(t, "", "--top", "0", p)
	if r.err != nil || r.stdout != "id\tname\tage\n" {
		t.Fatalf("unexpected result: %q %v", r.stdout, r.err)
	}
}

func TestList_IgnoresColumnsAndTop(t *testing.T) {
	p := writeFile(t, "people.csv", people)
	r := run(t, "", "-l", "-n", "0", p, "age", "nope")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "id\nname\nage\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestEmptyFile(t *testing.T) {
	p := writeFile(t, "empty.csv", "")
	for _, args := range [][]string{{"-l", p}, {p}, {p, "a"}} {
		r := run(t, "", args...)
		if r.err != nil || r.stdout != "" {
			t.Fatalf("%v: unexpected result %q %v", args, r.stdout, r.err)
		}
	}
}

func TestDelimiterEscapes(t *testing.T) {
	p := writeFile(t, "bell.txt", "a\ab\n1\a2\n")
	r := run(t, "", "-d", `\a`, p, "b")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "b\n2\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestDelimiterLiteralBackslash(t *testing.T) {
	p := writeFile(t, "slashed.txt", "a\\b\n1\\2\n")
	r := run(t, "", "-d", `\`, p, "b")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "b\n2\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestParseDelimiter(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{",", ","},
		{`\t`, "\t"},
		{`\x1f`, "\x1f"},
		{`\`, `\`},
		{`\"`, `\"`},
		{`a\q`, `a\q`},
	}
	for _, c := range cases {
		got, err := parseDelimiter(c.in)
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("%q: got %q want %q", c.in, got, c.want)
		}
	}
	if _, err := parseDelimiter(""); err == nil {
		t.Fatalf("expected empty delimiter to fail")
	}
}

func TestStdin(t *testing.T) {
	r := run(t, "x;y\n1;2\n", "-d", ";", "-", "y", "x")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "y\tx\n2\t1\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestDuplicatesFlag(t *testing.T) {
	p := writeFile(t, "dups.csv", "k,v,k\n1,2,3\n")
	r := run(t, "", p, "k")
	if r.err != nil || r.stdout != "k\tk\n1\t3\n" {
		t.Fatalf("all: unexpected result %q %v", r.stdout, r.err)
	}
	r = run(t, "", "--duplicates", "last", p, "k")
	if r.err != nil || r.stdout != "k\n3\n" {
		t.Fatalf("last: unexpected result %q %v", r.stdout, r.err)
	}
}

func TestWhere(t *testing.T) {
	p := writeFile(t, "people.csv", people)
	r := run(t, "", "--where", "tonumber(row.age) > 28", p, "name")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "name\nalice\ncarol\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestWhere_RuntimeErrorIsExecError(t *testing.T) {
	p := writeFile(t, "people.csv", people)
	r := run(t, "", "--where", "row.age + {}", p)
	if r.err == nil || !strings.HasPrefix(r.err.Error(), "where: line 1: ") {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if _, ok := r.err.(interface{ ExitCode() int }); ok {
		t.Fatalf("runtime errors use the default exit code")
	}
}

func TestUsage_MissingFile(t *testing.T) {
	r := run(t, "")
	if r.err == nil || r.err.Error() != "missing required argument: <file>" {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if exitCode(t, r.err) != exitCodeUsage {
		t.Fatalf("unexpected exit code")
	}
	u, ok := r.err.(interface{ Usage() string })
	if !ok || !strings.Contains(u.Usage(), "csv [flags] <file> [column...]") {
		t.Fatalf("expected usage text")
	}
}

func TestUsage_BadFlags(t *testing.T) {
	p := writeFile(t, "people.csv", people)
	cases := [][]string{
		{"--nope", p},
		{"-n", "abc", p},
		{"-n", "-5", p},
		{"-d", "", p},
		{"--duplicates", "first", p},
		{"--log-level", "loud", p},
		{"--where", "row.age >", p},
	}
	for _, args := range cases {
		r := run(t, "", args...)
		if r.err == nil {
			t.Fatalf("%v: expected error", args)
		}
		if exitCode(t, r.err) != exitCodeUsage {
			t.Fatalf("%v: unexpected exit code for %v", args, r.err)
		}
		if r.stdout != "" {
			t.Fatalf("%v: unexpected output %q", args, r.stdout)
		}
	}
}

func TestUsage_CheckedBeforeFileIO(t *testing.T) {
	r := run(t, "", "--duplicates", "first", filepath.Join(t.TempDir(), "absent.csv"))
	if r.err == nil || exitCode(t, r.err) != exitCodeUsage {
		t.Fatalf("expected usage error, got %v", r.err)
	}
}

func TestOpenFailure(t *testing.T) {
	p := filepath.Join(t.TempDir(), "absent.csv")
	r := run(t, "", p, "a")
	if r.err == nil || !strings.Contains(r.err.Error(), p) {
		t.Fatalf("expected error naming the path, got %v", r.err)
	}
	if _, ok := r.err.(interface{ ExitCode() int }); ok {
		t.Fatalf("open failures use the default exit code")
	}
}

func TestConfigDefaults_FlagsWin(t *testing.T) {
	data := writeFile(t, "people.txt", "id|name|age\n1|alice|30\n2|bob|25\n3|carol|41\n")
	cfg := writeFile(t, "defaults.cue", "configVersion: \"1\"\ndelimiter: \"|\"\ntop: 1\n")

	r := run(t, "", "-c", cfg, data, "name")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "name\nalice\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}

	r = run(t, "", "-c", cfg, "-n", "2", data, "name")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "name\nalice\nbob\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestConfigDefaults_UnboundedTop(t *testing.T) {
	data := writeFile(t, "people.csv", people)
	cfg := writeFile(t, "defaults.yaml", "configVersion: \"1\"\ntop: -1\n")
	r := run(t, "", "-c", cfg, data, "name")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "name\nalice\nbob\ncarol\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestConfigDefaults_YAMLWhere(t *testing.T) {
	data := writeFile(t, "people.csv", people)
	cfg := writeFile(t, "defaults.yaml", "configVersion: \"1\"\nwhere: \"row.name == 'bob'\"\n")
	r := run(t, "", "--config", cfg, data, "id")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "id\n2\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
}

func TestConfigError(t *testing.T) {
	data := writeFile(t, "people.csv", people)
	cfg := writeFile(t, "defaults.cue", "configVersion: \"2\"\n")
	r := run(t, "", "-c", cfg, data)
	want := "config " + cfg + ": unsupported configVersion: \"2\" (supported: 1)"
	if r.err == nil || r.err.Error() != want {
		t.Fatalf("unexpected error\nwant: %s\n got: %v", want, r.err)
	}
	if exitCode(t, r.err) != exitCodeUsage {
		t.Fatalf("unexpected exit code for %v", r.err)
	}
	if r.stdout != "" {
		t.Fatalf("unexpected output %q", r.stdout)
	}
}

func TestConfigError_MissingFileIsUsageError(t *testing.T) {
	data := writeFile(t, "people.csv", people)
	r := run(t, "", "-c", filepath.Join(t.TempDir(), "absent.cue"), data)
	if r.err == nil || !strings.HasPrefix(r.err.Error(), "config ") {
		t.Fatalf("unexpected error: %v", r.err)
	}
	if exitCode(t, r.err) != exitCodeUsage {
		t.Fatalf("unexpected exit code for %v", r.err)
	}
}

func TestDebugLogsGoToStderr(t *testing.T) {
	p := writeFile(t, "people.csv", people)
	r := run(t, "", "--log-level", "debug", p, "name", "nope")
	if r.err != nil {
		t.Fatalf("run: %v", r.err)
	}
	if r.stdout != "name\nalice\nbob\ncarol\n" {
		t.Fatalf("unexpected output: %q", r.stdout)
	}
	if !strings.Contains(r.stderr, "unknown columns ignored") {
		t.Fatalf("expected debug diagnostics on stderr, got %q", r.stderr)
	}
}

func TestVersionSubcommand(t *testing.T) {
	r := run(t, "", "version", "--short")
	if r.err != nil || r.stdout == "" {
		t.Fatalf("unexpected result: %q %v", r.stdout, r.err)
	}
}
