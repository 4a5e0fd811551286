package commands_test

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "gracebooks-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "gracebooks")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/gracebooks")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// run executes the binary against dir and returns stdout and stderr
// together.
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, append([]string{"--dir", dir}, args...)...)
	cmd.Env = cleanEnv()
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// stdout executes the binary and returns stdout only, failing the test on
// error.
func stdout(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command(binaryPath, append([]string{"--dir", dir}, args...)...)
	cmd.Env = cleanEnv()
	var out, errOut bytes.Buffer
	cmd.Stdout, cmd.Stderr = &out, &errOut
	require.NoError(t, cmd.Run(), errOut.String())
	return out.String()
}

func cleanEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "GRACEBOOKS_") {
			env = append(env, kv)
		}
	}
	return env
}

func initBooks(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := run(t, dir, "init", "--name", "家庭")
	require.NoError(t, err, out)
	return dir
}

func addLunch(t *testing.T, dir string) {
	t.Helper()
	out, err := run(t, dir, "journal", "add", "--date", "2024-03-02",
		"--line", "6218,午餐,150,", "--line", "1111,午餐,,150")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added 20240302-01")
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "init", "--name", "家庭")
	require.NoError(t, err, out)
	assert.Contains(t, out, "profile 家庭")

	for _, d := range []string{"logs", "exports", "import", filepath.Join("import", "processed")} {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}
	for _, f := range []string{"gracebooks.yaml", "gracebooks.db", ".gitignore"} {
		_, err := os.Stat(filepath.Join(dir, f))
		require.NoError(t, err, "%s should exist", f)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	for _, pattern := range []string{"*.db-wal", "exports/", "import/", ".env"} {
		assert.Contains(t, string(data), pattern)
	}
}

func TestInit_JSONBackend(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, dir, "init", "--backend", "json")
	require.NoError(t, err, out)
	addLunch(t, dir)

	data, err := os.ReadFile(filepath.Join(dir, "gracebooks.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "20240302-01")
	_, err = os.Stat(filepath.Join(dir, "gracebooks.db"))
	assert.True(t, os.IsNotExist(err), "no sqlite database is created")
	assert.Contains(t, stdout(t, dir, "journal", "list"), "20240302-01")

	out, err = run(t, dir, "log", "--revisions")
	require.Error(t, err)
	assert.Contains(t, out, "sqlite backend")

	out, err = run(t, t.TempDir(), "init", "--backend", "bolt")
	require.Error(t, err)
	assert.Contains(t, out, "unknown backend")
}

func TestInit_Twice(t *testing.T) {
	dir := initBooks(t)
	out, err := run(t, dir, "init")
	require.Error(t, err)
	assert.Contains(t, out, "already exists")
}

func TestInit_DirectoryArgument(t *testing.T) {
	parent := t.TempDir()
	dir := filepath.Join(parent, "books")
	out, err := run(t, parent, "init", dir)
	require.NoError(t, err, out)
	_, err = os.Stat(filepath.Join(dir, "gracebooks.yaml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "gracebooks.db"))
	require.NoError(t, err)
}

func TestInit_Git(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	out, err := run(t, dir, "init", "--git")
	require.NoError(t, err, out)

	_, err = os.Stat(filepath.Join(dir, ".git"))
	require.NoError(t, err, ".git should exist")

	addLunch(t, dir)

	log := exec.Command("git", "log", "--format=%s")
	log.Dir = dir
	logOut, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(logOut), "add_profile")
	assert.Contains(t, string(logOut), "add_entry")

	authorLog := exec.Command("git", "log", "--format=%an <%ae>", "-1")
	authorLog.Dir = dir
	logOut, err = authorLog.Output()
	require.NoError(t, err)
	assert.Contains(t, string(logOut), "gracebooks <gracebooks@localhost>")
}

func TestProfile(t *testing.T) {
	dir := initBooks(t)

	out, err := run(t, dir, "profile", "add", "公司")
	require.NoError(t, err, out)

	list := stdout(t, dir, "profile", "list")
	assert.Contains(t, list, "* 家庭")
	assert.Contains(t, list, "公司")

	out, err = run(t, dir, "profile", "use", "公司")
	require.NoError(t, err, out)
	assert.Contains(t, stdout(t, dir, "profile", "list"), "* 公司")

	_, err = run(t, dir, "profile", "use", "nobody")
	require.Error(t, err)
}

func TestAccount(t *testing.T) {
	dir := initBooks(t)

	assert.Contains(t, stdout(t, dir, "account", "list"), "1111")

	out, err := run(t, dir, "account", "add", "--name", "飲料", "--level3", "621-飲食")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added account 6219 - 飲料")
	assert.Contains(t, stdout(t, dir, "account", "list", "--class", "expense"), "飲料")

	out, err = run(t, dir, "account", "delete", "6219")
	require.NoError(t, err, out, "unused account can be deleted")

	addLunch(t, dir)
	out, err = run(t, dir, "account", "delete", "6218")
	require.Error(t, err)
	assert.Contains(t, out, "6218")
}

func TestJournal(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)

	list := stdout(t, dir, "journal", "list", "--month", "2024-03")
	assert.Contains(t, list, "20240302-01")
	assert.Contains(t, list, "午餐")

	show := stdout(t, dir, "journal", "show", "20240302-01")
	assert.Contains(t, show, "150.00")

	out, err := run(t, dir, "journal", "add", "--date", "2024-03-02",
		"--line", "6218,午餐,150,", "--line", "1111,午餐,,100")
	require.Error(t, err, "unbalanced entry is rejected")
	assert.Contains(t, out, "credits")

	out, err = run(t, dir, "journal", "delete", "20240302-01")
	require.NoError(t, err, out)
	assert.NotContains(t, stdout(t, dir, "journal", "list"), "20240302-01")
}

func TestJournal_ImportBulk(t *testing.T) {
	dir := initBooks(t)
	bulk := filepath.Join(dir, "bulk.csv")
	content := "2024-04-01,20240401-01,6218,早餐,80,\n" +
		"2024-04-01,20240401-01,1111,早餐,,80\n"
	require.NoError(t, os.WriteFile(bulk, []byte(content), 0o644))

	out, err := run(t, dir, "journal", "import", bulk)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 1 entries")
}

func TestCloseAndReport(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)

	raw := stdout(t, dir, "report", "balance-sheet", "--month", "2024-03", "-f", "json")
	var bs struct {
		Assets            struct{ Total float64 } `json:"assets"`
		UnclosedNetIncome float64                 `json:"unclosedNetIncome"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &bs))
	assert.Equal(t, -150.0, bs.Assets.Total)
	assert.Equal(t, -150.0, bs.UnclosedNetIncome)

	out, err := run(t, dir, "close", "2024-03")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Closed 2024-03")

	_, err = run(t, dir, "close", "2024-03")
	require.Error(t, err, "a month closes once")

	assert.Contains(t, stdout(t, dir, "close", "--list"), "2024-03")

	md := stdout(t, dir, "report", "income-statement", "--year", "2024", "--value", "3")
	assert.Contains(t, md, "150")
}

func TestTrackers(t *testing.T) {
	dir := initBooks(t)

	out, err := run(t, dir, "amortization", "add", "--description", "保險", "--total", "1200",
		"--periods", "12", "--start", "2024-01-01", "--debit", "6218", "--credit", "1421")
	require.NoError(t, err, out)
	assert.Contains(t, out, "100.00 per period")

	list := stdout(t, dir, "amortization", "list")
	assert.Contains(t, list, "保險")

	out, err = run(t, dir, "prepayment", "add", "--date", "2024-01-05", "--description", "訂金",
		"--amount", "100", "--account", "1421")
	require.NoError(t, err, out)
	assert.Contains(t, stdout(t, dir, "prepayment", "list"), "unsettled")

	out, err = run(t, dir, "salary", "generate", "--date", "2024-03-05", "--row", "0=abc")
	require.Error(t, err, out)
}

func TestCardImport(t *testing.T) {
	dir := initBooks(t)

	out, err := run(t, dir, "card", "add", "--name", "中信", "--account", "2411")
	require.NoError(t, err, out)
	ledgerID := out[strings.LastIndex(out, "(")+1 : strings.LastIndex(out, ")")]

	csv := "Transaction Date,Post Date,Description,Category,Type,Amount,Memo\n" +
		"01/03/2025,01/04/2025,GITHUB *PRO SUBSCRIPTION,Shopping,Sale,-4.00,\n" +
		"01/10/2025,01/10/2025,AUTOMATIC PAYMENT - THANK,,Payment,250.00,\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "import", "jan.csv"), []byte(csv), 0o644))

	out, err = run(t, dir, "card", "import", ledgerID, "--format", "chase", "--account", "6218")
	require.NoError(t, err, out)
	assert.Contains(t, out, "added 1 charges, skipped 1 credits")

	_, err = os.Stat(filepath.Join(dir, "import", "processed", "jan.csv"))
	require.NoError(t, err, "imported file moves to processed")

	assert.Contains(t, stdout(t, dir, "card", "list", ledgerID), "GITHUB")

	out, err = run(t, dir, "card", "generate", ledgerID, "--date", "2025-01-31")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added 20250131-01")
}

func TestBackupRoundTrip(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)

	file := filepath.Join(dir, "backup.json")
	out, err := run(t, dir, "backup", "export", "--full", "-o", file)
	require.NoError(t, err, out)

	other := initBooks(t)
	out, err = run(t, other, "backup", "restore", file)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Journal: added 1")
	assert.Contains(t, stdout(t, other, "journal", "list"), "20240302-01")

	out, err = run(t, other, "backup", "restore", file, "--accounts", "bogus")
	require.Error(t, err)
	assert.Contains(t, out, "unknown restore mode")
}

func TestSync(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)

	out, err := run(t, dir, "sync", "save")
	require.NoError(t, err, out)
	_, err = os.Stat(filepath.Join(dir, "remote", "accounting_app_backup.json"))
	require.NoError(t, err)

	out, err = run(t, dir, "journal", "delete", "20240302-01")
	require.NoError(t, err, out)

	_, err = run(t, dir, "sync", "restore")
	require.Error(t, err, "restore needs --yes")

	out, err = run(t, dir, "sync", "restore", "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, stdout(t, dir, "journal", "list"), "20240302-01")
}

func TestSync_RestoreRejectsInvalidBooks(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)
	out, err := run(t, dir, "sync", "save")
	require.NoError(t, err, out)

	file := filepath.Join(dir, "remote", "accounting_app_backup.json")
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(data), `"accountId": "1111"`)
	bad := strings.ReplaceAll(string(data), `"accountId": "1111"`, `"accountId": "9999"`)
	require.NoError(t, os.WriteFile(file, []byte(bad), 0o644))

	out, err = run(t, dir, "sync", "restore", "--yes")
	require.Error(t, err)
	assert.Contains(t, out, "invalid journal entry")
	assert.Contains(t, out, "9999")

	list := stdout(t, dir, "journal", "list")
	assert.Contains(t, list, "1111", "local books are untouched")
}

func TestMemo(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)

	out, err := run(t, dir, "memo", "add", "午餐")
	require.NoError(t, err, out)
	assert.Contains(t, stdout(t, dir, "memo", "list"), "午餐")

	usage := stdout(t, dir, "memo", "usage", "6218")
	assert.Contains(t, usage, "1")
	assert.Contains(t, usage, "午餐")

	out, err = run(t, dir, "memo", "rename", "6218", "午餐", "便當")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Changed 1 lines")
	assert.Contains(t, stdout(t, dir, "journal", "list"), "便當")
}

func TestQuery(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)

	raw := stdout(t, dir, "query", "$.journalEntries[*].id")
	var ids []string
	require.NoError(t, json.Unmarshal([]byte(raw), &ids))
	assert.Equal(t, []string{"20240302-01"}, ids)

	_, err := run(t, dir, "query", "$.[")
	require.Error(t, err)
}

func TestLog(t *testing.T) {
	dir := initBooks(t)
	addLunch(t, dir)

	activity := stdout(t, dir, "log")
	assert.Contains(t, activity, "add_profile")
	assert.Contains(t, activity, "add_entry")

	revs := stdout(t, dir, "log", "--revisions")
	assert.Contains(t, revs, "add_entry")
}
