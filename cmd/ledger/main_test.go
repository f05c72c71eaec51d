package main

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type harness struct {
	t      *testing.T
	dbPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Chdir(t.TempDir())
	return &harness{t: t, dbPath: filepath.Join(t.TempDir(), "profile.db")}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	err := run(append([]string{"-db", h.dbPath}, args...), strings.NewReader(stdin), stdout, stderr)
	return stdout.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run("", args...)
	require.NoError(h.t, err)
	return out
}

func (h *harness) registerAlice() {
	h.t.Helper()
	h.mustRun("register", "-name", "Alice", "-email", "alice@example.com", "-password", "password123", "-accept-terms")
}

var idPattern = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

func (h *harness) add(args ...string) string {
	h.t.Helper()
	out := h.mustRun(append([]string{"add"}, args...)...)
	m := idPattern.FindStringSubmatch(out)
	require.Len(h.t, m, 2, "no id in %q", out)
	return m[1]
}

func TestRun_MissingCommand(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing command")
	assert.Contains(t, out, "Usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRun_RegisterAndWhoami(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("whoami")
	assert.Contains(t, out, "Not signed in.")

	h.registerAlice()
	out = h.mustRun("whoami")
	assert.Contains(t, out, "Alice <alice@example.com>")
	assert.Contains(t, out, "Session expires")

	_, err := h.run("", "register", "-name", "Alice", "-email", "alice@example.com", "-password", "password123", "-accept-terms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_RegisterPromptsForPassword(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("password123\npassword123\n", "register", "-name", "Bob", "-email", "bob@example.com", "-accept-terms")
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "Confirm password: ")
	assert.Contains(t, out, "Welcome, Bob!")

	_, err = h.run("password123\ndifferent1\n", "register", "-name", "Eve", "-email", "eve@example.com", "-accept-terms")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "passwords do not match")
}

func TestRun_RegisterRequiresTerms(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "register", "-name", "Bob", "-email", "bob@example.com", "-password", "password123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terms")
}

func TestRun_LoginLogout(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()

	out := h.mustRun("logout")
	assert.Contains(t, out, "Signed out.")

	_, err := h.run("", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")

	_, err = h.run("", "login", "-email", "alice@example.com", "-password", "nope-nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email or password")

	out, err = h.run("password123\n", "login", "-email", "alice@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as alice@example.com.")

	out = h.mustRun("whoami")
	assert.NotContains(t, out, "Session expires", "login without -remember never expires")
}

func TestRun_TransactionLifecycle(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()

	salaryID := h.add("-type", "income", "-amount", "1000", "-desc", "Pay", "-category", "salary", "-date", "2025-03-01")
	billsID := h.add("-amount", "300", "-desc", "Power", "-category", "bills", "-date", "2025-03-02", "-notes", "winter")

	_, err := h.run("", "add", "-type", "income", "-amount", "5", "-desc", "x", "-category", "shopping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not allowed for income")

	out := h.mustRun("list")
	assert.Contains(t, out, salaryID)
	assert.Contains(t, out, billsID)
	assert.Contains(t, out, "-300.00")

	out = h.mustRun("list", "-q", "WINTER")
	assert.Contains(t, out, billsID)
	assert.NotContains(t, out, salaryID)

	out = h.mustRun("list", "-category", "salary")
	assert.Contains(t, out, salaryID)
	assert.NotContains(t, out, billsID)

	out = h.mustRun("recent", "-n", "1")
	assert.Contains(t, out, billsID)
	assert.NotContains(t, out, salaryID)

	out = h.mustRun("summary")
	assert.Regexp(t, `Balance\s+700\.00`, out)
	assert.Regexp(t, `Savings rate\s+70\.0%`, out)

	h.mustRun("edit", "-id", billsID, "-amount", "250")
	out = h.mustRun("list", "-category", "bills")
	assert.Contains(t, out, "-250.00")
	assert.Contains(t, out, "Power", "unset flags keep stored values")

	_, err = h.run("", "edit", "-id", "missing", "-amount", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	out = h.mustRun("chart", "-by", "category")
	assert.Contains(t, out, "Bills & Utilities")

	out = h.mustRun("chart", "-days", "3")
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 4)

	h.mustRun("rm", "-id", billsID)
	h.mustRun("rm", "-id", billsID)
	out = h.mustRun("list")
	assert.NotContains(t, out, billsID)
}

func TestRun_Categories(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("categories", "-type", "income")
	assert.Contains(t, out, "salary")
	assert.Contains(t, out, "other")
	assert.NotContains(t, out, "food")

	_, err := h.run("", "categories", "-type", "transfer")
	require.Error(t, err)
}

func TestRun_Export(t *testing.T) {
	h := newHarness(t)
	h.registerAlice()
	h.add("-amount", "4.5", "-desc", "Coffee", "-category", "food", "-date", "2025-03-01")

	out := h.mustRun("export")
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(out, "\ufeff"))).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Coffee", records[1][3])

	xlsxPath := filepath.Join(t.TempDir(), "out.xlsx")
	out = h.mustRun("export", "-format", "xlsx", "-o", xlsxPath)
	assert.Contains(t, out, "Exported 1 transactions")

	f, err := excelize.OpenFile(xlsxPath)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = h.run("", "export", "-format", "xlsx")
	require.Error(t, err)
}
