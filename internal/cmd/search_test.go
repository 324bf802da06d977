package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/jimezsa/ghsearch/internal/config"
	"github.com/jimezsa/ghsearch/internal/export"
	"github.com/jimezsa/ghsearch/internal/github"
	"github.com/jimezsa/ghsearch/internal/models"
	"github.com/jimezsa/ghsearch/internal/ui"
	"github.com/rs/zerolog"
)

type fakeSearcher struct {
	users []models.User
	err   error
	calls int
	query string
	first int
}

func (f *fakeSearcher) SearchUsers(_ context.Context, query string, first int) ([]models.User, error) {
	f.calls++
	f.query = query
	f.first = first
	return f.users, f.err
}

func newTestContext() (*Context, *bytes.Buffer, *bytes.Buffer) {
	var out, errOut bytes.Buffer
	return &Context{
		Out:    &out,
		Err:    &errOut,
		UI:     ui.New(&out, &errOut, ui.ColorNever, true),
		Logger: zerolog.Nop(),
	}, &out, &errOut
}

func fixedClock() time.Time {
	return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
}

func strPtr(value string) *string { return &value }

func intPtr(value int) *int { return &value }

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names
}

func TestRunSearchExportsCSV(t *testing.T) {
	ctx, out, _ := newTestContext()
	dir := t.TempDir()
	searcher := &fakeSearcher{users: []models.User{
		{Login: "alice", Followers: intPtr(50)},
		{Login: "bob", Bio: strPtr("dev"), Followers: intPtr(0)},
	}}
	params := models.SearchParams{Query: `"AI Agent"`, Limit: 100}

	if err := runSearch(ctx, searcher, params, dir, 0, fixedClock); err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}
	if searcher.calls != 1 || searcher.query != `"AI Agent"` || searcher.first != 100 {
		t.Fatalf("searcher got calls=%d query=%q first=%d", searcher.calls, searcher.query, searcher.first)
	}

	path := filepath.Join(dir, "github_users_20240506_070809.csv")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	want := "Username,Display Name,Bio,Location,Followers\nalice,,,,50\nbob,,dev,,0\n"
	if string(data) != want {
		t.Fatalf("csv = %q, want %q", string(data), want)
	}

	console := out.String()
	for _, fragment := range []string{"Search Results (2 users):", "Username: alice", "Bio: dev", "Results saved to " + path} {
		if !strings.Contains(console, fragment) {
			t.Fatalf("stdout missing %q:\n%s", fragment, console)
		}
	}
}

func TestRunSearchEmptyResultWritesNoFile(t *testing.T) {
	ctx, out, _ := newTestContext()
	dir := t.TempDir()

	if err := runSearch(ctx, &fakeSearcher{}, models.SearchParams{Query: "nobody", Limit: 5}, dir, 0, fixedClock); err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}
	if files := listDir(t, dir); len(files) != 0 {
		t.Fatalf("expected no export, got %v", files)
	}
	if !strings.Contains(out.String(), ui.NoMatchesMessage) {
		t.Fatalf("stdout = %q, want no-matches notice", out.String())
	}
}

func TestRunSearchFailureWritesNothing(t *testing.T) {
	ctx, out, _ := newTestContext()
	dir := t.TempDir()
	queryErr := &github.QueryError{Errors: []github.GraphQLError{{Message: "bad search syntax"}}}

	err := runSearch(ctx, &fakeSearcher{err: queryErr}, models.SearchParams{Query: "(", Limit: 5}, dir, 0, fixedClock)
	var got *github.QueryError
	if !errors.As(err, &got) {
		t.Fatalf("runSearch() error = %v, want QueryError", err)
	}
	if files := listDir(t, dir); len(files) != 0 {
		t.Fatalf("expected no export, got %v", files)
	}
	if out.Len() != 0 {
		t.Fatalf("expected no output before error handling, got %q", out.String())
	}
}

func TestRunSearchMissingOutputDir(t *testing.T) {
	ctx, _, _ := newTestContext()
	dir := filepath.Join(t.TempDir(), "missing")
	searcher := &fakeSearcher{users: []models.User{{Login: "alice"}}}

	err := runSearch(ctx, searcher, models.SearchParams{Query: "q", Limit: 1}, dir, 0, fixedClock)
	var persistErr *export.PersistenceError
	if !errors.As(err, &persistErr) {
		t.Fatalf("runSearch() error = %v, want PersistenceError", err)
	}
	if got := errorKind(err); got != "persistence" {
		t.Fatalf("errorKind() = %q, want persistence", got)
	}
}

func TestRunSearchJSONOutput(t *testing.T) {
	ctx, out, errOut := newTestContext()
	ctx.JSONOutput = true
	dir := t.TempDir()
	searcher := &fakeSearcher{users: []models.User{{Login: "alice", Name: strPtr("Alice")}}}

	if err := runSearch(ctx, searcher, models.SearchParams{Query: "q", Limit: 1}, dir, 0, fixedClock); err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}

	var decoded []models.User
	if err := json.Unmarshal(out.Bytes(), &decoded); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out.String())
	}
	if len(decoded) != 1 || decoded[0].DisplayName() != "Alice" {
		t.Fatalf("decoded = %+v", decoded)
	}
	if files := listDir(t, dir); len(files) != 1 {
		t.Fatalf("expected one export, got %v", files)
	}
	if !strings.Contains(errOut.String(), "Results saved to") {
		t.Fatalf("stderr = %q, want saved path", errOut.String())
	}
}

func TestRunSearchTimeoutReachesSearcher(t *testing.T) {
	ctx, _, _ := newTestContext()
	var deadlineSet bool
	searcher := searcherFunc(func(reqCtx context.Context, _ string, _ int) ([]models.User, error) {
		_, deadlineSet = reqCtx.Deadline()
		return nil, nil
	})

	if err := runSearch(ctx, searcher, models.SearchParams{Query: "q", Limit: 1}, t.TempDir(), 5*time.Second, fixedClock); err != nil {
		t.Fatalf("runSearch() error = %v", err)
	}
	if !deadlineSet {
		t.Fatalf("expected request context to carry a deadline")
	}
}

type searcherFunc func(ctx context.Context, query string, first int) ([]models.User, error)

func (f searcherFunc) SearchUsers(ctx context.Context, query string, first int) ([]models.User, error) {
	return f(ctx, query, first)
}

func TestSearchCmdMissingToken(t *testing.T) {
	ctx, out, _ := newTestContext()
	ctx.Config = config.Config{DefaultQuery: "q", DefaultLimit: 10, OutputDir: t.TempDir()}

	cmd := &SearchCmd{}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v, want nil", err)
	}
	if !strings.Contains(out.String(), config.ErrMissingToken.Error()) {
		t.Fatalf("stdout = %q, want missing token message", out.String())
	}
	if strings.Contains(out.String(), "Starting search") {
		t.Fatalf("search should not start without a token: %q", out.String())
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{github.ErrMissingToken, "configuration"},
		{&github.TransportError{StatusCode: 502}, "transport"},
		{fmt.Errorf("wrapped: %w", &github.QueryError{}), "query"},
		{&github.ProtocolError{Reason: "unexpected response structure"}, "protocol"},
		{&export.PersistenceError{Path: "x", Err: os.ErrPermission}, "persistence"},
		{errors.New("other"), "unknown"},
	}
	for _, tc := range cases {
		if got := errorKind(tc.err); got != tc.want {
			t.Fatalf("errorKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestPrintBannerEchoesQuery(t *testing.T) {
	ctx, out, _ := newTestContext()
	printBanner(ctx, models.SearchParams{Query: `"AI Agent"`, Limit: 100})

	want := "GitHub User Search System\nSearch Query: \"AI Agent\"\nMaximum Results: 100\n\nStarting search...\n"
	if out.String() != want {
		t.Fatalf("printBanner() = %q, want %q", out.String(), want)
	}

	ctx, out, _ = newTestContext()
	ctx.PlainText = true
	printBanner(ctx, models.SearchParams{Query: "q", Limit: 1})
	if out.Len() != 0 {
		t.Fatalf("printBanner() with --plain = %q, want empty", out.String())
	}
}

func TestDefaults(t *testing.T) {
	if got := firstNonEmpty("", "  ", "b"); got != "b" {
		t.Fatalf("firstNonEmpty() = %q, want %q", got, "b")
	}
	if got := intOrDefault(nil, 100); got != 100 {
		t.Fatalf("intOrDefault(nil) = %d, want 100", got)
	}
	if got := intOrDefault(intPtr(0), 100); got != 0 {
		t.Fatalf("intOrDefault(0) = %d, want 0", got)
	}
}

func TestSearchResolveKeepsExplicitZero(t *testing.T) {
	cfg := config.Config{DefaultQuery: `"AI Agent"`, DefaultLimit: 100, OutputDir: "/app/output", TimeoutSeconds: 30}

	params, outputDir, timeout := (&SearchCmd{}).resolve(cfg)
	if params.Query != `"AI Agent"` || params.Limit != 100 || outputDir != "/app/output" || timeout != 30*time.Second {
		t.Fatalf("resolve() defaults = %+v %q %v", params, outputDir, timeout)
	}

	params, _, timeout = (&SearchCmd{Limit: intPtr(0), Timeout: intPtr(0)}).resolve(cfg)
	if params.Limit != 0 {
		t.Fatalf("resolve() Limit = %d, want 0 passed through", params.Limit)
	}
	if timeout != 0 {
		t.Fatalf("resolve() timeout = %v, want 0", timeout)
	}

	params, _, _ = (&SearchCmd{Limit: intPtr(250)}).resolve(cfg)
	if params.Limit != 250 {
		t.Fatalf("resolve() Limit = %d, want 250 passed through", params.Limit)
	}
}

func TestSearchFlagsParseExplicitZeroLimit(t *testing.T) {
	for _, key := range []string{"GHSEARCH_LIMIT", "GHSEARCH_TIMEOUT"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cli := NewCLI()
	parser, err := kong.New(cli, kong.Vars{"version": "test"}, kong.Exit(func(int) {}))
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	if _, err := parser.Parse([]string{"search", "rust", "--limit", "0"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cli.Search.Limit == nil || *cli.Search.Limit != 0 {
		t.Fatalf("Limit = %v, want explicit 0", cli.Search.Limit)
	}
	if cli.Search.Timeout != nil {
		t.Fatalf("Timeout = %v, want unset", *cli.Search.Timeout)
	}
	if cli.Search.Query != "rust" {
		t.Fatalf("Query = %q, want %q", cli.Search.Query, "rust")
	}
}

func TestUserAgent(t *testing.T) {
	cases := map[string]string{
		"":                           "ghsearch",
		"dev":                        "ghsearch/dev",
		"1.2.0 (abc123, 2024-01-02)": "ghsearch/1.2.0",
	}
	for version, want := range cases {
		if got := userAgent(version); got != want {
			t.Fatalf("userAgent(%q) = %q, want %q", version, got, want)
		}
	}
}
