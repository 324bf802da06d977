package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jimezsa/ghsearch/internal/config"
	"github.com/jimezsa/ghsearch/internal/export"
	"github.com/jimezsa/ghsearch/internal/github"
	"github.com/jimezsa/ghsearch/internal/models"
	"github.com/jimezsa/ghsearch/internal/network"
	"github.com/muesli/termenv"
)

type SearchCmd struct {
	Query     string `arg:"" optional:"" help:"GitHub user search query, passed through as-is (e.g. 'python location:japan')."`
	Limit     *int   `help:"Maximum users to retrieve (1-100), sent unchanged." env:"GHSEARCH_LIMIT"`
	OutputDir string `name:"output-dir" short:"o" help:"Directory for the CSV export." env:"GHSEARCH_OUTPUT_DIR"`
	Timeout   *int   `help:"Request timeout in seconds; 0 waits indefinitely." env:"GHSEARCH_TIMEOUT"`
	Proxies   string `help:"Comma-separated proxy URLs." env:"GHSEARCH_PROXIES"`
}

type userSearcher interface {
	SearchUsers(ctx context.Context, query string, first int) ([]models.User, error)
}

func (s *SearchCmd) Run(ctx *Context) error {
	params, outputDir, timeout := s.resolve(ctx.Config)

	if ctx.Token == "" {
		reportMissingToken(ctx)
		return nil
	}

	searcher, err := newSearcher(ctx, s.Proxies, timeout)
	if err != nil {
		return err
	}

	printBanner(ctx, params)
	if err := runSearch(ctx, searcher, params, outputDir, timeout, time.Now); err != nil {
		ctx.Logger.Error().Err(err).Str("kind", errorKind(err)).Msg("search failed")
		ctx.UI.Failf("Error occurred: %v", err)
	}
	return nil
}

// resolve fills unset flags from the config. Flags that were given, zero
// included, are kept as-is.
func (s *SearchCmd) resolve(cfg config.Config) (models.SearchParams, string, time.Duration) {
	params := models.SearchParams{
		Query: firstNonEmpty(s.Query, cfg.DefaultQuery),
		Limit: intOrDefault(s.Limit, cfg.DefaultLimit),
	}
	outputDir := firstNonEmpty(s.OutputDir, cfg.OutputDir)
	timeout := time.Duration(intOrDefault(s.Timeout, cfg.TimeoutSeconds)) * time.Second
	return params, outputDir, timeout
}

func newSearcher(ctx *Context, proxyFlag string, timeout time.Duration) (*github.Client, error) {
	proxies, err := config.LoadProxies(proxyFlag)
	if err != nil {
		return nil, err
	}

	var rotator *network.Rotator
	if len(proxies) > 0 {
		rotator, err = network.NewRotator(proxies, 10*time.Minute)
		if err != nil {
			return nil, err
		}
		ctx.Logger.Debug().Int("proxies", rotator.Len()).Msg("proxy rotation enabled")
	}

	httpClient, err := network.NewClient(rotator, timeout)
	if err != nil {
		return nil, err
	}

	return github.NewClient(ctx.Token, httpClient,
		github.WithEndpoint(ctx.Config.Endpoint),
		github.WithUserAgent(userAgent(ctx.Version)),
		github.WithLogger(github.ZerologPayloads(ctx.Logger)),
	)
}

// runSearch performs one request, prints the results and writes the CSV.
// Nothing is printed or written when the request fails.
func runSearch(ctx *Context, searcher userSearcher, params models.SearchParams, outputDir string, timeout time.Duration, now func() time.Time) error {
	ctx.Logger.Debug().Str("query", params.Query).Int("limit", params.Limit).Msg("searching users")

	reqCtx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, timeout)
		defer cancel()
	}

	stopIndicator := startSearchIndicator(ctx)
	users, err := searcher.SearchUsers(reqCtx, params.Query, params.Limit)
	if stopIndicator != nil {
		stopIndicator()
	}
	if err != nil {
		return err
	}

	ctx.Logger.Debug().Int("users", len(users)).Msg("search completed")
	if err := printUsers(ctx, users); err != nil {
		return err
	}
	if len(users) == 0 {
		return nil
	}

	path, err := export.SaveCSV(outputDir, users, now())
	if err != nil {
		return err
	}
	ctx.Logger.Info().Str("path", path).Int("rows", len(users)).Msg("results exported")

	if machineOutput(ctx) {
		ctx.UI.Warnf("Results saved to %s", path)
		return nil
	}
	ctx.UI.Successf("\nResults saved to %s", ctx.UI.LinkText(path))
	return nil
}

func printUsers(ctx *Context, users []models.User) error {
	if machineOutput(ctx) {
		return export.WriteUsers(ctx.Out, users, outputFormat(ctx))
	}
	return ctx.UI.RenderUsers(users)
}

func printBanner(ctx *Context, params models.SearchParams) {
	if machineOutput(ctx) {
		return
	}
	ctx.UI.Infof("GitHub User Search System")
	ctx.UI.Printf("Search Query: %s", params.Query)
	ctx.UI.Printf("Maximum Results: %d", params.Limit)
	ctx.UI.Printf("\nStarting search...")
}

func reportMissingToken(ctx *Context) {
	ctx.Logger.Error().Err(config.ErrMissingToken).Str("kind", "configuration").Msg("search not started")
	ctx.UI.Failf("Error: %v.", config.ErrMissingToken)
	ctx.UI.Printf("Please set %s in your environment or %s file.", config.TokenEnv, config.DotEnvFileName)
}

func errorKind(err error) string {
	var (
		transportErr   *github.TransportError
		queryErr       *github.QueryError
		protocolErr    *github.ProtocolError
		persistenceErr *export.PersistenceError
	)
	switch {
	case errors.Is(err, github.ErrMissingToken):
		return "configuration"
	case errors.As(err, &transportErr):
		return "transport"
	case errors.As(err, &queryErr):
		return "query"
	case errors.As(err, &protocolErr):
		return "protocol"
	case errors.As(err, &persistenceErr):
		return "persistence"
	default:
		return "unknown"
	}
}

func machineOutput(ctx *Context) bool {
	return ctx.JSONOutput || ctx.PlainText
}

func outputFormat(ctx *Context) export.Format {
	if ctx.JSONOutput {
		return export.FormatJSON
	}
	return export.FormatTSV
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func intOrDefault(value *int, fallback int) int {
	if value == nil {
		return fallback
	}
	return *value
}

// userAgent turns a build version like "1.2.0 (abc123, 2024-01-02)" into
// "ghsearch/1.2.0".
func userAgent(version string) string {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return github.DefaultUserAgent
	}
	return github.DefaultUserAgent + "/" + fields[0]
}

func isTTY(out io.Writer) bool {
	output := termenv.NewOutput(out)
	return output.ColorProfile() != termenv.Ascii
}

func startSearchIndicator(ctx *Context) func() {
	if ctx == nil || ctx.Err == nil || ctx.UI == nil {
		return nil
	}
	if !isTTY(ctx.Err) {
		return nil
	}

	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		start := time.Now()
		frames := []string{"|", "/", "-", "\\"}
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		index := 0

		for {
			select {
			case <-done:
				fmt.Fprint(ctx.Err, "\r\033[2K")
				return
			case <-ticker.C:
				seconds := int(time.Since(start).Seconds())
				frame := frames[index%len(frames)]
				fmt.Fprintf(ctx.Err, "\r\033[2KSearching... %ds %s", seconds, frame)
				index++
			}
		}
	}()

	return func() {
		close(done)
		<-stopped
	}
}
