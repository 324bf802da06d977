package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/jimezsa/ghsearch/internal/config"
)

func TestShowConfigHidesToken(t *testing.T) {
	ctx, out, _ := newTestContext()
	ctx.Config = config.Config{DefaultQuery: `"AI Agent"`, DefaultLimit: 100, OutputDir: "/app/output"}
	ctx.Token = "ghp_secret"

	if err := (&ShowConfigCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if strings.Contains(out.String(), "ghp_secret") {
		t.Fatalf("config show leaked the token: %s", out.String())
	}

	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got["default_query"] != `"AI Agent"` || got["token_set"] != true {
		t.Fatalf("config show = %v", got)
	}
}

func TestVersionCmd(t *testing.T) {
	ctx, out, _ := newTestContext()
	ctx.Version = "1.2.3 (abc)"
	if err := (&VersionCmd{}).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := out.String(); got != "1.2.3 (abc)\n" {
		t.Fatalf("version = %q", got)
	}
}
