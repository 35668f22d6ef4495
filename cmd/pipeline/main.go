// =============================================================================
// main.go - CLI entry point
// =============================================================================
//
// Usage:
//   pipeline -target jobs                 # one pipeline
//   pipeline -target all -lookbackDays 3  # all pipelines, custom window
//   pipeline -target jobs -the-only -perSource 2 -all
//
// Secrets come from the environment (.env is loaded when present):
// SHEET_ID, GOOGLE_SERVICE_ACCOUNT, GEMINI_API_KEY[_2|_3], GROQ_API_KEY,
// OPENROUTER_API_KEY, NOTION_TOKEN, NOTION_DATABASE_ID.
//
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"scholar-relay/internal/pipeline"
)

type cliConfig struct {
	target       string
	resetSeen    bool
	theOnly      bool
	perSource    int
	lookbackDays int
	sheetID      string
	stateDir     string
	notionClip   bool
}

func parseFlags() cliConfig {
	var c cliConfig
	flag.StringVar(&c.target, "target", "all", "pipeline to run: jobs, journals, reports or all")
	flag.BoolVar(&c.resetSeen, "all", false, "ignore the seen-set and re-deliver everything")
	flag.BoolVar(&c.theOnly, "the-only", false, "jobs: only the THE keyword feeds")
	flag.IntVar(&c.perSource, "perSource", 0, "cap records per source, 0 = no cap")
	flag.IntVar(&c.lookbackDays, "lookbackDays", 0, "publish-date window in days, 0 = per-target default")
	flag.StringVar(&c.sheetID, "sheetID", os.Getenv("SHEET_ID"), "target spreadsheet ID")
	flag.StringVar(&c.stateDir, "stateDir", ".", "directory for seen-set files")
	flag.BoolVar(&c.notionClip, "notionClip", false, "also mirror new records into Notion")
	flag.Parse()
	return c
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[fatal] "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "[warn] no .env file, using environment as-is")
	}
	c := parseFlags()

	targets := []string{c.target}
	if c.target == "all" {
		targets = []string{"jobs", "journals", "reports"}
	}

	ctx := context.Background()
	cfg := pipeline.DefaultSourceConfig()

	sink, err := pipeline.NewSheetsSink(ctx, c.sheetID)
	if err != nil {
		fatalf("sheets: %v", err)
	}
	var mirror *pipeline.NotionMirror
	if c.notionClip {
		token, dbID := os.Getenv("NOTION_TOKEN"), os.Getenv("NOTION_DATABASE_ID")
		if token == "" || dbID == "" {
			fatalf("-notionClip requires NOTION_TOKEN and NOTION_DATABASE_ID")
		}
		mirror = pipeline.NewNotionMirror(token, dbID)
	}
	annotator := pipeline.DefaultAnnotator(cfg)

	failed := 0
	for _, target := range targets {
		opts := pipeline.RunOptions{
			ResetSeen:    c.resetSeen,
			THEOnly:      c.theOnly,
			PerSource:    c.perSource,
			LookbackDays: c.lookbackDays,
			StateDir:     c.stateDir,
		}
		if opts.LookbackDays == 0 {
			opts.LookbackDays = pipeline.LookbackForTarget(target)
		}

		var err error
		switch target {
		case "jobs":
			err = pipeline.RunJobs(ctx, cfg, opts, sink, mirror)
		case "journals":
			err = pipeline.RunJournals(ctx, cfg, opts, sink, annotator, mirror)
		case "reports":
			err = pipeline.RunReports(ctx, cfg, opts, sink, annotator, mirror)
		default:
			fatalf("unknown target %q", target)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "[error] %s: %v\n", target, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}
