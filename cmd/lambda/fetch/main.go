// =============================================================================
// main.go - AWS Lambda entry point for scheduled runs
// =============================================================================
//
// Invoked by EventBridge schedules with a payload like {"target": "journals"}.
// The journals schedule fires daily, jobs and reports weekly; the lookback
// window follows the target so each schedule covers exactly its own gap.
//
// =============================================================================
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"scholar-relay/internal/pipeline"
)

// Event is the invocation payload.
type Event struct {
	Target string `json:"target"`
}

// Response reports the per-target outcome without failing the invocation.
type Response struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Results    map[string]string `json:"results"`
}

// Handler dispatches one or all pipelines. Pipeline failures land in the
// response body; only missing configuration fails the invocation itself.
func Handler(ctx context.Context, event Event) (Response, error) {
	target := event.Target
	if target == "" {
		target = "all"
	}
	targets := []string{target}
	if target == "all" {
		targets = []string{"jobs", "journals", "reports"}
	}

	stateDir := os.Getenv("STATE_DIR")
	if stateDir == "" {
		stateDir = "/tmp"
	}

	cfg := pipeline.DefaultSourceConfig()
	sink, err := pipeline.NewSheetsSink(ctx, os.Getenv("SHEET_ID"))
	if err != nil {
		return Response{}, fmt.Errorf("sheets: %w", err)
	}
	var mirror *pipeline.NotionMirror
	if token, dbID := os.Getenv("NOTION_TOKEN"), os.Getenv("NOTION_DATABASE_ID"); token != "" && dbID != "" {
		mirror = pipeline.NewNotionMirror(token, dbID)
	}
	annotator := pipeline.DefaultAnnotator(cfg)

	results := map[string]string{}
	failed := 0
	for _, t := range targets {
		opts := pipeline.RunOptions{
			LookbackDays: pipeline.LookbackForTarget(t),
			StateDir:     stateDir,
		}
		var err error
		switch t {
		case "jobs":
			err = pipeline.RunJobs(ctx, cfg, opts, sink, mirror)
		case "journals":
			err = pipeline.RunJournals(ctx, cfg, opts, sink, annotator, mirror)
		case "reports":
			err = pipeline.RunReports(ctx, cfg, opts, sink, annotator, mirror)
		default:
			err = fmt.Errorf("unknown target %q", t)
		}
		if err != nil {
			log.Printf("%s failed: %v", t, err)
			results[t] = "error: " + err.Error()
			failed++
			continue
		}
		results[t] = "ok"
	}

	msg := "all pipelines succeeded"
	if failed > 0 {
		msg = fmt.Sprintf("%d of %d pipelines failed", failed, len(targets))
	}
	return Response{StatusCode: 200, Message: msg, Results: results}, nil
}

func main() {
	lambda.Start(Handler)
}
