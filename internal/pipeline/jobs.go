// =============================================================================
// jobs.go - jobs pipeline orchestration
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
)

// RunJobs executes the jobs pipeline: collect, enrich, write, persist seen.
// The seen-set is only persisted after a successful sheet write, so a failed
// write is retried wholesale on the next run.
func RunJobs(ctx context.Context, cfg SourceConfig, opts RunOptions, sink RowSink, mirror *NotionMirror) error {
	seen := LoadSeenSet(filepath.Join(opts.StateDir, "seen_jobs.json"), opts.ResetSeen)
	dedup := NewDeduper(seen)

	result := CollectJobs(cfg, opts, dedup)
	for _, e := range result.Errors {
		warnf("jobs: %s", e)
	}
	infof("jobs: %d new postings (%d source errors)", len(result.Records), len(result.Errors))

	if len(result.Records) == 0 {
		seen.AddAll(dedup.Observed)
		if err := seen.Save(); err != nil {
			warnf("jobs: persist seen-set: %v", err)
		}
		return nil
	}

	EnrichJobs(ctx, result.Records, cfg)

	if err := sink.AppendRows(ctx, jobsTab, buildJobRows(result.Records)); err != nil {
		return fmt.Errorf("jobs: %w", err)
	}
	seen.AddAll(dedup.Observed)
	if err := seen.Save(); err != nil {
		warnf("jobs: persist seen-set: %v", err)
	}
	if mirror != nil {
		infof("jobs: mirrored %d/%d to notion", mirror.MirrorRecords(ctx, result.Records), len(result.Records))
	}
	return nil
}
