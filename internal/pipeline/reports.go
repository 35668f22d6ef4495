// =============================================================================
// reports.go - reports pipeline orchestration
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
)

// RunReports executes the reports pipeline: collect, annotate, write,
// persist seen.
func RunReports(ctx context.Context, cfg SourceConfig, opts RunOptions, sink RowSink, annotator *Annotator, mirror *NotionMirror) error {
	seen := LoadSeenSet(filepath.Join(opts.StateDir, "seen_reports.json"), opts.ResetSeen)
	dedup := NewDeduper(seen)

	result := CollectReports(cfg, opts, dedup)
	for _, e := range result.Errors {
		warnf("reports: %s", e)
	}
	infof("reports: %d new reports (%d source errors)", len(result.Records), len(result.Errors))

	if len(result.Records) == 0 {
		seen.AddAll(dedup.Observed)
		if err := seen.Save(); err != nil {
			warnf("reports: persist seen-set: %v", err)
		}
		return nil
	}

	annotator.Annotate(result.Records, ReportPrompt, ReportPlaceholder)

	if err := sink.AppendRows(ctx, reportsTab, buildReportRows(result.Records)); err != nil {
		return fmt.Errorf("reports: %w", err)
	}
	seen.AddAll(dedup.Observed)
	if err := seen.Save(); err != nil {
		warnf("reports: persist seen-set: %v", err)
	}
	if mirror != nil {
		infof("reports: mirrored %d/%d to notion", mirror.MirrorRecords(ctx, result.Records), len(result.Records))
	}
	return nil
}
