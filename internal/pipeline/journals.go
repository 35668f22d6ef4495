// =============================================================================
// journals.go - journals pipeline orchestration
// =============================================================================
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
)

// RunJournals executes the journals pipeline: collect, annotate, write,
// persist seen.
func RunJournals(ctx context.Context, cfg SourceConfig, opts RunOptions, sink RowSink, annotator *Annotator, mirror *NotionMirror) error {
	seen := LoadSeenSet(filepath.Join(opts.StateDir, "seen_articles.json"), opts.ResetSeen)
	dedup := NewDeduper(seen)

	result := CollectJournals(cfg, opts, dedup)
	for _, e := range result.Errors {
		warnf("journals: %s", e)
	}
	infof("journals: %d new articles (%d source errors)", len(result.Records), len(result.Errors))

	if len(result.Records) == 0 {
		seen.AddAll(dedup.Observed)
		if err := seen.Save(); err != nil {
			warnf("journals: persist seen-set: %v", err)
		}
		return nil
	}

	annotator.Annotate(result.Records, ArticlePrompt, ArticlePlaceholder)

	if err := sink.AppendRows(ctx, articlesTab, buildArticleRows(result.Records)); err != nil {
		return fmt.Errorf("journals: %w", err)
	}
	seen.AddAll(dedup.Observed)
	if err := seen.Save(); err != nil {
		warnf("journals: persist seen-set: %v", err)
	}
	if mirror != nil {
		infof("journals: mirrored %d/%d to notion", mirror.MirrorRecords(ctx, result.Records), len(result.Records))
	}
	return nil
}
