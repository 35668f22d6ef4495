// =============================================================================
// sources_reports.go - think tank publication feeds
// =============================================================================
package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// supplementaryTitles are exact (lowercased) titles of companion pages that
// ride along in publication feeds without being reports themselves.
var supplementaryTitles = map[string]bool{
	"appendix":          true,
	"methodology":       true,
	"topline":           true,
	"acknowledgments":   true,
	"acknowledgements":  true,
	"about this report": true,
	"about the data":    true,
	"errata":            true,
}

var supplementaryPrefixes = []string{
	"appendix ",
	"appendix:",
	"errata:",
	"correction:",
	"methodology:",
}

// isSupplementary reports whether a feed item is a companion page rather
// than a report.
func isSupplementary(title string) bool {
	lower := strings.ToLower(strings.TrimSpace(title))
	if supplementaryTitles[lower] {
		return true
	}
	for _, p := range supplementaryPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// collectThinkTankFeed reads one publications feed and keeps the reports
// published inside [from, to].
func collectThinkTankFeed(src ReportSource, from, to string, cfg SourceConfig) ([]Record, error) {
	feed, err := fetchFeed(src.URL, cfg)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, item := range feed.Items {
		title := strings.TrimSpace(cleanHTMLTags(item.Title))
		if title == "" || isSupplementary(title) {
			continue
		}
		raw := item.Updated
		if raw == "" {
			raw = item.Published
		}
		date := normalizeDate(raw, sgt)
		if date == "" || date < from || date > to {
			continue
		}
		out = append(out, Record{
			Source:   src.Name,
			Category: src.Category,
			Date:     date,
			Title:    title,
			Link:     NormalizeLink(item.Link),
		})
	}
	return out, nil
}

// CollectReports walks the think tank feeds sequentially with a short pause
// between fetches. These are eight independent hosts, so politeness matters
// more than speed here.
func CollectReports(cfg SourceConfig, opts RunOptions, dedup *Deduper) *CollectResult {
	now := time.Now().In(sgt)
	to := now.Format("2006-01-02")
	from := now.AddDate(0, 0, -opts.LookbackDays).Format("2006-01-02")

	result := &CollectResult{}
	for i, src := range thinkTanks {
		if i > 0 {
			time.Sleep(500 * time.Millisecond)
		}
		recs, err := collectThinkTankFeed(src, from, to, cfg)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", src.Name, err))
			continue
		}
		accepted := 0
		for _, r := range recs {
			if !dedup.Admit(r.Link) {
				continue
			}
			if opts.PerSource > 0 && accepted >= opts.PerSource {
				continue
			}
			result.Records = append(result.Records, r)
			accepted++
		}
	}
	return result
}
