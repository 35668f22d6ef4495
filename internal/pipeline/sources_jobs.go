// =============================================================================
// sources_jobs.go - jobs.ac.uk subject feeds and THE keyword feeds
// =============================================================================
package pipeline

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
)

var (
	// reSalaryLabel splits a description into institution text and salary.
	reSalaryLabel = regexp.MustCompile(`(?i)Salary\s*[:\-]?\s*(.+)`)

	// theSalaryPattern matches the salary formats seen in THE descriptions.
	theSalaryPattern = regexp.MustCompile(
		`(\$[\d,.]+|£[\d,.]+|€[\d,.]+|[\d,.]+\s*(?:USD|GBP|EUR|AUD|CAD)|Competitive|Not\s+Specified)`)
)

// parseJobDescription extracts the institution line and salary from a feed
// description. Descriptions arrive double-encoded ("&amp;lt;br /&amp;gt;"),
// so entities are unescaped twice before the markup is stripped.
func parseJobDescription(desc string) (institution, salary string) {
	text := html.UnescapeString(html.UnescapeString(desc))
	text = reTag.ReplaceAllString(text, " ")
	text = strings.TrimSpace(reSpaces.ReplaceAllString(text, " "))
	if m := reSalaryLabel.FindStringSubmatchIndex(text); m != nil {
		institution = strings.TrimSpace(text[:m[0]])
		salary = strings.TrimSpace(text[m[2]:m[3]])
	} else {
		institution = text
	}
	institution = strings.TrimSpace(strings.TrimRight(institution, "|"))
	return institution, salary
}

// CollectJobs runs the job feed adapters and returns the deduplicated new
// postings. Per-feed failures are accumulated, never fatal.
func CollectJobs(cfg SourceConfig, opts RunOptions, dedup *Deduper) *CollectResult {
	result := &CollectResult{}
	now := time.Now().In(sgt)
	today := now.Format("2006-01-02")
	cutoff := now.AddDate(0, 0, -opts.LookbackDays)

	if !opts.THEOnly {
		for _, src := range jobsAcUkFeeds {
			recs, err := collectSubjectFeed(src, today, opts, dedup, cfg)
			if err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("jobs.ac.uk %s: %v", src.Subject, err))
				continue
			}
			result.Records = append(result.Records, recs...)
		}
	}
	for _, src := range theFeeds {
		recs, err := collectTHEFeed(src, now, cutoff, opts, dedup, cfg)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("THE %s: %v", src.Subject, err))
			continue
		}
		result.Records = append(result.Records, recs...)
	}
	return result
}

// collectSubjectFeed reads one jobs.ac.uk subject feed. The subject is the
// category; the feed has no usable pubDate so the discovery date is today.
func collectSubjectFeed(src FeedSource, today string, opts RunOptions, dedup *Deduper, cfg SourceConfig) ([]Record, error) {
	url := src.URL
	if strings.HasPrefix(url, "/") {
		url = jobsAcUkBase + url
	}
	feed, err := fetchFeed(url, cfg)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, item := range feed.Items {
		link := NormalizeLink(item.Link)
		if !dedup.Admit(link) {
			continue
		}
		// Past the cap the loop keeps running so every link is still
		// recorded for the seen-set.
		if opts.PerSource > 0 && len(out) >= opts.PerSource {
			continue
		}
		institution, salary := parseJobDescription(item.Description)
		out = append(out, Record{
			Source:      "jobs.ac.uk",
			Category:    src.Subject,
			Date:        today,
			Institution: institution,
			Title:       strings.TrimSpace(item.Title),
			Secondary:   salary,
			Link:        link,
			ApplyLink:   link,
		})
	}
	return out, nil
}

// collectTHEFeed reads one THE keyword feed. Items carry a pubDate, so old
// postings are dropped by the lookback window; titles arrive as
// "INSTITUTION: Title" and the classifier maps them onto the subject
// catalog, dropping anything outside it.
func collectTHEFeed(src FeedSource, now, cutoff time.Time, opts RunOptions, dedup *Deduper, cfg SourceConfig) ([]Record, error) {
	feed, err := fetchFeed(src.URL, cfg)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, item := range feed.Items {
		link := NormalizeLink(item.Link)
		if !dedup.Admit(link) {
			continue
		}
		if opts.PerSource > 0 && len(out) >= opts.PerSource {
			continue
		}
		date := now.Format("2006-01-02")
		if item.PublishedParsed != nil {
			if !opts.ResetSeen && item.PublishedParsed.Before(cutoff) {
				continue
			}
			date = item.PublishedParsed.In(sgt).Format("2006-01-02")
		}

		title := strings.TrimSpace(item.Title)
		titleInst := ""
		if i := strings.Index(title, ": "); i > 0 {
			titleInst = strings.TrimSpace(title[:i])
			title = strings.TrimSpace(title[i+2:])
		}
		category := Classify(theKeywordRules, title, item.Description)
		if category == "" {
			continue
		}

		institution, salary := parseJobDescription(item.Description)
		if institution == "" {
			institution = titleInst
		}
		if salary == "" {
			if m := theSalaryPattern.FindString(truncateRunes(item.Description, 300)); m != "" {
				salary = m
			}
		}

		out = append(out, Record{
			Source:      "THE Jobs",
			Category:    category,
			Date:        date,
			Institution: institution,
			Title:       title,
			Secondary:   salary,
			Link:        link,
			ApplyLink:   link,
		})
	}
	return out, nil
}
