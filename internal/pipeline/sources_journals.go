// =============================================================================
// sources_journals.go - CrossRef REST and CNKI RSS journal adapters
// =============================================================================
package pipeline

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"
)

// crossrefResponse mirrors the subset of /works we select.
type crossrefResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	Type            string          `json:"type"`
	Title           []string        `json:"title"`
	Author          []crossrefName  `json:"author"`
	DOI             string          `json:"DOI"`
	URL             string          `json:"URL"`
	Published       *crossrefDate   `json:"published"`
	PublishedOnline *crossrefDate   `json:"published-online"`
}

type crossrefName struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDate struct {
	DateParts [][]int `json:"date-parts"`
}

// fullDate returns the YYYY-MM-DD form when all three parts are present.
// CrossRef often reports year-only or year-month dates for issues not yet
// assigned; those are not publishable rows.
func (d *crossrefDate) fullDate() string {
	if d == nil || len(d.DateParts) == 0 || len(d.DateParts[0]) < 3 {
		return ""
	}
	p := d.DateParts[0]
	return fmt.Sprintf("%04d-%02d-%02d", p[0], p[1], p[2])
}

var (
	reviewKeywords = []string{"book review", "review essay", "review symposium", "reviewed by"}
	reISBN         = regexp.MustCompile(`\bISBN\b`)
	rePagesPrice   = regexp.MustCompile(`pp\..*(?:\$|£|€)`)
	reByline       = regexp.MustCompile(`\. By [A-Z].+?\.\s+\w+:`)
)

// isBookReview filters out review items that CrossRef types as
// journal-article anyway. The byline form ". By Author. City:" is how the
// big sociology journals format review titles.
func isBookReview(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range reviewKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return reISBN.MatchString(title) || rePagesPrice.MatchString(title) || reByline.MatchString(title)
}

func formatAuthors(names []crossrefName) string {
	var parts []string
	for _, n := range names {
		full := strings.TrimSpace(strings.TrimSpace(n.Given) + " " + strings.TrimSpace(n.Family))
		if full != "" {
			parts = append(parts, full)
		}
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, ", ")
}

// fetchCrossref queries one journal's new articles in [from, to].
func fetchCrossref(apiBase string, j JournalSource, from, to string, cfg SourceConfig) ([]Record, error) {
	q := url.Values{}
	q.Set("filter", fmt.Sprintf("issn:%s,from-pub-date:%s,until-pub-date:%s", j.ISSN, from, to))
	q.Set("rows", "50")
	q.Set("select", "title,author,DOI,URL,published,published-online,type")
	q.Set("mailto", crossrefMailto)

	var resp crossrefResponse
	if err := httpGetJSON(apiBase+"?"+q.Encode(), cfg, &resp); err != nil {
		return nil, err
	}

	var out []Record
	for _, w := range resp.Message.Items {
		if w.Type != "journal-article" || len(w.Title) == 0 {
			continue
		}
		title := strings.TrimSpace(reSpaces.ReplaceAllString(w.Title[0], " "))
		if title == "" || isBookReview(title) {
			continue
		}
		date := w.PublishedOnline.fullDate()
		if date == "" {
			date = w.Published.fullDate()
		}
		if date == "" || date < from || date > to {
			continue
		}
		link := w.URL
		if link == "" && w.DOI != "" {
			link = "https://doi.org/" + w.DOI
		}
		if link == "" {
			continue
		}
		out = append(out, Record{
			Source:      "CrossRef",
			Category:    j.Field,
			Date:        date,
			Institution: j.Name,
			Title:       title,
			Secondary:   formatAuthors(w.Author),
			Link:        NormalizeLink(link),
		})
	}
	return out, nil
}

// collectCNKIFeed reads one CNKI journal feed. CNKI bodies carry raw control
// characters (handled in fetchFeed) and put authors in dc:creator.
func collectCNKIFeed(j RSSJournalSource, from, to string, cfg SourceConfig) ([]Record, error) {
	feed, err := fetchFeed(j.URL, cfg)
	if err != nil {
		return nil, err
	}
	var out []Record
	for _, item := range feed.Items {
		title := strings.TrimSpace(cleanHTMLTags(item.Title))
		if title == "" || isBookReview(title) {
			continue
		}
		date := cnkiItemDate(item)
		if date == "" || date < from || date > to {
			continue
		}
		out = append(out, Record{
			Source:      "CNKI",
			Category:    j.Field,
			Date:        date,
			Institution: j.Name,
			Title:       title,
			Secondary:   cnkiAuthors(item),
			Link:        NormalizeLink(item.Link),
		})
	}
	return out, nil
}

func cnkiAuthors(item *gofeed.Item) string {
	if item.DublinCoreExt != nil && len(item.DublinCoreExt.Creator) > 0 {
		return strings.Join(item.DublinCoreExt.Creator, ", ")
	}
	var parts []string
	for _, a := range item.Authors {
		if a != nil && a.Name != "" {
			parts = append(parts, a.Name)
		}
	}
	if len(parts) == 0 {
		return "N/A"
	}
	return strings.Join(parts, ", ")
}

func cnkiItemDate(item *gofeed.Item) string {
	if item.Published != "" {
		if d := normalizeDate(item.Published, sgt); d != "" {
			return d
		}
	}
	if prism, ok := item.Extensions["prism"]; ok {
		if covers, ok := prism["coverDate"]; ok && len(covers) > 0 {
			if d := normalizeDate(covers[0].Value, sgt); d != "" {
				return d
			}
		}
	}
	return ""
}

// CollectJournals fans the CrossRef queries out ten at a time and the CNKI
// feeds five at a time, then flattens and deduplicates. Each goroutine owns
// a distinct slice slot, so no locking is needed.
func CollectJournals(cfg SourceConfig, opts RunOptions, dedup *Deduper) *CollectResult {
	now := time.Now().In(sgt)
	to := now.Format("2006-01-02")
	from := now.AddDate(0, 0, -opts.LookbackDays).Format("2006-01-02")

	crRecs := make([][]Record, len(crossrefJournals))
	crErrs := make([]error, len(crossrefJournals))
	var g errgroup.Group
	g.SetLimit(10)
	for i, j := range crossrefJournals {
		i, j := i, j
		g.Go(func() error {
			crRecs[i], crErrs[i] = fetchCrossref(crossrefAPIBase, j, from, to, cfg)
			return nil
		})
	}
	g.Wait()

	cnRecs := make([][]Record, len(cnkiJournals))
	cnErrs := make([]error, len(cnkiJournals))
	var gc errgroup.Group
	gc.SetLimit(5)
	for i, j := range cnkiJournals {
		i, j := i, j
		gc.Go(func() error {
			cnRecs[i], cnErrs[i] = collectCNKIFeed(j, from, to, cfg)
			return nil
		})
	}
	gc.Wait()

	result := &CollectResult{}
	for i, j := range crossrefJournals {
		if crErrs[i] != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("CrossRef %s: %v", j.Name, crErrs[i]))
		}
	}
	for i, j := range cnkiJournals {
		if cnErrs[i] != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("CNKI %s: %v", j.Name, cnErrs[i]))
		}
	}
	for _, recs := range append(crRecs, cnRecs...) {
		for _, r := range recs {
			if !dedup.Admit(r.Link) {
				continue
			}
			if opts.PerSource > 0 && len(result.Records) >= opts.PerSource {
				continue
			}
			result.Records = append(result.Records, r)
		}
	}
	return result
}
