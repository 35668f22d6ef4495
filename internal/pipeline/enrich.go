// =============================================================================
// enrich.go - job detail-page enrichment (closing date, apply link)
// =============================================================================
package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"
)

// jobDetail is what a detail-page scrape can add to a feed record.
type jobDetail struct {
	Closing    string
	ApplyURL   string
	PostedDate string
}

var (
	reJobBlob = regexp.MustCompile(`(?s)var\s+job\s*=\s*(\{.*?\});\s*\n`)

	monthsAlt = `(?:January|February|March|April|May|June|July|August|September|October|November|December)`
	datePat   = `\d{1,2}(?:st|nd|rd|th)?\s+` + monthsAlt + `\s+\d{4}`

	reClosingLabelled  = regexp.MustCompile(`(?i)Closing\s+Date\s*[:\-]?\s*(` + datePat + `)`)
	reClosingProximity = regexp.MustCompile(`(?i)clos\w*\s+(?:date\s+)?(?:is\s+|on\s+|by\s+)?(` + datePat + `)`)
	reExpiry           = regexp.MustCompile(`(?i)(?:expires?|expiry|deadline)\s*[:\-]?\s*(` + datePat + `)`)

	reGoLive     = regexp.MustCompile(`(\d{1,2})(?:st|nd|rd|th)?\s+(\w+)\s+(\d{4})`)
	reTHEApply   = regexp.MustCompile(`"applicationUrl"\s*:\s*"([^"]+)"`)
	reClickPath  = regexp.MustCompile(`href="(/click/[^"]+)"`)
	reApplyWord  = regexp.MustCompile(`\bapply\b`)
	reInternalAp = regexp.MustCompile(`href="(/apply/[^"]+)"`)
)

// EnrichJobs scrapes each posting's detail page for its closing date, posted
// date and external apply link. Workers run five at a time with a small
// random delay, each owning one slice slot; a failed scrape leaves the feed
// values in place and never disturbs its siblings.
func EnrichJobs(ctx context.Context, jobs []Record, cfg SourceConfig) {
	var g errgroup.Group
	g.SetLimit(5)
	for i := range jobs {
		i := i
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Duration(300+rand.Intn(1200)) * time.Millisecond):
			}
			d := scrapeJobDetail(jobs[i].Link, cfg)
			if d.Closing != "" {
				jobs[i].Closing = d.Closing
			}
			if d.ApplyURL != "" {
				jobs[i].ApplyLink = d.ApplyURL
			}
			if d.PostedDate != "" {
				jobs[i].Date = d.PostedDate
			}
			return nil
		})
	}
	g.Wait()
}

// scrapeJobDetail fetches one detail page and works down the extraction
// chain. Every field defaults to the feed-derived value on failure.
func scrapeJobDetail(jobURL string, cfg SourceConfig) jobDetail {
	d := jobDetail{ApplyURL: jobURL}
	body, err := httpGet(jobURL, cfg)
	if err != nil {
		warnf("detail fetch %s: %v", jobURL, err)
		return d
	}
	page := string(body)
	isTHE := strings.Contains(jobURL, "timeshighereducation.com")

	blob := parseJobJSON(page)

	d.Closing = extractClosing(page, body, blob)
	d.PostedDate = extractPosted(blob)
	d.ApplyURL = extractApplyURL(jobURL, page, body, blob, isTHE, cfg)
	return d
}

// parseJobJSON pulls the inline "var job = {...}" assignment many detail
// pages embed and returns it as a generic map, descending into a nested
// "job" key when present.
func parseJobJSON(page string) map[string]any {
	m := reJobBlob.FindStringSubmatch(page)
	if m == nil {
		return nil
	}
	var blob map[string]any
	if err := json.Unmarshal([]byte(m[1]), &blob); err != nil {
		return nil
	}
	if inner, ok := blob["job"].(map[string]any); ok {
		return inner
	}
	return blob
}

func extractClosing(page string, body []byte, blob map[string]any) string {
	for _, key := range []string{"closing_date", "expiring_date", "date_closing", "date_expire"} {
		switch v := blob[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC().Format("2 January 2006")
			}
		}
	}
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		closing := ""
		doc.Find("dt").EachWithBreak(func(_ int, dt *goquery.Selection) bool {
			if strings.Contains(strings.TrimSpace(dt.Text()), "Closing Date") {
				closing = strings.TrimSpace(dt.Next().Text())
				return false
			}
			return true
		})
		if closing != "" {
			return closing
		}
	}
	text := cleanHTMLTags(page)
	for _, re := range []*regexp.Regexp{reClosingLabelled, reClosingProximity, reExpiry} {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return ""
}

// parseGoLive converts a "5th March 2026" style date to YYYY-MM-DD.
func parseGoLive(raw string) string {
	m := reGoLive.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	t, err := time.Parse("2 January 2006", m[1]+" "+m[2]+" "+m[3])
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func extractPosted(blob map[string]any) string {
	if v, ok := blob["go_live_date"].(string); ok && v != "" {
		if d := parseGoLive(v); d != "" {
			return d
		}
	}
	if v, ok := blob["date_publish"].(float64); ok && v > 0 {
		return time.Unix(int64(v), 0).In(sgt).Format("2006-01-02")
	}
	return ""
}

func extractApplyURL(jobURL, page string, body []byte, blob map[string]any, isTHE bool, cfg SourceConfig) string {
	if isTHE {
		if m := reTHEApply.FindStringSubmatch(page); m != nil {
			u := decodeJSONString(m[1])
			if u != "" && !strings.Contains(u, "timeshighereducation") {
				return u
			}
		}
		return jobURL
	}
	if v, ok := blob["apply_url"].(string); ok &&
		strings.HasPrefix(v, "http") && !strings.Contains(v, "jobs.ac.uk") {
		return v
	}
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body)); err == nil {
		apply := ""
		doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
			href, _ := a.Attr("href")
			text := strings.ToLower(a.Text())
			if strings.HasPrefix(href, "http") && !strings.Contains(href, "jobs.ac.uk") &&
				reApplyWord.MatchString(text) {
				apply = href
				return false
			}
			return true
		})
		if apply != "" {
			return apply
		}
	}
	if m := reClickPath.FindStringSubmatch(page); m != nil {
		clickURL := resolveAgainst(jobURL, m[1])
		if final := resolveRedirect(clickURL, cfg); final != "" && !strings.Contains(final, "jobs.ac.uk") {
			return final
		}
		// The redirector itself still reaches the employer even when the
		// chain could not be resolved to an off-domain URL.
		return clickURL
	}
	if m := reInternalAp.FindStringSubmatch(page); m != nil {
		return jobsAcUkBase + m[1]
	}
	return jobURL
}

// decodeJSONString undoes the escaping inside a JSON string value that was
// grabbed with a regex rather than a parser.
func decodeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err == nil {
		return out
	}
	s = strings.ReplaceAll(s, `\u002F`, "/")
	return strings.ReplaceAll(s, `\/`, "/")
}

// resolveAgainst resolves a possibly relative href against the page URL.
func resolveAgainst(pageURL, href string) string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// resolveRedirect follows a tracking redirector with a HEAD request and
// returns the final URL, or "" on failure.
func resolveRedirect(u string, cfg SourceConfig) string {
	req, err := http.NewRequest(http.MethodHead, u, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	resp, err := cfg.Client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()
	return resp.Request.URL.String()
}
