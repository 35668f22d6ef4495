package pipeline

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"
)

func testSourceConfig() SourceConfig {
	return SourceConfig{
		UserAgent: "test-agent",
		Timeout:   5 * time.Second,
		Client:    &http.Client{Timeout: 5 * time.Second},
	}
}

func newTestDeduper(t *testing.T) *Deduper {
	t.Helper()
	return NewDeduper(LoadSeenSet(filepath.Join(t.TempDir(), "seen.json"), false))
}

func rssFeed(items string) string {
	return `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>test</title>` + items + `</channel></rss>`
}

func TestCollectTHEFeedNormalizesRecord(t *testing.T) {
	pub := time.Now().UTC().Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(`<item>
<title>Oxford: Lecturer in Sociology</title>
<link>https://example.org/job/123?ref=rss</link>
<description>University of Oxford&lt;br /&gt;Salary: £40,000</description>
<pubDate>`+pub+`</pubDate>
</item>`))
	}))
	defer srv.Close()

	now := time.Now().In(sgt)
	recs, err := collectTHEFeed(
		FeedSource{Subject: "Sociology", URL: srv.URL},
		now, now.AddDate(0, 0, -7),
		RunOptions{LookbackDays: 7}, newTestDeduper(t), testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.Category != "Sociology" {
		t.Errorf("category = %q, want Sociology", r.Category)
	}
	if r.Institution != "University of Oxford" {
		t.Errorf("institution = %q, want University of Oxford", r.Institution)
	}
	if r.Secondary != "£40,000" {
		t.Errorf("salary = %q, want £40,000", r.Secondary)
	}
	if r.Title != "Lecturer in Sociology" {
		t.Errorf("title = %q, want Lecturer in Sociology", r.Title)
	}
	if r.Link != "https://example.org/job/123/" {
		t.Errorf("link = %q, want query stripped and trailing slash", r.Link)
	}
	if r.ApplyLink != r.Link {
		t.Errorf("apply link = %q, want %q before enrichment", r.ApplyLink, r.Link)
	}
}

func TestCollectTHEFeedDropsOldAndUnclassified(t *testing.T) {
	old := time.Now().UTC().AddDate(0, 0, -30).Format(time.RFC1123Z)
	fresh := time.Now().UTC().Format(time.RFC1123Z)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(`<item>
<title>Leeds: Lecturer in Sociology</title>
<link>https://example.org/job/old</link>
<description>x</description>
<pubDate>`+old+`</pubDate>
</item><item>
<title>Kent: Lecturer in Marine Biology</title>
<link>https://example.org/job/fish</link>
<description>x</description>
<pubDate>`+fresh+`</pubDate>
</item>`))
	}))
	defer srv.Close()

	now := time.Now().In(sgt)
	dedup := newTestDeduper(t)
	recs, err := collectTHEFeed(
		FeedSource{Subject: "Sociology", URL: srv.URL},
		now, now.AddDate(0, 0, -7),
		RunOptions{LookbackDays: 7}, dedup, testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want 0", len(recs))
	}
	// Both links were still observed for seen-set growth.
	if len(dedup.Observed) != 2 {
		t.Errorf("observed %d links, want 2", len(dedup.Observed))
	}
}

func TestCollectSubjectFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(`<item>
<title>Research Associate in Migration Studies</title>
<link>https://www.jobs.ac.uk/job/ABC123</link>
<description>University of Bristol&lt;br /&gt;Salary: £38,000 to £42,000</description>
</item>`))
	}))
	defer srv.Close()

	recs, err := collectSubjectFeed(
		FeedSource{Subject: "Sociology", URL: srv.URL},
		"2026-08-29", RunOptions{}, newTestDeduper(t), testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.Source != "jobs.ac.uk" || r.Category != "Sociology" || r.Date != "2026-08-29" {
		t.Errorf("unexpected record header: %+v", r)
	}
	if r.Institution != "University of Bristol" {
		t.Errorf("institution = %q", r.Institution)
	}
}

func TestFetchCrossrefFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"items":[
{"type":"journal-article","title":["Networks of Inequality"],
 "author":[{"given":"Ada","family":"Chen"},{"given":"Bo","family":"Li"}],
 "DOI":"10.1000/xyz","URL":"https://doi.org/10.1000/xyz",
 "published":{"date-parts":[[2025,6,15]]}},
{"type":"journal-article","title":["Some Book. By A Uthor. London: Press"],
 "published":{"date-parts":[[2025,6,15]]},"URL":"https://doi.org/10.1000/rev"},
{"type":"journal-article","title":["Year Only"],
 "published":{"date-parts":[[2025]]},"URL":"https://doi.org/10.1000/yr"},
{"type":"editorial","title":["Not an Article"],
 "published":{"date-parts":[[2025,6,15]]},"URL":"https://doi.org/10.1000/ed"}
]}}`)
	}))
	defer srv.Close()

	j := JournalSource{Name: "Social Networks", Field: "Social Networks", ISSN: "0378-8733"}
	recs, err := fetchCrossref(srv.URL, j, "2025-01-01", "2025-12-31", testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	r := recs[0]
	if r.Title != "Networks of Inequality" {
		t.Errorf("title = %q", r.Title)
	}
	if r.Secondary != "Ada Chen, Bo Li" {
		t.Errorf("authors = %q", r.Secondary)
	}
	if r.Date != "2025-06-15" {
		t.Errorf("date = %q", r.Date)
	}
	if r.Institution != "Social Networks" || r.Category != "Social Networks" {
		t.Errorf("journal fields wrong: %+v", r)
	}
}

func TestFetchCrossrefPrefersOnlineDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":{"items":[
{"type":"journal-article","title":["Early View First"],
 "URL":"https://doi.org/10.1000/ev",
 "published":{"date-parts":[[2025,6,15]]},
 "published-online":{"date-parts":[[2025,6,10]]}}
]}}`)
	}))
	defer srv.Close()

	j := JournalSource{Name: "Demography", Field: "Demography", ISSN: "0070-3370"}
	recs, err := fetchCrossref(srv.URL, j, "2025-01-01", "2025-12-31", testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Date != "2025-06-10" {
		t.Errorf("date = %q, want the online date 2025-06-10", recs[0].Date)
	}
}

func TestIsBookReview(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Book Review: Capital in the 21st Century", true},
		{"The Big Book. By Jane Doe. London: Penguin", true},
		{"Society and Stuff, pp. 300, £25.00", true},
		{"New Theory, ISBN 978-0", true},
		{"Networks of Inequality", false},
	}
	for _, c := range cases {
		if got := isBookReview(c.title); got != c.want {
			t.Errorf("isBookReview(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}

func TestIsSupplementary(t *testing.T) {
	cases := []struct {
		title string
		want  bool
	}{
		{"Methodology", true},
		{"Appendix", true},
		{"Appendix A: survey weights", true},
		{"Errata: figure 3", true},
		{"The State of American Jobs", false},
	}
	for _, c := range cases {
		if got := isSupplementary(c.title); got != c.want {
			t.Errorf("isSupplementary(%q) = %v, want %v", c.title, got, c.want)
		}
	}
}

func TestCollectThinkTankFeedWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(`<item>
<title>In the Window</title>
<link>https://example.org/report/1</link>
<pubDate>Wed, 10 Jun 2026 08:00:00 +0000</pubDate>
</item><item>
<title>Too Old</title>
<link>https://example.org/report/2</link>
<pubDate>Wed, 01 Jan 2025 08:00:00 +0000</pubDate>
</item><item>
<title>Methodology</title>
<link>https://example.org/report/3</link>
<pubDate>Wed, 10 Jun 2026 08:00:00 +0000</pubDate>
</item>`))
	}))
	defer srv.Close()

	src := ReportSource{Name: "Pew Research Center", Category: "Social Research", URL: srv.URL}
	recs, err := collectThinkTankFeed(src, "2026-06-01", "2026-06-30", testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if recs[0].Title != "In the Window" {
		t.Errorf("title = %q", recs[0].Title)
	}
	if recs[0].Source != "Pew Research Center" || recs[0].Category != "Social Research" {
		t.Errorf("source fields wrong: %+v", recs[0])
	}
}

func TestCollectThinkTankFeedPrefersUpdatedDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>test</title>
<entry>
<title>Revised Outlook</title>
<link href="https://example.org/report/9"/>
<published>2026-06-01T00:00:00Z</published>
<updated>2026-06-20T00:00:00Z</updated>
</entry></feed>`)
	}))
	defer srv.Close()

	src := ReportSource{Name: "Our World in Data", Category: "Global Data", URL: srv.URL}
	recs, err := collectThinkTankFeed(src, "2026-06-15", "2026-06-30", testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1 (updated date is inside the window)", len(recs))
	}
	if recs[0].Date != "2026-06-20" {
		t.Errorf("date = %q, want 2026-06-20 from the updated element", recs[0].Date)
	}
}

func TestCollectSubjectFeedPerSourceCapStillObserves(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(`<item>
<title>First</title><link>https://www.jobs.ac.uk/job/A</link><description>U1</description>
</item><item>
<title>Second</title><link>https://www.jobs.ac.uk/job/B</link><description>U2</description>
</item><item>
<title>Third</title><link>https://www.jobs.ac.uk/job/C</link><description>U3</description>
</item>`))
	}))
	defer srv.Close()

	dedup := newTestDeduper(t)
	recs, err := collectSubjectFeed(
		FeedSource{Subject: "Sociology", URL: srv.URL},
		"2026-08-30", RunOptions{PerSource: 1}, dedup, testSourceConfig())
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if len(dedup.Observed) != 3 {
		t.Errorf("observed %d links, want all 3 despite the cap", len(dedup.Observed))
	}
}
