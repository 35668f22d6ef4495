// =============================================================================
// types.go - shared data structures
// =============================================================================
package pipeline

// Record is the normalized unit of output shared by the three pipelines.
// Link is the deduplication identity: it is always stored in normalized form
// (query string stripped, trailing slash enforced), and two records with the
// same normalized Link are the same entity regardless of source.
type Record struct {
	Source      string `json:"source"`                // origin tag, e.g. "jobs.ac.uk", "CrossRef", "Pew Research Center"
	Category    string `json:"category"`              // subject / field / report category
	Date        string `json:"date"`                  // YYYY-MM-DD, discovery or publish date
	Institution string `json:"institution,omitempty"` // hiring institution or journal name
	Title       string `json:"title"`
	Secondary   string `json:"secondary,omitempty"`  // salary (jobs) or authors (articles)
	Link        string `json:"link"`                 // normalized URL, dedup identity
	ApplyLink   string `json:"applyLink,omitempty"`  // equals Link until enriched
	Closing     string `json:"closing,omitempty"`    // application closing date (jobs)
	Annotation  string `json:"annotation,omitempty"` // one-line LLM annotation (articles, reports)
}

// CollectResult holds everything a collection phase produced: the new
// records that survived the dedup filter and the per-source errors that
// were swallowed along the way.
type CollectResult struct {
	Records []Record
	Errors  []string
}

// FeedSource is one static feed entry: a category label plus an endpoint.
type FeedSource struct {
	Subject string
	URL     string
}

// JournalSource is one CrossRef-indexed journal, queried by ISSN.
type JournalSource struct {
	Name  string
	Field string
	ISSN  string
}

// RSSJournalSource is one journal that only publishes an RSS feed.
type RSSJournalSource struct {
	Name  string
	Field string
	URL   string
}

// ReportSource is one think tank publications feed.
type ReportSource struct {
	Name     string
	Category string
	URL      string
}
