// =============================================================================
// config.go - immutable source tables and run configuration
// =============================================================================
//
// Every feed list and keyword table lives here as a package-level value
// constructed once. Nothing mutates these at runtime; collectors receive
// entries explicitly.
//
// =============================================================================
package pipeline

import (
	"net/http"
	"time"
)

// Singapore time. Discovery dates and lookback windows are computed in this
// zone so a run started just after midnight UTC still stamps the local day.
var sgt = time.FixedZone("SGT", 8*60*60)

// Spreadsheet tab per pipeline.
const (
	jobsTab     = "Jobs"
	articlesTab = "Articles"
	reportsTab  = "Reports"
)

// SourceConfig holds the HTTP settings shared by all collectors.
type SourceConfig struct {
	UserAgent string
	Timeout   time.Duration
	Client    *http.Client // shared client, connection pooling enabled
}

// DefaultSourceConfig returns the HTTP settings used by real runs.
func DefaultSourceConfig() SourceConfig {
	timeout := 20 * time.Second
	return SourceConfig{
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36",
		Timeout:   timeout,
		Client: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// RunOptions carries the per-run switches shared by the three pipelines.
type RunOptions struct {
	// ResetSeen ignores the persisted seen-set for this run (full re-delivery).
	ResetSeen bool

	// THEOnly restricts the jobs pipeline to the THE keyword feeds, for fast
	// verification runs.
	THEOnly bool

	// PerSource caps the records accepted per source; 0 means no cap.
	PerSource int

	// LookbackDays is the publish-date window for date-filtered sources.
	LookbackDays int

	// StateDir is where the per-pipeline seen-set files live.
	StateDir string
}

// LookbackForTarget returns the default lookback window for a dispatch
// target: journals run daily and look back one day, everything else runs
// weekly and looks back seven.
func LookbackForTarget(target string) int {
	if target == "journals" {
		return 1
	}
	return 7
}

// ── jobs.ac.uk ──────────────────────────────────────────────────────────────

const jobsAcUkBase = "https://www.jobs.ac.uk"

// jobsAcUkFeeds maps each subject of interest to its per-subject RSS feed.
// The category is taken from the feed entry, not from a classifier.
var jobsAcUkFeeds = []FeedSource{
	{"Sociology", "/jobs/sociology/?format=rss"},
	{"Anthropology", "/jobs/anthropology/?format=rss"},
	{"Social Policy", "/jobs/social-policy/?format=rss"},
	{"Social Work", "/jobs/social-work/?format=rss"},
	{"Politics & Government", "/jobs/politics-and-government/?format=rss"},
	{"Cultural Studies", "/jobs/cultural-studies/?format=rss"},
	{"Human & Social Geography", "/jobs/human-and-social-geography/?format=rss"},
	{"Other Social Sciences", "/jobs/other-social-sciences/?format=rss"},
	{"Business Studies", "/jobs/business-studies/?format=rss"},
	{"Human Resources Management", "/jobs/human-resources-management/?format=rss"},
	{"Management", "/jobs/management/?format=rss"},
	{"Other Business & Management Studies", "/jobs/other-business-and-management-studies/?format=rss"},
	{"History", "/jobs/history/?format=rss"},
	{"History of Art", "/jobs/history-of-art/?format=rss"},
	{"Philosophy", "/jobs/philosophy/?format=rss"},
	{"Psychology", "/jobs/psychology/?format=rss"},
	{"Media & Communications", "/jobs/media-studies/?format=rss"},
	{"Media & Communications", "/jobs/journalism/?format=rss"},
	{"Media & Communications", "/jobs/communication-studies/?format=rss"},
	{"Media & Communications", "/jobs/publishing/?format=rss"},
}

// jobSubjects is the subject catalog in row order, derived from the feed
// table with duplicates removed.
var jobSubjects = func() []string {
	seen := map[string]bool{}
	var out []string
	for _, f := range jobsAcUkFeeds {
		if seen[f.Subject] {
			continue
		}
		seen[f.Subject] = true
		out = append(out, f.Subject)
	}
	return out
}()

// ── THE Jobs (Times Higher Education) ───────────────────────────────────────

// theFeeds are keyword-search RSS feeds; each returns the latest ~20 matches
// with a pubDate, so results are filtered by the lookback window.
var theFeeds = []FeedSource{
	{"Sociology", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=sociology"},
	{"Social Science", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=social+science"},
	{"Politics", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=political+science"},
	{"Psychology", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=psychology"},
	{"Philosophy", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=philosophy"},
	{"History", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=history"},
	{"Anthropology", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=anthropology"},
	{"Media Studies", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=media+studies"},
	{"Cultural Studies", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=cultural+studies"},
	{"Management", "https://www.timeshighereducation.com/unijobs/jobsrss/?keywords=management"},
}

// theKeywordRules maps THE job text onto the jobs.ac.uk subject catalog.
// Order is the priority: more specific phrases must come before broader
// ones ("history of art" before "history"), and the first match wins.
var theKeywordRules = []ClassificationRule{
	{"history of art", "History of Art"},
	{"art history", "History of Art"},
	{"human resources", "Human Resources Management"},
	{"social policy", "Social Policy"},
	{"social work", "Social Work"},
	{"social geography", "Human & Social Geography"},
	{"human geography", "Human & Social Geography"},
	{"cultural studies", "Cultural Studies"},
	{"cultural geography", "Cultural Studies"},
	{"media studies", "Media & Communications"},
	{"media and communication", "Media & Communications"},
	{"communication studies", "Media & Communications"},
	{"journalism", "Media & Communications"},
	{"publishing", "Media & Communications"},
	{"sociology", "Sociology"},
	{"anthropolog", "Anthropology"},
	{"political science", "Politics & Government"},
	{"politics", "Politics & Government"},
	{"government", "Politics & Government"},
	{"international relations", "Politics & Government"},
	{"philosophy", "Philosophy"},
	{"psychology", "Psychology"},
	{"history", "History"},
	{"management", "Management"},
	{"business studies", "Business Studies"},
	{"business school", "Business Studies"},
	{"criminology", "Sociology"},
	{"gender studies", "Sociology"},
	{"social science", "Other Social Sciences"},
	{"development studies", "Other Social Sciences"},
	{"public policy", "Other Social Sciences"},
	{"demography", "Other Social Sciences"},
}

// ── Journals ────────────────────────────────────────────────────────────────

const crossrefAPIBase = "https://api.crossref.org/works"

// crossrefMailto puts us in the CrossRef polite pool.
const crossrefMailto = "relay-ops@scholar-relay.dev"

var crossrefJournals = []JournalSource{
	// General sociology
	{"American Sociological Review", "General Sociology", "0003-1224"},
	{"American Journal of Sociology", "General Sociology", "0002-9602"},
	{"Annual Review of Sociology", "General Sociology", "0360-0572"},
	{"Social Forces", "General Sociology", "0037-7732"},
	{"Sociological Methods & Research", "General Sociology", "0049-1241"},
	{"European Sociological Review", "General Sociology", "0266-7215"},
	{"British Journal of Sociology", "General Sociology", "0007-1315"},
	{"Sociology (BSA)", "General Sociology", "0038-0385"},
	{"Work, Employment and Society", "General Sociology", "0950-0170"},
	{"Chinese Sociological Review", "General Sociology", "2162-0555"},
	// Migration and ethnicity
	{"International Migration Review", "Migration & Ethnicity", "0197-9183"},
	{"Journal of Ethnic and Migration Studies", "Migration & Ethnicity", "1369-183X"},
	{"International Migration", "Migration & Ethnicity", "0020-7985"},
	// Computational social science
	{"Journal of Computational Social Science", "Computational Social Science", "2432-2717"},
	{"Social Science Computer Review", "Computational Social Science", "0894-4393"},
	{"Nature Human Behaviour", "Computational Social Science", "2397-3374"},
	// Social networks
	{"Social Networks", "Social Networks", "0378-8733"},
	{"Network Science", "Social Networks", "2050-1242"},
	// Stratification and mobility
	{"Research in Social Stratification and Mobility", "Stratification & Mobility", "0276-5624"},
	{"Social Science Research", "Stratification & Mobility", "0049-089X"},
	// Medical sociology
	{"Social Science & Medicine", "Medical Sociology", "0277-9536"},
	{"Journal of Health and Social Behavior", "Medical Sociology", "0022-1465"},
	{"Sociology of Health & Illness", "Medical Sociology", "0141-9889"},
	// Gerontology
	{"Journals of Gerontology Series B", "Gerontology", "1079-5014"},
	{"The Gerontologist", "Gerontology", "0016-9013"},
	{"Journal of Aging and Health", "Gerontology", "0898-2643"},
	// Marriage and family
	{"Journal of Marriage and Family", "Marriage & Family", "0022-2445"},
	{"Journal of Family Issues", "Marriage & Family", "0192-513X"},
	// Demography
	{"Demography", "Demography", "0070-3370"},
	{"Population and Development Review", "Demography", "0098-7921"},
	{"Population Studies", "Demography", "0032-4728"},
	{"European Journal of Population", "Demography", "0168-6577"},
	{"Demographic Research", "Demography", "1435-9871"},
}

// cnkiJournals are Chinese core journals not indexed by CrossRef; they only
// publish CNKI RSS feeds.
var cnkiJournals = []RSSJournalSource{
	{"Sociological Studies", "Chinese Core Journals", "https://rss.cnki.net/knavi/rss/SHXJ?pcode=CJFD"},
	{"Population Research", "Chinese Core Journals", "https://rss.cnki.net/knavi/rss/RKYZ?pcode=CJFD"},
	{"Social Sciences in China", "Chinese Core Journals", "https://rss.cnki.net/knavi/rss/ZSHK?pcode=CJFD"},
	{"Sociological Review of China", "Chinese Core Journals", "https://rss.cnki.net/knavi/rss/SHXP?pcode=CJFD"},
	{"Chinese Journal of Population Science", "Chinese Core Journals", "https://rss.cnki.net/knavi/rss/ZKRK?pcode=CJFD"},
}

// ── Think tanks ─────────────────────────────────────────────────────────────

var thinkTanks = []ReportSource{
	{"Pew Research Center", "Social Research", "https://www.pewresearch.org/feed/"},
	{"KFF", "Health Policy", "https://kff.org/feed/"},
	{"Urban Institute", "Social Policy", "https://www.urban.org/research/rss.xml"},
	{"CEPR", "Economic Policy", "https://cepr.org/rss.xml"},
	{"Our World in Data", "Global Data", "https://ourworldindata.org/atom.xml"},
	{"Council on Foreign Relations", "International Relations", "https://feeds.cfr.org/cfr/publications"},
	{"UN News", "International Affairs", "https://www.un.org/en/rss.xml"},
	{"Aspen Institute", "Policy & Technology", "https://www.aspeninstitute.org/feed/"},
}
