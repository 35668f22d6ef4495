// =============================================================================
// rows.go - spreadsheet row layouts per pipeline
// =============================================================================
package pipeline

import "sort"

// quoteDate prefixes the date with an apostrophe so Sheets keeps it as a
// literal string under USER_ENTERED input.
func quoteDate(d string) string {
	if d == "" {
		return ""
	}
	return "'" + d
}

// buildJobRows groups postings by subject in catalog order, unknown
// subjects last. Columns: date, subject, institution, title, salary,
// closing, apply link, source.
func buildJobRows(recs []Record) [][]string {
	bySubject := map[string][]Record{}
	for _, r := range recs {
		bySubject[r.Category] = append(bySubject[r.Category], r)
	}
	order := append([]string{}, jobSubjects...)
	known := map[string]bool{}
	for _, s := range jobSubjects {
		known[s] = true
	}
	var extra []string
	for s := range bySubject {
		if !known[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	var rows [][]string
	for _, subject := range order {
		for _, r := range bySubject[subject] {
			rows = append(rows, []string{
				quoteDate(r.Date), r.Category, r.Institution, r.Title,
				r.Secondary, r.Closing, r.ApplyLink, r.Source,
			})
		}
	}
	return rows
}

// buildArticleRows groups articles by date ascending with a blank separator
// row after each date group, so a blank line always lands between this
// run's rows and the previously appended ones. Within a date, rows sort by
// field. Columns: date, field, journal, authors, title, annotation, link.
func buildArticleRows(recs []Record) [][]string {
	byDate := map[string][]Record{}
	for _, r := range recs {
		byDate[r.Date] = append(byDate[r.Date], r)
	}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var rows [][]string
	for _, d := range dates {
		group := byDate[d]
		sort.SliceStable(group, func(i, j int) bool { return group[i].Category < group[j].Category })
		for _, r := range group {
			rows = append(rows, []string{
				quoteDate(r.Date), r.Category, r.Institution, r.Secondary,
				r.Title, r.Annotation, r.Link,
			})
		}
		rows = append(rows, make([]string, 7))
	}
	return rows
}

// buildReportRows sorts by category and appends one trailing separator row.
// Columns: date, category, source, title, annotation, link.
func buildReportRows(recs []Record) [][]string {
	sorted := append([]Record{}, recs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Category < sorted[j].Category })

	var rows [][]string
	for _, r := range sorted {
		rows = append(rows, []string{
			quoteDate(r.Date), r.Category, r.Source, r.Title, r.Annotation, r.Link,
		})
	}
	if len(rows) > 0 {
		rows = append(rows, make([]string, 6))
	}
	return rows
}
