// =============================================================================
// notion.go - optional Notion database mirror
// =============================================================================
package pipeline

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
)

// NotionMirror clips new records into a Notion database alongside the
// spreadsheet. It is best-effort everywhere: a failed page create is logged
// and skipped.
type NotionMirror struct {
	client *notionapi.Client
	dbID   notionapi.DatabaseID
}

// NewNotionMirror builds a mirror from an integration token and database ID.
func NewNotionMirror(token, databaseID string) *NotionMirror {
	return &NotionMirror{
		client: notionapi.NewClient(notionapi.Token(token)),
		dbID:   notionapi.DatabaseID(databaseID),
	}
}

// MirrorRecords creates one page per record and returns how many succeeded.
func (n *NotionMirror) MirrorRecords(ctx context.Context, recs []Record) int {
	created := 0
	for _, r := range recs {
		if err := n.createPage(ctx, r); err != nil {
			warnf("notion mirror %q: %v", r.Title, err)
			continue
		}
		created++
	}
	return created
}

func (n *NotionMirror) createPage(ctx context.Context, r Record) error {
	notes := r.Annotation
	if notes == "" {
		var parts []string
		if r.Secondary != "" {
			parts = append(parts, r.Secondary)
		}
		if r.Closing != "" {
			parts = append(parts, "Closing: "+r.Closing)
		}
		notes = strings.Join(parts, " / ")
	}
	props := notionapi.Properties{
		"Title": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{Text: &notionapi.Text{Content: truncateRunes(r.Title, 2000)}},
			},
		},
		"URL": notionapi.URLProperty{URL: r.Link},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{Name: r.Category},
		},
		"Source": notionapi.SelectProperty{
			Select: notionapi.Option{Name: r.Source},
		},
		"Date": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{Text: &notionapi.Text{Content: r.Date}},
			},
		},
	}
	if notes != "" {
		props["Notes"] = notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{Text: &notionapi.Text{Content: truncateRunes(notes, 2000)}},
			},
		}
	}
	_, err := n.client.Page.Create(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: n.dbID,
		},
		Properties: props,
	})
	return err
}
