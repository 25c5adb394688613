// Package feeds turns a publisher's RSS or Atom feed into candidate links
// for the headline pipeline.
package feeds

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pevans/headlines/links"
)

// Parse parses RSS or Atom data. gofeed detects the format.
func Parse(data []byte) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	feed, err := fp.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

// Candidates returns one candidate link per feed item, in feed order.
// Items without a link are skipped; classification is left to the caller.
func Candidates(data []byte) ([]links.CandidateLink, error) {
	feed, err := Parse(data)
	if err != nil {
		return nil, err
	}

	candidates := make([]links.CandidateLink, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}

		// Atom entries may carry several links; gofeed puts the
		// alternate one in Link
		href := strings.TrimSpace(item.Link)
		if href == "" && len(item.Links) > 0 {
			href = strings.TrimSpace(item.Links[0])
		}
		if href == "" {
			continue
		}

		candidates = append(candidates, links.CandidateLink{
			Title: strings.Join(strings.Fields(item.Title), " "),
			Href:  href,
		})
	}

	return candidates, nil
}
