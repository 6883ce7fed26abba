package server

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"

	"github.com/startupjobs/jobboard-service/internal/models"
)

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	Description string  `xml:"description"`
	Author      string  `xml:"author"`
	GUID        rssGUID `xml:"guid"`
	PubDate     string  `xml:"pubDate"`
}

type rssChannel struct {
	Title         string    `xml:"title"`
	Link          string    `xml:"link"`
	Description   string    `xml:"description"`
	LastBuildDate string    `xml:"lastBuildDate,omitempty"`
	Items         []rssItem `xml:"item"`
}

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

func buildRSS(siteName, siteURL string, items []models.FeedItem) rssDocument {
	ch := rssChannel{
		Title:       siteName,
		Link:        siteURL,
		Description: fmt.Sprintf("Latest job postings at %s", siteName),
		Items:       make([]rssItem, 0, len(items)),
	}
	for _, it := range items {
		ch.Items = append(ch.Items, rssItem{
			Title:       it.Title,
			Link:        it.Link,
			Description: it.Company,
			Author:      it.Author,
			GUID:        rssGUID{Value: it.GUID},
			PubDate:     it.PublishDate.UTC().Format(time.RFC1123Z),
		})
	}
	if len(items) > 0 {
		ch.LastBuildDate = items[0].PublishDate.UTC().Format(time.RFC1123Z)
	}
	return rssDocument{Version: "2.0", Channel: ch}
}

// handleFeed serves every active posting as an RSS 2.0 document
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Listing.Feed(r.Context())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	out, err := xml.MarshalIndent(buildRSS(s.config.SiteName, s.config.SiteURL, items), "", "  ")
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return
	}
	if _, err := w.Write(out); err != nil {
		s.logger.WithError(err).Warn("failed to write feed")
	}
}
