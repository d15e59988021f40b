package fallback

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"ytfeed/youtube"
)

// Source is one alternate resolution backend. BuildURL returns the
// request URL for an identifier, or "" when the source cannot handle
// that identifier kind. Parse turns a response body into a resolution;
// it returns ErrChannelNotFound when the body is valid but contains no
// matching channel.
type Source struct {
	Name     string
	BuildURL func(id youtube.ChannelIdentifier) string
	Parse    func(body []byte, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error)
}

// DefaultSources returns the standard source order: Invidious search
// mirrors first (structured JSON), then a scrape of the channel page
// itself as the final option.
func DefaultSources() []Source {
	return []Source{
		InvidiousSource("yewtu.be", "https://yewtu.be"),
		InvidiousSource("vid.puffyan.us", "https://vid.puffyan.us"),
		ChannelPageSource(),
	}
}

// invidiousChannel is the subset of an Invidious search result we need.
type invidiousChannel struct {
	Type             string `json:"type"`
	Author           string `json:"author"`
	AuthorID         string `json:"authorId"`
	AuthorThumbnails []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"authorThumbnails"`
}

// InvidiousSource resolves identifiers through an Invidious instance's
// channel search endpoint.
func InvidiousSource(name, baseURL string) Source {
	base := strings.TrimRight(baseURL, "/")
	return Source{
		Name: name,
		BuildURL: func(id youtube.ChannelIdentifier) string {
			if id.Kind == youtube.KindInvalid {
				return ""
			}
			return base + "/api/v1/search?type=channel&q=" + url.QueryEscape(id.DisplayText())
		},
		Parse: func(body []byte, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error) {
			var results []invidiousChannel
			if err := json.Unmarshal(body, &results); err != nil {
				return nil, fmt.Errorf("parse search results: %w", err)
			}

			for _, r := range results {
				if r.Type != "channel" || r.AuthorID == "" {
					continue
				}
				// An exact id query must match exactly; anything else
				// takes the top-ranked channel result.
				if id.Kind == youtube.KindChannelID && r.AuthorID != id.Value {
					continue
				}

				res := &youtube.ChannelResolution{
					ChannelID: r.AuthorID,
					Title:     r.Author,
				}
				if len(r.AuthorThumbnails) > 0 {
					res.Thumbnail = r.AuthorThumbnails[len(r.AuthorThumbnails)-1].URL
				}
				return res, nil
			}
			return nil, youtube.ErrChannelNotFound
		},
	}
}

var (
	// pageChannelIDRegex finds the canonical id in channel page markup.
	pageChannelIDRegex = regexp.MustCompile(`"channelId":"(UC[A-Za-z0-9_-]{22})"`)
	// ogTitleRegex and ogImageRegex pull Open Graph metadata from the page head.
	ogTitleRegex = regexp.MustCompile(`<meta property="og:title" content="([^"]*)"`)
	ogImageRegex = regexp.MustCompile(`<meta property="og:image" content="([^"]*)"`)
)

// ChannelPageSource resolves identifiers by fetching the channel's own
// page and scraping the canonical id from its markup. Works for every
// identifier kind but is the most fragile source, so it runs last.
func ChannelPageSource() Source {
	return Source{
		Name: "channel-page",
		BuildURL: func(id youtube.ChannelIdentifier) string {
			switch id.Kind {
			case youtube.KindChannelID:
				return "https://www.youtube.com/channel/" + url.PathEscape(id.Value)
			case youtube.KindHandle:
				return "https://www.youtube.com/@" + url.PathEscape(id.Value)
			case youtube.KindCustomURL:
				return "https://www.youtube.com/c/" + url.PathEscape(id.Value)
			default:
				return ""
			}
		},
		Parse: func(body []byte, id youtube.ChannelIdentifier) (*youtube.ChannelResolution, error) {
			m := pageChannelIDRegex.FindSubmatch(body)
			if m == nil {
				return nil, youtube.ErrChannelNotFound
			}

			res := &youtube.ChannelResolution{ChannelID: string(m[1])}
			if t := ogTitleRegex.FindSubmatch(body); t != nil {
				res.Title = string(t[1])
			}
			if img := ogImageRegex.FindSubmatch(body); img != nil {
				res.Thumbnail = string(img[1])
			}
			return res, nil
		},
	}
}
