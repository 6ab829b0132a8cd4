// Package agenda parses eScribe Meeting.aspx agenda pages into structured
// meeting headers and agenda items.
package agenda

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// Header holds the meeting-level fields extracted from the agenda page.
// Every field is best-effort: a field the markup lacks is left zero and the
// rest of the header is still populated.
type Header struct {
	Title         string
	StartDatetime *time.Time
	EndDatetime   *time.Time
	Location      string
}

// RawItem is one parsed agenda item, pre-classification.
type RawItem struct {
	ItemNumber string
	Title      string
	RawText    string
	Section    string
}

// Layouts accepted for the machine-readable datetime attribute, most common
// first. eScribe emits "2025-05-27 16:00" for start markers.
var startLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// End markers carry a bare time of day, e.g. "22:00".
var endLayouts = []string{
	"15:04",
	"15:04:05",
	"3:04 PM",
}

// Parser extracts meeting headers and agenda items from eScribe HTML.
type Parser struct {
	tables Tables
	logger *zap.Logger
}

// NewParser creates a Parser with the given policy tables.
func NewParser(tables Tables, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{tables: tables, logger: logger}
}

// Parse extracts the meeting header and agenda items from an agenda page.
// tz is the municipality's IANA timezone; header timestamps are localized
// into it. Markup irregularities degrade individual fields, never the parse
// as a whole; the only hard failure is HTML that cannot be tokenized at all.
func (p *Parser) Parse(rawHTML string, tz string) (Header, []RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return Header{}, nil, fmt.Errorf("parse agenda html: %w", err)
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		p.logger.Warn("unknown timezone, falling back to UTC", zap.String("tz", tz))
		loc = time.UTC
	}

	header := p.parseHeader(doc, loc)
	items := p.parseItems(doc)
	return header, items, nil
}

func (p *Parser) parseHeader(doc *goquery.Document, loc *time.Location) Header {
	var header Header

	rawTitle := collapseText(doc.Find("h1.AgendaHeaderTitle").First(), " ")
	if rawTitle == "" {
		rawTitle = "Meeting"
	}
	// "City Council Meeting Agenda" -> "City Council"
	title := strings.ReplaceAll(rawTitle, "Meeting Agenda", "")
	title = strings.ReplaceAll(title, "Agenda", "")
	header.Title = strings.TrimSpace(title)

	if raw, ok := doc.Find("span.AgendaMeetingTimeStart time").First().Attr("datetime"); ok {
		if start, err := parseInLocation(raw, startLayouts, loc); err == nil {
			header.StartDatetime = &start
		} else {
			p.logger.Warn("unparseable start datetime", zap.String("raw", raw))
		}
	}

	// The end marker holds a bare time of day. It only means something when
	// combined with the start date, so it is dropped when the start is
	// missing. A meeting running past midnight gets the wrong day here; the
	// source markup gives us nothing to detect that with.
	if raw, ok := doc.Find("span.AgendaMeetingTimeEnd time").First().Attr("datetime"); ok && header.StartDatetime != nil {
		if endClock, err := parseInLocation(raw, endLayouts, loc); err == nil {
			start := *header.StartDatetime
			end := time.Date(start.Year(), start.Month(), start.Day(),
				endClock.Hour(), endClock.Minute(), 0, 0, loc)
			header.EndDatetime = &end
		} else {
			p.logger.Warn("unparseable end time", zap.String("raw", raw))
		}
	}

	var locationParts []string
	if s := collapseText(doc.Find("div.Location").First(), " "); s != "" {
		locationParts = append(locationParts, s)
	}
	if s := collapseText(doc.Find("div.Address1").First(), " "); s != "" {
		locationParts = append(locationParts, s)
	}
	header.Location = strings.Join(locationParts, ", ")

	return header
}

// parseItems walks item-number counters in document order; that order is
// canonical for everything downstream. Counters inside closed-session
// markup, and counters whose item lacks a number or title, are dropped.
func (p *Parser) parseItems(doc *goquery.Document) []RawItem {
	var items []RawItem

	doc.Find("div.AgendaItemCounter").Each(func(_ int, counter *goquery.Selection) {
		if isClosedSession(counter) {
			return
		}

		itemNumber := strings.TrimSuffix(collapseText(counter, " "), ".")
		if itemNumber == "" {
			return
		}

		item := counter.Closest("div.AgendaItem, div.AgendaItemContainer")
		if item.Length() == 0 {
			return
		}

		title := itemTitle(item)
		if title == "" {
			return
		}

		rawParts := []string{fmt.Sprintf("%s %s", itemNumber, title)}

		// Motion and description rows live in the content container. An item
		// rendered without one keeps its number and title.
		if container := counter.Closest("div.AgendaItemContainer"); container.Length() > 0 {
			container.Find("div.MotionText").Each(func(_ int, motion *goquery.Selection) {
				if text := collapseText(motion, "\n"); text != "" {
					rawParts = append(rawParts, "Recommendation: "+text)
				}
			})

			container.Find("div.AgendaItemDescription").Each(func(_ int, desc *goquery.Selection) {
				if text := collapseText(desc, "\n"); text != "" {
					rawParts = append(rawParts, text)
				}
			})
		}

		items = append(items, RawItem{
			ItemNumber: itemNumber,
			Title:      title,
			RawText:    strings.Join(rawParts, "\n"),
			Section:    p.tables.Section(itemNumber),
		})
	})

	return items
}

// itemTitle prefers the anchor inside the title element; some agendas render
// unlinked titles.
func itemTitle(item *goquery.Selection) string {
	titleEl := item.Find("div.AgendaItemTitle").First()
	if titleEl.Length() == 0 {
		return ""
	}
	if link := titleEl.Find("a").First(); link.Length() > 0 {
		return collapseText(link, " ")
	}
	return collapseText(titleEl, " ")
}

// isClosedSession reports whether a counter belongs to a closed-meeting item.
// Closed items either use the ClosedAgendaItemCounter class outright or carry
// a Closed marker on an enclosing container.
func isClosedSession(counter *goquery.Selection) bool {
	if class, _ := counter.Attr("class"); strings.Contains(class, "Closed") {
		return true
	}
	closed := false
	counter.Parents().EachWithBreak(func(_ int, parent *goquery.Selection) bool {
		if class, _ := parent.Attr("class"); strings.Contains(class, "ClosedAgendaItem") {
			closed = true
			return false
		}
		return true
	})
	return closed
}

// collapseText gathers the trimmed text nodes under a selection, joined by
// sep. Mirrors BeautifulSoup's get_text(separator, strip=True), which plain
// goquery Text() does not: it concatenates nodes with no separator at all.
func collapseText(sel *goquery.Selection, sep string) string {
	if sel.Length() == 0 {
		return ""
	}
	var parts []string
	for _, node := range sel.Nodes {
		collectText(node, &parts)
	}
	return strings.Join(parts, sep)
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if text := strings.TrimSpace(n.Data); text != "" {
			*parts = append(*parts, text)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}

func parseInLocation(raw string, layouts []string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no layout matched %q", raw)
}
