package mail

import (
	"fmt"
	netmail "net/mail"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/BabakBar/AutoSpendTracker/internal/domain"
)

// Provider-specific transaction phrasing. The two patterns are mutually
// exclusive in practice; the first to match wins.
var (
	wisePattern   = regexp.MustCompile(`You spent ([\d,\.]+) ([A-Z]{3}) at ([^.]+)`)
	paypalPattern = regexp.MustCompile(`Sie haben ([\d,\.]+) ([A-Z]{3}) (?:an |to )([^.]+) gesendet`)
)

// headerDateFormat renders the message date as day-month-year plus a
// 12-hour time, the shape the prompt asks the model to echo back.
const headerDateFormat = "02-01-2006 3:04 PM"

// Extract turns a raw message into an IntermediateRecord. It returns nil
// when neither provider pattern matches the body text; that is the terminal
// SKIPPED outcome for the message, not an error. The info string is a
// provider-agnostic restatement so the AI stage sees one phrasing for both
// providers.
func Extract(msg *RawMessage) (*IntermediateRecord, error) {
	if msg == nil {
		return nil, fmt.Errorf("Extract: nil message")
	}

	text := htmlToText(msg.HTML)

	var info string
	if m := wisePattern.FindStringSubmatch(text); m != nil {
		info = fmt.Sprintf("You spent %s %s at %s.", m[1], m[2], strings.TrimSpace(m[3]))
	} else if m := paypalPattern.FindStringSubmatch(text); m != nil {
		// German PayPal phrasing restated in the standard format.
		info = fmt.Sprintf("You spent %s %s at %s.", m[1], m[2], strings.TrimSpace(m[3]))
	}
	if info == "" {
		return nil, nil
	}

	rec := &IntermediateRecord{
		Info:    info,
		Account: accountFromSender(msg.From),
	}
	if t, err := netmail.ParseDate(msg.Date); err == nil {
		rec.Date = t.Format(headerDateFormat)
	}
	return rec, nil
}

// accountFromSender maps the From header onto a provider account by
// substring match on the two known domains.
func accountFromSender(from string) domain.Account {
	switch {
	case strings.Contains(from, "wise.com"):
		return domain.AccountWise
	case strings.Contains(from, "paypal.de"):
		return domain.AccountPayPal
	default:
		return ""
	}
}

// htmlToText collapses an HTML body to plain text: titles, styles and
// scripts are dropped, remaining text nodes are joined with single spaces.
func htmlToText(body string) string {
	if body == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		// Fall back to the raw body; the regexes may still find a match.
		return strings.Join(strings.Fields(body), " ")
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title", "style", "script":
				return
			}
		}
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, strings.Join(strings.Fields(s), " "))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(parts, " ")
}
