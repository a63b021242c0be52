// Package report renders enrichment reports and lookup errors as Telegram
// legacy Markdown.
package report

import (
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/sells-group/lookup-bot/internal/lookup"
	"github.com/sells-group/lookup-bot/internal/model"
)

// DefaultSpamThreshold flags caller identities whose spam score exceeds it.
const DefaultSpamThreshold = 10

// Placeholder stands in for any absent field.
const Placeholder = "Unknown"

const nameFetchFailed = "error fetching name"

// Static replies.
const (
	Usage    = "Hello! Send me a phone number (e.g., +14155552671) or an IPv4 address (e.g., 8.8.8.8) and I will look it up."
	Hint     = "🤔 That doesn't look like a phone number or an IPv4 address. Try +14155552671 or 8.8.8.8."
	Checking = "Checking... ⏳"
	Generic  = "⚠️ Something went wrong on our side. Please try again in a moment."
)

var regionNames = display.Regions(language.English)

// Formatter renders reports. A nil SpamThreshold uses DefaultSpamThreshold;
// zero is honored and flags every positive score.
type Formatter struct {
	SpamThreshold *float64
}

// Format renders r with the default Formatter.
func Format(r *model.Report) string {
	return Formatter{}.Format(r)
}

// Format renders r. Every field of the report's variant produces exactly one
// line, in a fixed order, with Placeholder for absent values.
func (f Formatter) Format(r *model.Report) string {
	switch {
	case r == nil:
		return Generic
	case r.Phone != nil:
		return f.phone(r)
	case r.IP != nil:
		return ip(r)
	default:
		return Generic
	}
}

func (f Formatter) threshold() float64 {
	if f.SpamThreshold != nil {
		return *f.SpamThreshold
	}
	return DefaultSpamThreshold
}

func (f Formatter) phone(r *model.Report) string {
	md := r.Phone
	var name, spam *string
	nameText := Placeholder
	if c := r.Caller; c != nil {
		switch {
		case c.Status == model.CallerFailed:
			nameText = nameFetchFailed
		case c.Resolved():
			name = c.Identity.Name
			if s := c.Identity.SpamScore; s != nil {
				v := strconv.FormatFloat(*s, 'f', -1, 64)
				if *s > f.threshold() {
					v += " (likely spam)"
				}
				spam = &v
			}
		}
	}
	if name != nil {
		nameText = *name
	}

	validity := "✅ *Valid Number*"
	if md.Valid == nil || !*md.Valid {
		validity = "❔ *Validity:* " + Placeholder
	}

	lines := []string{
		line("👤", "Name", &nameText),
		line("🚫", "Spam Score", spam),
		validity,
		line("🏳️", "Country", country(md.CountryName, md.CountryCode)),
		line("📍", "Location", md.Location),
		line("🏢", "Carrier", md.Carrier),
		line("📞", "Line Type", md.LineType),
	}
	return strings.Join(lines, "\n")
}

func ip(r *model.Report) string {
	md := r.IP
	addr := md.Query
	if addr == nil && r.Identifier.Raw != "" {
		addr = &r.Identifier.Raw
	}

	var area *string
	var parts []string
	for _, p := range []*string{md.City, md.Region} {
		if p != nil {
			parts = append(parts, *p)
		}
	}
	if len(parts) > 0 {
		v := strings.Join(parts, ", ")
		area = &v
	}

	lines := []string{
		line("🌐", "IP", addr),
		line("🏳️", "Country", country(md.Country, md.CountryCode)),
		line("🏙", "City/Region", area),
		line("📮", "ZIP", md.Zip),
		line("🏢", "ISP", md.ISP),
		line("🏛", "Org", md.Org),
	}
	return strings.Join(lines, "\n")
}

// country renders "Name (CC)". A missing name is derived from the region code.
func country(name, code *string) *string {
	n := ""
	if name != nil {
		n = *name
	}
	if code == nil {
		if n == "" {
			return nil
		}
		return &n
	}
	if n == "" {
		n = RegionName(*code)
	}
	v := n + " (" + *code + ")"
	return &v
}

// RegionName returns the English name of an ISO 3166 region code, or the code
// itself when it is not a known region.
func RegionName(code string) string {
	r, err := language.ParseRegion(code)
	if err != nil {
		return code
	}
	if n := regionNames.Name(r); n != "" {
		return n
	}
	return code
}

func line(icon, label string, value *string) string {
	v := Placeholder
	if value != nil && *value != "" {
		v = *value
	}
	return icon + " *" + label + ":* " + escape(v)
}

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// FormatError renders err as a single line. Errors that are not a
// *lookup.Error render as Generic.
func FormatError(err error) string {
	var le *lookup.Error
	if !errors.As(err, &le) {
		return Generic
	}

	switch le.Kind {
	case lookup.KindInvalidInput:
		return Hint
	case lookup.KindMissingCredential:
		return "⚠️ Error: API Key is missing."
	case lookup.KindNetwork:
		return "⚠️ Could not reach the lookup service. Please try again later."
	case lookup.KindProtocol:
		return "⚠️ The lookup service sent a response that could not be read."
	case lookup.KindTimeout:
		return "⌛ The lookup service did not answer in time. Please try again later."
	case lookup.KindInvalidNumber:
		return "❌ This number is invalid (according to the database)."
	case lookup.KindInvalidOrPrivateRange:
		msg := "❌ This IP address is invalid or in a private range."
		if detail := strings.Join(strings.Fields(le.Detail), " "); detail != "" {
			msg += " (" + escape(detail) + ")"
		}
		return msg
	case lookup.KindAPIError:
		raw := strings.Join(strings.Fields(string(le.Raw)), " ")
		if raw == "" {
			raw = "empty response"
		}
		return "⚠️ API Error Details: " + escape(raw)
	default:
		return Generic
	}
}
