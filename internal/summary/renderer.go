// Package summary renders the refresh summary image and persists it as an
// artifact. The image is a standalone SVG: totals, refresh timestamp, and a
// bar per top-ranked country by estimated GDP.
package summary

import (
	"bytes"
	"fmt"
	"html"
	"time"

	"github.com/shopspring/decimal"

	"countryatlas/internal/country"
)

// ContentType is the MIME type of rendered summary artifacts.
const ContentType = "image/svg+xml"

const (
	svgWidth   = 640
	barMaxW    = 360
	barHeight  = 22
	barGap     = 34
	headerYPos = 76
)

// Render produces the summary SVG for the given metadata and ranked
// countries. Callers pass at most the top 5 by estimated GDP; entries with a
// nil EstimatedGDP are ignored.
func Render(meta country.RefreshMetadata, top []country.CountryRecord) []byte {
	ranked := make([]country.CountryRecord, 0, 5)
	for _, rec := range top {
		if rec.EstimatedGDP == nil {
			continue
		}
		ranked = append(ranked, rec)
		if len(ranked) == 5 {
			break
		}
	}

	maxGDP := decimal.Zero
	for _, rec := range ranked {
		if rec.EstimatedGDP.GreaterThan(maxGDP) {
			maxGDP = *rec.EstimatedGDP
		}
	}

	height := headerYPos + 40 + len(ranked)*barGap
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`,
		svgWidth, height, svgWidth, height)
	buf.WriteString(`<rect width="100%" height="100%" fill="#0f172a"/>`)
	buf.WriteString(`<text x="24" y="40" fill="#f8fafc" font-family="sans-serif" font-size="22">Country snapshot</text>`)

	refreshed := "never"
	if meta.LastRefreshedAt != nil {
		refreshed = meta.LastRefreshedAt.UTC().Format(time.RFC3339)
	}
	fmt.Fprintf(&buf, `<text x="24" y="%d" fill="#94a3b8" font-family="sans-serif" font-size="14">%d countries tracked — refreshed %s</text>`,
		headerYPos, meta.TotalCountries, refreshed)

	for i, rec := range ranked {
		y := headerYPos + 30 + i*barGap
		width := 4
		if maxGDP.IsPositive() {
			ratio, _ := rec.EstimatedGDP.Div(maxGDP).Float64()
			if w := int(ratio * barMaxW); w > width {
				width = w
			}
		}
		fmt.Fprintf(&buf, `<text x="24" y="%d" fill="#e2e8f0" font-family="sans-serif" font-size="14">%d. %s</text>`,
			y+15, i+1, html.EscapeString(rec.Name))
		fmt.Fprintf(&buf, `<rect x="200" y="%d" width="%d" height="%d" rx="4" fill="#38bdf8"/>`,
			y, width, barHeight)
		fmt.Fprintf(&buf, `<text x="%d" y="%d" fill="#94a3b8" font-family="sans-serif" font-size="12">%s</text>`,
			208+width, y+15, rec.EstimatedGDP.StringFixed(2))
	}

	buf.WriteString(`</svg>`)
	return buf.Bytes()
}
