// Package instruction parses the plan blobs exchanged with the model during
// a build run. The blob is free text structured by positional tags: [0]
// introduces the narrative plan, [n] marks a pending file, and [Done] marks a
// file that has already been generated. The model rewrites tags between
// rounds; this package only reads them.
package instruction

import (
	"regexp"
	"strconv"
	"strings"
)

// Entry is one file slot in the plan.
type Entry struct {
	Index   int    `json:"index"`              // Position tag as written; 0 for completed entries
	Done    bool   `json:"done"`               // Tag was rewritten to [Done]
	Path    string `json:"path"`               // File path, may contain "/" for folders
	UsedFor string `json:"used_for,omitempty"` // Optional purpose annotation
}

// Plan is the parsed view of an instruction blob. Raw keeps the original
// text byte for byte because the model expects its own blob back unmodified
// on the next round.
type Plan struct {
	Raw       string  `json:"raw"`
	Narrative string  `json:"narrative"`
	Entries   []Entry `json:"entries"`
}

var (
	markerRe  = regexp.MustCompile(`\[(\d+|Done)\]`)
	usedForRe = regexp.MustCompile(`(?s)\[usedfor\](.*?)\[usedfor\]`)
)

// Parse extracts the narrative and file entries from an instruction blob.
// Entries keep the order their tags appear in the text, which is the order
// the model wants them built in regardless of the numbers it chose. A blob
// without a [0] tag is unstructured narrative: no entries are reported and
// the caller should treat the plan as having nothing to build.
func Parse(raw string) Plan {
	plan := Plan{Raw: raw}

	locs := markerRe.FindAllStringSubmatchIndex(raw, -1)

	hasPlanTag := false
	var entries []Entry
	for i, loc := range locs {
		tag := raw[loc[2]:loc[3]]
		bodyEnd := len(raw)
		if i+1 < len(locs) {
			bodyEnd = locs[i+1][0]
		}
		body := raw[loc[1]:bodyEnd]

		if tag == "0" {
			// First [0] wins; the model occasionally repeats it
			if !hasPlanTag {
				plan.Narrative = strings.TrimSpace(body)
				hasPlanTag = true
			}
			continue
		}

		entry := Entry{Done: tag == "Done"}
		if !entry.Done {
			entry.Index, _ = strconv.Atoi(tag)
		}

		if m := usedForRe.FindStringSubmatch(body); m != nil {
			entry.UsedFor = strings.TrimSpace(m[1])
			body = usedForRe.ReplaceAllString(body, " ")
		}
		body = strings.TrimSpace(body)

		// Tolerate the inline "path: purpose" form some models emit
		if entry.UsedFor == "" {
			if colon := strings.Index(body, ":"); colon >= 0 {
				entry.UsedFor = strings.TrimSpace(body[colon+1:])
				body = strings.TrimSpace(body[:colon])
			}
		}
		entry.Path = body

		entries = append(entries, entry)
	}

	if !hasPlanTag {
		plan.Narrative = strings.TrimSpace(raw)
		return plan
	}

	plan.Entries = entries
	return plan
}

// NextTarget returns the first pending entry in textual order. The model may
// number entries out of order, so position in the text decides, not the
// numeric value of the tag.
func (p Plan) NextTarget() (Entry, bool) {
	for _, e := range p.Entries {
		if !e.Done {
			return e, true
		}
	}
	return Entry{}, false
}

// Progress returns how many entries are done and how many exist in total.
func (p Plan) Progress() (done, total int) {
	for _, e := range p.Entries {
		if e.Done {
			done++
		}
	}
	return done, len(p.Entries)
}

// Ratio returns done/total as a fraction between 0 and 1. A plan with no
// entries reports 0.
func (p Plan) Ratio() float64 {
	done, total := p.Progress()
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}
