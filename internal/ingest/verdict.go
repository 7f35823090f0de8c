// Package ingest checks JSON-list artifacts record by record and hands the
// accepted records to the store in one batch.
package ingest

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/sells-group/prospector/internal/model"
)

// SkipReason explains why a list element was not accepted.
type SkipReason string

const (
	SkipNotObject     SkipReason = "not_object"
	SkipMissingFields SkipReason = "missing_fields"
)

// Verdict is the outcome for one list element.
type Verdict struct {
	Index    int        `json:"index"`
	Accepted bool       `json:"accepted"`
	Reason   SkipReason `json:"reason,omitempty"`
	Missing  []string   `json:"missing,omitempty"`
}

// Summary aggregates the verdicts of one list.
type Summary struct {
	Verdicts []Verdict `json:"verdicts"`
	Accepted int       `json:"accepted"`
}

// Skipped returns the number of rejected elements.
func (s Summary) Skipped() int {
	return len(s.Verdicts) - s.Accepted
}

func (s *Summary) add(v Verdict) {
	s.Verdicts = append(s.Verdicts, v)
	if v.Accepted {
		s.Accepted++
	}
}

var (
	eventRequired    = []string{"name", "url", "category"}
	customerRequired = []string{"company_name", "industry", "revenue", "size"}
)

// CheckEvents accepts every element that is an object carrying name, url and
// category. The category is taken as given.
func CheckEvents(items []json.RawMessage) ([]model.CandidateEvent, Summary) {
	var (
		out []model.CandidateEvent
		sum Summary
	)
	for i, raw := range items {
		fields, v := check(i, raw, eventRequired)
		sum.add(v)
		if !v.Accepted {
			continue
		}
		out = append(out, model.CandidateEvent{
			Name:     text(fields["name"]),
			URL:      text(fields["url"]),
			Category: model.EventCategory(text(fields["category"])),
		})
	}
	return out, sum
}

// CheckCustomers accepts every element that is an object carrying
// company_name, industry, revenue and size. Absent optional fields become "".
func CheckCustomers(items []json.RawMessage) ([]model.PrioritizedCustomer, Summary) {
	var (
		out []model.PrioritizedCustomer
		sum Summary
	)
	for i, raw := range items {
		fields, v := check(i, raw, customerRequired)
		sum.add(v)
		if !v.Accepted {
			continue
		}
		out = append(out, model.PrioritizedCustomer{
			CompanyName:         text(fields["company_name"]),
			Industry:            text(fields["industry"]),
			Revenue:             text(fields["revenue"]),
			Size:                text(fields["size"]),
			StakeholderName:     text(fields["stakeholder_name"]),
			StakeholderPosition: text(fields["stakeholder_position"]),
			StakeholderEmail:    text(fields["stakeholder_email"]),
			StakeholderPhone:    text(fields["stakeholder_phone"]),
			StakeholderLink:     text(fields["stakeholder_link"]),
			Reasoning:           text(fields["reasoning"]),
		})
	}
	return out, sum
}

// check decodes raw as an object and reports which required keys are absent.
// A key that is present with a null value counts as present.
func check(i int, raw json.RawMessage, required []string) (map[string]json.RawMessage, Verdict) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, Verdict{Index: i, Reason: SkipNotObject}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, Verdict{Index: i, Reason: SkipNotObject}
	}

	var missing []string
	for _, k := range required {
		if _, ok := fields[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return nil, Verdict{Index: i, Reason: SkipMissingFields, Missing: missing}
	}
	return fields, Verdict{Index: i, Accepted: true}
}

// text renders a JSON value as a column string: strings verbatim, null or
// absent as "", anything else as its compact JSON text.
func text(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(trimmed)); err != nil {
		return trimmed
	}
	return buf.String()
}
