package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Lead is the subset of Salesforce Lead fields the CRM sink writes.
type Lead struct {
	ID          string `json:"Id,omitempty" salesforce:"Id"`
	Company     string `json:"Company" salesforce:"Company"`
	LastName    string `json:"LastName" salesforce:"LastName"`
	FirstName   string `json:"FirstName,omitempty" salesforce:"FirstName"`
	Title       string `json:"Title,omitempty" salesforce:"Title"`
	Email       string `json:"Email,omitempty" salesforce:"Email"`
	Phone       string `json:"Phone,omitempty" salesforce:"Phone"`
	Industry    string `json:"Industry,omitempty" salesforce:"Industry"`
	Website     string `json:"Website,omitempty" salesforce:"Website"`
	Description string `json:"Description,omitempty" salesforce:"Description"`
	LeadSource  string `json:"LeadSource,omitempty" salesforce:"LeadSource"`
}

// Fields returns the non-empty Lead fields as an SObject record.
func (l Lead) Fields() map[string]any {
	out := map[string]any{
		"Company":  l.Company,
		"LastName": l.LastName,
	}
	for k, v := range map[string]string{
		"FirstName":   l.FirstName,
		"Title":       l.Title,
		"Email":       l.Email,
		"Phone":       l.Phone,
		"Industry":    l.Industry,
		"Website":     l.Website,
		"Description": l.Description,
		"LeadSource":  l.LeadSource,
	} {
		if v != "" {
			out[k] = v
		}
	}
	return out
}

// FindLeadCompanies returns the lower-cased Company values of existing leads
// whose company is one of companies.
func FindLeadCompanies(ctx context.Context, c Client, companies []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	for start := 0; start < len(companies); start += maxBatchSize {
		end := min(start+maxBatchSize, len(companies))
		quoted := make([]string, 0, end-start)
		for _, name := range companies[start:end] {
			quoted = append(quoted, "'"+escapeSoql(name)+"'")
		}
		soql := fmt.Sprintf("SELECT Id, Company FROM Lead WHERE Company IN (%s)", strings.Join(quoted, ", "))

		var leads []Lead
		if err := c.Query(ctx, soql, &leads); err != nil {
			return nil, eris.Wrap(err, "sf: find lead companies")
		}
		for _, l := range leads {
			found[strings.ToLower(strings.TrimSpace(l.Company))] = struct{}{}
		}
	}
	return found, nil
}

// CreateLeads inserts leads in batches of 200 and returns one result per
// lead, in order. A failed batch stops the run; earlier results are returned.
func CreateLeads(ctx context.Context, c Client, leads []Lead) ([]CollectionResult, error) {
	if len(leads) == 0 {
		return nil, nil
	}

	var all []CollectionResult
	for start := 0; start < len(leads); start += maxBatchSize {
		end := min(start+maxBatchSize, len(leads))
		records := make([]map[string]any, 0, end-start)
		for _, l := range leads[start:end] {
			if l.Company == "" || l.LastName == "" {
				return all, eris.New("sf: lead Company and LastName are required")
			}
			records = append(records, l.Fields())
		}

		results, err := c.InsertCollection(ctx, "Lead", records)
		if err != nil {
			return all, eris.Wrapf(err, "sf: create leads batch %d-%d", start, end)
		}
		all = append(all, results...)
	}
	return all, nil
}

// escapeSoql escapes backslashes and single quotes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
