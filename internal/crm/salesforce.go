package crm

import (
	"context"

	"github.com/sells-group/prospector/internal/model"
	"github.com/sells-group/prospector/pkg/salesforce"
)

// leadSource tags leads created by this tool.
const leadSource = "Prospector"

// SalesforceSink creates Salesforce Lead records. Companies that already
// have a Lead are skipped.
type SalesforceSink struct {
	client salesforce.Client
}

// NewSalesforceSink creates a SalesforceSink.
func NewSalesforceSink(client salesforce.Client) *SalesforceSink {
	return &SalesforceSink{client: client}
}

func (s *SalesforceSink) Name() string { return "salesforce" }

func (s *SalesforceSink) Push(ctx context.Context, customers []model.PrioritizedCustomer) (*Result, error) {
	names := make([]string, 0, len(customers))
	for _, c := range customers {
		if normalize(c.CompanyName) != "" {
			names = append(names, c.CompanyName)
		}
	}
	existing, err := salesforce.FindLeadCompanies(ctx, s.client, names)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	var (
		leads   []salesforce.Lead
		pending []string
	)
	for _, c := range customers {
		key := normalize(c.CompanyName)
		// Salesforce rejects a whole batch when any Company is blank.
		if key == "" {
			res.Failed++
			res.Errors = append(res.Errors, "company_name is blank")
			continue
		}
		if _, dup := existing[key]; dup {
			res.Duplicates++
			continue
		}
		existing[key] = struct{}{}
		leads = append(leads, toLead(c))
		pending = append(pending, c.CompanyName)
	}

	results, err := salesforce.CreateLeads(ctx, s.client, leads)
	for i, r := range results {
		if r.Success {
			res.Created++
			continue
		}
		res.Failed++
		name := ""
		if i < len(pending) {
			name = pending[i]
		}
		for _, e := range r.Errors {
			res.Errors = append(res.Errors, name+": "+e)
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func toLead(c model.PrioritizedCustomer) salesforce.Lead {
	first, last := splitName(c.StakeholderName)
	return salesforce.Lead{
		Company:     c.CompanyName,
		FirstName:   first,
		LastName:    last,
		Title:       c.StakeholderPosition,
		Email:       c.StakeholderEmail,
		Phone:       c.StakeholderPhone,
		Industry:    c.Industry,
		Website:     c.StakeholderLink,
		Description: c.Reasoning,
		LeadSource:  leadSource,
	}
}
