package model

import "time"

// EventCategory classifies a CandidateEvent. The reasoning service is asked
// for one of the three values below; nothing enforces it downstream.
type EventCategory string

const (
	CategoryAssociations EventCategory = "Associations"
	CategoryExhibitions  EventCategory = "Exhibitions"
	CategoryNews         EventCategory = "News"
)

// CandidateEvent is an association, exhibition or news source where target
// customers are likely to appear.
type CandidateEvent struct {
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	Category EventCategory `json:"category"`
}

// CompanyCandidates is the extraction stage artifact.
type CompanyCandidates struct {
	Companies []string `json:"companies"`
}

// PrioritizedCustomer is one ranked customer record. Array order in the
// prioritized artifact is rank order, highest priority first.
type PrioritizedCustomer struct {
	CompanyName         string `json:"company_name" validate:"required"`
	Industry            string `json:"industry"`
	Revenue             string `json:"revenue"`
	Size                string `json:"size"`
	StakeholderName     string `json:"stakeholder_name"`
	StakeholderPosition string `json:"stakeholder_position"`
	StakeholderEmail    string `json:"stakeholder_email"`
	StakeholderPhone    string `json:"stakeholder_phone"`
	StakeholderLink     string `json:"stakeholder_link"`
	Reasoning           string `json:"reasoning"`
}

// OutreachEmail is the outreach stage artifact.
type OutreachEmail struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

// StoredEvent is a durable potential_events row. RootURL links a batch back
// to the company whose profile produced it.
type StoredEvent struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	URL        string    `json:"url"`
	Category   string    `json:"category"`
	RootURL    string    `json:"root_url"`
	CreateTime time.Time `json:"create_time"`
}

// StoredCustomer is a durable potential_customer row.
type StoredCustomer struct {
	ID int64 `json:"id"`
	PrioritizedCustomer
	CreateTime time.Time `json:"create_time"`
}
