package client

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// JobStatus is the publication state of an offer
type JobStatus string

const (
	JobActive JobStatus = "ACTIVE"
	JobPaused JobStatus = "PAUSED"
	JobClosed JobStatus = "CLOSED"
)

// ParseJobStatus validates a job status typed by a user
func ParseJobStatus(s string) (JobStatus, error) {
	st := JobStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case JobActive, JobPaused, JobClosed:
		return st, nil
	}
	return "", fmt.Errorf("invalid job status %q (expected ACTIVE, PAUSED or CLOSED)", s)
}

// ApplicationStatus tracks a rep's application through the hiring process
type ApplicationStatus string

const (
	StatusApplied   ApplicationStatus = "APPLIED"
	StatusInterview ApplicationStatus = "INTERVIEW"
	StatusOfferSent ApplicationStatus = "OFFER_SENT"
	StatusHired     ApplicationStatus = "HIRED"
	StatusRejected  ApplicationStatus = "REJECTED"
	StatusWithdrawn ApplicationStatus = "WITHDRAWN"
)

var applicationStatuses = []ApplicationStatus{
	StatusApplied, StatusInterview, StatusOfferSent, StatusHired, StatusRejected, StatusWithdrawn,
}

// ParseApplicationStatus validates an application status typed by a user
func ParseApplicationStatus(s string) (ApplicationStatus, error) {
	st := ApplicationStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range applicationStatuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("invalid application status %q", s)
}

// Final reports whether the status closes the application for good
func (s ApplicationStatus) Final() bool {
	return s == StatusHired || s == StatusRejected || s == StatusWithdrawn
}

// JobOffer represents a published job offer
type JobOffer struct {
	ID                       int64     `json:"id"`
	CompanyID                int64     `json:"companyId"`
	CompanyName              string    `json:"companyName"`
	Title                    string    `json:"title"`
	Description              string    `json:"description,omitempty"`
	Role                     string    `json:"role,omitempty"`
	Seats                    int       `json:"seats,omitempty"`
	MaxApplicants            int       `json:"maxApplicants,omitempty"`
	ApplicantsCount          int       `json:"applicantsCount"`
	Language                 string    `json:"language,omitempty"`
	CRM                      string    `json:"crm,omitempty"`
	CommissionPercent        float64   `json:"commissionPercent,omitempty"`
	AvgTicket                float64   `json:"avgTicket,omitempty"`
	EstimatedMonthlyEarnings float64   `json:"estimatedMonthlyEarnings,omitempty"`
	Modality                 string    `json:"modality,omitempty"`
	Market                   string    `json:"market,omitempty"`
	SalaryHint               string    `json:"salaryHint,omitempty"`
	Model                    string    `json:"model,omitempty"`
	Type                     string    `json:"type,omitempty"`
	CallTool                 string    `json:"callTool,omitempty"`
	CallLink                 string    `json:"callLink,omitempty"`
	Status                   JobStatus `json:"status"`
	Active                   bool      `json:"active"`
	CreatedAt                string    `json:"createdAt,omitempty"`
	UpdatedAt                string    `json:"updatedAt,omitempty"`
}

// JobOfferRequest creates a job offer
type JobOfferRequest struct {
	Title                    string  `json:"title"`
	Description              string  `json:"description,omitempty"`
	Role                     string  `json:"role,omitempty"`
	SalaryHint               string  `json:"salaryHint,omitempty"`
	Model                    string  `json:"model,omitempty"`
	Type                     string  `json:"type,omitempty"`
	CallTool                 string  `json:"callTool,omitempty"`
	CallLink                 string  `json:"callLink,omitempty"`
	Seats                    int     `json:"seats,omitempty"`
	Language                 string  `json:"language,omitempty"`
	CRM                      string  `json:"crm,omitempty"`
	CommissionPercent        float64 `json:"commissionPercent,omitempty"`
	AvgTicket                float64 `json:"avgTicket,omitempty"`
	EstimatedMonthlyEarnings float64 `json:"estimatedMonthlyEarnings,omitempty"`
	Modality                 string  `json:"modality,omitempty"`
	Market                   string  `json:"market,omitempty"`
}

// Application represents a rep's application to an offer
type Application struct {
	ID           int64             `json:"id"`
	JobOfferID   int64             `json:"jobOfferId"`
	JobTitle     string            `json:"jobTitle"`
	JobRole      string            `json:"jobRole,omitempty"`
	CompanyID    int64             `json:"companyId"`
	CompanyName  string            `json:"companyName"`
	RepID        int64             `json:"repId"`
	RepFullName  string            `json:"repFullName"`
	Status       ApplicationStatus `json:"status"`
	RepMessage   string            `json:"repMessage,omitempty"`
	CompanyNotes string            `json:"companyNotes,omitempty"`
	InterviewURL string            `json:"interviewUrl,omitempty"`
	AppliedAt    string            `json:"appliedAt,omitempty"`
	InterviewAt  string            `json:"interviewAt,omitempty"`
	HiredAt      string            `json:"hiredAt,omitempty"`
	RejectedAt   string            `json:"rejectedAt,omitempty"`
	CreatedAt    string            `json:"createdAt,omitempty"`
	UpdatedAt    string            `json:"updatedAt,omitempty"`
}

// ApplyRequest carries an optional message for the company
type ApplyRequest struct {
	RepMessage string `json:"repMessage,omitempty"`
}

// StatusUpdate changes an application's status. Notes and the interview link
// are optional and only sent when set.
type StatusUpdate struct {
	Status       ApplicationStatus
	CompanyNotes string
	InterviewURL string
}

// JobOffer fetches a single offer
func (c *Client) JobOffer(ctx context.Context, id int64) (*JobOffer, error) {
	var offer JobOffer
	if err := c.Get(ctx, fmt.Sprintf("/jobs/%d", id), true, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListJobOffers returns the offers open to reps
func (c *Client) ListJobOffers(ctx context.Context) ([]JobOffer, error) {
	var offers []JobOffer
	if err := c.Get(ctx, "/rep/jobs", true, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// ApplyToJob applies the logged in rep to an offer
func (c *Client) ApplyToJob(ctx context.Context, offerID int64, message string) (*Application, error) {
	var app Application
	path := fmt.Sprintf("/rep/jobs/%d/apply", offerID)
	if err := c.Post(ctx, path, ApplyRequest{RepMessage: message}, true, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// ListRepApplications returns the logged in rep's applications
func (c *Client) ListRepApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.Get(ctx, "/rep/applications", true, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListCompanyJobs returns the offers published by the logged in company
func (c *Client) ListCompanyJobs(ctx context.Context) ([]JobOffer, error) {
	var offers []JobOffer
	if err := c.Get(ctx, "/company/jobs", true, &offers); err != nil {
		return nil, err
	}
	return offers, nil
}

// CreateJobOffer publishes a new offer
func (c *Client) CreateJobOffer(ctx context.Context, req JobOfferRequest) (*JobOffer, error) {
	var offer JobOffer
	if err := c.Post(ctx, "/company/jobs", req, true, &offer); err != nil {
		return nil, err
	}
	return &offer, nil
}

// UpdateJobStatus pauses, closes or reactivates an offer
func (c *Client) UpdateJobStatus(ctx context.Context, offerID int64, status JobStatus) error {
	q := url.Values{}
	q.Set("status", string(status))
	path := fmt.Sprintf("/company/jobs/%d/status?%s", offerID, q.Encode())
	return c.Patch(ctx, path, nil, true, nil)
}

// ListCompanyApplications returns every application the company received
func (c *Client) ListCompanyApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	if err := c.Get(ctx, "/company/applications", true, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// ListJobApplications returns the applications to one offer
func (c *Client) ListJobApplications(ctx context.Context, offerID int64) ([]Application, error) {
	var apps []Application
	if err := c.Get(ctx, fmt.Sprintf("/company/jobs/%d/applications", offerID), true, &apps); err != nil {
		return nil, err
	}
	return apps, nil
}

// UpdateApplicationStatus moves an application through the hiring process
func (c *Client) UpdateApplicationStatus(ctx context.Context, appID int64, update StatusUpdate) (*Application, error) {
	q := url.Values{}
	q.Set("status", string(update.Status))
	if update.CompanyNotes != "" {
		q.Set("companyNotes", update.CompanyNotes)
	}
	if update.InterviewURL != "" {
		q.Set("interviewUrl", update.InterviewURL)
	}

	var app Application
	path := fmt.Sprintf("/company/applications/%d/status?%s", appID, q.Encode())
	if err := c.Patch(ctx, path, nil, true, &app); err != nil {
		return nil, err
	}
	return &app, nil
}
