package client

import "context"

// Paths of the read-only resources pages load directly
const (
	PathRepProfile            = "/rep/me"
	PathRepDashboardStats     = "/rep/dashboard/stats"
	PathRepReviews            = "/rep/reviews"
	PathCompanyProfile        = "/company/me"
	PathCompanyDashboardStats = "/company/dashboard/stats"
	PathCompanyReviews        = "/company/reviews"
)

// RepProfile is a sales rep's public profile
type RepProfile struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"userId"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	FullName      string `json:"fullName"`
	RoleType      string `json:"roleType,omitempty"`
	Bio           string `json:"bio,omitempty"`
	Phone         string `json:"phone,omitempty"`
	City          string `json:"city,omitempty"`
	Country       string `json:"country,omitempty"`
	LinkedinURL   string `json:"linkedinUrl,omitempty"`
	PortfolioURL  string `json:"portfolioUrl,omitempty"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	IntroVideoURL string `json:"introVideoUrl,omitempty"`
	BestCallURL   string `json:"bestCallUrl,omitempty"`
}

// RepProfileUpdate changes the fields that are set; nil fields are left alone
type RepProfileUpdate struct {
	FirstName    *string `json:"firstName,omitempty"`
	LastName     *string `json:"lastName,omitempty"`
	RoleType     *string `json:"roleType,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	City         *string `json:"city,omitempty"`
	Country      *string `json:"country,omitempty"`
	LinkedinURL  *string `json:"linkedinUrl,omitempty"`
	PortfolioURL *string `json:"portfolioUrl,omitempty"`
}

// CompanyProfile is a hiring company's profile
type CompanyProfile struct {
	ID                 int64   `json:"id"`
	UserID             int64   `json:"userId"`
	Name               string  `json:"name"`
	Website            string  `json:"website,omitempty"`
	Industry           string  `json:"industry,omitempty"`
	Description        string  `json:"description,omitempty"`
	MonthlyRevenue     int     `json:"monthlyRevenue,omitempty"`
	MonthlyCalls       int     `json:"monthlyCalls,omitempty"`
	MonthlyClosedDeals int     `json:"monthlyClosedDeals,omitempty"`
	WinRate            float64 `json:"winRate,omitempty"`
	OfferVideoURL      string  `json:"offerVideoUrl,omitempty"`
	CalendlyURL        string  `json:"calendlyUrl,omitempty"`
	ZoomURL            string  `json:"zoomUrl,omitempty"`
	WhatsappURL        string  `json:"whatsappUrl,omitempty"`
	Active             bool    `json:"active"`
	CreatedAt          string  `json:"createdAt,omitempty"`
	UpdatedAt          string  `json:"updatedAt,omitempty"`
}

// CompanyProfileUpdate changes the fields that are set
type CompanyProfileUpdate struct {
	Name               *string  `json:"name,omitempty"`
	Website            *string  `json:"website,omitempty"`
	Industry           *string  `json:"industry,omitempty"`
	Description        *string  `json:"description,omitempty"`
	MonthlyRevenue     *int     `json:"monthlyRevenue,omitempty"`
	MonthlyCalls       *int     `json:"monthlyCalls,omitempty"`
	MonthlyClosedDeals *int     `json:"monthlyClosedDeals,omitempty"`
	WinRate            *float64 `json:"winRate,omitempty"`
	OfferVideoURL      *string  `json:"offerVideoUrl,omitempty"`
	CalendlyURL        *string  `json:"calendlyUrl,omitempty"`
	ZoomURL            *string  `json:"zoomUrl,omitempty"`
	WhatsappURL        *string  `json:"whatsappUrl,omitempty"`
}

// RepDashboardStats summarises a rep's month
type RepDashboardStats struct {
	MonthlyStats struct {
		CallsMade           int     `json:"callsMade"`
		Closures            int     `json:"closures"`
		AvgTicket           float64 `json:"avgTicket"`
		EstimatedCommission float64 `json:"estimatedCommission"`
	} `json:"monthlyStats"`
	LatestProcesses []Application `json:"latestProcesses"`
	TotalOffers     int           `json:"totalOffers"`
}

// CompanyDashboardStats summarises a company's hiring pipeline
type CompanyDashboardStats struct {
	CompanyName         string `json:"companyName,omitempty"`
	ActiveJobs          int    `json:"activeJobs"`
	TotalApplications   int    `json:"totalApplications"`
	PendingApplications int    `json:"pendingApplications"`
	HiredCount          int    `json:"hiredCount"`
}

// Review is a company's rating of a rep it worked with
type Review struct {
	ID               int64   `json:"id"`
	CompanyID        int64   `json:"companyId"`
	CompanyName      string  `json:"companyName"`
	RepID            int64   `json:"repId"`
	RepFullName      string  `json:"repFullName"`
	JobOfferID       int64   `json:"jobOfferId,omitempty"`
	JobTitle         string  `json:"jobTitle,omitempty"`
	Rating           int     `json:"rating"`
	Comment          string  `json:"comment,omitempty"`
	CallsMade        int     `json:"callsMade,omitempty"`
	DealsClosed      int     `json:"dealsClosed,omitempty"`
	GeneratedRevenue float64 `json:"generatedRevenue,omitempty"`
	Visible          bool    `json:"visible"`
	CreatedAt        string  `json:"createdAt,omitempty"`
}

// ReviewRequest rates a rep
type ReviewRequest struct {
	RepID            int64   `json:"repId"`
	JobOfferID       int64   `json:"jobOfferId,omitempty"`
	Rating           int     `json:"rating"`
	Comment          string  `json:"comment,omitempty"`
	CallsMade        int     `json:"callsMade,omitempty"`
	DealsClosed      int     `json:"dealsClosed,omitempty"`
	GeneratedRevenue float64 `json:"generatedRevenue,omitempty"`
}

// UpdateRepProfile saves profile changes
func (c *Client) UpdateRepProfile(ctx context.Context, update RepProfileUpdate) (*RepProfile, error) {
	var profile RepProfile
	if err := c.Put(ctx, PathRepProfile, update, true, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateCompanyProfile saves profile changes
func (c *Client) UpdateCompanyProfile(ctx context.Context, update CompanyProfileUpdate) (*CompanyProfile, error) {
	var profile CompanyProfile
	if err := c.Put(ctx, PathCompanyProfile, update, true, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateReview rates a rep
func (c *Client) CreateReview(ctx context.Context, req ReviewRequest) (*Review, error) {
	var review Review
	if err := c.Post(ctx, PathCompanyReviews, req, true, &review); err != nil {
		return nil, err
	}
	return &review, nil
}
