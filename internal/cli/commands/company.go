package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
	"github.com/capitalhub-dev/capitalhub/internal/cli/guard"
)

// NewCompanyCmd creates the command group for hiring companies
func NewCompanyCmd(a *App) *cobra.Command {
	allowed, _ := guard.AllowedFor("/company")

	cmd := &cobra.Command{
		Use:   "company",
		Short: "Company workspace: offers, candidates, reviews",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Require(allowed)
		},
	}

	cmd.AddCommand(newCompanyDashboardCmd(a))
	cmd.AddCommand(newCompanyJobsCmd(a))
	cmd.AddCommand(newCompanyApplicationsCmd(a))
	cmd.AddCommand(newCompanyProfileCmd(a))
	cmd.AddCommand(newCompanyReviewsCmd(a))
	cmd.AddCommand(newCreateReviewCmd(a))

	return cmd
}

func newCompanyDashboardCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Hiring pipeline at a glance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := load[client.CompanyDashboardStats](cmd.Context(), a, client.PathCompanyDashboardStats)
			if err != nil {
				return err
			}

			return a.render(stats, func(w io.Writer) {
				if stats.CompanyName != "" {
					fmt.Fprintf(w, "%s\n\n", stats.CompanyName)
				}
				fmt.Fprintf(w, "Active offers:\t%d\n", stats.ActiveJobs)
				fmt.Fprintf(w, "Applications:\t%d\n", stats.TotalApplications)
				fmt.Fprintf(w, "Pending review:\t%d\n", stats.PendingApplications)
				fmt.Fprintf(w, "Hired:\t%d\n", stats.HiredCount)
			})
		},
	}
}

func newCompanyJobsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List your job offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			offers, err := a.api.ListCompanyJobs(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(offers, func(w io.Writer) { printCompanyOffers(w, offers) })
		},
	}

	cmd.AddCommand(newCreateJobCmd(a))
	cmd.AddCommand(newJobStatusCmd(a))

	return cmd
}

func printCompanyOffers(w io.Writer, offers []client.JobOffer) {
	if len(offers) == 0 {
		fmt.Fprintln(w, "No job offers yet.")
		fmt.Fprintln(w, "\nPublish one with: capitalhub company jobs create --title ...")
		return
	}
	header(w, "ID", "TITLE", "STATUS", "ROLE", "APPLICANTS", "CREATED")
	for _, o := range offers {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			o.ID, o.Title, orDash(string(o.Status)), orDash(o.Role), applicants(o), orDash(o.CreatedAt))
	}
}

func newCreateJobCmd(a *App) *cobra.Command {
	var req client.JobOfferRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a job offer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Title == "" {
				return errors.New("title is required (use --title)")
			}
			if req.CommissionPercent < 0 || req.CommissionPercent > 100 {
				return fmt.Errorf("commission must be between 0 and 100, got %.1f", req.CommissionPercent)
			}

			offer, err := a.api.CreateJobOffer(cmd.Context(), req)
			if err != nil {
				return err
			}

			a.printf("Job offer %d published\n\n", offer.ID)
			return a.render(offer, func(w io.Writer) { printOffer(w, offer) })
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Title, "title", "", "Offer title")
	f.StringVar(&req.Description, "description", "", "Offer description")
	f.StringVar(&req.Role, "role", "", "Setter, Closer or Cold Caller")
	f.IntVar(&req.Seats, "seats", 0, "Number of positions")
	f.StringVar(&req.Language, "language", "", "Working language")
	f.StringVar(&req.CRM, "crm", "", "CRM used by the team")
	f.Float64Var(&req.CommissionPercent, "commission", 0, "Commission percent")
	f.Float64Var(&req.AvgTicket, "avg-ticket", 0, "Average ticket")
	f.Float64Var(&req.EstimatedMonthlyEarnings, "monthly-earnings", 0, "Estimated monthly earnings")
	f.StringVar(&req.Modality, "modality", "", "Remote, hybrid or on site")
	f.StringVar(&req.Market, "market", "", "Target market")
	f.StringVar(&req.SalaryHint, "salary-hint", "", "Compensation summary")
	f.StringVar(&req.Model, "model", "", "Compensation model")
	f.StringVar(&req.Type, "type", "", "Offer type")
	f.StringVar(&req.CallTool, "call-tool", "", "Calling tool")
	f.StringVar(&req.CallLink, "call-link", "", "Link to book an intro call")

	return cmd
}

func newJobStatusCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <offer-id> <ACTIVE|PAUSED|CLOSED>",
		Short: "Pause, close or reactivate an offer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("offer", args[0])
			if err != nil {
				return err
			}
			status, err := client.ParseJobStatus(args[1])
			if err != nil {
				return err
			}

			if err := a.api.UpdateJobStatus(cmd.Context(), id, status); err != nil {
				return err
			}
			a.printf("Job offer %d is now %s\n", id, status)
			return nil
		},
	}
}

func newCompanyApplicationsCmd(a *App) *cobra.Command {
	var jobID int64

	cmd := &cobra.Command{
		Use:   "applications",
		Short: "List candidates, for every offer or one (--job)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apps, err := companyApplications(cmd.Context(), a, jobID)
			if err != nil {
				return err
			}
			return a.render(apps, func(w io.Writer) { printCandidates(w, apps) })
		},
	}

	cmd.Flags().Int64Var(&jobID, "job", 0, "Only show applications to this offer")
	cmd.AddCommand(newApplicationStatusCmd(a))

	return cmd
}

func companyApplications(ctx context.Context, a *App, jobID int64) ([]client.Application, error) {
	if jobID > 0 {
		return a.api.ListJobApplications(ctx, jobID)
	}
	return a.api.ListCompanyApplications(ctx)
}

func printCandidates(w io.Writer, apps []client.Application) {
	if len(apps) == 0 {
		fmt.Fprintln(w, "No applications yet.")
		return
	}
	header(w, "ID", "CANDIDATE", "OFFER", "STATUS", "APPLIED", "MESSAGE")
	for _, app := range apps {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			app.ID, app.RepFullName, app.JobTitle, app.Status, orDash(app.AppliedAt), orDash(app.RepMessage))
	}
}

func newApplicationStatusCmd(a *App) *cobra.Command {
	var notes, interviewURL string
	var jobID int64
	var yes bool

	cmd := &cobra.Command{
		Use:   "status <application-id> <status>",
		Short: "Move a candidate through the hiring process",
		Long: `Move a candidate to APPLIED, INTERVIEW, OFFER_SENT, HIRED, REJECTED or WITHDRAWN.

HIRED and REJECTED ask for confirmation unless --yes is given. The updated
list of applications is printed afterwards.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("application", args[0])
			if err != nil {
				return err
			}
			status, err := client.ParseApplicationStatus(args[1])
			if err != nil {
				return err
			}

			if (status == client.StatusHired || status == client.StatusRejected) && !yes {
				ok, err := a.prompter.Confirm(fmt.Sprintf("Mark application %d as %s", id, status))
				if err != nil {
					return fmt.Errorf("%w (pass --yes to skip the confirmation)", err)
				}
				if !ok {
					a.printf("Cancelled\n")
					return nil
				}
			}

			if _, err := a.api.UpdateApplicationStatus(cmd.Context(), id, client.StatusUpdate{
				Status:       status,
				CompanyNotes: notes,
				InterviewURL: interviewURL,
			}); err != nil {
				return err
			}
			a.printf("Application %d is now %s\n\n", id, status)

			// Reload only after the update has been acknowledged.
			apps, err := companyApplications(cmd.Context(), a, jobID)
			if err != nil {
				return err
			}
			return a.render(apps, func(w io.Writer) { printCandidates(w, apps) })
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Notes for the candidate")
	cmd.Flags().StringVar(&interviewURL, "interview-url", "", "Meeting link when moving to INTERVIEW")
	cmd.Flags().Int64Var(&jobID, "job", 0, "Offer whose applications are listed afterwards")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation for HIRED and REJECTED")

	return cmd
}

func newCompanyProfileCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show the company profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := load[client.CompanyProfile](cmd.Context(), a, client.PathCompanyProfile)
			if err != nil {
				return err
			}
			return a.render(profile, func(w io.Writer) { printCompanyProfile(w, profile) })
		},
	}

	cmd.AddCommand(newCompanyProfileUpdateCmd(a))

	return cmd
}

func printCompanyProfile(w io.Writer, p *client.CompanyProfile) {
	fmt.Fprintf(w, "Name:\t%s\n", orDash(p.Name))
	fmt.Fprintf(w, "Industry:\t%s\n", orDash(p.Industry))
	fmt.Fprintf(w, "Website:\t%s\n", orDash(p.Website))
	fmt.Fprintf(w, "Monthly revenue:\t%d\n", p.MonthlyRevenue)
	fmt.Fprintf(w, "Monthly calls:\t%d\n", p.MonthlyCalls)
	fmt.Fprintf(w, "Monthly closed deals:\t%d\n", p.MonthlyClosedDeals)
	fmt.Fprintf(w, "Win rate:\t%.1f%%\n", p.WinRate)
	fmt.Fprintf(w, "Calendly:\t%s\n", orDash(p.CalendlyURL))
	fmt.Fprintf(w, "Description:\t%s\n", orDash(p.Description))
}

func newCompanyProfileUpdateCmd(a *App) *cobra.Command {
	var values struct {
		name, website, industry, description, offerVideo, calendly, zoom, whatsapp string
		revenue, calls, deals                                                   int
		winRate                                                                 float64
	}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the company profile; only the flags you pass are changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !anyLocalChanged(cmd) {
				return fmt.Errorf("nothing to update, pass at least one field flag (see --help)")
			}

			update := client.CompanyProfileUpdate{
				Name:               changed(flags, "name", values.name),
				Website:            changed(flags, "website", values.website),
				Industry:           changed(flags, "industry", values.industry),
				Description:        changed(flags, "description", values.description),
				MonthlyRevenue:     changed(flags, "monthly-revenue", values.revenue),
				MonthlyCalls:       changed(flags, "monthly-calls", values.calls),
				MonthlyClosedDeals: changed(flags, "monthly-deals", values.deals),
				WinRate:            changed(flags, "win-rate", values.winRate),
				OfferVideoURL:      changed(flags, "offer-video", values.offerVideo),
				CalendlyURL:        changed(flags, "calendly", values.calendly),
				ZoomURL:            changed(flags, "zoom", values.zoom),
				WhatsappURL:        changed(flags, "whatsapp", values.whatsapp),
			}

			profile, err := a.api.UpdateCompanyProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			a.printf("Profile updated\n\n")
			return a.render(profile, func(w io.Writer) { printCompanyProfile(w, profile) })
		},
	}

	f := cmd.Flags()
	f.StringVar(&values.name, "name", "", "Company name")
	f.StringVar(&values.website, "website", "", "Website")
	f.StringVar(&values.industry, "industry", "", "Industry")
	f.StringVar(&values.description, "description", "", "Description")
	f.IntVar(&values.revenue, "monthly-revenue", 0, "Monthly revenue")
	f.IntVar(&values.calls, "monthly-calls", 0, "Monthly calls")
	f.IntVar(&values.deals, "monthly-deals", 0, "Monthly closed deals")
	f.Float64Var(&values.winRate, "win-rate", 0, "Win rate percent")
	f.StringVar(&values.offerVideo, "offer-video", "", "Offer video URL")
	f.StringVar(&values.calendly, "calendly", "", "Calendly URL")
	f.StringVar(&values.zoom, "zoom", "", "Zoom URL")
	f.StringVar(&values.whatsapp, "whatsapp", "", "WhatsApp URL")

	return cmd
}

func newCompanyReviewsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reviews",
		Short: "Reviews you left about reps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := load[[]client.Review](cmd.Context(), a, client.PathCompanyReviews)
			if err != nil {
				return err
			}
			return a.render(*reviews, func(w io.Writer) {
				printReviews(w, *reviews, "REP", func(r client.Review) string { return r.RepFullName })
			})
		},
	}
}

func newCreateReviewCmd(a *App) *cobra.Command {
	var req client.ReviewRequest

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Rate a rep you worked with",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.RepID <= 0 {
				return errors.New("rep is required (use --rep)")
			}
			if req.Rating < 1 || req.Rating > 5 {
				return fmt.Errorf("rating must be between 1 and 5, got %d", req.Rating)
			}

			review, err := a.api.CreateReview(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.printf("Review saved\n\n")
			return a.render(review, func(w io.Writer) {
				printReviews(w, []client.Review{*review}, "REP", func(r client.Review) string { return r.RepFullName })
			})
		},
	}

	f := cmd.Flags()
	f.Int64Var(&req.RepID, "rep", 0, "Rep id")
	f.Int64Var(&req.JobOfferID, "job", 0, "Offer the rep worked on")
	f.IntVar(&req.Rating, "rating", 0, "Rating from 1 to 5")
	f.StringVar(&req.Comment, "comment", "", "Comment")
	f.IntVar(&req.CallsMade, "calls", 0, "Calls made")
	f.IntVar(&req.DealsClosed, "deals", 0, "Deals closed")
	f.Float64Var(&req.GeneratedRevenue, "revenue", 0, "Revenue generated")

	return cmd
}
