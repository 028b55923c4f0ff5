package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/capitalhub-dev/capitalhub/internal/cli/client"
	"github.com/capitalhub-dev/capitalhub/internal/cli/guard"
)

// NewRepCmd creates the command group for sales reps
func NewRepCmd(a *App) *cobra.Command {
	allowed, _ := guard.AllowedFor("/rep")

	cmd := &cobra.Command{
		Use:   "rep",
		Short: "Sales rep workspace: offers, applications, profile",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.Require(allowed)
		},
	}

	cmd.AddCommand(newRepDashboardCmd(a))
	cmd.AddCommand(newRepJobsCmd(a))
	cmd.AddCommand(newApplyCmd(a))
	cmd.AddCommand(newRepApplicationsCmd(a))
	cmd.AddCommand(newRepProfileCmd(a))
	cmd.AddCommand(newRepReviewsCmd(a))

	return cmd
}

func newRepDashboardCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Monthly stats and latest hiring processes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := load[client.RepDashboardStats](cmd.Context(), a, client.PathRepDashboardStats)
			if err != nil {
				return err
			}

			return a.render(stats, func(w io.Writer) {
				m := stats.MonthlyStats
				fmt.Fprintf(w, "Calls made:\t%d\n", m.CallsMade)
				fmt.Fprintf(w, "Closures:\t%d\n", m.Closures)
				fmt.Fprintf(w, "Average ticket:\t%.2f\n", m.AvgTicket)
				fmt.Fprintf(w, "Estimated commission:\t%.2f\n", m.EstimatedCommission)
				fmt.Fprintf(w, "Open offers:\t%d\n", stats.TotalOffers)
				fmt.Fprintln(w)

				if len(stats.LatestProcesses) == 0 {
					fmt.Fprintln(w, "No hiring processes yet. Browse offers with: capitalhub rep jobs")
					return
				}
				header(w, "ID", "OFFER", "COMPANY", "STATUS")
				for _, app := range stats.LatestProcesses {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", app.ID, app.JobTitle, app.CompanyName, app.Status)
				}
			})
		},
	}
}

func newRepJobsCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List active job offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			offers, err := a.api.ListJobOffers(cmd.Context())
			if err != nil {
				return err
			}

			return a.render(offers, func(w io.Writer) {
				if len(offers) == 0 {
					fmt.Fprintln(w, "No job offers found.")
					return
				}
				header(w, "ID", "TITLE", "COMPANY", "ROLE", "COMMISSION", "APPLICANTS")
				for _, o := range offers {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						o.ID, o.Title, o.CompanyName, orDash(o.Role), commission(o.CommissionPercent), applicants(o))
				}
			})
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show <offer-id>",
		Short: "Show one job offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("offer", args[0])
			if err != nil {
				return err
			}
			offer, err := a.api.JobOffer(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.render(offer, func(w io.Writer) { printOffer(w, offer) })
		},
	})

	return cmd
}

func printOffer(w io.Writer, o *client.JobOffer) {
	fmt.Fprintf(w, "Title:\t%s\n", o.Title)
	fmt.Fprintf(w, "Company:\t%s\n", orDash(o.CompanyName))
	fmt.Fprintf(w, "Status:\t%s\n", orDash(string(o.Status)))
	fmt.Fprintf(w, "Role:\t%s\n", orDash(o.Role))
	fmt.Fprintf(w, "Commission:\t%s\n", commission(o.CommissionPercent))
	fmt.Fprintf(w, "Average ticket:\t%.2f\n", o.AvgTicket)
	fmt.Fprintf(w, "Modality:\t%s\n", orDash(o.Modality))
	fmt.Fprintf(w, "Market:\t%s\n", orDash(o.Market))
	fmt.Fprintf(w, "Language:\t%s\n", orDash(o.Language))
	fmt.Fprintf(w, "CRM:\t%s\n", orDash(o.CRM))
	fmt.Fprintf(w, "Applicants:\t%s\n", applicants(*o))
	if o.Description != "" {
		fmt.Fprintf(w, "\n%s\n", o.Description)
	}
}

func commission(pct float64) string {
	if pct == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", pct)
}

func applicants(o client.JobOffer) string {
	if o.MaxApplicants > 0 {
		return fmt.Sprintf("%d/%d", o.ApplicantsCount, o.MaxApplicants)
	}
	return fmt.Sprintf("%d", o.ApplicantsCount)
}

func newApplyCmd(a *App) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "apply <offer-id>",
		Short: "Apply to a job offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("offer", args[0])
			if err != nil {
				return err
			}

			app, err := a.api.ApplyToJob(cmd.Context(), id, message)
			if err != nil {
				return err
			}

			if err := a.render(app, func(w io.Writer) {
				fmt.Fprintf(w, "Applied to %s (application %d, %s)\n", orDash(app.JobTitle), app.ID, app.Status)
			}); err != nil {
				return err
			}
			a.printf("\nTrack it with: capitalhub rep applications\n")
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Message for the company")

	return cmd
}

func newRepApplicationsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "applications",
		Short: "List your applications and their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			apps, err := a.api.ListRepApplications(cmd.Context())
			if err != nil {
				return err
			}

			return a.render(apps, func(w io.Writer) {
				if len(apps) == 0 {
					fmt.Fprintln(w, "No applications yet.")
					return
				}
				header(w, "ID", "OFFER", "COMPANY", "STATUS", "APPLIED", "INTERVIEW")
				for _, app := range apps {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
						app.ID, app.JobTitle, app.CompanyName, app.Status, orDash(app.AppliedAt), orDash(app.InterviewURL))
				}
			})
		},
	}
}

func newRepProfileCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := load[client.RepProfile](cmd.Context(), a, client.PathRepProfile)
			if err != nil {
				return err
			}
			return a.render(profile, func(w io.Writer) { printRepProfile(w, profile) })
		},
	}

	cmd.AddCommand(newRepProfileUpdateCmd(a))

	return cmd
}

func printRepProfile(w io.Writer, p *client.RepProfile) {
	name := p.FullName
	if name == "" {
		name = p.FirstName + " " + p.LastName
	}
	fmt.Fprintf(w, "Name:\t%s\n", orDash(name))
	fmt.Fprintf(w, "Email:\t%s\n", orDash(p.Email))
	fmt.Fprintf(w, "Role:\t%s\n", orDash(p.RoleType))
	fmt.Fprintf(w, "Location:\t%s\n", orDash(joinNonEmpty(", ", p.City, p.Country)))
	fmt.Fprintf(w, "Phone:\t%s\n", orDash(p.Phone))
	fmt.Fprintf(w, "LinkedIn:\t%s\n", orDash(p.LinkedinURL))
	fmt.Fprintf(w, "Portfolio:\t%s\n", orDash(p.PortfolioURL))
	fmt.Fprintf(w, "Bio:\t%s\n", orDash(p.Bio))
}

func newRepProfileUpdateCmd(a *App) *cobra.Command {
	var values struct {
		firstName, lastName, roleType, bio, phone, city, country, linkedin, portfolio string
	}

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your profile; only the flags you pass are changed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			update := client.RepProfileUpdate{
				FirstName:    changed(flags, "first-name", values.firstName),
				LastName:     changed(flags, "last-name", values.lastName),
				RoleType:     changed(flags, "role-type", values.roleType),
				Bio:          changed(flags, "bio", values.bio),
				Phone:        changed(flags, "phone", values.phone),
				City:         changed(flags, "city", values.city),
				Country:      changed(flags, "country", values.country),
				LinkedinURL:  changed(flags, "linkedin", values.linkedin),
				PortfolioURL: changed(flags, "portfolio", values.portfolio),
			}
			if !anyLocalChanged(cmd) {
				return fmt.Errorf("nothing to update, pass at least one field flag (see --help)")
			}

			profile, err := a.api.UpdateRepProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			a.printf("Profile updated\n\n")
			return a.render(profile, func(w io.Writer) { printRepProfile(w, profile) })
		},
	}

	f := cmd.Flags()
	f.StringVar(&values.firstName, "first-name", "", "First name")
	f.StringVar(&values.lastName, "last-name", "", "Last name")
	f.StringVar(&values.roleType, "role-type", "", "Setter, Closer or Cold Caller")
	f.StringVar(&values.bio, "bio", "", "Short bio")
	f.StringVar(&values.phone, "phone", "", "Phone number")
	f.StringVar(&values.city, "city", "", "City")
	f.StringVar(&values.country, "country", "", "Country")
	f.StringVar(&values.linkedin, "linkedin", "", "LinkedIn URL")
	f.StringVar(&values.portfolio, "portfolio", "", "Portfolio URL")

	return cmd
}

func newRepReviewsCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "reviews",
		Short: "Reviews companies left about your work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reviews, err := load[[]client.Review](cmd.Context(), a, client.PathRepReviews)
			if err != nil {
				return err
			}
			return a.render(*reviews, func(w io.Writer) {
				printReviews(w, *reviews, "COMPANY", func(r client.Review) string { return r.CompanyName })
			})
		},
	}
}

func printReviews(w io.Writer, reviews []client.Review, who string, name func(client.Review) string) {
	if len(reviews) == 0 {
		fmt.Fprintln(w, "No reviews yet.")
		return
	}
	header(w, who, "OFFER", "RATING", "CALLS", "DEALS", "REVENUE", "COMMENT")
	for _, r := range reviews {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.2f\t%s\n",
			name(r), orDash(r.JobTitle), stars(r.Rating), r.CallsMade, r.DealsClosed, r.GeneratedRevenue, orDash(r.Comment))
	}
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	s := ""
	for i := 0; i < 5; i++ {
		if i < rating {
			s += "★"
		} else {
			s += "☆"
		}
	}
	return s
}
