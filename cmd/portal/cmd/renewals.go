package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"passport-portal/internal/core/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	listStatus string
	listSearch string
	listPage   int
	listLimit  int

	reviewNotes  string
	rejectReason string

	submission domain.RenewalSubmission
)

var statusColors = map[domain.RenewalStatus]*color.Color{
	domain.StatusPending:  color.New(color.FgYellow),
	domain.StatusVerified: color.New(color.FgGreen),
	domain.StatusRejected: color.New(color.FgRed),
}

func colorStatus(s domain.RenewalStatus) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(s)
	}
	return string(s)
}

var renewalsCmd = &cobra.Command{
	Use:     "renewals",
	Aliases: []string{"renewal", "r"},
	Short:   "List, inspect and review renewal requests",
}

var renewalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List renewal requests (admin)",
	Example: `  portal renewals list --status PENDING
  portal renewals list --search 1990 --page 2 -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := domain.RenewalFilter{Values: map[string]string{}, Page: listPage, Limit: listLimit}
		if listStatus != "" {
			f.Values["status"] = strings.ToUpper(listStatus)
		}
		if listSearch != "" {
			f.Values["search"] = listSearch
		}

		page, err := app.Renewals.List(cmd.Context(), f)
		if err != nil {
			return err
		}
		return printPage(cmd.OutOrStdout(), page)
	},
}

var renewalsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your own renewal requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		page, err := app.Renewals.Mine(cmd.Context())
		if err != nil {
			return err
		}
		return printPage(cmd.OutOrStdout(), page)
	},
}

var renewalsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one renewal request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := app.Renewals.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printRenewal(cmd.OutOrStdout(), r)
	},
}

var renewalsVerifyCmd = &cobra.Command{
	Use:   "verify <id>",
	Short: "Mark a renewal as VERIFIED (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return review(cmd, args[0], domain.RenewalUpdate{
			Status:     domain.StatusVerified,
			AdminNotes: reviewNotes,
		})
	},
}

var renewalsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Mark a renewal as REJECTED with a reason (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return review(cmd, args[0], domain.RenewalUpdate{
			Status:          domain.StatusRejected,
			RejectionReason: rejectReason,
			AdminNotes:      reviewNotes,
		})
	},
}

var renewalsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a new renewal request",
	RunE: func(cmd *cobra.Command, args []string) error {
		created, err := app.Renewals.Submit(cmd.Context(), submission)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s submitted %s\n", okFmt("✓"), created.ID)
		return printRenewal(cmd.OutOrStdout(), created)
	},
}

// review loads the renewal first so the status change is checked against
// its current status before anything is sent.
func review(cmd *cobra.Command, id string, u domain.RenewalUpdate) error {
	if _, err := app.Renewals.Get(cmd.Context(), id); err != nil {
		return err
	}
	updated, err := app.Renewals.UpdateAsAdmin(cmd.Context(), id, u)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s %s is now %s\n", okFmt("✓"), updated.ID, colorStatus(updated.Status))
	return printRenewal(cmd.OutOrStdout(), updated)
}

func printPage(w io.Writer, page *domain.RenewalPage) error {
	if done, err := formatOutput(w, page); done {
		return err
	}
	if len(page.Items) == 0 {
		fmt.Fprintln(w, "No renewal requests found")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tNIC\tPASSPORT\tSTATUS\tSUBMITTED")
	for _, r := range page.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.FullName, r.NICNumber, r.CurrentPassportNumber,
			colorStatus(r.Status), formatTime(&r.CreatedAt))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%s\n", dimFmt(fmt.Sprintf("page %d, %d of %d", page.Page, len(page.Items), page.Total)))
	return nil
}

func printRenewal(w io.Writer, r *domain.RenewalRequest) error {
	if done, err := formatOutput(w, r); done {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", r.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", colorStatus(r.Status))
	fmt.Fprintf(tw, "Name:\t%s\n", r.FullName)
	fmt.Fprintf(tw, "NIC:\t%s\n", r.NICNumber)
	fmt.Fprintf(tw, "Date of birth:\t%s\n", r.DateOfBirth)
	fmt.Fprintf(tw, "Passport:\t%s\n", r.CurrentPassportNumber)
	fmt.Fprintf(tw, "Applicant:\t%s\n", r.ApplicantEmail)
	if r.RejectionReason != "" {
		fmt.Fprintf(tw, "Rejection reason:\t%s\n", r.RejectionReason)
	}
	if r.AdminNotes != "" {
		fmt.Fprintf(tw, "Notes:\t%s\n", r.AdminNotes)
	}
	fmt.Fprintf(tw, "Submitted:\t%s\n", formatTime(&r.CreatedAt))
	fmt.Fprintf(tw, "Verified:\t%s\n", formatTime(r.VerifiedAt))
	for _, dt := range domain.DocumentTypes() {
		if url, ok := r.Documents[dt]; ok {
			fmt.Fprintf(tw, "  %s:\t%s\n", dt, url)
		}
	}
	return tw.Flush()
}

func init() {
	renewalsListCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status: PENDING, VERIFIED, REJECTED")
	renewalsListCmd.Flags().StringVar(&listSearch, "search", "", "Search name, NIC, passport number or email")
	renewalsListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	renewalsListCmd.Flags().IntVar(&listLimit, "limit", 20, "Items per page")

	renewalsVerifyCmd.Flags().StringVar(&reviewNotes, "notes", "", "Reviewer notes")
	renewalsRejectCmd.Flags().StringVar(&reviewNotes, "notes", "", "Reviewer notes")
	renewalsRejectCmd.Flags().StringVar(&rejectReason, "reason", "", "Reason shown to the applicant")

	f := renewalsSubmitCmd.Flags()
	f.StringVar(&submission.FullName, "full-name", "", "Full name as on the NIC")
	f.StringVar(&submission.NICNumber, "nic", "", "National identity card number")
	f.StringVar(&submission.DateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	f.StringVar(&submission.Gender, "gender", "", "Gender")
	f.StringVar(&submission.Address, "address", "", "Postal address")
	f.StringVar(&submission.PhoneNumber, "phone", "", "Phone number")
	f.StringVar(&submission.CurrentPassportNumber, "passport", "", "Current passport number")
	f.StringVar(&submission.PassportIssueDate, "issue-date", "", "Current passport issue date")
	f.StringVar(&submission.PassportExpiryDate, "expiry-date", "", "Current passport expiry date")
	f.StringVar(&submission.PassportType, "passport-type", "", "Passport type")
	f.StringVar(&submission.ServiceType, "service-type", "", "Service type (normal, one-day)")

	renewalsCmd.AddCommand(renewalsListCmd, renewalsMineCmd, renewalsGetCmd,
		renewalsVerifyCmd, renewalsRejectCmd, renewalsSubmitCmd)
	rootCmd.AddCommand(renewalsCmd)
}
