package main

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ashureev/softsell/internal/domain"
	"github.com/ashureev/softsell/internal/lead"
	"github.com/spf13/cobra"
)

// errInvalidLead is returned when the form has field errors. The errors
// themselves have already been printed.
var errInvalidLead = errors.New("lead form is invalid")

func newLeadCmd() *cobra.Command {
	var data domain.LeadFormData
	var webhookURL string

	cmd := &cobra.Command{
		Use:   "lead",
		Short: "Validate and submit a contact form",
		Long: `Runs the contact form checks on the given fields. A valid form is
acknowledged and, with --webhook, forwarded as JSON.

Examples:
  softsell lead --name Ada --email ada@example.com --company Engines --license sap
  softsell lead --name Ada --email bad --company Engines --license "Adobe Creative Suite"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if lt, err := domain.ParseLicenseType(data.LicenseType); err == nil {
				data.LicenseType = string(lt)
			}

			var submitter lead.Submitter = lead.NewAcknowledger(slog.Default())
			if webhookURL != "" {
				submitter = lead.MultiSubmitter{submitter, lead.NewWebhookSubmitter(webhookURL, 10*time.Second)}
			}

			accepted, errs, err := lead.FormFrom(data).Submit(cmd.Context(), submitter, "")
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !errs.Valid() {
				fields := make([]string, 0, len(errs))
				for field := range errs {
					fields = append(fields, field)
				}
				sort.Strings(fields)
				for _, field := range fields {
					fmt.Fprintf(out, "%s: %s\n", field, errs[field])
				}
				return errInvalidLead
			}

			fmt.Fprintln(out, lead.AcknowledgementMessage)
			fmt.Fprintf(out, "Reference: %s\n", accepted.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&data.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&data.Email, "email", "", "Your email address")
	cmd.Flags().StringVar(&data.Company, "company", "", "Company name")
	cmd.Flags().StringVar(&data.LicenseType, "license", "", "License type (microsoft, adobe, autodesk, oracle, sap, other)")
	cmd.Flags().StringVar(&data.Message, "message", "", "Optional message")
	cmd.Flags().StringVar(&webhookURL, "webhook", "", "Forward the accepted lead to this URL")
	return cmd
}
