package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/fall-guard/internal/domain/health"
	"github.com/oshokin/fall-guard/internal/service/console"
)

func newProfileCommand() *cobra.Command {
	profile := &cobra.Command{
		Use:   "profile",
		Short: "Show or edit the user's profile.",
	}

	var edit health.Profile

	set := &cobra.Command{
		Use:   "set",
		Short: "Store the profile.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.ProfileSet(ctx, edit)
			})
		},
	}

	set.Flags().StringVar(&edit.Name, "name", "", "user name")
	set.Flags().IntVar(&edit.Age, "age", 0, "user age")
	set.Flags().StringVar(&edit.BloodType, "blood-type", "", "blood type")
	set.Flags().StringVar(&edit.EmergencyName, "emergency-name", "", "emergency contact name")
	set.Flags().StringVar(&edit.EmergencyPhone, "emergency-phone", "", "emergency contact phone")

	profile.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the profile.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.ProfileGet(ctx)
			})
		},
	}, set)

	return profile
}

func newMedicationCommand() *cobra.Command {
	medication := &cobra.Command{
		Use:   "medication",
		Short: "List or edit the medication schedule.",
	}

	var edit health.Medication

	add := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or replace a medication.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			edit.Name = args[0]

			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.MedicationAdd(ctx, edit)
			})
		},
	}

	add.Flags().StringVar(&edit.ID, "id", "", "id of the medication to replace")
	add.Flags().StringVar(&edit.Dosage, "dosage", "", "dosage, e.g. 100mg")
	add.Flags().StringSliceVar(&edit.Times, "times", nil, "daily intake times as HH:MM")
	add.Flags().StringVar(&edit.Notes, "notes", "", "free-form notes")

	medication.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List medications.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.MedicationList(ctx)
			})
		},
	}, add, &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a medication.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConsole(cmd, func(ctx context.Context, c *console.Console) error {
				return c.MedicationRemove(ctx, args[0])
			})
		},
	})

	return medication
}
