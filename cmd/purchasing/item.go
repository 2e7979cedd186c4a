package main

import (
	"context"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newItemCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Record reception and quality for single line items",
	}
	cmd.AddCommand(newItemReceiveCommand(opts), newItemVerifyCommand(opts))
	return cmd
}

// itemFlags adds --item to the scope flags
type itemFlags struct {
	scopeFlags
	item string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	f.scopeFlags.register(cmd, true)
	cmd.Flags().StringVar(&f.item, "item", "", "Line item ID (required)")
	_ = cmd.MarkFlagRequired("item")
}

func newItemReceiveCommand(opts *globalOptions) *cobra.Command {
	var (
		flags     itemFlags
		quantity  string
		condition string
		quality   string
		notes     string
	)
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Record reception for one line item and show the suggested order status",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			tenantID, err := flags.tenantID()
			if err != nil {
				return err
			}
			actorID, err := flags.actorID()
			if err != nil {
				return err
			}
			itemID, err := parseID("item", flags.item)
			if err != nil {
				return err
			}
			qty, err := decimal.NewFromString(quantity)
			if err != nil {
				return err
			}

			resp, err := rt.receptions.RecordReception(ctx, purchasingapp.RecordReceptionRequest{
				TenantID:         tenantID,
				ItemID:           itemID,
				ActorID:          actorID,
				QuantityReceived: qty,
				Condition:        condition,
				QualityStatus:    quality,
				Notes:            notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&quantity, "qty", "", "Quantity received (required)")
	cmd.Flags().StringVar(&condition, "condition", "complete", "Item condition: complete, partial, missing or damaged")
	cmd.Flags().StringVar(&quality, "quality", "", "Quality status: good, acceptable, poor or rejected")
	cmd.Flags().StringVar(&notes, "notes", "", "Reception notes")
	_ = cmd.MarkFlagRequired("qty")
	return cmd
}

func newItemVerifyCommand(opts *globalOptions) *cobra.Command {
	var (
		flags   itemFlags
		quality string
		notes   string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Record the quality assessment of one line item",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			tenantID, err := flags.tenantID()
			if err != nil {
				return err
			}
			actorID, err := flags.actorID()
			if err != nil {
				return err
			}
			itemID, err := parseID("item", flags.item)
			if err != nil {
				return err
			}

			resp, err := rt.receptions.VerifyItem(ctx, purchasingapp.VerifyLineItemRequest{
				TenantID:      tenantID,
				ItemID:        itemID,
				ActorID:       actorID,
				QualityStatus: quality,
				Notes:         notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&quality, "quality", "", "Quality status: good, acceptable, poor or rejected (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Quality notes")
	_ = cmd.MarkFlagRequired("quality")
	return cmd
}
