package main

import (
	"context"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/erp/purchasing/internal/domain/purchasing"
	"github.com/spf13/cobra"
)

func newOrderCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Manage purchase orders and their lifecycle",
	}
	cmd.AddCommand(
		newOrderCreateCommand(opts),
		newOrderGetCommand(opts),
		newOrderListCommand(opts),
		newOrderTransitionCommand(opts),
		newOrderCancelCommand(opts),
		newOrderReceiveCommand(opts),
		newOrderVerifyCommand(opts),
		newOrderDeleteCommand(opts),
		newOrderHistoryCommand(opts),
		newOrderProgressCommand(opts),
	)
	return cmd
}

// orderFlags adds --order to the scope flags
type orderFlags struct {
	scopeFlags
	order string
}

func (o *orderFlags) register(cmd *cobra.Command, withActor bool) {
	o.scopeFlags.register(cmd, withActor)
	cmd.Flags().StringVar(&o.order, "order", "", "Purchase order ID (required)")
	_ = cmd.MarkFlagRequired("order")
}

func (o *orderFlags) ref() (purchasingapp.OrderRef, error) {
	tenantID, err := o.tenantID()
	if err != nil {
		return purchasingapp.OrderRef{}, err
	}
	orderID, err := parseID("order", o.order)
	if err != nil {
		return purchasingapp.OrderRef{}, err
	}
	return purchasingapp.OrderRef{TenantID: tenantID, OrderID: orderID}, nil
}

func newOrderCreateCommand(opts *globalOptions) *cobra.Command {
	var (
		scope       scopeFlags
		orderNumber string
		supplier    string
		notes       string
		items       []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a purchase order in pending status",
		Example: `  purchasing order create --tenant $T --actor $A \
    --item "Flour:25:1.20:kg" --item "Yeast:2:4.50:pack"`,
		Args: cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			tenantID, err := scope.tenantID()
			if err != nil {
				return err
			}
			actorID, err := scope.actorID()
			if err != nil {
				return err
			}
			supplierID, err := optionalID("supplier", supplier)
			if err != nil {
				return err
			}
			lines, err := parseLineItems(items)
			if err != nil {
				return err
			}

			resp, err := rt.orders.Create(ctx, purchasingapp.CreateOrderRequest{
				TenantID:    tenantID,
				ActorID:     actorID,
				OrderNumber: orderNumber,
				SupplierID:  supplierID,
				Notes:       notes,
				Items:       lines,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	scope.register(cmd, true)
	cmd.Flags().StringVar(&orderNumber, "order-number", "", "Order number (generated as PO-YYYYMMDD-NNNN when empty)")
	cmd.Flags().StringVar(&supplier, "supplier", "", "Supplier ID")
	cmd.Flags().StringVar(&notes, "notes", "", "Order notes")
	cmd.Flags().StringArrayVar(&items, "item", nil, "Line item name:quantity[:unit_price[:unit]] (repeatable)")
	_ = cmd.MarkFlagRequired("item")
	return cmd
}

func newOrderGetCommand(opts *globalOptions) *cobra.Command {
	var flags orderFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show an order with its line items",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			resp, err := rt.orders.Get(ctx, ref)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, false)
	return cmd
}

func newOrderListCommand(opts *globalOptions) *cobra.Command {
	var (
		scope scopeFlags
		req   purchasingapp.ListOrdersRequest
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tenant's orders, newest first",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			tenantID, err := scope.tenantID()
			if err != nil {
				return err
			}
			req.TenantID = tenantID
			resp, err := rt.orders.List(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	scope.register(cmd, false)
	cmd.Flags().StringVar(&req.Status, "status", "", "Only orders in this status")
	cmd.Flags().StringVar(&req.SortBy, "sort", "created_at", "Sort field")
	cmd.Flags().StringVar(&req.SortOrder, "direction", "desc", "Sort direction: asc or desc")
	cmd.Flags().IntVar(&req.Page, "page", 1, "Page number")
	cmd.Flags().IntVar(&req.PageSize, "page-size", 20, "Page size (max 100)")
	return cmd
}

// transitionFlags are the per-target detail flags of order transition
type transitionFlags struct {
	confirmationNumber string
	estimatedDelivery  string
	trackingNumber     string
	carrier            string
	packageCount       int
	packageCondition   string
	invoiceNumber      string
	totalAmount        string
	taxAmount          string
	paymentDue         string
	paymentMethod      string
	paymentReference   string
	paymentAmount      string
	paymentDate        string
	reason             string
}

func (f *transitionFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.confirmationNumber, "confirmation-number", "", "Supplier confirmation number (confirmed)")
	fs.StringVar(&f.estimatedDelivery, "estimated-delivery", "", "Estimated delivery date YYYY-MM-DD (confirmed, shipped)")
	fs.StringVar(&f.trackingNumber, "tracking-number", "", "Tracking number (shipped)")
	fs.StringVar(&f.carrier, "carrier", "", "Carrier (shipped)")
	fs.IntVar(&f.packageCount, "package-count", 0, "Number of packages (shipped)")
	fs.StringVar(&f.packageCondition, "package-condition", "", "Package condition (received, partially_received)")
	fs.StringVar(&f.invoiceNumber, "invoice-number", "", "Invoice number (invoiced)")
	fs.StringVar(&f.totalAmount, "total-amount", "", "Invoice total (invoiced)")
	fs.StringVar(&f.taxAmount, "tax-amount", "", "Invoice tax (invoiced)")
	fs.StringVar(&f.paymentDue, "payment-due", "", "Payment due date YYYY-MM-DD (invoiced)")
	fs.StringVar(&f.paymentMethod, "payment-method", "", "Payment method (paid)")
	fs.StringVar(&f.paymentReference, "payment-reference", "", "Payment reference (paid)")
	fs.StringVar(&f.paymentAmount, "payment-amount", "", "Amount paid (paid)")
	fs.StringVar(&f.paymentDate, "payment-date", "", "Payment date YYYY-MM-DD (paid, defaults to now)")
	fs.StringVar(&f.reason, "reason", "", "Cancellation reason (cancelled)")
}

func (f *transitionFlags) details(cmd *cobra.Command) (purchasing.TransitionDetails, error) {
	d := purchasing.TransitionDetails{
		ConfirmationNumber: f.confirmationNumber,
		TrackingNumber:     f.trackingNumber,
		Carrier:            f.carrier,
		PackageCondition:   f.packageCondition,
		InvoiceNumber:      f.invoiceNumber,
		PaymentMethod:      f.paymentMethod,
		PaymentReference:   f.paymentReference,
		CancellationReason: f.reason,
	}
	if cmd.Flags().Changed("package-count") {
		count := f.packageCount
		d.PackageCount = &count
	}

	var err error
	if d.EstimatedDeliveryDate, err = optionalDate("estimated delivery", f.estimatedDelivery); err != nil {
		return d, err
	}
	if d.PaymentDueDate, err = optionalDate("payment due date", f.paymentDue); err != nil {
		return d, err
	}
	if d.PaymentDate, err = optionalDate("payment date", f.paymentDate); err != nil {
		return d, err
	}
	if d.TotalAmount, err = optionalDecimal("total amount", f.totalAmount); err != nil {
		return d, err
	}
	if d.TaxAmount, err = optionalDecimal("tax amount", f.taxAmount); err != nil {
		return d, err
	}
	if d.PaymentAmount, err = optionalDecimal("payment amount", f.paymentAmount); err != nil {
		return d, err
	}
	return d, nil
}

func newOrderTransitionCommand(opts *globalOptions) *cobra.Command {
	var (
		flags   orderFlags
		details transitionFlags
		target  string
		notes   string
		meta    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "transition",
		Short: "Move an order to another status",
		Example: `  purchasing order transition --tenant $T --order $O --actor $A --to shipped \
    --tracking-number 1Z999 --carrier UPS --package-count 2`,
		Args: cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			actorID, err := flags.actorID()
			if err != nil {
				return err
			}
			d, err := details.details(cmd)
			if err != nil {
				return err
			}

			resp, err := rt.orders.Transition(ctx, purchasingapp.TransitionRequest{
				TenantID: ref.TenantID,
				OrderID:  ref.OrderID,
				ActorID:  actorID,
				Target:   target,
				Details:  d,
				Metadata: metadataFrom(meta),
				Notes:    notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, true)
	details.register(cmd)
	cmd.Flags().StringVar(&target, "to", "", "Target status (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes recorded in the status history")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "Extra history metadata key=value (repeatable)")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newOrderCancelCommand(opts *globalOptions) *cobra.Command {
	var (
		flags  orderFlags
		reason string
		notes  string
	)
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an order",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			actorID, err := flags.actorID()
			if err != nil {
				return err
			}
			resp, err := rt.orders.Cancel(ctx, purchasingapp.CancelRequest{
				TenantID: ref.TenantID,
				OrderID:  ref.OrderID,
				ActorID:  actorID,
				Reason:   reason,
				Notes:    notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, true)
	cmd.Flags().StringVar(&reason, "reason", "", "Cancellation reason (required)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes recorded in the status history")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func newOrderReceiveCommand(opts *globalOptions) *cobra.Command {
	var (
		flags            orderFlags
		lines            []string
		packageCondition string
		notes            string
	)
	cmd := &cobra.Command{
		Use:   "receive",
		Short: "Record reception for several items and move the order to received or partially_received",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			actorID, err := flags.actorID()
			if err != nil {
				return err
			}
			items, err := parseReceptions(lines)
			if err != nil {
				return err
			}
			resp, err := rt.orders.ReceiveOrder(ctx, purchasingapp.ReceiveOrderRequest{
				TenantID:         ref.TenantID,
				OrderID:          ref.OrderID,
				ActorID:          actorID,
				Items:            items,
				PackageCondition: packageCondition,
				Notes:            notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, true)
	cmd.Flags().StringArrayVar(&lines, "line", nil, "item_id=quantity:condition[:quality] (repeatable)")
	cmd.Flags().StringVar(&packageCondition, "package-condition", "", "Condition of the delivered packages")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes recorded in the status history")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}

func newOrderVerifyCommand(opts *globalOptions) *cobra.Command {
	var (
		flags orderFlags
		lines []string
		notes string
	)
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Record quality per item and move the order to verified",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			actorID, err := flags.actorID()
			if err != nil {
				return err
			}
			items, err := parseVerifications(lines)
			if err != nil {
				return err
			}
			resp, err := rt.orders.VerifyOrder(ctx, purchasingapp.VerifyOrderRequest{
				TenantID: ref.TenantID,
				OrderID:  ref.OrderID,
				ActorID:  actorID,
				Items:    items,
				Notes:    notes,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, true)
	cmd.Flags().StringArrayVar(&lines, "line", nil, "item_id=quality (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "Notes recorded in the status history")
	return cmd
}

func newOrderDeleteCommand(opts *globalOptions) *cobra.Command {
	var flags orderFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an order with its items, history and attachments",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			actorID, err := flags.actorID()
			if err != nil {
				return err
			}
			if err := rt.orders.Delete(ctx, purchasingapp.DeleteOrderRequest{
				TenantID: ref.TenantID,
				OrderID:  ref.OrderID,
				ActorID:  actorID,
			}); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": ref.OrderID})
		}),
	}
	flags.register(cmd, true)
	return cmd
}

func newOrderHistoryCommand(opts *globalOptions) *cobra.Command {
	var (
		flags  orderFlags
		latest bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the status history of an order, newest first",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			if latest {
				resp, err := rt.history.Latest(ctx, ref)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), resp)
			}
			resp, err := rt.history.History(ctx, ref)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, false)
	cmd.Flags().BoolVar(&latest, "latest", false, "Only the most recent entry")
	return cmd
}

func newOrderProgressCommand(opts *globalOptions) *cobra.Command {
	var flags orderFlags
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show the progress projection of an order",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			resp, err := rt.history.Projection(ctx, ref)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, false)
	return cmd
}
