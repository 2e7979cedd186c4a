package main

import (
	"context"
	"path"
	"time"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/spf13/cobra"
)

func newAttachmentCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "attachment",
		Aliases: []string{"att"},
		Short:   "Manage documents attached to purchase orders",
	}
	cmd.AddCommand(
		newAttachmentAddCommand(opts),
		newAttachmentListCommand(opts),
		newAttachmentUpdateCommand(opts),
		newAttachmentDeleteCommand(opts),
		newAttachmentURLCommand(opts),
	)
	return cmd
}

// attachmentFlags adds --attachment to the scope flags
type attachmentFlags struct {
	scopeFlags
	attachment string
}

func (f *attachmentFlags) register(cmd *cobra.Command, withActor bool) {
	f.scopeFlags.register(cmd, withActor)
	cmd.Flags().StringVar(&f.attachment, "attachment", "", "Attachment ID (required)")
	_ = cmd.MarkFlagRequired("attachment")
}

func (f *attachmentFlags) ref() (purchasingapp.AttachmentRef, error) {
	tenantID, err := f.tenantID()
	if err != nil {
		return purchasingapp.AttachmentRef{}, err
	}
	id, err := parseID("attachment", f.attachment)
	if err != nil {
		return purchasingapp.AttachmentRef{}, err
	}
	return purchasingapp.AttachmentRef{TenantID: tenantID, AttachmentID: id}, nil
}

func newAttachmentAddCommand(opts *globalOptions) *cobra.Command {
	var (
		flags orderFlags
		req   purchasingapp.AttachRequest
		meta  map[string]string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an uploaded document against an order",
		Example: `  purchasing attachment add --tenant $T --order $O --actor $A \
    --path orders/$O/invoice.pdf --size 48213 --mime application/pdf --type invoice --related-status invoiced`,
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
			req.TenantID = ref.TenantID
			req.OrderID = ref.OrderID
			req.ActorID = actorID
			req.Metadata = metadataFrom(meta)
			if req.FileName == "" {
				req.FileName = path.Base(req.StoragePath)
			}

			resp, err := rt.attachments.Attach(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, true)
	fs := cmd.Flags()
	fs.StringVar(&req.StoragePath, "path", "", "Object key in the attachment bucket (required)")
	fs.StringVar(&req.URL, "url", "", "Public URL, if any")
	fs.StringVar(&req.FileName, "file-name", "", "Original file name (defaults to the last path element)")
	fs.Int64Var(&req.FileSize, "size", 0, "File size in bytes (required)")
	fs.StringVar(&req.MimeType, "mime", "", "MIME type (required)")
	fs.StringVar(&req.AttachmentType, "type", "", "Attachment type (required)")
	fs.StringVar(&req.RelatedStatus, "related-status", "", "Order status the document belongs to")
	fs.StringVar(&req.Description, "description", "", "Description")
	fs.StringToStringVar(&meta, "meta", nil, "Extra metadata key=value (repeatable)")
	for _, name := range []string{"path", "size", "mime", "type"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newAttachmentListCommand(opts *globalOptions) *cobra.Command {
	var (
		flags orderFlags
		req   purchasingapp.ListAttachmentsRequest
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an order's attachments, newest first",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			req.TenantID = ref.TenantID
			req.OrderID = ref.OrderID
			resp, err := rt.attachments.List(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, false)
	cmd.Flags().StringVar(&req.AttachmentType, "type", "", "Only attachments of this type")
	cmd.Flags().StringVar(&req.RelatedStatus, "related-status", "", "Only attachments related to this status")
	return cmd
}

func newAttachmentUpdateCommand(opts *globalOptions) *cobra.Command {
	var (
		flags       attachmentFlags
		description string
		meta        map[string]string
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the description or metadata of an attachment",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			req := purchasingapp.UpdateAttachmentRequest{
				TenantID:     ref.TenantID,
				AttachmentID: ref.AttachmentID,
				Metadata:     metadataFrom(meta),
			}
			if cmd.Flags().Changed("description") {
				req.Description = &description
			}
			resp, err := rt.attachments.Update(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, false)
	cmd.Flags().StringVar(&description, "description", "", "New description")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "Replacement metadata key=value (repeatable)")
	return cmd
}

func newAttachmentDeleteCommand(opts *globalOptions) *cobra.Command {
	var flags attachmentFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an attachment record",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			if err := rt.attachments.Delete(ctx, ref); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"deleted": ref.AttachmentID})
		}),
	}
	flags.register(cmd, false)
	return cmd
}

func newAttachmentURLCommand(opts *globalOptions) *cobra.Command {
	var (
		flags   attachmentFlags
		expires time.Duration
	)
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Issue a time-limited download URL for an attachment",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			ref, err := flags.ref()
			if err != nil {
				return err
			}
			resp, err := rt.attachments.DownloadURL(ctx, ref, expires)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	flags.register(cmd, false)
	cmd.Flags().DurationVar(&expires, "expires", purchasingapp.DefaultDownloadURLExpiry, "URL lifetime")
	return cmd
}
