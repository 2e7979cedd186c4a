package main

import (
	"context"

	purchasingapp "github.com/erp/purchasing/internal/application/purchasing"
	"github.com/spf13/cobra"
)

func newTenantCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Create, inspect and delete tenants",
	}
	cmd.AddCommand(newTenantCreateCommand(opts), newTenantGetCommand(opts), newTenantDeleteCommand(opts))
	return cmd
}

func newTenantCreateCommand(opts *globalOptions) *cobra.Command {
	var req purchasingapp.CreateTenantRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a tenant",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			resp, err := rt.tenants.Create(ctx, req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	cmd.Flags().StringVar(&req.Code, "code", "", "Unique tenant code (letters, digits, _ and -)")
	cmd.Flags().StringVar(&req.Name, "name", "", "Display name")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTenantGetCommand(opts *globalOptions) *cobra.Command {
	var scope scopeFlags
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show a tenant",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			tenantID, err := scope.tenantID()
			if err != nil {
				return err
			}
			resp, err := rt.tenants.Get(ctx, tenantID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		}),
	}
	scope.register(cmd, false)
	return cmd
}

func newTenantDeleteCommand(opts *globalOptions) *cobra.Command {
	var scope scopeFlags
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a tenant and every order it owns",
		Args:  cobra.NoArgs,
		RunE: withRuntime(opts, func(ctx context.Context, cmd *cobra.Command, rt *runtime) error {
			tenantID, err := scope.tenantID()
			if err != nil {
				return err
			}
			deleted, err := rt.tenants.Delete(ctx, tenantID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"tenant_id": tenantID, "deleted_orders": deleted})
		}),
	}
	scope.register(cmd, false)
	return cmd
}
