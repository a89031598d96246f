package main

import (
	"context"
	"fmt"

	"catalogue/pkg/models"

	"github.com/spf13/cobra"
)

func cdnsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cdns",
		Short: "Manage CDN bindings and edge sites",
	}

	cmd.AddCommand(
		cdnsListCmd(),
		cdnsAddCmd(),
		cdnsAddSiteCmd(),
		cdnsRemoveCmd(),
		cdnsRemoveSiteCmd(),
	)
	return cmd
}

func cdnsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List CDN bindings with their sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}

			bindings, err := c.ListCDNs(context.Background())
			if err != nil {
				return err
			}
			return printCDNs(cmd.OutOrStdout(), bindings)
		},
	}
}

func cdnsAddCmd() *cobra.Command {
	var dataset, originURL string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Bind a dataset to its origin URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}

			if err := c.AddCDN(context.Background(), dataset, originURL); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cdn binding for %s added\n", dataset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "dataset name")
	cmd.Flags().StringVar(&originURL, "ag-url", "", "origin (acquisition gateway) URL")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("ag-url")
	return cmd
}

func cdnsAddSiteCmd() *cobra.Command {
	var site models.CDNSite

	cmd := &cobra.Command{
		Use:   "add-site",
		Short: "Add an edge site to a dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}

			if err := c.AddCDNSite(context.Background(), site); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cdn site %s for %s added\n", site.Name, site.DatasetID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&site.DatasetID, "dataset", "d", "", "dataset name")
	cmd.Flags().StringVar(&site.Name, "name", "", "site name")
	cmd.Flags().Float64Var(&site.Latitude, "lat", 0, "site latitude")
	cmd.Flags().Float64Var(&site.Longitude, "lon", 0, "site longitude")
	cmd.Flags().StringVar(&site.URLPrefix, "prefix", "", "site URL prefix")
	for _, name := range []string{"dataset", "name", "lat", "lon", "prefix"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func cdnsRemoveCmd() *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a CDN binding and all of its sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}

			if err := c.RemoveCDN(context.Background(), dataset); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cdn binding for %s removed\n", dataset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "dataset name")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func cdnsRemoveSiteCmd() *cobra.Command {
	var dataset, name string

	cmd := &cobra.Command{
		Use:   "remove-site",
		Short: "Remove every site of a dataset with the given name",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}

			if err := c.RemoveCDNSite(context.Background(), dataset, name); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "cdn site %s for %s removed\n", name, dataset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "dataset name")
	cmd.Flags().StringVar(&name, "name", "", "site name")
	_ = cmd.MarkFlagRequired("dataset")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
