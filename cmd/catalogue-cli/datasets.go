package main

import (
	"context"
	"fmt"
	"os"

	"catalogue/pkg/models"

	"github.com/spf13/cobra"
)

const defaultMetadataServiceHost = "http://syndicate-ms-datasets-prod.appspot.com:80"

func datasetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List, add and remove datasets",
	}

	cmd.AddCommand(
		datasetsListCmd(),
		datasetsAddCmd(),
		datasetsRemoveCmd(),
	)
	return cmd
}

func datasetsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}

			datasets, err := c.ListDatasets(context.Background())
			if err != nil {
				return err
			}
			return printDatasets(cmd.OutOrStdout(), datasets)
		},
	}
}

func datasetsAddCmd() *cobra.Command {
	var (
		dataset     string
		username    string
		pkeyPath    string
		volume      string
		msHost      string
		gateway     string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a dataset owned by the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if volume == "" {
				volume = dataset
			}
			if description == "" {
				description = dataset
			}

			pkey, err := os.ReadFile(pkeyPath)
			if err != nil {
				return fmt.Errorf("cannot read user key %s: %w", pkeyPath, err)
			}

			c, err := newClient(true)
			if err != nil {
				return err
			}

			err = c.AddDataset(context.Background(), models.Dataset{
				ID:                  dataset,
				MetadataServiceHost: msHost,
				Volume:              volume,
				Gateway:             gateway,
				GatewayUsername:     username,
				GatewayPrivateKey:   string(pkey),
				Description:         description,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dataset %s added\n", dataset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "dataset name")
	cmd.Flags().StringVarP(&username, "username", "n", "", "gateway user name")
	cmd.Flags().StringVarP(&pkeyPath, "user-pkey", "k", "", "gateway user private key file")
	cmd.Flags().StringVarP(&volume, "volume", "v", "", "volume name (default: dataset name)")
	cmd.Flags().StringVarP(&msHost, "ms-host", "m", defaultMetadataServiceHost, "metadata service host")
	cmd.Flags().StringVarP(&gateway, "gateway", "g", "", "gateway name")
	cmd.Flags().StringVar(&description, "description", "", "description (default: dataset name)")
	for _, name := range []string{"dataset", "username", "user-pkey", "gateway"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func datasetsRemoveCmd() *cobra.Command {
	var dataset string

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a dataset owned by the authenticated user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(true)
			if err != nil {
				return err
			}

			if err := c.RemoveDataset(context.Background(), dataset); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "dataset %s removed\n", dataset)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dataset, "dataset", "d", "", "dataset name")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
