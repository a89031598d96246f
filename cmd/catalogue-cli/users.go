package main

import (
	"context"
	"fmt"

	"catalogue/pkg/users"

	"github.com/spf13/cobra"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Query the user directory",
	}

	cmd.AddCommand(usersCheckCmd())
	return cmd
}

func usersCheckCmd() *cobra.Command {
	var userID, passwd string
	var hashed bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check a user's password",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(false)
			if err != nil {
				return err
			}

			passwordHash := passwd
			if !hashed {
				passwordHash = users.HashPassword(userID, passwd)
			}

			ok, err := c.CheckUser(context.Background(), userID, passwordHash)
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("password of %s does not match", userID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password of %s matches\n", userID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user to check")
	cmd.Flags().StringVar(&passwd, "passwd", "", "password to check")
	cmd.Flags().BoolVar(&hashed, "hashed", false, "passwd is already hashed")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("passwd")
	return cmd
}
