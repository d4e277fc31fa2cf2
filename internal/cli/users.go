package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mbd888/risc/pkg/risc"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check that the API token and secret are accepted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := riscClient(cmd)
		if err != nil {
			return err
		}
		res, err := c.VerifyAPIKey(cmd.Context())
		if err != nil {
			return fmt.Errorf("API key verification failed: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(res))
		return nil
	},
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage RISC users",
}

var (
	userEmailFlag string
	userPhoneFlag string
	userNameFlag  string
)

var userCreateCmd = &cobra.Command{
	Use:   "create <user-id>",
	Short: "Register a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := riscClient(cmd)
		if err != nil {
			return err
		}
		res, err := c.CreateUser(cmd.Context(), args[0], userEmailFlag, userPhoneFlag,
			&risc.UserOptions{Name: userNameFlag})
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(res))
		return nil
	},
}

var userGetCmd = &cobra.Command{
	Use:   "get <user-id>",
	Short: "Show a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := riscClient(cmd)
		if err != nil {
			return err
		}
		res, err := c.GetUser(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(res))
		return nil
	},
}

var userModifyCmd = &cobra.Command{
	Use:   "modify <user-id>",
	Short: "Update a user's email, phone or name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("email") && !flags.Changed("phone") && !flags.Changed("name") {
			return fmt.Errorf("at least one of --email, --phone or --name is required")
		}
		c, err := riscClient(cmd)
		if err != nil {
			return err
		}
		res, err := c.ModifyUser(cmd.Context(), args[0], &risc.UserOptions{
			Email: userEmailFlag,
			Phone: userPhoneFlag,
			Name:  userNameFlag,
		})
		if err != nil {
			return fmt.Errorf("failed to modify user: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(res))
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <user-id>",
	Short: "Remove a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := riscClient(cmd)
		if err != nil {
			return err
		}
		res, err := c.DeleteUser(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(res))
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage RISC sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create <user-id>",
	Short: "Open a session for a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := riscClient(cmd)
		if err != nil {
			return err
		}
		res, err := c.CreateSession(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(res))
		return nil
	},
}

var sessionGetCmd = &cobra.Command{
	Use:   "get <session-id>",
	Short: "Show a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := riscClient(cmd)
		if err != nil {
			return err
		}
		res, err := c.GetSession(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get session: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(res))
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{userCreateCmd, userModifyCmd} {
		c.Flags().StringVar(&userEmailFlag, "email", "", "email address")
		c.Flags().StringVar(&userPhoneFlag, "phone", "", "phone number")
		c.Flags().StringVar(&userNameFlag, "name", "", "display name")
	}

	userCmd.AddCommand(userCreateCmd)
	userCmd.AddCommand(userGetCmd)
	userCmd.AddCommand(userModifyCmd)
	userCmd.AddCommand(userDeleteCmd)

	sessionCmd.AddCommand(sessionCreateCmd)
	sessionCmd.AddCommand(sessionGetCmd)

	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(sessionCmd)
}
