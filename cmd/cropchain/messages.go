package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"cropchain/internal/identity/models"
)

// messagesCommand prints the exact payloads wallets must sign, so operators
// can produce signatures with any EIP-191 tool.
func messagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "messages",
		Short: "Print canonical messages to sign",
	}
	cmd.AddCommand(linkMessageCommand(), verifyMessageCommand())
	return cmd
}

func linkMessageCommand() *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Message a user signs to link a wallet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !common.IsHexAddress(wallet) {
				return fmt.Errorf("invalid wallet address %q", wallet)
			}
			fmt.Fprintln(cmd.OutOrStdout(), models.WalletLinkMessage(wallet))
			return nil
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "wallet address (0x...)")
	_ = cmd.MarkFlagRequired("wallet")
	return cmd
}

func verifyMessageCommand() *cobra.Command {
	var name, email, wallet string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Message an admin signs to verify a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !common.IsHexAddress(wallet) {
				return fmt.Errorf("invalid wallet address %q", wallet)
			}
			fmt.Fprintln(cmd.OutOrStdout(), models.AttestationMessage(name, email, wallet))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "user's name as stored")
	cmd.Flags().StringVar(&email, "email", "", "user's email as stored")
	cmd.Flags().StringVar(&wallet, "wallet", "", "user's linked wallet address")
	for _, f := range []string{"name", "email", "wallet"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}
