package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/fractal"
)

// txCommand creates the tx command with subcommands.
func (c *CLI) txCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Send and inspect credit transactions",
	}

	cmd.AddCommand(c.txSendCommand())
	cmd.AddCommand(c.txGetCommand())
	cmd.AddCommand(c.txListCommand())
	return cmd
}

// txSendCommand creates the "tx send" subcommand.
func (c *CLI) txSendCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <wallet> <user-id> <amount>",
		Short: "Send credits to another user",
		Long: `Send credits to the given wallet address.

The amount is in credits with up to three decimals, e.g. "15.750".
The wallet address and the amount are validated before anything is
sent; transfers are never retried automatically.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			wallet, err := fractal.ParseWalletAddress(args[0])
			if err != nil {
				return fmt.Errorf("wallet: %s", apierrors.UserMessage(err))
			}
			receiverID, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID %q", args[1])
			}
			amount, err := fractal.ParseAmount(args[2])
			if err != nil {
				return fmt.Errorf("amount: %s", apierrors.UserMessage(err))
			}

			ctx := cmd.Context()
			sess, err := userSession(ctx)
			if err != nil {
				return err
			}
			client, err := c.sessionClient()
			if err != nil {
				return err
			}

			prog := newProgress(loggerFromContext(ctx))
			err = client.SendTransaction(ctx, sess.AccessToken(), wallet, receiverID, amount)
			if err != nil {
				if apierrors.Is(err, apierrors.ErrCodeRejected) {
					printError("Transfer refused: %s", apierrors.UserMessage(err))
					return err
				}
				return err
			}
			prog.done("Transfer accepted")

			printSuccess("Sent %s credits", StyleNumber.Render(amount.String()))
			printDetail("Recipient: %s (user %d)", wallet, receiverID)
			return nil
		},
	}
	return cmd
}

// txGetCommand creates the "tx get" subcommand.
func (c *CLI) txGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <transaction-id>",
		Short: "Show a single transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			txID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transaction ID %q", args[0])
			}

			ctx := cmd.Context()
			sess, err := userSession(ctx)
			if err != nil {
				return err
			}
			client, err := c.sessionClient()
			if err != nil {
				return err
			}

			tx, err := client.GetTransaction(ctx, sess.AccessToken(), txID)
			if err != nil {
				return err
			}
			printTransaction(tx)
			return nil
		},
	}
}

// txListCommand creates the "tx list" subcommand (admin only).
func (c *CLI) txListCommand() *cobra.Command {
	var since uint64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions since an ID (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sess, err := userSession(ctx)
			if err != nil {
				return err
			}
			client, err := c.sessionClient()
			if err != nil {
				return err
			}

			txs, err := client.TransactionsSince(ctx, sess.AccessToken(), since)
			if err != nil {
				return err
			}
			if len(txs) == 0 {
				printInfo("No transactions")
				return nil
			}
			for i := range txs {
				printTransaction(&txs[i])
				printNewline()
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&since, "since", 0, "first transaction ID to include")
	return cmd
}

// printTransaction renders one transaction as key/value lines.
func printTransaction(tx *fractal.Transaction) {
	printSuccess("Transaction %d", tx.ID)
	printKeyValue("From", strconv.FormatUint(tx.OriginUser, 10))
	printKeyValue("To", fmt.Sprintf("%d (%s)", tx.DestinationUser, tx.Destination))
	printKeyValue("Amount", StyleNumber.Render(tx.Amount.String()))
	printKeyValue("When", tx.Timestamp.Format("Jan 2, 2006 15:04"))
}
