package cli

import (
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	apierrors "github.com/fractal-global/fractal-go/pkg/errors"
	"github.com/fractal-global/fractal-go/pkg/fractal"
)

// friendsCommand creates the friends command with subcommands.
func (c *CLI) friendsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "friends",
		Short: "Manage friend requests",
	}

	cmd.AddCommand(c.friendsRequestCommand())
	cmd.AddCommand(c.friendsListCommand())
	cmd.AddCommand(c.friendsReviewCommand())
	return cmd
}

// friendsRequestCommand creates the "friends request" subcommand.
func (c *CLI) friendsRequestCommand() *cobra.Command {
	var relation string
	var message string

	cmd := &cobra.Command{
		Use:   "request <user-id>",
		Short: "Send a friend request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			destID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid user ID %q", args[0])
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

			relationship := fractal.Relationship(relation)
			err = client.SendFriendRequest(ctx, sess.AccessToken(), destID, relationship, message)
			if err != nil {
				if apierrors.Is(err, apierrors.ErrCodeRejected) {
					printError("Request refused: %s", apierrors.UserMessage(err))
					return err
				}
				return err
			}

			printSuccess("Friend request sent to user %d", destID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&relation, "relation", "r", "friend", "relationship: friend, family, coworker, business, other")
	cmd.Flags().StringVarP(&message, "message", "m", "", "optional message")
	return cmd
}

// friendsListCommand creates the "friends list" subcommand.
func (c *CLI) friendsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending friend requests",
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

			userID, ok := sess.AccessToken().UserID()
			if !ok {
				return fmt.Errorf("stored session has no user scope")
			}

			requests, err := client.FriendRequests(ctx, sess.AccessToken(), userID)
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				printInfo("No pending friend requests")
				return nil
			}

			for _, req := range requests {
				printSuccess("Request %d", req.ConnectionID)
				printKeyValue("From", strconv.FormatUint(req.Origin, 10))
				printKeyValue("Relation", string(req.Relationship))
				if req.Message != nil {
					printKeyValue("Message", *req.Message)
				}
				printNewline()
			}
			return nil
		},
	}
}

// friendsReviewCommand creates the interactive "friends review" subcommand.
func (c *CLI) friendsReviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Review pending requests interactively",
		Long: `Walk through pending friend requests one by one.

Use the arrow keys to pick a request and enter to accept it. Requests
you skip stay pending.`,
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

			token := sess.AccessToken()
			userID, ok := token.UserID()
			if !ok {
				return fmt.Errorf("stored session has no user scope")
			}

			requests, err := client.FriendRequests(ctx, token, userID)
			if err != nil {
				return err
			}
			if len(requests) == 0 {
				printInfo("No pending friend requests")
				return nil
			}

			model := newRequestListModel(requests)
			final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
			if err != nil {
				return fmt.Errorf("run review: %w", err)
			}

			selected := final.(requestListModel).selected
			if selected == nil {
				printInfo("Nothing accepted")
				return nil
			}

			err = client.ConfirmFriendRequest(ctx, token, selected.ConnectionID, selected.Origin)
			if err != nil {
				if apierrors.Is(err, apierrors.ErrCodeRejected) {
					printError("Confirmation refused: %s", apierrors.UserMessage(err))
					return err
				}
				return err
			}
			printSuccess("You are now connected with user %d", selected.Origin)
			return nil
		},
	}
}
