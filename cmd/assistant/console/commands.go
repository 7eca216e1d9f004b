package console

import (
	"fmt"

	"github.com/spf13/cobra"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/reconcile"
	"employee-assistant/cmd/assistant/upload"
)

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				limit = opts.app.Config.HistoryLimit
			}
			list, err := opts.app.Sessions.RefreshConversations(cmd.Context(), limit)
			if err != nil {
				return err
			}
			renderSummaries(cmd.OutOrStdout(), list)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of conversations to list")
	return cmd
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	var showTrace bool
	cmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the messages of one conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := opts.app.Client.FetchMessages(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			log, err := reconcile.Messages(records)
			if apperr.KindOf(err) == apperr.KindNoContent {
				fmt.Fprintln(cmd.OutOrStdout(), metaStyle.Render("Nothing to show for session "+args[0]+"."))
				return nil
			}
			if err != nil {
				return err
			}
			renderLog(cmd.OutOrStdout(), args[0], log, showTrace)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showTrace, "trace", false, "Show the assistant's reasoning steps")
	return cmd
}

func newUploadCmd(opts *rootOptions) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "upload --folder <name> <files...>",
		Short: "Upload PDF/DOC/DOCX documents to a knowledge base folder",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := upload.ReadFiles(args)
			if err != nil {
				return err
			}
			receipt, err := opts.app.Uploads.Submit(cmd.Context(), folder, files)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), upload.ConfirmationText(receipt))
			return nil
		},
	}
	cmd.Flags().StringVarP(&folder, "folder", "f", "", "Target folder: HR, IT Helpdesk, Benefits, Payroll or Training")
	_ = cmd.MarkFlagRequired("folder")
	return cmd
}
