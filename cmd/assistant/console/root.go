// Package console 은 어시스턴트 CLI(cobra 명령과 채팅 REPL)를 구성한다.
package console

import (
	"github.com/spf13/cobra"

	"employee-assistant/cmd/internal/logger"
	"employee-assistant/config"
)

type rootOptions struct {
	configDir string
	verbose   bool
	app       *App
}

// NewRootCmd 는 assistant 루트 명령을 만든다.
func NewRootCmd() *cobra.Command {
	return newRootCmd(nil)
}

// newRootCmd 에 app 을 넘기면 설정 로딩을 건너뛴다. 테스트에서 쓴다.
func newRootCmd(app *App) *cobra.Command {
	opts := &rootOptions{app: app}

	root := &cobra.Command{
		Use:   "assistant",
		Short: "Chat with the employee assistant",
		Long: `Chat with the employee assistant, browse earlier conversations
and upload HR, IT Helpdesk, Benefits, Payroll or Training documents.

Quick Start:
  assistant chat                          # start a new conversation
  assistant history                       # list recent conversations
  assistant show <session-id>             # print one conversation
  assistant upload --folder HR a.pdf      # upload documents`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVar(&opts.configDir, "config", "", "Directory containing config.yaml and .env")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newChatCmd(opts),
		newHistoryCmd(opts),
		newShowCmd(opts),
		newUploadCmd(opts),
	)
	return root
}

func (o *rootOptions) load() error {
	if o.app != nil {
		if o.verbose {
			logger.Init("debug")
		}
		return nil
	}

	dir := o.configDir
	if dir == "" {
		dir = config.GetBasePath()
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}

	level := cfg.Logging.Level
	if o.verbose {
		level = "debug"
	}
	logger.Init(level)

	o.app = NewApp(cfg.Assistant)
	return nil
}
