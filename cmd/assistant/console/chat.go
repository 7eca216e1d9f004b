package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/session"
	"employee-assistant/cmd/assistant/upload"
)

const chatHelp = `Commands:
  /new                      start a new conversation
  /open <session-id>        resume an earlier conversation
  /history                  list recent conversations
  /upload <folder> <files>  upload documents (HR, "IT Helpdesk", Benefits, Payroll, Training)
  /trace                    toggle reasoning steps
  /quit                     leave`

func newChatCmd(opts *rootOptions) *cobra.Command {
	var sessionID string
	var showTrace bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive conversation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := &repl{
				app:       opts.app,
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
				showTrace: showTrace,
			}
			return r.run(cmd.Context(), sessionID)
		},
	}
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Resume the given conversation")
	cmd.Flags().BoolVar(&showTrace, "trace", false, "Show the assistant's reasoning steps")
	return cmd
}

type repl struct {
	app       *App
	in        io.Reader
	out       io.Writer
	showTrace bool
}

func (r *repl) run(ctx context.Context, sessionID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if sessionID != "" {
		r.open(ctx, sessionID)
	}
	r.redraw()
	fmt.Fprintln(r.out, metaStyle.Render("Type /help for commands."))

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "/") {
			r.send(ctx, line)
			continue
		}
		if quit := r.command(ctx, line); quit {
			return nil
		}
	}
	return scanner.Err()
}

func (r *repl) send(ctx context.Context, text string) {
	out, err := r.app.Sessions.SendUserTurn(ctx, text)
	if out.Discarded {
		return
	}
	if err != nil && out.Reply.Content == "" {
		// 검증 오류는 로그에 남지 않으므로 직접 보여준다.
		renderError(r.out, err)
		return
	}
	renderMessage(r.out, out.Reply, r.showTrace)
	if out.Reassigned {
		fmt.Fprintln(r.out, metaStyle.Render("session "+out.SessionID))
		// 서버가 정한 ID 로 목록을 다시 맞춘다.
		if _, err := r.app.Sessions.RefreshConversations(ctx, r.app.Config.HistoryLimit); err != nil {
			renderError(r.out, err)
		}
	}
}

// open 은 세션을 전환하고 화면을 다시 그려야 하면 true 를 돌려준다.
// 기록이 없는 세션은 오류가 아니라 안내 문구로 보여준다.
func (r *repl) open(ctx context.Context, sessionID string) bool {
	out, err := r.app.Sessions.SwitchTo(ctx, sessionID)
	if apperr.KindOf(err) == apperr.KindNoContent {
		fmt.Fprintln(r.out, metaStyle.Render("Nothing to show for session "+sessionID+"."))
		return false
	}
	if err != nil {
		renderError(r.out, err)
		return false
	}
	return !out.Discarded
}

func (r *repl) command(ctx context.Context, line string) bool {
	fields := splitArgs(line)
	m := r.app.Sessions

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		m.StartNew()
		r.redraw()
	case "/open":
		if len(fields) != 2 {
			fmt.Fprintln(r.out, "usage: /open <session-id>")
			return false
		}
		if r.open(ctx, fields[1]) {
			r.redraw()
		}
	case "/history":
		list, err := m.RefreshConversations(ctx, r.app.Config.HistoryLimit)
		if err != nil {
			renderError(r.out, err)
		}
		renderSummaries(r.out, list)
	case "/upload":
		if len(fields) < 3 {
			fmt.Fprintln(r.out, "usage: /upload <folder> <files...>")
			return false
		}
		r.upload(ctx, fields[1], fields[2:])
	case "/trace":
		r.showTrace = !r.showTrace
		fmt.Fprintf(r.out, "reasoning steps: %v\n", r.showTrace)
	default:
		fmt.Fprintf(r.out, "unknown command %s\n", fields[0])
	}
	return false
}

func (r *repl) upload(ctx context.Context, folder string, paths []string) {
	files, err := upload.ReadFiles(paths)
	if err != nil {
		renderError(r.out, err)
		return
	}
	receipt, err := r.app.Uploads.Submit(ctx, folder, files)
	if err != nil {
		renderError(r.out, err)
		return
	}
	text := upload.ConfirmationText(receipt)
	r.app.Sessions.AppendNotice(text)
	renderMessage(r.out, session.Message{Role: session.RoleAssistant, Content: text}, false)
}

func (r *repl) redraw() {
	snap := r.app.Sessions.Snapshot()
	renderLog(r.out, snap.SessionID, snap.Log, r.showTrace)
}

// splitArgs 는 공백으로 나누되 큰따옴표로 묶인 부분("IT Helpdesk")은 하나로 본다.
func splitArgs(line string) []string {
	var out []string
	var cur strings.Builder
	quoted := false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == ' ' && !quoted:
			if cur.Len() > 0 {
				out = append(out, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		out = append(out, cur.String())
	}
	return out
}
