package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"employee-assistant/cmd/assistant/apperr"
	"employee-assistant/cmd/assistant/reconcile"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")).
			Padding(0, 1)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	traceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			PaddingLeft(2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func renderMessage(w io.Writer, msg reconcile.Message, showTrace bool) {
	switch msg.Role {
	case reconcile.RoleUser:
		fmt.Fprintf(w, "%s %s\n", userStyle.Render("you:"), msg.Content)
	default:
		fmt.Fprintf(w, "%s %s\n", assistantStyle.Render("assistant:"), msg.Content)
		if showTrace {
			for _, step := range msg.ReasoningTrace {
				fmt.Fprintln(w, traceStyle.Render("· "+step))
			}
		}
	}
}

func renderLog(w io.Writer, sessionID string, log []reconcile.Message, showTrace bool) {
	fmt.Fprintln(w, headerStyle.Render("Conversation"))
	fmt.Fprintln(w, metaStyle.Render("session "+sessionID))
	for _, msg := range log {
		renderMessage(w, msg, showTrace)
	}
}

func renderSummaries(w io.Writer, list []reconcile.Summary) {
	if len(list) == 0 {
		fmt.Fprintln(w, metaStyle.Render("No conversations yet."))
		return
	}
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Conversations (%d)", len(list))))
	for i, s := range list {
		preview := strings.TrimSpace(s.LatestMessagePreview)
		if len([]rune(preview)) > 60 {
			preview = string([]rune(preview)[:57]) + "..."
		}
		fmt.Fprintf(w, "%2d. %s  %s\n    %s\n", i+1, s.SessionID, metaStyle.Render(s.Timestamp), preview)
	}
}

func renderError(w io.Writer, err error) {
	fmt.Fprintln(w, errorStyle.Render("error:")+" "+apperr.Describe(err))
}
