package chat

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/lolahq/lola/pkg/api"
	"github.com/lolahq/lola/pkg/survey"
)

const progressBarWidth = 24

func renderMessage(w io.Writer, m survey.Message) {
	switch m.Role {
	case survey.RoleBot:
		fmt.Fprintf(w, "\nlola> %s\n", m.Content)
	case survey.RoleUser:
		fmt.Fprintf(w, "  you> %s\n", m.Content)
	}
}

func renderProgress(w io.Writer, p api.Progress) {
	pct := p.Percent()
	filled := pct * progressBarWidth / 100
	bar := strings.Repeat("#", filled) + strings.Repeat("-", progressBarWidth-filled)
	fmt.Fprintf(w, "[%s] %d%% (%d/%d)\n", bar, pct, p.Current, p.Total)
}

func renderError(w io.Writer, msg string) {
	fmt.Fprintf(w, "\n  !! %s\n", msg)
}

func renderSummary(w io.Writer, summary map[string]string) {
	fmt.Fprintln(w, "\n--- Summary ---")
	keys := make([]string, 0, len(summary))
	for k := range summary {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "%s: %s\n", k, summary[k])
	}
}

func renderQuestionHelp(w io.Writer, q api.Question) {
	if q.HelpText != "" {
		fmt.Fprintf(w, "      (%s)\n", q.HelpText)
	}
}

func renderOptions(w io.Writer, options []string) {
	for i, o := range options {
		fmt.Fprintf(w, "  %2d. %s\n", i+1, o)
	}
}
