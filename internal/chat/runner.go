// Package chat drives the conversational survey in a terminal. It renders
// state snapshots produced by the survey machine and translates line input
// into machine events; it holds no business logic of its own.
package chat

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lolahq/lola/pkg/api"
	"github.com/lolahq/lola/pkg/survey"
)

// Teardowner is the slice of the cleanup janitor the runner fires on exit.
type Teardowner interface {
	Teardown(sessionID string)
}

// Runner owns the interactive loop for one survey conversation.
type Runner struct {
	machine  *survey.Machine
	teardown Teardowner // nil disables exit-time cleanup
	in       *bufio.Scanner
	out      io.Writer
	logger   zerolog.Logger
	printed  int
}

func NewRunner(machine *survey.Machine, teardown Teardowner, in io.Reader, out io.Writer, logger zerolog.Logger) *Runner {
	return &Runner{
		machine:  machine,
		teardown: teardown,
		in:       bufio.NewScanner(in),
		out:      out,
		logger:   logger.With().Str("component", "chat").Logger(),
	}
}

// errQuit signals that the user asked to leave mid-survey.
var errQuit = fmt.Errorf("quit")

// Run executes the conversation until completion, quit, or context cancel.
// Leaving an active session behind triggers the one-shot teardown delete.
func (r *Runner) Run(ctx context.Context) error {
	err := r.run(ctx)

	st := r.machine.Snapshot()
	if st.Phase == survey.PhaseActive && r.teardown != nil {
		r.teardown.Teardown(st.SessionID)
	}

	if err == errQuit {
		fmt.Fprintln(r.out, "\nBye.")
		return nil
	}
	return err
}

func (r *Runner) run(ctx context.Context) error {
	if err := r.start(ctx); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := r.machine.Snapshot()
		r.flush(st)

		if st.Phase == survey.PhaseCompleted {
			renderSummary(r.out, st.Summary)
			fmt.Fprintln(r.out, "\nType 'restart' to start over, or press Enter to exit.")
			line, err := r.readLine()
			if err != nil {
				return nil
			}
			if strings.TrimSpace(line) != "restart" {
				return nil
			}
			r.printed = 0
			if err := r.machine.Reset(ctx); err != nil {
				renderError(r.out, r.machine.Snapshot().Err)
				return nil
			}
			continue
		}

		q := st.Question
		if q == nil {
			return fmt.Errorf("active session without a current question")
		}
		renderProgress(r.out, st.Progress)
		renderQuestionHelp(r.out, *q)

		answer, err := r.collect(*q)
		if err != nil {
			return err
		}

		if err := r.machine.Submit(ctx, q.ID, answer); err != nil {
			next := r.machine.Snapshot()
			r.clampPrinted(next)
			renderError(r.out, next.Err)
			fmt.Fprintln(r.out, "  Press Enter to try again, or type 'quit'.")
			line, rerr := r.readLine()
			if rerr != nil || strings.TrimSpace(line) == "quit" {
				return errQuit
			}
		}
	}
}

// start begins a session, offering a retry on failure.
func (r *Runner) start(ctx context.Context) error {
	for {
		if err := r.machine.Start(ctx); err == nil {
			return nil
		}
		renderError(r.out, r.machine.Snapshot().Err)
		fmt.Fprintln(r.out, "  Press Enter to retry, or type 'quit'.")
		line, err := r.readLine()
		if err != nil || strings.TrimSpace(line) == "quit" {
			return errQuit
		}
	}
}

// flush prints transcript entries added since the last render.
func (r *Runner) flush(st survey.State) {
	r.clampPrinted(st)
	for _, m := range st.Messages[r.printed:] {
		renderMessage(r.out, m)
	}
	r.printed = len(st.Messages)
}

// clampPrinted absorbs optimistic-message rollbacks.
func (r *Runner) clampPrinted(st survey.State) {
	if r.printed > len(st.Messages) {
		r.printed = len(st.Messages)
	}
}

func (r *Runner) readLine() (string, error) {
	if !r.in.Scan() {
		if err := r.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.in.Text(), nil
}

// collect gathers and validates one answer for q, re-prompting on validation
// failures. Validation never touches the network.
func (r *Runner) collect(q api.Question) (any, error) {
	in := survey.NewInput(q)

	for {
		var err error
		switch q.InputType {
		case api.InputText:
			err = r.collectText(in, q)
		case api.InputSingleChoice:
			err = r.collectSingle(in, q)
		case api.InputMultiChoice:
			err = r.collectMulti(in, q)
		case api.InputMultiField:
			err = r.collectFields(in, q)
		case api.InputRanking:
			err = r.collectRanking(in, q)
		case api.InputScale:
			err = r.collectScale(in, q)
		default:
			return nil, fmt.Errorf("unsupported input type %q", q.InputType)
		}
		if err != nil {
			return nil, err
		}

		if verr := in.Validate(); verr != nil {
			renderError(r.out, verr.Error())
			continue
		}
		return in.Compose(), nil
	}
}

func (r *Runner) collectText(in *survey.Input, q api.Question) error {
	prompt := q.Placeholder
	if prompt == "" {
		prompt = "Type your answer"
	}
	fmt.Fprintf(r.out, "  %s: ", prompt)
	line, err := r.readLine()
	if err != nil {
		return errQuit
	}
	if strings.TrimSpace(line) == "quit" {
		return errQuit
	}
	in.SetText(line)
	return nil
}

func (r *Runner) collectSingle(in *survey.Input, q api.Question) error {
	renderOptions(r.out, q.Options)
	for {
		fmt.Fprint(r.out, "  Pick one (number): ")
		line, err := r.readLine()
		if err != nil {
			return errQuit
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "quit" {
			return errQuit
		}
		if trimmed == "" {
			// optional questions may skip; Validate rejects this if required
			return nil
		}
		if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= len(q.Options) {
			in.Select(q.Options[n-1])
			return nil
		}
		fmt.Fprintf(r.out, "  Enter a number between 1 and %d.\n", len(q.Options))
	}
}

func (r *Runner) collectMulti(in *survey.Input, q api.Question) error {
	renderOptions(r.out, q.Options)
	allowOther := allowsOther(q)
	if allowOther {
		fmt.Fprint(r.out, "  Pick any (numbers, comma-separated; 'other: text' allowed): ")
	} else {
		fmt.Fprint(r.out, "  Pick any (numbers, comma-separated): ")
	}
	line, err := r.readLine()
	if err != nil {
		return errQuit
	}
	if strings.TrimSpace(line) == "quit" {
		return errQuit
	}
	for _, tok := range strings.Split(line, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(strings.ToLower(tok), "other:"); ok {
			if !allowOther {
				continue
			}
			if !in.Selected(survey.OtherOption) {
				in.Toggle(survey.OtherOption)
			}
			in.SetOther(strings.TrimSpace(tok[len(tok)-len(rest):]))
			continue
		}
		if n, err := strconv.Atoi(tok); err == nil && n >= 1 && n <= len(q.Options) {
			in.Toggle(q.Options[n-1])
		}
	}
	return nil
}

// allowsOther reports whether a multi-choice question takes a free-form
// qualifier, either declared or via a literal "Other" option.
func allowsOther(q api.Question) bool {
	if q.AllowOther {
		return true
	}
	for _, o := range q.Options {
		if o == survey.OtherOption {
			return true
		}
	}
	return false
}

func (r *Runner) collectFields(in *survey.Input, q api.Question) error {
	for _, f := range q.Fields {
		fmt.Fprintf(r.out, "  %s: ", f.Label)
		line, err := r.readLine()
		if err != nil {
			return errQuit
		}
		if strings.TrimSpace(line) == "quit" {
			return errQuit
		}
		in.SetField(f.Name, line)
	}
	return nil
}

func (r *Runner) collectRanking(in *survey.Input, q api.Question) error {
	fmt.Fprintln(r.out, "  Order these by preference ('move FROM TO' to reorder, 'done' to submit):")
	for {
		renderOptions(r.out, in.Ranking())
		fmt.Fprint(r.out, "  > ")
		line, err := r.readLine()
		if err != nil {
			return errQuit
		}
		fields := strings.Fields(strings.TrimSpace(line))
		switch {
		case len(fields) == 1 && fields[0] == "done", len(fields) == 0:
			return nil
		case len(fields) == 1 && fields[0] == "quit":
			return errQuit
		case len(fields) == 3 && fields[0] == "move":
			src, err1 := strconv.Atoi(fields[1])
			dst, err2 := strconv.Atoi(fields[2])
			if err1 == nil && err2 == nil {
				in.Move(src-1, dst-1)
			}
		default:
			fmt.Fprintln(r.out, "  Commands: 'move FROM TO', 'done'")
		}
	}
}

func (r *Runner) collectScale(in *survey.Input, q api.Question) error {
	for _, f := range q.Fields {
		min, max := f.Min, f.Max
		if min <= 0 {
			min = 1
		}
		if max <= 0 {
			max = 10
		}
		for {
			fmt.Fprintf(r.out, "  %s [%d-%d]: ", f.Label, min, max)
			line, err := r.readLine()
			if err != nil {
				return errQuit
			}
			trimmed := strings.TrimSpace(line)
			if trimmed == "quit" {
				return errQuit
			}
			if trimmed == "" {
				break // keep the initialized minimum
			}
			if n, err := strconv.Atoi(trimmed); err == nil {
				in.SetScale(f.Name, n)
				break
			}
			fmt.Fprintln(r.out, "  Enter a number.")
		}
	}
	return nil
}
