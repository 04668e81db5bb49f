package survey

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/lolahq/lola/pkg/api"
)

// OtherOption is the literal option the backend uses for free-form choices.
const OtherOption = "Other"

const (
	defaultScaleMin = 1
	defaultScaleMax = 10
)

// Input captures the in-progress edits for one question. A fresh Input is
// built whenever the question ID changes, which resets every buffer.
type Input struct {
	question api.Question

	text       string
	selected   string
	selections []string // insertion order preserved
	other      string
	fields     map[string]string
	ranking    []string
	scale      map[string]int
}

// NewInput creates the edit state for a question. Ranking starts in option
// order; every scale field starts at its declared minimum.
func NewInput(q api.Question) *Input {
	in := &Input{
		question: q,
		fields:   make(map[string]string),
		scale:    make(map[string]int),
	}
	if q.InputType == api.InputRanking {
		in.ranking = append([]string(nil), q.Options...)
	}
	if q.InputType == api.InputScale {
		for _, f := range q.Fields {
			in.scale[f.Name] = scaleMin(f)
		}
	}
	return in
}

func scaleMin(f api.Field) int {
	if f.Min > 0 {
		return f.Min
	}
	return defaultScaleMin
}

func scaleMax(f api.Field) int {
	if f.Max > 0 {
		return f.Max
	}
	return defaultScaleMax
}

// Question returns the question this input belongs to.
func (in *Input) Question() api.Question { return in.question }

// SetText replaces the free-text buffer.
func (in *Input) SetText(s string) { in.text = s }

// Select sets the single-choice selection.
func (in *Input) Select(option string) { in.selected = option }

// Toggle adds or removes a multi-choice option, preserving insertion order.
func (in *Input) Toggle(option string) {
	for i, o := range in.selections {
		if o == option {
			in.selections = append(in.selections[:i], in.selections[i+1:]...)
			return
		}
	}
	in.selections = append(in.selections, option)
}

// Selected reports whether a multi-choice option is currently picked.
func (in *Input) Selected(option string) bool {
	for _, o := range in.selections {
		if o == option {
			return true
		}
	}
	return false
}

// SetOther sets the free-text qualifier for the "Other" option.
func (in *Input) SetOther(s string) { in.other = s }

// SetField sets one field of a multi-field question.
func (in *Input) SetField(name, value string) { in.fields[name] = value }

// SetScale sets one scale value, clamped to the field's declared range.
func (in *Input) SetScale(name string, value int) {
	for _, f := range in.question.Fields {
		if f.Name != name {
			continue
		}
		if min := scaleMin(f); value < min {
			value = min
		}
		if max := scaleMax(f); value > max {
			value = max
		}
		in.scale[name] = value
		return
	}
}

// Ranking returns the current ranking order.
func (in *Input) Ranking() []string {
	return append([]string(nil), in.ranking...)
}

// Move repositions one ranking item from src to dst, shifting the items in
// between. Out-of-range indices and src == dst are no-ops.
func (in *Input) Move(src, dst int) {
	n := len(in.ranking)
	if src < 0 || src >= n || dst < 0 || dst >= n || src == dst {
		return
	}
	item := in.ranking[src]
	rest := append(in.ranking[:src:src], in.ranking[src+1:]...)
	in.ranking = append(rest[:dst:dst], append([]string{item}, rest[dst:]...)...)
}

// Validate checks the current edits against the question's constraints.
// A nil return means the answer may be composed and submitted.
func (in *Input) Validate() error {
	q := in.question
	switch q.InputType {
	case api.InputText:
		trimmed := strings.TrimSpace(in.text)
		if q.Required && trimmed == "" {
			return errors.New("This field is required")
		}
		// length limits count characters, not bytes
		length := utf8.RuneCountInString(trimmed)
		if q.Validation.MinLength > 0 && length < q.Validation.MinLength {
			return fmt.Errorf("Minimum %d characters required", q.Validation.MinLength)
		}
		if q.Validation.MaxLength > 0 && length > q.Validation.MaxLength {
			return fmt.Errorf("Maximum %d characters allowed", q.Validation.MaxLength)
		}

	case api.InputSingleChoice:
		if q.Required && in.selected == "" {
			return errors.New("Please select an option")
		}

	case api.InputMultiChoice:
		if q.Required && len(in.selections) == 0 {
			return errors.New("Please select at least one option")
		}
		if q.Validation.MinSelections > 0 && len(in.selections) < q.Validation.MinSelections {
			return fmt.Errorf("Please select at least %d option(s)", q.Validation.MinSelections)
		}
		if q.Validation.MaxSelections > 0 && len(in.selections) > q.Validation.MaxSelections {
			return fmt.Errorf("Please select at most %d option(s)", q.Validation.MaxSelections)
		}

	case api.InputMultiField:
		if q.Required {
			var empty []string
			for _, f := range q.Fields {
				if strings.TrimSpace(in.fields[f.Name]) == "" {
					empty = append(empty, f.Name)
				}
			}
			if len(empty) > 0 {
				return fmt.Errorf("Please fill in: %s", strings.Join(empty, ", "))
			}
		}

	case api.InputRanking:
		if q.Required && len(in.ranking) == 0 {
			return errors.New("Please rank the options")
		}

	case api.InputScale:
		if q.Required {
			for _, f := range q.Fields {
				if _, ok := in.scale[f.Name]; !ok {
					return errors.New("Please rate all items")
				}
			}
		}
	}
	return nil
}

// Compose builds the structured answer payload for the question's input
// type. Call Validate first; Compose does not re-check constraints.
func (in *Input) Compose() any {
	q := in.question
	switch q.InputType {
	case api.InputText:
		return strings.TrimSpace(in.text)

	case api.InputSingleChoice:
		return in.selected

	case api.InputMultiChoice:
		out := append([]string(nil), in.selections...)
		qualifier := strings.TrimSpace(in.other)
		if qualifier != "" {
			for i, o := range out {
				if o == OtherOption {
					out[i] = OtherOption + ": " + qualifier
				}
			}
		}
		return out

	case api.InputMultiField:
		out := make(map[string]string, len(q.Fields))
		for _, f := range q.Fields {
			out[f.Name] = strings.TrimSpace(in.fields[f.Name])
		}
		return out

	case api.InputRanking:
		return append([]string(nil), in.ranking...)

	case api.InputScale:
		out := make(map[string]int, len(in.scale))
		for k, v := range in.scale {
			out[k] = v
		}
		return out
	}
	return nil
}

// CanSubmit is the synchronous submit gate: false while a request is in
// flight or while a required condition is unmet. Optional questions may
// always be submitted.
func (in *Input) CanSubmit(inFlight bool) bool {
	if inFlight {
		return false
	}
	q := in.question
	if !q.Required {
		return true
	}
	switch q.InputType {
	case api.InputText:
		return strings.TrimSpace(in.text) != ""
	case api.InputSingleChoice:
		return in.selected != ""
	case api.InputMultiChoice:
		return len(in.selections) > 0
	case api.InputMultiField:
		for _, f := range q.Fields {
			if strings.TrimSpace(in.fields[f.Name]) == "" {
				return false
			}
		}
		return true
	case api.InputRanking:
		return len(in.ranking) > 0
	case api.InputScale:
		for _, f := range q.Fields {
			if _, ok := in.scale[f.Name]; !ok {
				return false
			}
		}
		return true
	}
	return true
}
