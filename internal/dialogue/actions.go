package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/seee/pkg/domain"
)

// Skip leaves the current field empty and moves on without comment.
// During part selection it declines further decomposition.
func (e *Engine) Skip(ctx context.Context, in *domain.Session) (*domain.Session, domain.OutboundMessage) {
	s := in.Clone()
	c, ok := s.Current()
	if !ok {
		return e.finish(ctx, "skip", in, s, e.conceptNotFound(s))
	}

	var msg domain.OutboundMessage
	switch {
	case s.Cursor.Stage == domain.StageAwaitingPartSelection || c.AwaitingPartSelection:
		msg = e.completeConcept(s, c, "")
	case s.Cursor.Editing:
		msg = e.finishEdit(s, c, c.CurrentField, "")
	case s.Cursor.Stage == domain.StageFillingField && c.CurrentField != "":
		msg = e.transition(s, c, c.CurrentField)
	default:
		msg = e.prompt(s)
	}
	return e.finish(ctx, "skip", in, s, msg)
}

// finishEdit ends a single-field edit and resumes the concept where it was
// before the edit started.
func (e *Engine) finishEdit(s *domain.Session, c *domain.Concept, field domain.Field, prefix string) domain.OutboundMessage {
	resume := s.Cursor.ResumeField
	s.Cursor.Editing = false
	s.Cursor.ResumeField = ""

	switch {
	case resume == field:
		return e.transition(s, c, field)
	case resume != "":
		c.CurrentField = resume
		s.Cursor.Stage = domain.StageFillingField
		text := Question(c, resume)
		if prefix != "" {
			text = prefix + "\n\n" + text
		}
		msg := reply(text)
		msg.CurrentField = resume
		return msg
	default:
		return e.completeConcept(s, c, prefix)
	}
}

// EditField re-opens a single field of the current concept.
// The next answer replaces the value; afterwards the concept resumes.
func (e *Engine) EditField(ctx context.Context, in *domain.Session, field domain.Field) (*domain.Session, domain.OutboundMessage) {
	s := in.Clone()
	c, ok := s.Current()
	if !ok {
		return e.finish(ctx, "edit", in, s, e.conceptNotFound(s))
	}
	if !field.Valid() {
		return e.finish(ctx, "edit", in, s, retry(domain.OutcomeInvalidField,
			fmt.Sprintf("Unknown field %q.", field)))
	}

	if !s.Cursor.Editing {
		s.Cursor.ResumeField = c.CurrentField
	}
	s.Cursor.Editing = true
	s.Cursor.Stage = domain.StageFillingField
	c.CurrentField = field
	c.AwaitingPartSelection = false

	text := fieldQuestions[field]
	if current := c.Value(field); current != "" {
		text = fmt.Sprintf("Current value: %s\n\n%s", current, text)
	}
	msg := reply(text)
	msg.CurrentField = field
	return e.finish(ctx, "edit", in, s, msg)
}

// NewConcept starts a fresh top-level concept and makes it current.
func (e *Engine) NewConcept(ctx context.Context, in *domain.Session, name string) (*domain.Session, domain.OutboundMessage) {
	if out, msg, hit := e.intercept(ctx, "new_concept", in, name); hit {
		return out, msg
	}
	s := in.Clone()
	name = strings.TrimSpace(name)
	if name == "" {
		return e.finish(ctx, "new_concept", in, s, retry(domain.OutcomeEmptyInput, askFirstConcept))
	}
	return e.finish(ctx, "new_concept", in, s, e.startConcept(s, name))
}

// SwitchConcept makes another concept current.
func (e *Engine) SwitchConcept(ctx context.Context, in *domain.Session, name string) (*domain.Session, domain.OutboundMessage) {
	if out, msg, hit := e.intercept(ctx, "switch", in, name); hit {
		return out, msg
	}
	s := in.Clone()
	return e.finish(ctx, "switch", in, s, e.switchTo(s, strings.TrimSpace(name)))
}

// Rename renames a concept and every reference to it.
func (e *Engine) Rename(ctx context.Context, in *domain.Session, oldName, newName string) (*domain.Session, domain.OutboundMessage) {
	if out, msg, hit := e.intercept(ctx, "rename", in, newName); hit {
		return out, msg
	}
	s := in.Clone()
	newName = strings.TrimSpace(newName)
	if err := s.Concepts.Rename(oldName, newName); err != nil {
		return e.finish(ctx, "rename", in, in.Clone(), retry(outcomeFor(err), err.Error()))
	}

	if s.Cursor.CurrentConcept == oldName {
		s.Cursor.CurrentConcept = newName
	}
	for i, choice := range s.Cursor.Choices {
		if choice == oldName {
			s.Cursor.Choices[i] = newName
		}
	}
	if s.Title == oldName {
		s.Title = domain.Truncate(newName, domain.TitleLimit)
	}

	msg := e.prompt(s)
	msg.Text = fmt.Sprintf("Renamed «%s» to «%s».\n\n%s", oldName, newName, msg.Text)
	return e.finish(ctx, "rename", in, s, msg)
}

// Strikethrough marks a concept as discarded, or restores it.
// Struck concepts are kept but no longer offered for continuation.
func (e *Engine) Strikethrough(ctx context.Context, in *domain.Session, name string, struck bool) (*domain.Session, domain.OutboundMessage) {
	s := in.Clone()
	c, ok := s.Concepts.Get(name)
	if !ok {
		return e.finish(ctx, "strikethrough", in, s, retry(domain.OutcomeConceptNotFound,
			fmt.Sprintf("Idea «%s» was not found.", name)))
	}
	c.IsStrikethrough = struck

	if !struck {
		msg := e.prompt(s)
		msg.Text = fmt.Sprintf("«%s» is restored.\n\n%s", name, msg.Text)
		return e.finish(ctx, "strikethrough", in, s, msg)
	}

	prefix := fmt.Sprintf("«%s» is struck through.", name)
	s.Cursor.Choices = removeString(s.Cursor.Choices, name)
	if s.Cursor.CurrentConcept != name {
		msg := e.prompt(s)
		msg.Text = prefix + "\n\n" + msg.Text
		return e.finish(ctx, "strikethrough", in, s, msg)
	}
	return e.finish(ctx, "strikethrough", in, s, e.leave(s, prefix))
}

// DeleteConcept removes a concept. Its children stay and become roots.
func (e *Engine) DeleteConcept(ctx context.Context, in *domain.Session, name string) (*domain.Session, domain.OutboundMessage) {
	s := in.Clone()
	if err := s.Concepts.Delete(name); err != nil {
		return e.finish(ctx, "delete", in, s, retry(outcomeFor(err), fmt.Sprintf("Idea «%s» was not found.", name)))
	}
	prefix := fmt.Sprintf("Deleted «%s».", name)
	s.Cursor.Choices = removeString(s.Cursor.Choices, name)
	if s.Cursor.CurrentConcept != name {
		msg := e.prompt(s)
		msg.Text = prefix + "\n\n" + msg.Text
		return e.finish(ctx, "delete", in, s, msg)
	}
	return e.finish(ctx, "delete", in, s, e.leave(s, prefix))
}

// leave moves the cursor off a concept that is no longer workable.
func (e *Engine) leave(s *domain.Session, prefix string) domain.OutboundMessage {
	pending := s.Concepts.Incomplete(s.Cursor.CurrentConcept)
	switch {
	case len(pending) > 0:
		s.Cursor = domain.SessionCursor{Stage: domain.StageAwaitingConceptChoice, Choices: pending}
		msg := reply(prefix + "\n\n" + choiceMenu(pending))
		msg.Extra[domain.ExtraChoices] = append([]string(nil), pending...)
		return msg
	case len(s.Concepts) == 0:
		s.Cursor = domain.SessionCursor{Stage: domain.StageAwaitingFirstConcept}
		return reply(prefix + "\n\n" + askFirstConcept)
	default:
		s.Cursor = domain.SessionCursor{Stage: domain.StageComplete}
		return reply(prefix + "\n\n" + msgComplete)
	}
}

// Extract creates a new concept from a single field value of source.
// The value is pre-filled into the same field of the new concept; the
// cursor stays where it was.
func (e *Engine) Extract(ctx context.Context, in *domain.Session, source string, field domain.Field, value string) (*domain.Session, domain.OutboundMessage) {
	if out, msg, hit := e.intercept(ctx, "extract", in, value); hit {
		return out, msg
	}
	s := in.Clone()
	parent, ok := s.Concepts.Get(source)
	if !ok {
		return e.finish(ctx, "extract", in, s, retry(domain.OutcomeConceptNotFound,
			fmt.Sprintf("Idea «%s» was not found.", source)))
	}
	if !field.Valid() {
		return e.finish(ctx, "extract", in, s, retry(domain.OutcomeInvalidField,
			fmt.Sprintf("Unknown field %q.", field)))
	}
	value = strings.TrimSpace(value)
	if value == "" {
		value = parent.Value(field)
	}
	if value == "" {
		return e.finish(ctx, "extract", in, s, retry(domain.OutcomeEmptyInput,
			fmt.Sprintf("The %s of «%s» is empty.", field, source)))
	}

	child := domain.NewConcept(s.Concepts.UniqueName(strings.TrimSpace(domain.Truncate(value, domain.TitleLimit))))
	child.ExtractedFrom = parent.Name
	child.ExtractedPart = field
	child.CreatedAt = e.now()
	if field.IsList() {
		child.Set(field, "", []string{value})
	} else {
		child.Set(field, value, nil)
	}
	child.CurrentField = child.FirstEmpty()
	if err := s.Concepts.Add(child); err != nil {
		return e.finish(ctx, "extract", in, in.Clone(), retry(outcomeFor(err), err.Error()))
	}

	msg := e.prompt(s)
	msg.Text = fmt.Sprintf("Created idea «%s» from the %s of «%s».\n\n%s", child.Name, field, source, msg.Text)
	msg.Extra[domain.ExtraConcept] = child.Name
	return e.finish(ctx, "extract", in, s, msg)
}

// Prompt returns the message for the current position without changing
// the session. Transports use it to re-render after reconnects.
func (e *Engine) Prompt(in *domain.Session) domain.OutboundMessage {
	s := in.Clone()
	msg := e.prompt(s)
	msg.AvailableConceptNames = s.Concepts.Names()
	msg.ShowNavigationButtons = true
	msg.Extra[domain.ExtraStage] = string(s.Cursor.Stage)
	if c, ok := s.Current(); ok {
		msg.Extra[domain.ExtraConcept] = c.Name
	}
	return msg
}

func (e *Engine) prompt(s *domain.Session) domain.OutboundMessage {
	switch s.Cursor.Stage {
	case domain.StageFillingField:
		c, ok := s.Current()
		if !ok || c.CurrentField == "" {
			return reply(msgNoConcept)
		}
		msg := reply(Question(c, c.CurrentField))
		msg.CurrentField = c.CurrentField
		return msg
	case domain.StageAwaitingPartSelection:
		c, ok := s.Current()
		if !ok {
			return reply(msgNoConcept)
		}
		return partSelectionMessage(c, "")
	case domain.StageAwaitingConceptChoice:
		options := s.Cursor.Choices
		if len(options) == 0 {
			options = s.Concepts.Incomplete("")
		}
		msg := reply(choiceMenu(options))
		msg.Extra[domain.ExtraChoices] = append([]string(nil), options...)
		return msg
	case domain.StageComplete:
		return reply(msgComplete)
	default:
		return reply(askFirstConcept)
	}
}

func outcomeFor(err error) domain.Outcome {
	switch {
	case errors.Is(err, domain.ErrConceptNotFound):
		return domain.OutcomeConceptNotFound
	case errors.Is(err, domain.ErrConceptExists):
		return domain.OutcomeConceptExists
	case errors.Is(err, domain.ErrCyclicReference):
		return domain.OutcomeCyclicReference
	case errors.Is(err, domain.ErrEmptyName):
		return domain.OutcomeEmptyInput
	case errors.Is(err, domain.ErrInvalidField):
		return domain.OutcomeInvalidField
	}
	return domain.OutcomeConceptNotFound
}

func removeString(list []string, s string) []string {
	out := list[:0:0]
	for _, v := range list {
		if v != s {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
