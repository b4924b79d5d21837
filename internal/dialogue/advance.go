package dialogue

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/seee/pkg/domain"
)

// Advance consumes one free-text user message.
//
// The crisis lexicon is checked before anything else; a hit returns the
// safety message and leaves the concept store and cursor untouched.
func (e *Engine) Advance(ctx context.Context, in *domain.Session, text string) (*domain.Session, domain.OutboundMessage) {
	if out, msg, hit := e.intercept(ctx, "advance", in, text); hit {
		return out, msg
	}

	s := in.Clone()
	text = strings.TrimSpace(text)
	if text == "" {
		return e.finish(ctx, "advance", in, s, retry(domain.OutcomeEmptyInput, msgEmptyInput))
	}

	var msg domain.OutboundMessage
	switch s.Cursor.Stage {
	case domain.StageFillingField:
		msg = e.fillField(s, text)
	case domain.StageAwaitingPartSelection:
		msg = e.selectPart(s, text)
	case domain.StageAwaitingConceptChoice:
		msg = e.chooseConcept(s, text)
	default:
		msg = e.startConcept(s, text)
	}
	return e.finish(ctx, "advance", in, s, msg)
}

func (e *Engine) startConcept(s *domain.Session, text string) domain.OutboundMessage {
	name := s.Concepts.UniqueName(strings.TrimSpace(domain.Truncate(text, domain.TitleLimit)))
	c := domain.NewConcept(name)
	c.CreatedAt = e.now()
	if err := s.Concepts.Add(c); err != nil {
		return retry(domain.OutcomeConceptExists, err.Error())
	}
	if s.Title == "" {
		s.Title = domain.Truncate(name, domain.TitleLimit)
	}
	s.Cursor = domain.SessionCursor{Stage: domain.StageFillingField, CurrentConcept: name}
	return reply(fmt.Sprintf("Let's explore «%s».\n\n%s", name, Question(c, domain.FieldGoal)))
}

func (e *Engine) fillField(s *domain.Session, text string) domain.OutboundMessage {
	c, ok := s.Current()
	if !ok {
		return e.conceptNotFound(s)
	}
	if c.AwaitingPartSelection {
		s.Cursor.Stage = domain.StageAwaitingPartSelection
		return e.selectPart(s, text)
	}
	field := c.CurrentField
	if field == "" {
		return e.completeConcept(s, c, "")
	}

	if name, rule, found := DetectFounder(e.rules, text); found {
		e.logger.Debug("founder detected", "session_id", s.ID, "rule", rule, "field", field)
		switch {
		case field == domain.FieldGoal:
			c.Founder = name
			if c.Goal != "" {
				c.Goal = AttributeGoal(c.Goal, name)
			} else {
				c.PendingFounder = name
			}
			msg := reply(fmt.Sprintf("Understood, these goals belong to founder %s. Please continue describing the goals.", name))
			msg.CurrentField = domain.FieldGoal
			return msg
		case field == domain.FieldFounder:
			text = name
		case isCorrection(text):
			c.Founder = name
			return reply(fmt.Sprintf("Noted, the founder of «%s» is %s.\n\n%s", c.Name, name, Question(c, field)))
		case c.Founder == "":
			c.Founder = name
		}
	}

	if field == domain.FieldParts && len(c.Parts) > 0 && !s.Cursor.Editing && isMoveOn(text) {
		return e.transition(s, c, field)
	}

	if !e.write(s, c, field, text) {
		return retry(domain.OutcomeEmptyInput, msgEmptyInput+"\n\n"+Question(c, field))
	}
	if s.Cursor.Editing {
		return e.finishEdit(s, c, field, "Saved.")
	}
	if field == domain.FieldParts {
		msg := reply(askMoreParts)
		msg.CurrentField = domain.FieldParts
		return msg
	}
	return e.transition(s, c, field)
}

// write stores text into field. It reports false when nothing usable was
// given, in which case the concept is left untouched.
func (e *Engine) write(s *domain.Session, c *domain.Concept, field domain.Field, text string) bool {
	if field.IsList() {
		items := SplitItems(text)
		if len(items) == 0 {
			return false
		}
		if field == domain.FieldParts && len(c.Parts) > 0 && !s.Cursor.Editing {
			items = appendUnique(c.Parts, items...)
		}
		c.Set(field, "", items)
		return true
	}

	if field == domain.FieldGoal {
		founder := c.PendingFounder
		if founder == "" && attributionSuffix.MatchString(c.Goal) {
			founder = c.Founder
		}
		if founder != "" {
			text = AttributeGoal(text, founder)
			c.PendingFounder = ""
		}
	}
	c.Set(field, text, nil)
	return true
}

// transition moves the concept past from along the canonical order.
// Emotional consequences always lead to physical ones and the conclusion
// always closes the concept.
func (e *Engine) transition(s *domain.Session, c *domain.Concept, from domain.Field) domain.OutboundMessage {
	var next domain.Field
	switch from {
	case domain.FieldEmotional:
		next = domain.FieldPhysical
	case domain.FieldConclusion:
		next = ""
	default:
		next = from.Next()
	}
	if next == "" {
		return e.conclude(s, c)
	}
	c.CurrentField = next
	s.Cursor.Stage = domain.StageFillingField
	msg := reply(Question(c, next))
	msg.CurrentField = next
	return msg
}

// conclude closes the field flow. Concepts with parts offer them for
// decomposition first.
func (e *Engine) conclude(s *domain.Session, c *domain.Concept) domain.OutboundMessage {
	c.CurrentField = ""
	if len(c.Parts) == 0 {
		return e.completeConcept(s, c, "")
	}
	c.AwaitingPartSelection = true
	s.Cursor.Stage = domain.StageAwaitingPartSelection
	s.Cursor.CurrentConcept = c.Name
	return partSelectionMessage(c, "")
}

func partSelectionMessage(c *domain.Concept, prefix string) domain.OutboundMessage {
	text := partMenu(c)
	if prefix != "" {
		text = prefix + "\n\n" + text
	}
	msg := reply(text)
	msg.Extra[domain.ExtraPartsForSelection] = append([]string(nil), c.Parts...)
	msg.Extra[domain.ExtraAwaitingPartSelection] = true
	return msg
}

func (e *Engine) completeConcept(s *domain.Session, c *domain.Concept, prefix string) domain.OutboundMessage {
	c.CurrentField = ""
	c.AwaitingPartSelection = false
	s.Cursor.CurrentConcept = c.Name
	s.Cursor.Editing = false
	s.Cursor.ResumeField = ""

	text := msgComplete
	if prefix != "" {
		text = prefix + "\n\n" + text
	}

	others := s.Concepts.Incomplete(c.Name)
	if len(others) == 0 {
		s.Cursor.Stage = domain.StageComplete
		s.Cursor.Choices = nil
		return reply(text)
	}
	s.Cursor.Stage = domain.StageAwaitingConceptChoice
	s.Cursor.Choices = others
	msg := reply(text + "\n\n" + choiceMenu(others))
	msg.Extra[domain.ExtraChoices] = append([]string(nil), others...)
	return msg
}

func (e *Engine) selectPart(s *domain.Session, text string) domain.OutboundMessage {
	c, ok := s.Current()
	if !ok {
		return e.conceptNotFound(s)
	}
	if !c.AwaitingPartSelection || len(c.Parts) == 0 {
		return e.completeConcept(s, c, "")
	}
	if isSkip(text) || isMoveOn(text) {
		return e.completeConcept(s, c, "")
	}

	i, found := matchOption(c.Parts, text)
	if !found {
		msg := partSelectionMessage(c, "I could not find that part.")
		msg.Outcome = domain.OutcomePartNotFound
		return msg
	}

	part := c.Parts[i]
	child := domain.NewConcept(s.Concepts.UniqueName(strings.TrimSpace(domain.Truncate(part, domain.TitleLimit))))
	child.ExtractedFrom = c.Name
	child.ExtractedPart = domain.FieldParts
	child.CreatedAt = e.now()
	if err := s.Concepts.Add(child); err != nil {
		return retry(domain.OutcomeConceptExists, err.Error())
	}
	c.AwaitingPartSelection = false
	s.Cursor = domain.SessionCursor{Stage: domain.StageFillingField, CurrentConcept: child.Name}

	msg := reply(fmt.Sprintf("Let's decompose «%s».\n\n%s", child.Name, Question(child, domain.FieldGoal)))
	msg.CurrentField = domain.FieldGoal
	return msg
}

func (e *Engine) chooseConcept(s *domain.Session, text string) domain.OutboundMessage {
	options := s.Cursor.Choices
	if len(options) == 0 {
		options = s.Concepts.Incomplete("")
	}
	i, found := matchOption(options, text)
	if !found {
		if len(options) == 0 {
			return e.startConcept(s, text)
		}
		msg := retry(domain.OutcomeConceptNotFound, "I could not find that idea.\n\n"+choiceMenu(options))
		msg.Extra[domain.ExtraChoices] = append([]string(nil), options...)
		return msg
	}
	return e.switchTo(s, options[i])
}

// switchTo points the cursor at name and resumes it where it stopped.
func (e *Engine) switchTo(s *domain.Session, name string) domain.OutboundMessage {
	c, ok := s.Concepts.Get(name)
	if !ok {
		return retry(domain.OutcomeConceptNotFound, fmt.Sprintf("Idea «%s» was not found.", name))
	}
	s.Cursor = domain.SessionCursor{CurrentConcept: name}
	switch {
	case c.AwaitingPartSelection:
		s.Cursor.Stage = domain.StageAwaitingPartSelection
		return partSelectionMessage(c, fmt.Sprintf("Back to «%s».", name))
	case c.CurrentField != "":
		s.Cursor.Stage = domain.StageFillingField
		msg := reply(fmt.Sprintf("Let's continue with «%s».\n\n%s", name, Question(c, c.CurrentField)))
		msg.CurrentField = c.CurrentField
		return msg
	default:
		s.Cursor.Stage = domain.StageComplete
		return reply(fmt.Sprintf("«%s» is complete. Want to change something or move to another idea?", name))
	}
}

// conceptNotFound resets a dangling cursor so that the next message can
// make progress. The concept store is left as is.
func (e *Engine) conceptNotFound(s *domain.Session) domain.OutboundMessage {
	pending := s.Concepts.Incomplete("")
	switch {
	case len(pending) > 0:
		s.Cursor = domain.SessionCursor{Stage: domain.StageAwaitingConceptChoice, Choices: pending}
		msg := retry(domain.OutcomeConceptNotFound, msgNoConcept+"\n\n"+choiceMenu(pending))
		msg.Extra[domain.ExtraChoices] = append([]string(nil), pending...)
		return msg
	case len(s.Concepts) == 0:
		s.Cursor = domain.SessionCursor{Stage: domain.StageAwaitingFirstConcept}
	default:
		s.Cursor = domain.SessionCursor{Stage: domain.StageComplete}
	}
	return retry(domain.OutcomeConceptNotFound, msgNoConcept)
}
