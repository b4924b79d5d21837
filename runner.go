package seee

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/session"
)

// Runner handles the terminal chat loop using provided IO.
// This allows for easy testing and integration with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
	// Sanitize cleans each input line before it reaches the engine.
	Sanitize func(string) (string, error)
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

const chatHelp = `Commands:
  /skip                    skip the current question
  /edit <field>            change a field of the current idea
  /new <name>              start a new idea
  /switch <name>           continue another idea
  /rename <old> => <new>   rename an idea
  /strike <name>           strike an idea through
  /restore <name>          restore a struck idea
  /extract <field> [text]  turn a field of the current idea into a new idea
  /delete <name>           delete an idea
  /doc                     show the document
  /help                    show this help
  exit                     leave the chat`

// Run executes the chat loop for sessionID until EOF or "exit".
func (r *Runner) Run(ctx context.Context, eng *Engine, sessions *session.Orchestrator, ownerID, sessionID string) error {
	if r.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if r.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	lineReader := bufio.NewReader(r.Input)

	if !r.Headless {
		fmt.Fprintln(r.Output, "--- seee chat (type /help for commands) ---")
	}

	msg, err := sessions.Prompt(ctx, ownerID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	r.print(msg.Text)

	for {
		if !r.Headless {
			fmt.Fprint(r.Output, "> ")
		}
		text, err := lineReader.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && text != "") {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "exit" || input == "quit" {
			fmt.Fprintln(r.Output, "Bye!")
			return nil
		}
		if r.Sanitize != nil {
			if input, err = r.Sanitize(input); err != nil {
				fmt.Fprintln(r.Output, err.Error())
				continue
			}
		}

		out, err := r.dispatch(ctx, eng, sessions, ownerID, sessionID, input)
		if err != nil {
			return err
		}
		r.print(out)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (r *Runner) dispatch(ctx context.Context, eng *Engine, sessions *session.Orchestrator, ownerID, sessionID, input string) (string, error) {
	if !strings.HasPrefix(input, "/") {
		_, msg, err := sessions.Turn(ctx, ownerID, sessionID, input)
		if err != nil {
			return "", fmt.Errorf("turn failed: %w", err)
		}
		return msg.Text, nil
	}

	cmd, arg, _ := strings.Cut(strings.TrimPrefix(input, "/"), " ")
	arg = strings.TrimSpace(arg)

	var action session.Action
	switch cmd {
	case "help":
		return chatHelp, nil
	case "doc":
		s, err := sessions.Get(ctx, ownerID, sessionID)
		if err != nil {
			return "", err
		}
		doc := eng.Document(s, "")
		if doc == "" {
			doc = "The document is empty."
		}
		return doc, nil
	case "skip":
		action = eng.Skip
	case "edit":
		field, ok := domain.ParseField(arg)
		if !ok {
			return fmt.Sprintf("Unknown field %q. Fields: %s", arg, fieldList()), nil
		}
		action = func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
			return eng.EditField(ctx, s, field)
		}
	case "new":
		action = func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
			return eng.NewConcept(ctx, s, arg)
		}
	case "switch":
		action = func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
			return eng.SwitchConcept(ctx, s, arg)
		}
	case "rename":
		oldName, newName, ok := strings.Cut(arg, "=>")
		if !ok {
			return "Usage: /rename <old> => <new>", nil
		}
		action = func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
			return eng.Rename(ctx, s, strings.TrimSpace(oldName), strings.TrimSpace(newName))
		}
	case "strike", "restore":
		struck := cmd == "strike"
		action = func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
			return eng.Strikethrough(ctx, s, arg, struck)
		}
	case "extract":
		name, value, _ := strings.Cut(arg, " ")
		field, ok := domain.ParseField(name)
		if !ok {
			return fmt.Sprintf("Unknown field %q. Fields: %s", name, fieldList()), nil
		}
		action = func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
			return eng.Extract(ctx, s, s.Cursor.CurrentConcept, field, value)
		}
	case "delete":
		action = func(ctx context.Context, s *domain.Session) (*domain.Session, domain.OutboundMessage) {
			return eng.DeleteConcept(ctx, s, arg)
		}
	default:
		return fmt.Sprintf("Unknown command /%s. Type /help for commands.", cmd), nil
	}

	_, msg, err := sessions.Do(ctx, ownerID, sessionID, action)
	if err != nil {
		return "", fmt.Errorf("%s failed: %w", cmd, err)
	}
	return msg.Text, nil
}

func (r *Runner) print(text string) {
	output := text
	if r.Renderer != nil {
		if rendered, err := r.Renderer(text); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}

func fieldList() string {
	names := make([]string, len(domain.FieldOrder))
	for i, f := range domain.FieldOrder {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
