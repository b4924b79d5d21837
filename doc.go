/*
Package seee is a conversational self-analysis engine.

A user names an idea (a "concept") and the engine walks them through its
goal, parts, founder, emotional and physical consequences and a conclusion.
Parts can be decomposed into child concepts, so a session grows into a forest
of ideas that can be rendered as a markdown document.

# Concept

The Engine is a pure state machine. It never performs I/O: every call takes a
*domain.Session and returns a new session together with a
domain.OutboundMessage to render. Persistence, locking and transports live in
pkg/session and the adapters, which lets the same engine drive a terminal
chat, an HTTP server or an MCP tool.

Crisis phrases are checked before anything else. A hit returns a fixed safety
message with IsCritical set and leaves the session untouched.

# Usage

	eng, err := seee.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	s := eng.NewSession("session-123", "")
	fmt.Println(eng.Prompt(s).Text)

	s, msg := eng.Advance(ctx, s, "procrastination")
	fmt.Println(msg.Text)
*/
package seee
