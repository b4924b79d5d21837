/*
Package domain contains the core domain models for the concept dialogue.

It defines the entities the dialogue engine reads and writes. This package is
kept pure and free of I/O or persistence, following Hexagonal Architecture
principles.

# Key Entities

  - Concept: one belief decomposed into goal, parts, founder, consequences and conclusion.
  - ConceptStore: the per-session set of concepts keyed by unique name.
  - SessionCursor: the explicit dialogue position (stage and current concept).
  - Session: the persisted blob combining store and cursor.
  - OutboundMessage: the renderable result of every dialogue call.
  - Hierarchy: the display forest built from extraction back-references.
*/
package domain
