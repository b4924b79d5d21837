package middleware

import (
	"context"
	"fmt"
	"regexp"
	"slices"

	"github.com/aretw0/seee/pkg/domain"
	"github.com/aretw0/seee/pkg/ports"
)

// Mask replaces personal values on write.
const Mask = "***"

type piiMiddleware struct {
	next   ports.SessionStore
	fields []domain.Field
}

// NewPIIMiddleware creates a middleware that masks every concept field
// whose name matches one of the patterns, e.g. "founder" or
// "^consequences\.". Masking is one way: loads return the masked values.
func NewPIIMiddleware(patterns []string) (Middleware, error) {
	var fields []domain.Field
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid mask pattern %q: %w", p, err)
		}
		for _, f := range domain.FieldOrder {
			if re.MatchString(string(f)) && !slices.Contains(fields, f) {
				fields = append(fields, f)
			}
		}
	}
	return func(next ports.SessionStore) ports.SessionStore {
		return &piiMiddleware{next: next, fields: fields}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, session *domain.Session) error {
	if len(m.fields) == 0 {
		return m.next.Save(ctx, sessionID, session)
	}
	// The caller keeps using its session after the save.
	cloned := session.Clone()
	for _, c := range cloned.Concepts {
		maskConcept(c, m.fields)
	}
	return m.next.Save(ctx, sessionID, cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func maskConcept(c *domain.Concept, fields []domain.Field) {
	for _, f := range fields {
		if c.Empty(f) {
			continue
		}
		switch f {
		case domain.FieldParts:
			c.Parts = maskItems(c.Parts)
		case domain.FieldEmotional:
			c.Consequences.Emotional = maskItems(c.Consequences.Emotional)
		case domain.FieldPhysical:
			c.Consequences.Physical = maskItems(c.Consequences.Physical)
		default:
			c.Set(f, Mask, nil)
		}
	}
	if c.PendingFounder != "" && slices.Contains(fields, domain.FieldFounder) {
		c.PendingFounder = Mask
	}
}

// maskItems keeps the item count so list lengths stay meaningful.
func maskItems(items []string) []string {
	out := make([]string, len(items))
	for i := range out {
		out[i] = Mask
	}
	return out
}
