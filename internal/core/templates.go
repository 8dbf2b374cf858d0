package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/JonMunkholm/shipbatch/internal/store"
	"github.com/google/uuid"
)

// TemplateMatchThreshold is the share of template headers a file must carry
// for the template to be suggested.
const TemplateMatchThreshold = 0.7

// MappingTemplate is a saved column mapping, keyed by normalized header so
// it applies regardless of column order.
type MappingTemplate struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Headers   []string          `json:"headers"`
	Columns   map[string]string `json:"columns"` // normalized header -> field key
	CreatedAt time.Time         `json:"createdAt"`
}

// TemplateMatch is a template suggested for a file.
type TemplateMatch struct {
	Template   MappingTemplate `json:"template"`
	MatchScore float64         `json:"matchScore"`
}

// Overrides returns the column overrides that apply t to header.
func (t MappingTemplate) Overrides(header []string) map[int]string {
	out := make(map[int]string)
	for i, h := range header {
		if key, ok := t.Columns[NormalizeHeader(h)]; ok {
			out[i] = key
		}
	}
	return out
}

// SaveTemplate stores the mapped columns of mapping under name.
func (s *Service) SaveTemplate(ctx context.Context, name string, mapping FieldMapping) (*MappingTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}

	existing, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		if strings.EqualFold(t.Name, name) {
			return nil, fmt.Errorf("%w: %q", ErrTemplateExists, name)
		}
	}

	t := MappingTemplate{
		ID:        uuid.NewString(),
		Name:      name,
		Headers:   make([]string, 0, len(mapping.Columns)),
		Columns:   make(map[string]string),
		CreatedAt: s.now(),
	}
	for _, c := range mapping.Columns {
		t.Headers = append(t.Headers, c.Header)
		if c.Key == "" {
			continue
		}
		if _, ok := s.env.Catalog.Lookup(c.Key); !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidMapping, c.Key)
		}
		t.Columns[NormalizeHeader(c.Header)] = c.Key
	}

	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	if err := s.store.Put(ctx, templatePrefix+t.ID, data); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	s.logger.Info("mapping template saved", "template_id", t.ID, "name", t.Name, "columns", len(t.Columns))
	return &t, nil
}

// GetTemplate loads a template by id.
func (s *Service) GetTemplate(ctx context.Context, id string) (*MappingTemplate, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: invalid id %q", ErrTemplateNotFound, id)
	}
	data, err := s.store.Get(ctx, templatePrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	var t MappingTemplate
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("unmarshal template: %w", err)
	}
	return &t, nil
}

// ListTemplates returns every template sorted by name.
func (s *Service) ListTemplates(ctx context.Context) ([]MappingTemplate, error) {
	keys, err := s.store.Keys(ctx, templatePrefix)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	templates := make([]MappingTemplate, 0, len(keys))
	for _, key := range keys {
		data, err := s.store.Get(ctx, key)
		if err != nil {
			continue // deleted while listing
		}
		var t MappingTemplate
		if err := json.Unmarshal(data, &t); err != nil {
			continue // skip invalid templates
		}
		templates = append(templates, t)
	}

	sort.Slice(templates, func(i, j int) bool {
		return strings.ToLower(templates[i].Name) < strings.ToLower(templates[j].Name)
	})
	return templates, nil
}

// DeleteTemplate removes a template.
func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid id %q", ErrTemplateNotFound, id)
	}
	err := s.store.Delete(ctx, templatePrefix+id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrTemplateNotFound
	}
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	s.logger.Info("mapping template deleted", "template_id", id)
	return nil
}

// MatchTemplates finds templates whose headers appear in header, best first.
func (s *Service) MatchTemplates(ctx context.Context, header []string) ([]TemplateMatch, error) {
	templates, err := s.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}

	var matches []TemplateMatch
	for _, t := range templates {
		score := matchTemplateHeaders(header, t.Headers)
		if score >= TemplateMatchThreshold {
			matches = append(matches, TemplateMatch{Template: t, MatchScore: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches, nil
}

// matchTemplateHeaders returns the share of templateHeaders found in header.
func matchTemplateHeaders(header, templateHeaders []string) float64 {
	if len(templateHeaders) == 0 {
		return 0
	}

	set := make(map[string]bool, len(header))
	for _, h := range header {
		set[NormalizeHeader(h)] = true
	}

	matched := 0
	for _, h := range templateHeaders {
		if set[NormalizeHeader(h)] {
			matched++
		}
	}
	return float64(matched) / float64(len(templateHeaders))
}
