// Package matcher produces the initial entity and field mapping set from a
// discovered catalog. Later stages refine the set in place; the matcher is
// the only component that creates mappings outside the refinement engine's
// required-field backfill.
package matcher

import (
	"strings"

	"go.uber.org/zap"

	"schemabridge/internal/mapping"
	"schemabridge/internal/reasoning"
	"schemabridge/internal/schema"
	"schemabridge/internal/similarity"
)

// Field-pair scoring weights and the single explicit "do not map" threshold
// in the engine: pairs scoring below MinFieldScore produce no mapping.
const (
	fieldNameWeight = 0.65
	fieldTypeWeight = 0.35
	MinFieldScore   = 0.35

	// Entity confidence is always the heuristic floor-lifted score. The
	// blend weights apply at field granularity only, when ApplySuggestions
	// folds a provider confidence into a rescored pair.
	entityHeuristicWeight = 0.75
	entityHeuristicLift   = 0.25
	blendHeuristicWeight  = 0.6
	blendAIWeight         = 0.4
)

// Matcher pairs source entities/fields to target candidates.
type Matcher struct {
	catalog *schema.Catalog
	logger  *zap.Logger
}

// New creates a matcher over a per-run catalog snapshot.
func New(catalog *schema.Catalog, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{catalog: catalog, logger: logger}
}

func entityName(e *schema.Entity) string { return e.Name + " " + e.Label }

// MatchEntities pairs every source entity with its best-scoring target.
// There is no "no match" outcome at entity granularity: the best candidate
// is always returned, a poor one just carries uniformly low confidence.
func (m *Matcher) MatchEntities(sources, targets []schema.Entity) []mapping.EntityMapping {
	var out []mapping.EntityMapping
	if len(targets) == 0 {
		return out
	}
	for i := range sources {
		src := &sources[i]
		best := &targets[0]
		bestScore := similarity.NameSimilarity(entityName(src), entityName(best))
		for j := 1; j < len(targets); j++ {
			tgt := &targets[j]
			if score := similarity.NameSimilarity(entityName(src), entityName(tgt)); score > bestScore {
				bestScore = score
				best = tgt
			}
		}
		em := mapping.EntityMapping{
			ID:             mapping.NewID(),
			SourceEntityID: src.ID,
			TargetEntityID: best.ID,
			Confidence:     similarity.Clamp(entityHeuristicWeight*bestScore + entityHeuristicLift),
			Rationale:      "best name/label similarity among target entities",
		}
		m.logger.Debug("entity matched",
			zap.String("source", src.Name),
			zap.String("target", best.Name),
			zap.Float64("score", bestScore))
		out = append(out, em)
	}
	return out
}

// FieldScore is the weighted joint name/type score for a candidate pair.
func FieldScore(src, tgt *schema.Field) float64 {
	name := similarity.NameSimilarity(src.DisplayName(), tgt.DisplayName())
	typ := similarity.TypeCompatibilityScore(src.Type, tgt.Type)
	return fieldNameWeight*name + fieldTypeWeight*typ
}

// MatchFields scores every source field of a matched entity pair against
// every target field, keeps the best candidate, and drops pairs scoring
// below MinFieldScore entirely.
func (m *Matcher) MatchFields(em *mapping.EntityMapping) []mapping.FieldMapping {
	sources := m.catalog.EntityFields(em.SourceEntityID)
	targets := m.catalog.EntityFields(em.TargetEntityID)

	var out []mapping.FieldMapping
	for _, src := range sources {
		var best *schema.Field
		bestScore := 0.0
		for _, tgt := range targets {
			if score := FieldScore(src, tgt); score > bestScore {
				bestScore = score
				best = tgt
			}
		}
		if best == nil || bestScore < MinFieldScore {
			m.logger.Debug("field unmapped",
				zap.String("source", src.Name),
				zap.Float64("best_score", bestScore))
			continue
		}
		out = append(out, mapping.FieldMapping{
			ID:              mapping.NewID(),
			EntityMappingID: em.ID,
			SourceFieldID:   src.ID,
			TargetFieldID:   best.ID,
			Confidence:      similarity.Clamp(bestScore),
			Rationale:       "weighted name similarity and type compatibility",
			Status:          mapping.StatusSuggested,
			Transform:       InferTransform(src, best),
		})
	}
	return out
}

// ApplySuggestions overrides heuristic field mappings with provider
// suggestions that name a valid target field on the mapped entity.
// Confidence becomes the blend of the heuristic score against the suggested
// target and the provider's confidence.
func (m *Matcher) ApplySuggestions(em *mapping.EntityMapping, fms []mapping.FieldMapping, sugg *reasoning.Suggestions) int {
	if sugg == nil || len(sugg.Fields) == 0 {
		return 0
	}
	targetsByName := make(map[string]*schema.Field)
	for _, tgt := range m.catalog.EntityFields(em.TargetEntityID) {
		targetsByName[strings.ToLower(tgt.Name)] = tgt
	}

	applied := 0
	for _, s := range sugg.Fields {
		tgt, ok := targetsByName[strings.ToLower(s.TargetFieldName)]
		if !ok {
			continue // suggestion names an unknown field; defensive skip
		}
		src := m.catalog.Field(s.SourceFieldID)
		if src == nil {
			continue
		}
		for i := range fms {
			fm := &fms[i]
			if fm.SourceFieldID != s.SourceFieldID {
				continue
			}
			fm.TargetFieldID = tgt.ID
			fm.Confidence = similarity.Clamp(blendHeuristicWeight*FieldScore(src, tgt) + blendAIWeight*s.Confidence)
			fm.Transform = InferTransform(src, tgt)
			if kind := suggestedTransform(s.Transform); kind != "" {
				fm.Transform = mapping.Transform{Kind: kind}
			}
			if s.Rationale != "" {
				fm.Rationale = s.Rationale
			}
			applied++
			break
		}
	}
	if applied > 0 {
		m.logger.Debug("provider suggestions applied", zap.Int("count", applied))
	}
	return applied
}

func suggestedTransform(s string) mapping.TransformKind {
	switch mapping.TransformKind(s) {
	case mapping.TransformDirect, mapping.TransformConcat, mapping.TransformFormatDate,
		mapping.TransformLookup, mapping.TransformStatic, mapping.TransformRegex,
		mapping.TransformSplit, mapping.TransformTrim:
		return mapping.TransformKind(s)
	}
	return ""
}

// InferTransform picks the data-shaping operation for a field pair.
func InferTransform(src, tgt *schema.Field) mapping.Transform {
	switch {
	case isNumberedNamePart(src.Name) && isNameLike(tgt.Name):
		return mapping.Transform{Kind: mapping.TransformConcat, Config: map[string]string{"separator": " "}}
	case tgt.Type == schema.TypeDate || tgt.Type == schema.TypeDateTime:
		return mapping.Transform{Kind: mapping.TransformFormatDate, Config: map[string]string{"format": "ISO8601"}}
	case tgt.Type == schema.TypePicklist || tgt.Type == schema.TypeMultiPicklist:
		return mapping.Transform{Kind: mapping.TransformLookup}
	case isStringLike(src.Type) && isStringLike(tgt.Type):
		return mapping.Transform{Kind: mapping.TransformTrim}
	default:
		return mapping.Transform{Kind: mapping.TransformDirect}
	}
}

// isNumberedNamePart matches Name1/Name2-style split name columns (SAP's
// NAME1..NAME4 pattern).
func isNumberedNamePart(name string) bool {
	tokens := similarity.Tokenize(name)
	hasName := false
	hasOrdinal := false
	for _, t := range tokens {
		if t == "name" {
			hasName = true
		}
		if len(t) == 1 && t[0] >= '1' && t[0] <= '9' {
			hasOrdinal = true
		}
	}
	return hasName && hasOrdinal
}

func isNameLike(name string) bool {
	for _, t := range similarity.Tokenize(name) {
		if t == "name" {
			return true
		}
	}
	return false
}

func isStringLike(t schema.DataType) bool {
	switch t {
	case schema.TypeString, schema.TypeText, schema.TypeTextArea:
		return true
	}
	return false
}
