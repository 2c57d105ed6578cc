// Package model provides the annotation example data types shared by the
// review pipeline. Items arrive as JSON written by the annotation backend;
// numeric fields are tolerated in both number and string form because the
// backend has emitted both across rounds.
package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Item is one annotated example as produced by the annotation backend,
// plus the review-side flags added during reannotation rounds.
type Item struct {
	UID                  string
	TextToAnnotate       string
	Cluster              int
	PCAX                 float64
	PCAY                 float64
	RawAnnotations       string
	Analyses             string
	Annotation           string // "-1", "0" or "1"; anything else treated as "0"
	Confidence           float64
	HasConfidence        bool // false when confidence was missing or non-numeric
	GuidelineImprovement string
	NewEdgeCase          bool
	IsReannotated        bool
}

// itemJSON mirrors the backend's wire format. Annotation and confidence are
// RawMessage because they arrive as either numbers or strings.
type itemJSON struct {
	UID                  string          `json:"uid"`
	TextToAnnotate       string          `json:"text_to_annotate"`
	Cluster              int             `json:"cluster"`
	PCAX                 float64         `json:"pca_x"`
	PCAY                 float64         `json:"pca_y"`
	RawAnnotations       string          `json:"raw_annotations"`
	Analyses             string          `json:"analyses"`
	Annotation           json.RawMessage `json:"annotation"`
	Confidence           json.RawMessage `json:"confidence"`
	GuidelineImprovement string          `json:"guideline_improvement"`
	NewEdgeCase          bool            `json:"new_edge_case"`
	IsReannotated        bool            `json:"isReannotated"`
}

// UnmarshalJSON decodes an item, normalizing string-encoded numerics.
// Malformed numeric fields degrade to their zero values rather than erroring.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw itemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	it.UID = raw.UID
	it.TextToAnnotate = raw.TextToAnnotate
	it.Cluster = raw.Cluster
	it.PCAX = raw.PCAX
	it.PCAY = raw.PCAY
	it.RawAnnotations = raw.RawAnnotations
	it.Analyses = raw.Analyses
	it.GuidelineImprovement = raw.GuidelineImprovement
	it.NewEdgeCase = raw.NewEdgeCase
	it.IsReannotated = raw.IsReannotated

	it.Annotation = rawToString(raw.Annotation)
	it.Confidence, it.HasConfidence = ParseConfidence(rawToString(raw.Confidence))
	return nil
}

// MarshalJSON encodes an item in the backend's wire format.
func (it Item) MarshalJSON() ([]byte, error) {
	raw := itemJSON{
		UID:                  it.UID,
		TextToAnnotate:       it.TextToAnnotate,
		Cluster:              it.Cluster,
		PCAX:                 it.PCAX,
		PCAY:                 it.PCAY,
		RawAnnotations:       it.RawAnnotations,
		Analyses:             it.Analyses,
		GuidelineImprovement: it.GuidelineImprovement,
		NewEdgeCase:          it.NewEdgeCase,
		IsReannotated:        it.IsReannotated,
	}

	ann, err := json.Marshal(it.Class())
	if err != nil {
		return nil, err
	}
	raw.Annotation = ann

	if it.HasConfidence {
		conf, err := json.Marshal(it.Confidence)
		if err != nil {
			return nil, err
		}
		raw.Confidence = conf
	}

	return json.Marshal(raw)
}

// rawToString unwraps a RawMessage that may hold a JSON string or a bare value.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// ParseConfidence parses a confidence value that may be string-encoded.
// Returns (0, false) for missing, non-numeric or non-finite input.
func ParseConfidence(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ConfidenceInRange reports whether the item's confidence is usable for
// statistics: numeric and within [0, 100]. Sorting uses the raw value;
// statistics exclude out-of-range scores instead of zeroing them.
func (it Item) ConfidenceInRange() bool {
	return it.HasConfidence && it.Confidence >= 0 && it.Confidence <= 100
}

// Class returns the three-way classification: -1 unclear, 0 negative,
// 1 positive. Any annotation other than -1/1 (including missing) maps to 0.
func (it Item) Class() int {
	switch strings.TrimSpace(it.Annotation) {
	case "-1":
		return -1
	case "1":
		return 1
	default:
		return 0
	}
}
