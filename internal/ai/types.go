package ai

import "encoding/json"

// ExtractionRequest asks the extractor to fill form fields from a document.
type ExtractionRequest struct {
	DocumentText string   `json:"documentText,omitempty"`
	FileURL      string   `json:"fileUrl,omitempty"`
	Fields       []string `json:"fields"`
	ProjectType  string   `json:"projectType"`
	StageKey     string   `json:"stageKey,omitempty"`
}

// Criterion is one line of an evaluation rubric.
type Criterion struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	MaxScore    float64 `json:"maxScore"`
}

type RubricRequest struct {
	ProjectType string         `json:"projectType"`
	Criteria    []Criterion    `json:"criteria"`
	Content     map[string]any `json:"content"`
}

type CriterionScore struct {
	CriterionID string  `json:"criterion_id"`
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	MaxScore    float64 `json:"max_score"`
	Feedback    string  `json:"feedback,omitempty"`
}

// RubricResult is the numeric breakdown of a rubric evaluation.
type RubricResult struct {
	Criteria []CriterionScore `json:"criteria"`
	Total    float64          `json:"total"`
	Max      float64          `json:"max"`
}

type ReportRequest struct {
	ProjectType string         `json:"projectType"`
	Kind        string         `json:"kind,omitempty"`
	StageData   map[string]any `json:"stageData"`
}

type Report struct {
	Analysis json.RawMessage `json:"analysis"`
}

// criterionCall is the payload of one evaluate-rubric invocation.
type criterionCall struct {
	ProjectType string         `json:"projectType"`
	Criterion   Criterion      `json:"criterion"`
	Content     map[string]any `json:"content"`
}

type criterionAnalysis struct {
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}
