package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoFields   = errors.New("at least one field is required")
	ErrNoSource   = errors.New("documentText or fileUrl is required")
	ErrNoCriteria = errors.New("at least one criterion is required")
	ErrBadMax     = errors.New("criterion maxScore must be positive")
)

// maxConcurrentCriteria bounds the rubric fan-out.
const maxConcurrentCriteria = 4

// ExtractFields runs extract-document-fields and returns the extracted map.
func (c *Client) ExtractFields(ctx context.Context, req ExtractionRequest) (map[string]any, error) {
	if len(req.Fields) == 0 {
		return nil, ErrNoFields
	}
	if req.DocumentText == "" && req.FileURL == "" {
		return nil, ErrNoSource
	}

	resp, err := c.Invoke(ctx, FunctionExtractFields, req)
	if err != nil {
		return nil, err
	}
	if resp.ExtractedData == nil {
		return map[string]any{}, nil
	}
	return resp.ExtractedData, nil
}

// EvaluateRubric scores every criterion with its own evaluate-rubric call.
// Any failed call fails the whole evaluation.
func (c *Client) EvaluateRubric(ctx context.Context, req RubricRequest) (*RubricResult, error) {
	if len(req.Criteria) == 0 {
		return nil, ErrNoCriteria
	}
	for _, cr := range req.Criteria {
		if cr.MaxScore <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrBadMax, cr.ID)
		}
	}

	scores := make([]CriterionScore, len(req.Criteria))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentCriteria)

	for i, cr := range req.Criteria {
		g.Go(func() error {
			resp, err := c.Invoke(gctx, FunctionEvaluateRubric, criterionCall{
				ProjectType: req.ProjectType,
				Criterion:   cr,
				Content:     req.Content,
			})
			if err != nil {
				return err
			}
			var a criterionAnalysis
			if err := json.Unmarshal(resp.Analysis, &a); err != nil {
				return fmt.Errorf("criterion %s: invalid analysis: %w", cr.ID, err)
			}
			scores[i] = CriterionScore{
				CriterionID: cr.ID,
				Name:        cr.Name,
				Score:       clampScore(a.Score, cr.MaxScore),
				MaxScore:    cr.MaxScore,
				Feedback:    a.Feedback,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &RubricResult{Criteria: scores}
	for _, s := range scores {
		out.Total += s.Score
		out.Max += s.MaxScore
	}
	return out, nil
}

// GenerateReport runs generate-report under the configured wall-clock timeout.
func (c *Client) GenerateReport(ctx context.Context, req ReportRequest) (*Report, error) {
	ctx, cancel := context.WithTimeout(ctx, c.reportTimeout)
	defer cancel()

	resp, err := c.Invoke(ctx, FunctionGenerateReport, req)
	if err != nil {
		return nil, err
	}
	return &Report{Analysis: resp.Analysis}, nil
}

func clampScore(score, limit float64) float64 {
	if score < 0 {
		return 0
	}
	if score > limit {
		return limit
	}
	return score
}
