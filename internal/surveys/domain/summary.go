package domain

import "math"

type QuestionSummary struct {
	QuestionID   string         `json:"question_id"`
	Prompt       string         `json:"prompt"`
	Kind         QuestionKind   `json:"kind"`
	Answered     int            `json:"answered"`
	OptionCounts map[string]int `json:"option_counts,omitempty"`
	Average      *float64       `json:"average,omitempty"`
}

type Summary struct {
	SurveyID  string            `json:"survey_id"`
	Responses int               `json:"responses"`
	Questions []QuestionSummary `json:"questions"`
}

// Summarize tallies responses per question. Scale averages are rounded to
// two decimals; option counts list every option, including unpicked ones.
func Summarize(s *Survey, responses []*Response) Summary {
	out := Summary{SurveyID: s.ID, Responses: len(responses), Questions: make([]QuestionSummary, 0, len(s.Questions))}

	for _, q := range s.Questions {
		qs := QuestionSummary{QuestionID: q.ID, Prompt: q.Prompt, Kind: q.Kind}
		if q.Kind.HasOptions() {
			qs.OptionCounts = make(map[string]int, len(q.Options))
			for _, o := range q.Options {
				qs.OptionCounts[o] = 0
			}
		}
		sum := 0
		for _, r := range responses {
			a, ok := answerFor(r, q.ID)
			if !ok || a.empty() {
				continue
			}
			qs.Answered++
			switch q.Kind {
			case KindSingleChoice, KindMultipleChoice:
				for _, o := range a.Options {
					if _, known := qs.OptionCounts[o]; known {
						qs.OptionCounts[o]++
					}
				}
			case KindScale:
				sum += a.Scale
			}
		}
		if q.Kind == KindScale && qs.Answered > 0 {
			avg := math.Round(float64(sum)/float64(qs.Answered)*100) / 100
			qs.Average = &avg
		}
		out.Questions = append(out.Questions, qs)
	}
	return out
}

func answerFor(r *Response, questionID string) (Answer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}
