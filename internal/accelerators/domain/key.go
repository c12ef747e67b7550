package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// StageKey is the composite key "stage{N}_accelerator{M}" used by both
// the completion map and the data map of a ProjectRecord.
type StageKey string

var stageKeyRe = regexp.MustCompile(`^stage([1-9][0-9]*)_accelerator([1-9][0-9]*)$`)

func NewStageKey(stage, accelerator int) StageKey {
	return StageKey(fmt.Sprintf("stage%d_accelerator%d", stage, accelerator))
}

func ParseStageKey(s string) (StageKey, int, int, error) {
	m := stageKeyRe.FindStringSubmatch(s)
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: %q", ErrInvalidStageKey, s)
	}
	stage, _ := strconv.Atoi(m[1])
	accelerator, _ := strconv.Atoi(m[2])
	return StageKey(s), stage, accelerator, nil
}

// Layout is the number of accelerators in each stage of the wizard, 1-indexed by stage.
type Layout []int

// DefaultLayout is shared by every project type.
var DefaultLayout = Layout{4, 4, 3}

func (l Layout) Stages() int { return len(l) }

// Check validates a (stage, accelerator) pair against the layout.
func (l Layout) Check(stage, accelerator int) error {
	if stage < 1 || stage > len(l) {
		return fmt.Errorf("%w: stage %d", ErrInvalidStage, stage)
	}
	if accelerator < 1 || accelerator > l[stage-1] {
		return fmt.Errorf("%w: stage %d accelerator %d", ErrInvalidStage, stage, accelerator)
	}
	return nil
}

// Keys lists every accelerator key in wizard order.
func (l Layout) Keys() []StageKey {
	var out []StageKey
	for s, n := range l {
		for a := 1; a <= n; a++ {
			out = append(out, NewStageKey(s+1, a))
		}
	}
	return out
}
