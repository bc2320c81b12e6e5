package server

import (
	"errors"
	"fmt"
	"slices"

	"github.com/rickgao/lotto-engine/internal/model"
)

const maxUserIDLen = 64

// recommendRequest is the body of POST /api/v1/recommendations.
type recommendRequest struct {
	Strategy    string             `json:"strategy"`
	Count       int                `json:"count"`
	WindowSize  int                `json:"windowSize"`
	UserID      string             `json:"userId"`
	Constraints *model.Constraints `json:"constraints"`
}

// normalize fills defaults and rejects malformed requests.
func (req *recommendRequest) normalize(defaultCount, maxCount, defaultWindow int) error {
	if req.Strategy == "" {
		return errors.New("strategy is required")
	}
	if !model.StrategyID(req.Strategy).Valid() {
		return fmt.Errorf("unknown strategy %q", req.Strategy)
	}

	if req.Count == 0 {
		req.Count = defaultCount
	}
	if req.Count < 1 || req.Count > maxCount {
		return fmt.Errorf("count must be between 1 and %d", maxCount)
	}

	if req.WindowSize == 0 {
		req.WindowSize = defaultWindow
	}
	if !model.ValidWindow(req.WindowSize) {
		return fmt.Errorf("windowSize must be one of %v", model.Windows)
	}

	if len(req.UserID) > maxUserIDLen {
		return fmt.Errorf("userId longer than %d characters", maxUserIDLen)
	}

	if req.Constraints == nil {
		req.Constraints = &model.Constraints{}
	}
	return validateConstraints(*req.Constraints)
}

func validateConstraints(c model.Constraints) error {
	if err := validateNumbers("include", c.Include); err != nil {
		return err
	}
	if err := validateNumbers("exclude", c.Exclude); err != nil {
		return err
	}
	if len(c.Include) > model.PickSize {
		return fmt.Errorf("include holds more than %d numbers", model.PickSize)
	}
	for _, n := range c.Include {
		if slices.Contains(c.Exclude, n) {
			return fmt.Errorf("number %d is both included and excluded", n)
		}
	}

	if err := validateBounds("odd", c.OddMin, c.OddMax, 0, model.PickSize); err != nil {
		return err
	}
	if err := validateBounds("sum", c.SumMin, c.SumMax, 21, 255); err != nil {
		return err
	}

	if c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1 {
		return errors.New("similarityThreshold must be within [0,1]")
	}
	return nil
}

func validateNumbers(field string, nums []int) error {
	seen := make(map[int]bool, len(nums))
	for _, n := range nums {
		if n < model.MinNumber || n > model.MaxNumber {
			return fmt.Errorf("%s: number %d out of range", field, n)
		}
		if seen[n] {
			return fmt.Errorf("%s: number %d repeated", field, n)
		}
		seen[n] = true
	}
	return nil
}

func validateBounds(field string, lo, hi *int, floor, ceil int) error {
	if lo != nil && (*lo < floor || *lo > ceil) {
		return fmt.Errorf("%sMin must be within [%d,%d]", field, floor, ceil)
	}
	if hi != nil && (*hi < floor || *hi > ceil) {
		return fmt.Errorf("%sMax must be within [%d,%d]", field, floor, ceil)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return fmt.Errorf("%sMin exceeds %sMax", field, field)
	}
	return nil
}
