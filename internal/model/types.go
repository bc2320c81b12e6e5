package model

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Pool bounds.
const (
	MinNumber = 1
	MaxNumber = 45
	PickSize  = 6

	// HighThreshold splits the pool: numbers above it count as "high".
	HighThreshold = 30
)

// Windows lists the supported window sizes.
var Windows = []int{20, 50, 100}

// DefaultWindow is used when a request does not name one.
const DefaultWindow = 50

// ValidWindow reports whether w is a supported window size.
func ValidWindow(w int) bool {
	return slices.Contains(Windows, w)
}

// FullPool returns a fresh slice holding every number in [MinNumber, MaxNumber].
func FullPool() []int {
	pool := make([]int, 0, MaxNumber)
	for n := MinNumber; n <= MaxNumber; n++ {
		pool = append(pool, n)
	}
	return pool
}

// -----------------------------------------------------------------------------
// Historical data
// -----------------------------------------------------------------------------

// Draw is one historical lottery result.
type Draw struct {
	No      int       `json:"drawNo"`  // Primary key, strictly increasing
	Date    time.Time `json:"date"`    // Draw date
	Numbers [6]int    `json:"numbers"` // Winning numbers, sorted ascending
	Bonus   int       `json:"bonus"`

	// Prize fields (optional, 0 when unknown)
	FirstPrize   int64 `json:"firstPrize,omitempty"`   // Payout per first-prize winner
	FirstWinners int   `json:"firstWinners,omitempty"` // Number of first-prize winners
	FirstAccum   int64 `json:"firstAccum,omitempty"`   // Total first-prize payout
	TotalSales   int64 `json:"totalSales,omitempty"`
}

// ErrInvalidDraw is returned by Draw.Validate.
var ErrInvalidDraw = errors.New("invalid draw")

// Validate checks draw invariants: positive number, six distinct sorted
// numbers in range and a bonus in range that is not one of the six.
func (d Draw) Validate() error {
	if d.No < 1 {
		return fmt.Errorf("%w: draw number %d", ErrInvalidDraw, d.No)
	}
	for i, n := range d.Numbers {
		if n < MinNumber || n > MaxNumber {
			return fmt.Errorf("%w: draw %d number %d out of range", ErrInvalidDraw, d.No, n)
		}
		if i > 0 && d.Numbers[i-1] >= n {
			return fmt.Errorf("%w: draw %d numbers not sorted/distinct", ErrInvalidDraw, d.No)
		}
	}
	if d.Bonus < MinNumber || d.Bonus > MaxNumber {
		return fmt.Errorf("%w: draw %d bonus %d out of range", ErrInvalidDraw, d.No, d.Bonus)
	}
	if slices.Contains(d.Numbers[:], d.Bonus) {
		return fmt.Errorf("%w: draw %d bonus repeats a main number", ErrInvalidDraw, d.No)
	}
	return nil
}

// NumberMetric is the per-window statistic of a single number.
type NumberMetric struct {
	Window         int // Window size the metric was derived from
	Number         int // Number in [1,45]
	Frequency      int // Appearances within the window
	Overdue        int // Draws elapsed since last appearance (sample size if unseen)
	LastSeenDrawNo int // 0 if not seen within the window
}

// PatternStats holds aggregate shape descriptors of the last Window draws.
type PatternStats struct {
	Window int `json:"window"`

	MinSum int     `json:"minSum"`
	MaxSum int     `json:"maxSum"`
	AvgSum float64 `json:"avgSum"`

	MinOdd int     `json:"minOdd"`
	MaxOdd int     `json:"maxOdd"`
	AvgOdd float64 `json:"avgOdd"`

	MinHigh int     `json:"minHigh"`
	MaxHigh int     `json:"maxHigh"`
	AvgHigh float64 `json:"avgHigh"`

	// ConsecutiveRatio is the share of draws holding at least one consecutive pair.
	ConsecutiveRatio float64 `json:"consecutiveRatio"`

	SampleSize int `json:"sampleSize"` // Draws the stats were computed from, 0 for defaults
	AsOfDrawNo int `json:"asOfDrawNo"` // Latest draw number included, 0 for defaults
}

// DefaultPatternStats is used when no historical data exists.
func DefaultPatternStats(window int) PatternStats {
	return PatternStats{
		Window:           window,
		MinSum:           100,
		MaxSum:           200,
		AvgSum:           150,
		MinOdd:           2,
		MaxOdd:           4,
		AvgOdd:           3,
		MinHigh:          2,
		MaxHigh:          4,
		AvgHigh:          3,
		ConsecutiveRatio: 0.5,
	}
}

// IsDefault reports whether the stats were not derived from stored draws.
func (p PatternStats) IsDefault() bool {
	return p.SampleSize == 0
}

// -----------------------------------------------------------------------------
// Requests and results
// -----------------------------------------------------------------------------

// Constraints narrow a generation request. Unset bounds are open.
type Constraints struct {
	Include []int `json:"include,omitempty"`
	Exclude []int `json:"exclude,omitempty"`

	OddMin *int `json:"oddMin,omitempty"`
	OddMax *int `json:"oddMax,omitempty"`
	SumMin *int `json:"sumMin,omitempty"`
	SumMax *int `json:"sumMax,omitempty"`

	// SimilarityThreshold in [0,1]; 0 disables the similarity filter.
	SimilarityThreshold float64 `json:"similarityThreshold,omitempty"`
}

// Clone returns a deep copy so snapshots do not alias request slices.
func (c Constraints) Clone() Constraints {
	out := c
	out.Include = slices.Clone(c.Include)
	out.Exclude = slices.Clone(c.Exclude)
	out.OddMin = cloneInt(c.OddMin)
	out.OddMax = cloneInt(c.OddMax)
	out.SumMin = cloneInt(c.SumMin)
	out.SumMax = cloneInt(c.SumMax)
	return out
}

// OddRange returns the requested odd-count bounds, open ends filled with 0 and 6.
func (c Constraints) OddRange() (lo, hi int) {
	return valueOr(c.OddMin, 0), valueOr(c.OddMax, PickSize)
}

// SumRange returns the requested sum bounds, open ends filled with the
// smallest and largest possible sums of six numbers.
func (c Constraints) SumRange() (lo, hi int) {
	return valueOr(c.SumMin, 21), valueOr(c.SumMax, 255)
}

// GeneratedSet is one recommended combination.
type GeneratedSet struct {
	ID          string      `json:"id,omitempty"` // uuid once persisted
	Index       int         `json:"index"`
	Numbers     [6]int      `json:"numbers"`
	Tags        []string    `json:"tags"`
	Strategy    StrategyID  `json:"strategy"`
	Constraints Constraints `json:"constraints"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// SyncState guards at-most-one concurrent synchronization.
type SyncState struct {
	AsOfDrawNo       int       `json:"asOfDrawNo"`
	Refreshing       bool      `json:"refreshing"`
	RefreshStartedAt time.Time `json:"refreshStartedAt"`
	LockUntil        time.Time `json:"lockUntil"`
	LastError        string    `json:"lastError,omitempty"`
	LastSyncedAt     time.Time `json:"lastSyncedAt"`
	Owner            string    `json:"owner,omitempty"` // lease holder id
}

// LeaseHeld reports whether another sweep holds a live lease at now.
func (s SyncState) LeaseHeld(now time.Time) bool {
	return s.Refreshing && now.Before(s.LockUntil)
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func valueOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
