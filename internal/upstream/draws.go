package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"time"

	"github.com/rickgao/lotto-engine/internal/model"
)

// ErrNoData means the source has no result for the requested draw.
var ErrNoData = errors.New("no draw data")

// Source fetches one draw by number.
type Source interface {
	FetchDraw(ctx context.Context, no int) (model.Draw, error)
}

// drawResponse from GET /common.do?method=getLottoNumber&drwNo=N
type drawResponse struct {
	ReturnValue    string `json:"returnValue"`
	DrwNo          int    `json:"drwNo"`
	DrwNoDate      string `json:"drwNoDate"`
	DrwtNo1        int    `json:"drwtNo1"`
	DrwtNo2        int    `json:"drwtNo2"`
	DrwtNo3        int    `json:"drwtNo3"`
	DrwtNo4        int    `json:"drwtNo4"`
	DrwtNo5        int    `json:"drwtNo5"`
	DrwtNo6        int    `json:"drwtNo6"`
	BnusNo         int    `json:"bnusNo"`
	FirstWinamnt   int64  `json:"firstWinamnt"`
	FirstPrzwnerCo int    `json:"firstPrzwnerCo"`
	FirstAccumamnt int64  `json:"firstAccumamnt"`
	TotSellamnt    int64  `json:"totSellamnt"`
}

// FetchDraw fetches draw no from the JSON endpoint. Non-JSON bodies, a
// non-success returnValue and a mismatched draw number all yield ErrNoData.
func (c *Client) FetchDraw(ctx context.Context, no int) (model.Draw, error) {
	query := url.Values{}
	query.Set("method", "getLottoNumber")
	query.Set("drwNo", strconv.Itoa(no))

	body, _, err := c.doWithRetry(ctx, "/common.do", query)
	if err != nil {
		return model.Draw{}, fmt.Errorf("get draw %d: %w", no, err)
	}

	var resp drawResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// The site answers unknown draws and throttled clients with an HTML page.
		c.logger.Debug("non-json draw response", "draw_no", no, "bytes", len(body))
		return model.Draw{}, ErrNoData
	}
	if resp.ReturnValue != "success" || resp.DrwNo != no {
		return model.Draw{}, ErrNoData
	}

	return resp.toDraw()
}

func (r drawResponse) toDraw() (model.Draw, error) {
	date, err := time.Parse("2006-01-02", r.DrwNoDate)
	if err != nil {
		return model.Draw{}, fmt.Errorf("parse draw date %q: %w", r.DrwNoDate, err)
	}

	d := model.Draw{
		No:           r.DrwNo,
		Date:         date,
		Numbers:      [6]int{r.DrwtNo1, r.DrwtNo2, r.DrwtNo3, r.DrwtNo4, r.DrwtNo5, r.DrwtNo6},
		Bonus:        r.BnusNo,
		FirstPrize:   r.FirstWinamnt,
		FirstWinners: r.FirstPrzwnerCo,
		FirstAccum:   r.FirstAccumamnt,
		TotalSales:   r.TotSellamnt,
	}
	slices.Sort(d.Numbers[:])
	if err := d.Validate(); err != nil {
		return model.Draw{}, err
	}
	return d, nil
}
