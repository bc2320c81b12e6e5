package upstream

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/rickgao/lotto-engine/internal/model"
)

// PageClient scrapes the HTML result page. Prize fields stay zero.
type PageClient struct {
	*Client
}

// NewPageClient creates a page scraper over baseURL.
func NewPageClient(baseURL string, opts ...ClientOption) *PageClient {
	return &PageClient{Client: NewClient(baseURL, opts...)}
}

var (
	roundPattern = regexp.MustCompile(`(\d+)\s*회`)
	datePattern  = regexp.MustCompile(`(\d{4})년\s*(\d{1,2})월\s*(\d{1,2})일`)
)

// FetchDraw fetches draw no from /gameResult.do?method=byWin.
func (p *PageClient) FetchDraw(ctx context.Context, no int) (model.Draw, error) {
	query := url.Values{}
	query.Set("method", "byWin")
	query.Set("drwNo", strconv.Itoa(no))

	body, _, err := p.doWithRetry(ctx, "/gameResult.do", query)
	if err != nil {
		return model.Draw{}, fmt.Errorf("get result page %d: %w", no, err)
	}
	return parseResultPage(body, no)
}

// parseResultPage extracts a draw from the win_result block:
//
//	<div class="win_result">
//	  <h4><strong>1135회</strong> 당첨결과</h4>
//	  <p class="desc">(2024년 08월 31일 추첨)</p>
//	  <div class="num win"><p><span>1</span>...</p></div>
//	  <div class="num bonus"><p><span>7</span></p></div>
//	</div>
func parseResultPage(body []byte, no int) (model.Draw, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return model.Draw{}, ErrNoData
	}

	result := find(doc, func(n *html.Node) bool { return hasClass(n, "win_result") })
	if result == nil {
		return model.Draw{}, ErrNoData
	}

	heading := find(result, func(n *html.Node) bool { return n.Type == html.ElementNode && n.Data == "h4" })
	if heading == nil {
		return model.Draw{}, ErrNoData
	}
	m := roundPattern.FindStringSubmatch(text(heading))
	if m == nil || m[1] != strconv.Itoa(no) {
		return model.Draw{}, ErrNoData
	}

	var d model.Draw
	d.No = no

	desc := find(result, func(n *html.Node) bool { return hasClass(n, "desc") })
	if desc == nil {
		return model.Draw{}, ErrNoData
	}
	dm := datePattern.FindStringSubmatch(text(desc))
	if dm == nil {
		return model.Draw{}, ErrNoData
	}
	year, _ := strconv.Atoi(dm[1])
	month, _ := strconv.Atoi(dm[2])
	day, _ := strconv.Atoi(dm[3])
	d.Date = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	win := find(result, func(n *html.Node) bool { return hasClass(n, "win") })
	bonus := find(result, func(n *html.Node) bool { return hasClass(n, "bonus") })
	if win == nil || bonus == nil {
		return model.Draw{}, ErrNoData
	}

	nums, err := spanNumbers(win)
	if err != nil || len(nums) != model.PickSize {
		return model.Draw{}, fmt.Errorf("draw %d: expected 6 numbers, got %v", no, nums)
	}
	copy(d.Numbers[:], nums)
	slices.Sort(d.Numbers[:])

	bonusNums, err := spanNumbers(bonus)
	if err != nil || len(bonusNums) != 1 {
		return model.Draw{}, fmt.Errorf("draw %d: expected 1 bonus number, got %v", no, bonusNums)
	}
	d.Bonus = bonusNums[0]

	if err := d.Validate(); err != nil {
		return model.Draw{}, err
	}
	return d, nil
}

// find returns the first node in depth-first order matching match.
func find(n *html.Node, match func(*html.Node) bool) *html.Node {
	if match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := find(c, match); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" && slices.Contains(strings.Fields(a.Val), class) {
			return true
		}
	}
	return false
}

// text concatenates all text below n.
func text(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// spanNumbers parses the integer text of every span below n.
func spanNumbers(n *html.Node) ([]int, error) {
	var out []int
	var walk func(*html.Node) error
	walk = func(n *html.Node) error {
		if n.Type == html.ElementNode && n.Data == "span" {
			v, err := strconv.Atoi(strings.TrimSpace(text(n)))
			if err != nil {
				return err
			}
			out = append(out, v)
			return nil
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if err := walk(c); err != nil {
				return err
			}
		}
		return nil
	}
	err := walk(n)
	return out, err
}
