// Package paginate sizes connection pages adaptively from the server's
// cost accounting and applies backpressure when the budget runs low.
package paginate

import (
	"math"
	"time"

	"github.com/dbsmedya/shopsync/internal/gql"
	"github.com/dbsmedya/shopsync/internal/logger"
)

const (
	// MaxPageSize is the server's hard cap on connection page size.
	MaxPageSize = 250
	// SingleQueryCostCap is the maximum cost a single query may request.
	SingleQueryCostCap = 1000
	// DefaultCeiling is assumed until the server reports its budget.
	DefaultCeiling = 10000
)

// Page is the next page request: size plus continuation cursor.
type Page struct {
	First int
	After string
}

// Paginator holds the local view of the credential's cost budget for one
// entity sync. The budget is shared across the credential server-side;
// this view can be stale, so the reserve stays conservative.
type Paginator struct {
	queryName   string
	log         *logger.Logger
	pageSize    int
	queryCost   float64
	available   float64
	restoreRate float64
	ceiling     float64
	cursor      string

	sleep func(time.Duration)
}

// New creates a Paginator for one entity's connection field.
func New(queryName string, log *logger.Logger) *Paginator {
	if log == nil {
		log = logger.NewDefault()
	}
	return &Paginator{
		queryName: queryName,
		log:       log,
		ceiling:   DefaultCeiling,
		sleep:     time.Sleep,
	}
}

// Next computes the next page request from the previous response. Pass
// nil for the first request. The second return value is false when
// pagination has ended: no next page, or a response with top-level errors,
// which ends pagination silently. Next blocks while the budget recovers.
func (p *Paginator) Next(last *gql.Response) (Page, bool) {
	if last != nil && !p.observe(last) {
		return Page{}, false
	}
	return Page{First: p.nextPageSize(), After: p.cursor}, true
}

// observe folds one response into the pagination state. Returns false
// when the response terminates pagination.
func (p *Paginator) observe(resp *gql.Response) bool {
	if resp.HasErrors() {
		return false
	}

	if resp.Extensions != nil && resp.Extensions.Cost != nil {
		cost := resp.Extensions.Cost
		p.queryCost = cost.RequestedQueryCost
		p.available = cost.ThrottleStatus.CurrentlyAvailable
		p.restoreRate = cost.ThrottleStatus.RestoreRate
		if cost.ThrottleStatus.MaximumAvailable > 0 {
			p.ceiling = cost.ThrottleStatus.MaximumAvailable
		}
	}

	pageInfo := "data." + p.queryName + ".pageInfo."
	if !resp.Get(pageInfo + "hasNextPage").Bool() {
		return false
	}
	p.cursor = resp.Get(pageInfo + "endCursor").String()
	return true
}

// nextPageSize sizes the next page so one query spends at most the
// single-query cost cap. With no cost data yet it requests one record.
// When the available budget drops below the reserve it sleeps until the
// restore rate has refilled the difference.
func (p *Paginator) nextPageSize() int {
	if p.queryCost == 0 || p.available == 0 || p.pageSize == 0 {
		p.pageSize = 1
		return 1
	}

	// Keep 1/4 of the ceiling, or two max-cost queries, whichever is larger.
	reserve := math.Max(p.ceiling/4, 2*SingleQueryCostCap)
	if p.available < reserve && p.restoreRate > 0 {
		secs := math.Ceil((reserve - p.available) / p.restoreRate)
		p.log.Infow("Waiting for cost budget to restore",
			"seconds", secs,
			"available", p.available,
			"reserve", reserve,
		)
		p.sleep(time.Duration(secs) * time.Second)
	}

	perRecord := p.queryCost / float64(p.pageSize)
	next := int(SingleQueryCostCap / perRecord)
	if next > MaxPageSize {
		next = MaxPageSize
	}
	if next < 1 {
		next = 1
	}
	p.pageSize = next

	p.log.Debugw("Computed next page size",
		"page_size", next,
		"per_record_cost", perRecord,
	)

	return next
}
