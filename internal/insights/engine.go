package insights

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Default fetch sizes, matching the tool-surface contract.
const (
	DefaultMaxResults      = 20
	DefaultMissedDaysBack  = 7
	DefaultMissedThreshold = 7
	DefaultSummaryDaysBack = 30

	// highImportanceThreshold marks a message as "high importance" in
	// the weekly insight counts.
	highImportanceThreshold = 7

	// weeklyWindowDays is the fixed window of WeeklyInsights.
	weeklyWindowDays = 7

	// missedFetchLimit and summaryFetchLimit bound how many messages a
	// single aggregation pulls from the provider.
	missedFetchLimit  = 50
	summaryFetchLimit = 100
)

// Fetcher is the mail-provider boundary. The query string uses the
// provider's native search syntax; the engine only constructs
// "is:unread" and "newer_than:Nd" clauses itself and otherwise
// forwards queries verbatim.
//
// maxResults caps the number of messages requested from the provider,
// not a post-filter: implementations may return fewer.
type Fetcher interface {
	FetchMessages(ctx context.Context, query string, maxResults int64) ([]Message, error)
}

// Engine answers the five insight queries. It holds no state between
// calls beyond its collaborators; every operation is a single
// fetch/aggregate/respond cycle over freshly fetched data.
type Engine struct {
	fetcher Fetcher
	scorer  *Scorer
	now     func() time.Time
}

// NewEngine builds an Engine over the given provider client and
// scoring policy.
func NewEngine(fetcher Fetcher, scorer *Scorer) *Engine {
	return &Engine{
		fetcher: fetcher,
		scorer:  scorer,
		now:     time.Now,
	}
}

// WithClock replaces the engine's time source. Used by tests and by the
// CLI to pin the weekly window.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// UnreadMessages fetches up to maxResults unread messages and returns
// them scored, ordered by descending score, ties broken by descending
// receive time.
func (e *Engine) UnreadMessages(ctx context.Context, maxResults int64) ([]ScoredMessage, error) {
	if maxResults < 1 {
		return nil, fmt.Errorf("%w: maxResults must be >= 1, got %d", ErrInvalidParameter, maxResults)
	}
	msgs, err := e.fetcher.FetchMessages(ctx, "is:unread", maxResults)
	if err != nil {
		return nil, err
	}
	scored := e.scoreAll(msgs)
	sortByImportance(scored)
	return scored, nil
}

// ImportantMissed fetches unread messages newer than daysBack days and
// returns those scoring at least threshold, ordered by descending score
// then descending receive time. An empty result is not an error.
func (e *Engine) ImportantMissed(ctx context.Context, daysBack, threshold int) ([]ScoredMessage, error) {
	if daysBack < 0 {
		return nil, fmt.Errorf("%w: daysBack must be >= 0, got %d", ErrInvalidParameter, daysBack)
	}
	if threshold < MinScore || threshold > MaxScore {
		return nil, fmt.Errorf("%w: importanceThreshold must be in [%d,%d], got %d",
			ErrInvalidParameter, MinScore, MaxScore, threshold)
	}

	query := "is:unread " + newerThanClause(daysBack)
	msgs, err := e.fetcher.FetchMessages(ctx, query, missedFetchLimit)
	if err != nil {
		return nil, err
	}

	matched := make([]ScoredMessage, 0, len(msgs))
	for _, m := range msgs {
		sm := ScoredMessage{Message: m, Score: e.scorer.Score(m)}
		if sm.IsUnread && sm.Score >= threshold {
			matched = append(matched, sm)
		}
	}
	sortByImportance(matched)
	return matched, nil
}

// SenderSummaries aggregates all messages (read and unread) newer than
// daysBack days per sender address, ordered by descending total count,
// ties broken by sender address ascending for determinism.
func (e *Engine) SenderSummaries(ctx context.Context, daysBack int) ([]SenderSummary, error) {
	if daysBack < 0 {
		return nil, fmt.Errorf("%w: daysBack must be >= 0, got %d", ErrInvalidParameter, daysBack)
	}

	msgs, err := e.fetcher.FetchMessages(ctx, newerThanClause(daysBack), summaryFetchLimit)
	if err != nil {
		return nil, err
	}

	type acc struct {
		total      int
		unread     int
		scoreSum   int
		latestDate time.Time
	}
	bySender := make(map[string]*acc)
	for _, m := range msgs {
		a := bySender[m.Sender]
		if a == nil {
			a = &acc{}
			bySender[m.Sender] = a
		}
		a.total++
		if m.IsUnread {
			a.unread++
		}
		a.scoreSum += e.scorer.Score(m)
		if m.ReceivedAt.After(a.latestDate) {
			a.latestDate = m.ReceivedAt
		}
	}

	summaries := make([]SenderSummary, 0, len(bySender))
	for sender, a := range bySender {
		summaries = append(summaries, SenderSummary{
			Sender:            sender,
			TotalCount:        a.total,
			UnreadCount:       a.unread,
			AverageImportance: float64(a.scoreSum) / float64(a.total),
			LatestDate:        a.latestDate,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalCount != summaries[j].TotalCount {
			return summaries[i].TotalCount > summaries[j].TotalCount
		}
		return summaries[i].Sender < summaries[j].Sender
	})
	return summaries, nil
}

// Search forwards query verbatim to the provider and returns scored
// results ordered by descending score then descending receive time.
func (e *Engine) Search(ctx context.Context, query string, maxResults int64) ([]ScoredMessage, error) {
	if maxResults < 1 {
		return nil, fmt.Errorf("%w: maxResults must be >= 1, got %d", ErrInvalidParameter, maxResults)
	}
	msgs, err := e.fetcher.FetchMessages(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	scored := e.scoreAll(msgs)
	sortByImportance(scored)
	return scored, nil
}

// WeeklyInsights aggregates the fixed 7-day window ending now: totals,
// a per-day breakdown with exactly one entry per day (zero days
// included, chronological), and the top 5 unread messages by score.
func (e *Engine) WeeklyInsights(ctx context.Context) (*WeeklyInsights, error) {
	msgs, err := e.fetcher.FetchMessages(ctx, newerThanClause(weeklyWindowDays), summaryFetchLimit)
	if err != nil {
		return nil, err
	}

	now := e.now()
	days := make([]DailyBreakdown, weeklyWindowDays)
	index := make(map[string]*DailyBreakdown, weeklyWindowDays)
	for i := 0; i < weeklyWindowDays; i++ {
		date := now.AddDate(0, 0, i-weeklyWindowDays+1).Format("2006-01-02")
		days[i] = DailyBreakdown{Date: date}
		index[date] = &days[i]
	}

	out := &WeeklyInsights{}
	var unread []ScoredMessage
	for _, m := range msgs {
		sm := ScoredMessage{Message: m, Score: e.scorer.Score(m)}
		out.TotalCount++
		if sm.IsUnread {
			out.UnreadCount++
			unread = append(unread, sm)
		}
		high := sm.Score >= highImportanceThreshold
		if high {
			out.HighImportanceCount++
		}
		// Messages outside the 7 calendar days (provider date
		// granularity) still count in the totals above.
		if day, ok := index[sm.ReceivedAt.In(now.Location()).Format("2006-01-02")]; ok {
			day.TotalCount++
			if sm.IsUnread {
				day.UnreadCount++
			}
			if high {
				day.HighImportanceCount++
			}
		}
	}

	sortByImportance(unread)
	if len(unread) > 5 {
		unread = unread[:5]
	}
	out.DailyBreakdown = days
	out.TopUnread = unread
	return out, nil
}

func (e *Engine) scoreAll(msgs []Message) []ScoredMessage {
	scored := make([]ScoredMessage, len(msgs))
	for i, m := range msgs {
		scored[i] = ScoredMessage{Message: m, Score: e.scorer.Score(m)}
	}
	return scored
}

// sortByImportance orders by descending score, ties broken by
// descending receive time.
func sortByImportance(msgs []ScoredMessage) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].Score != msgs[j].Score {
			return msgs[i].Score > msgs[j].Score
		}
		return msgs[i].ReceivedAt.After(msgs[j].ReceivedAt)
	})
}

// newerThanClause builds the provider's relative-date clause.
// daysBack 0 means "today only"; Gmail has no newer_than:0d, so the
// smallest expressible window of one day is used.
func newerThanClause(daysBack int) string {
	if daysBack < 1 {
		daysBack = 1
	}
	return fmt.Sprintf("newer_than:%dd", daysBack)
}
