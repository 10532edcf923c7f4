package insights

import "strings"

// Gmail system labels recognized by the default scoring policy.
const (
	LabelImportant  = "IMPORTANT"
	LabelUnread     = "UNREAD"
	LabelPersonal   = "CATEGORY_PERSONAL"
	LabelSocial     = "CATEGORY_SOCIAL"
	LabelPromotions = "CATEGORY_PROMOTIONS"
)

// Score bounds and fixed adjustments of the heuristic.
const (
	MinScore       = 1
	MaxScore       = 10
	baseScore      = 5
	keywordBonus   = 2
	domainBonus    = 2
	noReplyPenalty = 1
)

// DefaultKeywords is the fixed subject keyword set that earns the
// keyword bonus. Matching is case-insensitive substring matching, and
// the bonus is applied at most once regardless of how many keywords
// match.
var DefaultKeywords = []string{
	"urgent", "asap", "important", "critical", "deadline", "meeting",
	"interview", "offer", "invoice", "payment", "security", "alert",
}

// DefaultLabelWeights maps Gmail labels to score adjustments.
var DefaultLabelWeights = map[string]int{
	LabelImportant:  3,
	LabelPersonal:   1,
	LabelSocial:     -1,
	LabelPromotions: -2,
}

// ScoringConfig holds the scoring policy as data. It is treated as
// immutable after construction; build variants with copies, not
// mutation, so a Scorer can be shared freely.
type ScoringConfig struct {
	// Keywords earn the one-time subject bonus.
	Keywords []string `json:"keywords"`

	// DomainBonus lists sender domains that earn the allow-list bonus.
	// Empty by default; populated by the operator.
	DomainBonus []string `json:"domainBonus"`

	// LabelWeights maps label names to additive adjustments.
	LabelWeights map[string]int `json:"labelWeights"`
}

// DefaultScoringConfig returns the stock policy: default keywords,
// default label weights, and an empty domain allow-list.
func DefaultScoringConfig() ScoringConfig {
	weights := make(map[string]int, len(DefaultLabelWeights))
	for k, v := range DefaultLabelWeights {
		weights[k] = v
	}
	return ScoringConfig{
		Keywords:     append([]string(nil), DefaultKeywords...),
		LabelWeights: weights,
	}
}

// WithDomainBonus returns a copy of the config with the given domains
// as the allow-list. Domains are compared case-insensitively.
func (c ScoringConfig) WithDomainBonus(domains ...string) ScoringConfig {
	c.DomainBonus = append([]string(nil), domains...)
	return c
}

// Scorer computes importance scores. It is safe for concurrent use;
// Score performs no I/O and never fails.
type Scorer struct {
	keywords []string
	domains  map[string]struct{}
	weights  map[string]int
}

// NewScorer builds a Scorer from the given policy. Keywords and domains
// are normalized to lower case at construction so scoring itself stays
// allocation-free.
func NewScorer(cfg ScoringConfig) *Scorer {
	s := &Scorer{
		keywords: make([]string, 0, len(cfg.Keywords)),
		domains:  make(map[string]struct{}, len(cfg.DomainBonus)),
		weights:  make(map[string]int, len(cfg.LabelWeights)),
	}
	for _, kw := range cfg.Keywords {
		if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
			s.keywords = append(s.keywords, kw)
		}
	}
	for _, d := range cfg.DomainBonus {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			s.domains[d] = struct{}{}
		}
	}
	for label, w := range cfg.LabelWeights {
		s.weights[label] = w
	}
	return s
}

// Score computes the importance score of a message. The adjustments are
// cumulative on a running total; clamping to [MinScore, MaxScore]
// happens exactly once, after all adjustments.
func (s *Scorer) Score(m Message) int {
	score := baseScore

	subject := strings.ToLower(m.Subject)
	for _, kw := range s.keywords {
		if strings.Contains(subject, kw) {
			score += keywordBonus
			break
		}
	}

	for _, label := range m.Labels {
		score += s.weights[label]
	}

	if _, ok := s.domains[m.SenderDomain()]; ok {
		score += domainBonus
	}

	local := m.SenderLocalPart()
	if strings.Contains(local, "no-reply") || strings.Contains(local, "noreply") {
		score -= noReplyPenalty
	}

	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
