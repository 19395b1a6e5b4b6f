package permission

import (
	"context"
	"fmt"
)

// Feature は利用上限の対象となる機能。
type Feature string

const (
	FeatureInterviews     Feature = "interviews"
	FeatureQuestions      Feature = "questions"
	FeatureResumeAnalyses Feature = "resume_analyses"
)

// 無料プランの上限値。
const (
	FreeInterviewLimit      = 1
	FreeQuestionLimit       = 5
	FreeResumeAnalysisLimit = 0
)

// Rule は機能ごとの判定に使う権限と上限値。
// Limitedが空の機能は無制限権限がなければ常に拒否される。
type Rule struct {
	Unlimited Permission
	Limited   Permission
	Limit     int
}

// DefaultRules は機能ごとの標準ルール。
var DefaultRules = map[Feature]Rule{
	FeatureInterviews:     {Unlimited: UnlimitedInterviews, Limited: LimitedInterviews, Limit: FreeInterviewLimit},
	FeatureQuestions:      {Unlimited: UnlimitedQuestions, Limited: LimitedQuestions, Limit: FreeQuestionLimit},
	FeatureResumeAnalyses: {Unlimited: UnlimitedResumeAnalyses, Limit: FreeResumeAnalysisLimit},
}

// UsageCounter はユーザーの作成済み件数を返す。
type UsageCounter interface {
	CountByUserID(ctx context.Context, userID string) (int, error)
}

// Reason は判定結果の理由。
type Reason string

const (
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonUnlimited       Reason = "unlimited"
	ReasonWithinLimit     Reason = "within_limit"
	ReasonLimitReached    Reason = "limit_reached"
	ReasonNoPermission    Reason = "no_permission"
)

// Decision は機能の利用可否の判定結果。
type Decision struct {
	Feature Feature `json:"feature"`
	Allowed bool    `json:"allowed"`
	Reason  Reason  `json:"reason"`
	// Used とLimit は上限付き権限で判定した場合のみ意味を持つ。
	Used      int  `json:"used"`
	Limit     int  `json:"limit"`
	Unlimited bool `json:"unlimited"`
}

// GateMetrics は判定結果の記録先。
type GateMetrics interface {
	IncPermissionDecision(feature string, reason string)
}

// Gate はプランの権限と利用件数から機能の利用可否を判定する。
// 判定は毎回行い、結果そのものはキャッシュしない。
type Gate struct {
	checker  Checker
	counters map[Feature]UsageCounter
	rules    map[Feature]Rule
	metrics  GateMetrics
}

// GateOption はGateの設定を変更する。
type GateOption func(*Gate)

// WithRules は機能ごとのルールを差し替える。
func WithRules(rules map[Feature]Rule) GateOption {
	return func(g *Gate) {
		g.rules = rules
	}
}

// WithGateMetrics は判定結果の記録先を設定する。
func WithGateMetrics(m GateMetrics) GateOption {
	return func(g *Gate) {
		g.metrics = m
	}
}

// NewGate はGateを生成する。countersに含まれない機能は件数0として扱う。
func NewGate(checker Checker, counters map[Feature]UsageCounter, opts ...GateOption) *Gate {
	g := &Gate{
		checker:  checker,
		counters: counters,
		rules:    DefaultRules,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Decide は機能の利用可否を判定する。
//
// 無制限権限を先に確認し、あれば件数を数えずに許可する。
// 上限付き権限の場合は作成済み件数がLimit未満のときのみ許可する。
// エラーはストレージや外部APIの障害のみを表す。
func (g *Gate) Decide(ctx context.Context, userID string, f Feature) (Decision, error) {
	d, err := g.decide(ctx, userID, f)
	if err == nil && g.metrics != nil {
		g.metrics.IncPermissionDecision(string(f), string(d.Reason))
	}
	return d, err
}

func (g *Gate) decide(ctx context.Context, userID string, f Feature) (Decision, error) {
	d := Decision{Feature: f}
	if userID == "" {
		d.Reason = ReasonUnauthenticated
		return d, nil
	}

	rule, ok := g.rules[f]
	if !ok {
		d.Reason = ReasonNoPermission
		return d, nil
	}

	if rule.Unlimited != "" {
		has, err := g.checker.HasPermission(ctx, userID, rule.Unlimited)
		if err != nil {
			return d, fmt.Errorf("failed to check %s: %w", rule.Unlimited, err)
		}
		if has {
			d.Allowed = true
			d.Unlimited = true
			d.Reason = ReasonUnlimited
			return d, nil
		}
	}

	if rule.Limited == "" {
		d.Reason = ReasonNoPermission
		return d, nil
	}
	has, err := g.checker.HasPermission(ctx, userID, rule.Limited)
	if err != nil {
		return d, fmt.Errorf("failed to check %s: %w", rule.Limited, err)
	}
	if !has {
		d.Reason = ReasonNoPermission
		return d, nil
	}

	d.Limit = rule.Limit
	if counter, ok := g.counters[f]; ok && rule.Limit > 0 {
		used, err := counter.CountByUserID(ctx, userID)
		if err != nil {
			return d, fmt.Errorf("failed to count %s usage: %w", f, err)
		}
		d.Used = used
	}

	if d.Used < d.Limit {
		d.Allowed = true
		d.Reason = ReasonWithinLimit
	} else {
		d.Reason = ReasonLimitReached
	}
	return d, nil
}

// CanCreateInterview は面接を新たに作成できるかどうかを返す。
func (g *Gate) CanCreateInterview(ctx context.Context, userID string) (bool, error) {
	return g.allowed(ctx, userID, FeatureInterviews)
}

// CanCreateQuestion は質問を新たに生成できるかどうかを返す。
func (g *Gate) CanCreateQuestion(ctx context.Context, userID string) (bool, error) {
	return g.allowed(ctx, userID, FeatureQuestions)
}

// CanAnalyzeResume は履歴書分析を利用できるかどうかを返す。
func (g *Gate) CanAnalyzeResume(ctx context.Context, userID string) (bool, error) {
	return g.allowed(ctx, userID, FeatureResumeAnalyses)
}

func (g *Gate) allowed(ctx context.Context, userID string, f Feature) (bool, error) {
	d, err := g.Decide(ctx, userID, f)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// Summary は全機能の判定結果を返す。
func (g *Gate) Summary(ctx context.Context, userID string) ([]Decision, error) {
	features := []Feature{FeatureInterviews, FeatureQuestions, FeatureResumeAnalyses}
	decisions := make([]Decision, 0, len(features))
	for _, f := range features {
		d, err := g.Decide(ctx, userID, f)
		if err != nil {
			return nil, err
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}
