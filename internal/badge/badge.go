package badge

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrUnknownMatchType = errors.New("badge: unknown match type")
	ErrUnknownSize      = errors.New("badge: unknown size")
	ErrConfidenceRange  = errors.New("badge: confidence outside [0,100]")
)

type MatchType string

const (
	MatchExact   MatchType = "exact"
	MatchFuzzy   MatchType = "fuzzy"
	MatchPartial MatchType = "partial"
	MatchManual  MatchType = "manual"
	MatchNWay    MatchType = "n_way"
)

var labels = map[MatchType]string{
	MatchExact:   "Exact Match",
	MatchFuzzy:   "Fuzzy Match",
	MatchPartial: "Partial Match",
	MatchManual:  "Manual Match",
	MatchNWay:    "N-Way Match",
}

// MatchTypes lists every supported tag in display order.
func MatchTypes() []MatchType {
	return []MatchType{MatchExact, MatchFuzzy, MatchPartial, MatchManual, MatchNWay}
}

func ParseMatchType(raw string) (MatchType, error) {
	mt := MatchType(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := labels[mt]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMatchType, raw)
	}
	return mt, nil
}

func (m MatchType) Label() string {
	return labels[m]
}

type Tier string

const (
	TierNone   Tier = ""
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

const (
	highThreshold   = 90.0
	mediumThreshold = 75.0
)

// TierFor classifies a confidence score. Threshold values belong to the
// higher tier.
func TierFor(confidence float64) Tier {
	switch {
	case confidence >= highThreshold:
		return TierHigh
	case confidence >= mediumThreshold:
		return TierMedium
	default:
		return TierLow
	}
}

type Size string

const (
	SizeSmall  Size = "sm"
	SizeMedium Size = "md"
	SizeLarge  Size = "lg"
)

var sizeClasses = map[Size]string{
	SizeSmall:  "text-xs",
	SizeMedium: "text-sm",
	SizeLarge:  "text-base",
}

var tierClasses = map[Tier]string{
	TierNone:   "text-gray-700",
	TierHigh:   "text-green-600",
	TierMedium: "text-yellow-600",
	TierLow:    "text-orange-600",
}

var baseClasses = []string{"inline-flex", "items-center", "rounded-full", "font-medium"}

type Option func(*Badge)

func WithConfidence(c float64) Option {
	return func(b *Badge) {
		b.confidence = c
		b.hasConfidence = true
	}
}

func ShowConfidence(show bool) Option {
	return func(b *Badge) { b.showConfidence = show }
}

func WithSize(s Size) Option {
	return func(b *Badge) { b.size = s }
}

// WithClass appends caller style tokens after the base tokens.
func WithClass(classes ...string) Option {
	return func(b *Badge) { b.extra = append(b.extra, classes...) }
}

type Badge struct {
	matchType      MatchType
	confidence     float64
	hasConfidence  bool
	showConfidence bool
	size           Size
	extra          []string
}

func New(mt MatchType, opts ...Option) (Badge, error) {
	if _, ok := labels[mt]; !ok {
		return Badge{}, fmt.Errorf("%w: %q", ErrUnknownMatchType, string(mt))
	}
	b := Badge{matchType: mt, size: SizeMedium}
	for _, opt := range opts {
		opt(&b)
	}
	if _, ok := sizeClasses[b.size]; !ok {
		return Badge{}, fmt.Errorf("%w: %q", ErrUnknownSize, string(b.size))
	}
	if b.hasConfidence && (math.IsNaN(b.confidence) || b.confidence < 0 || b.confidence > 100) {
		return Badge{}, fmt.Errorf("%w: %v", ErrConfidenceRange, b.confidence)
	}
	return b, nil
}

func (b Badge) MatchType() MatchType { return b.matchType }
func (b Badge) Size() Size           { return b.size }

func (b Badge) Label() string {
	return b.matchType.Label()
}

// Confidence returns the score and whether one was supplied.
func (b Badge) Confidence() (float64, bool) {
	return b.confidence, b.hasConfidence
}

// ConfidenceText is "{n}%" when the badge shows a supplied confidence, else "".
func (b Badge) ConfidenceText() string {
	if !b.showConfidence || !b.hasConfidence {
		return ""
	}
	return fmt.Sprintf("%d%%", int(math.Round(b.confidence)))
}

func (b Badge) Tier() Tier {
	if !b.hasConfidence {
		return TierNone
	}
	return TierFor(b.confidence)
}

// Text is the label followed by the confidence text, if any.
func (b Badge) Text() string {
	if pct := b.ConfidenceText(); pct != "" {
		return b.Label() + " " + pct
	}
	return b.Label()
}

func (b Badge) Classes() []string {
	out := make([]string, 0, len(baseClasses)+2+len(b.extra))
	out = append(out, baseClasses...)
	out = append(out, tierClasses[b.Tier()], sizeClasses[b.size])
	out = append(out, b.extra...)
	return out
}

func (b Badge) ClassString() string {
	return strings.Join(b.Classes(), " ")
}
