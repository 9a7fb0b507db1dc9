// Package clustering groups timestamped detections into highlight candidates
// with a single sweep over sorted timestamps.
package clustering

import (
	"math"
	"sort"
	"strings"

	"github.com/okian/highlights/internal/domain/model"
)

// Default clustering parameters.
const (
	defaultMaxGapMillis   = 5000
	defaultMinTimestamps  = 3
	defaultMinConfidence  = 85.0
	defaultCrowdThreshold = 5
	defaultCrowdBoost     = 1.2
	defaultMaxConfidence  = 100.0
	millisPerSecond       = 1000.0
	confidenceScale       = 1e9
)

// DefaultLabels are the detection labels considered interesting.
var DefaultLabels = []string{ //nolint:gochecknoglobals // default allow-list
	"Ball", "Sports Ball", "Soccer Ball", "Basketball", "Football",
	"Goal", "Scoring", "Dunk", "Celebration", "Cheering", "Jumping",
	"High Five", "Crowd", "Audience", "Person Running",
}

// Engine clusters detection events. It holds only configuration and is safe
// for concurrent use; a single run is strictly sequential.
type Engine struct {
	allowed        map[string]struct{}
	maxGapMillis   int64
	minTimestamps  int
	minConfidence  float64
	crowdThreshold int
	crowdBoost     float64
	maxConfidence  float64
}

// New creates an Engine with the default parameters.
func New(opts ...Option) *Engine {
	e := &Engine{
		maxGapMillis:   defaultMaxGapMillis,
		minTimestamps:  defaultMinTimestamps,
		minConfidence:  defaultMinConfidence,
		crowdThreshold: defaultCrowdThreshold,
		crowdBoost:     defaultCrowdBoost,
		maxConfidence:  defaultMaxConfidence,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.allowed == nil {
		e.allowed = labelSet(DefaultLabels)
	}
	return e
}

type detection struct {
	label      string
	confidence float64
}

type cluster struct {
	timestamps []int64
	detections []detection
}

// Cluster groups events into candidates and folds in person tracks. The
// result is ordered by confidence descending; ties keep discovery order.
func (e *Engine) Cluster(events []model.DetectionEvent, tracks []model.PersonTrack) []model.HighlightCandidate {
	byTimestamp := make(map[int64][]detection)
	for _, ev := range events {
		if !e.interesting(ev) {
			continue
		}
		byTimestamp[ev.TimestampMillis] = append(byTimestamp[ev.TimestampMillis], detection{
			label:      ev.Label,
			confidence: ev.Confidence,
		})
	}
	if len(byTimestamp) == 0 {
		return []model.HighlightCandidate{}
	}

	timestamps := make([]int64, 0, len(byTimestamp))
	for ts := range byTimestamp {
		timestamps = append(timestamps, ts)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	var (
		candidates []model.HighlightCandidate
		current    cluster
	)
	for i, ts := range timestamps {
		if i > 0 && ts-timestamps[i-1] > e.maxGapMillis {
			if c, ok := e.close(current); ok {
				candidates = append(candidates, c)
			}
			current = cluster{}
		}
		current.timestamps = append(current.timestamps, ts)
		current.detections = append(current.detections, byTimestamp[ts]...)
	}
	if c, ok := e.close(current); ok {
		candidates = append(candidates, c)
	}

	e.foldTracks(candidates, tracks)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Confidence > candidates[j].Confidence
	})
	if candidates == nil {
		return []model.HighlightCandidate{}
	}
	return candidates
}

func (e *Engine) interesting(ev model.DetectionEvent) bool {
	if ev.TimestampMillis < 0 || ev.Confidence <= e.minConfidence {
		return false
	}
	_, ok := e.allowed[normalizeLabel(ev.Label)]
	return ok
}

// close turns a run into a candidate; runs shorter than minTimestamps are noise.
func (e *Engine) close(c cluster) (model.HighlightCandidate, bool) {
	if len(c.timestamps) < e.minTimestamps {
		return model.HighlightCandidate{}, false
	}

	var sum float64
	seen := make(map[string]struct{})
	labels := make([]string, 0, len(c.detections))
	for _, d := range c.detections {
		sum += d.confidence
		if _, dup := seen[d.label]; !dup {
			seen[d.label] = struct{}{}
			labels = append(labels, d.label)
		}
	}

	start := float64(c.timestamps[0]) / millisPerSecond
	end := float64(c.timestamps[len(c.timestamps)-1]) / millisPerSecond
	return model.HighlightCandidate{
		StartTimeSec: start,
		EndTimeSec:   end,
		DurationSec:  end - start,
		Confidence:   roundConfidence(sum / float64(len(c.detections))),
		Labels:       labels,
	}, true
}

// foldTracks counts distinct tracked people inside each candidate window and
// boosts crowded moments.
func (e *Engine) foldTracks(candidates []model.HighlightCandidate, tracks []model.PersonTrack) {
	for i := range candidates {
		c := &candidates[i]
		startMs := int64(math.Round(c.StartTimeSec * millisPerSecond))
		endMs := int64(math.Round(c.EndTimeSec * millisPerSecond))

		people := make(map[int]struct{})
		for _, t := range tracks {
			if t.TimestampMillis >= startMs && t.TimestampMillis <= endMs {
				people[t.PersonIndex] = struct{}{}
			}
		}
		c.PersonCount = len(people)
		if c.PersonCount > e.crowdThreshold {
			c.Confidence = roundConfidence(math.Min(c.Confidence*e.crowdBoost, e.maxConfidence))
		}
	}
}

// roundConfidence trims float noise so equal inputs compare equal.
func roundConfidence(v float64) float64 {
	return math.Round(v*confidenceScale) / confidenceScale
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func labelSet(labels []string) map[string]struct{} {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		if n := normalizeLabel(l); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}
