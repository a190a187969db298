package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/stridelab/runstream/pkg/infrastructure/sentry"
)

// NarrativeClient is the boundary to the external language model. Anything
// with a single generate-content call satisfies it, which keeps the engine
// testable with a fake and free of networking concerns; timeout and retry
// policy belong to the injected implementation.
type NarrativeClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// NarrationResult records what happened at the narrator boundary, for
// observability only. Failures never propagate as errors.
type NarrationResult struct {
	Called        bool   `json:"called"`
	BatchRejected bool   `json:"batch_rejected"`
	Reason        string `json:"reason,omitempty"`
	ItemsDropped  int    `json:"items_dropped"`
}

// Raw-metric jargon that must never reach a user-facing sentence.
var bannedJargon = []string{"TSB", "VDOT", "EF:", "TRIMP", "CTL", "ATL"}

// Sycophantic boilerplate the model tends to produce when unconstrained.
var bannedBoilerplate = []string{"great job", "amazing", "awesome", "crushed it", "way to go", "killing it"}

// Moment types for which causal phrasing is grounded in measured data.
// Everything else must not claim to know why.
var causalAllowed = map[MomentType]bool{
	MomentGradeAnomaly:    true,
	MomentRecoveryHRDelay: true,
}

// GenerateMomentNarratives turns moments into validated one-or-two sentence
// narratives via a single batched model call. The whole contract is
// fail-closed: a nil client, a transport error, an unparseable response or a
// count mismatch nulls every slot; a single invalid sentence nulls only its
// own slot. The returned slice is index-aligned with moments.
func GenerateMomentNarratives(ctx context.Context, logger *slog.Logger, client NarrativeClient, moments []Moment, segments []Segment, stream *Stream, cfg Config) ([]*string, NarrationResult) {
	narratives := make([]*string, len(moments))
	if client == nil || len(moments) == 0 {
		return narratives, NarrationResult{}
	}

	prompt := buildNarrationPrompt(moments, segments)

	raw, err := client.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("narration: model call failed, dropping all narratives", "error", err)
		sentry.CaptureException(fmt.Errorf("narration generate: %w", err), map[string]interface{}{"moments": len(moments)}, logger)
		return narratives, NarrationResult{Called: true, BatchRejected: true, Reason: "client_error"}
	}

	// Pass 1, whole batch: the response must be a JSON array with exactly
	// one entry per moment. Anything else means the model lost alignment
	// and no item can be trusted.
	items, reason := parseNarrationResponse(raw, len(moments))
	if reason != "" {
		logger.Warn("narration: batch rejected", "reason", reason, "moments", len(moments))
		sentry.CaptureMessage("narration batch rejected: "+reason, map[string]interface{}{"moments": len(moments)}, logger)
		return narratives, NarrationResult{Called: true, BatchRejected: true, Reason: reason}
	}

	// Pass 2, per item: content rules. An invalid sentence nulls its own
	// slot without affecting siblings.
	dropped := 0
	for i, text := range items {
		if why := validateNarrative(text, moments[i].Type, cfg); why != "" {
			logger.Debug("narration: item dropped", "index", i, "moment_type", moments[i].Type, "reason", why)
			dropped++
			continue
		}
		t := strings.TrimSpace(text)
		narratives[i] = &t
	}

	logger.Info("narration: complete", "moments", len(moments), "dropped", dropped)
	return narratives, NarrationResult{Called: true, ItemsDropped: dropped}
}

func buildNarrationPrompt(moments []Moment, segments []Segment) string {
	var sb strings.Builder

	sb.WriteString("You are a running coach reviewing discrete moments from one run.\n")
	sb.WriteString("For each moment below, write one factual sentence (two at most) describing what happened.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Plain language only. Never use training-load jargon or raw metric acronyms.\n")
	sb.WriteString("- No praise or cheerleading.\n")
	sb.WriteString("- Only state a cause when the moment data itself shows one.\n")
	sb.WriteString(fmt.Sprintf("- Respond with ONLY a JSON array of exactly %d strings, one per moment, in order. No other text.\n\n", len(moments)))

	sb.WriteString("Run structure:\n")
	for _, seg := range segments {
		sb.WriteString(fmt.Sprintf("- %s from %.0fs to %.0fs", seg.Type, seg.StartTimeS, seg.EndTimeS))
		if seg.AvgPaceMinKM > 0 {
			sb.WriteString(fmt.Sprintf(", avg pace %.2f min/km", seg.AvgPaceMinKM))
		}
		if seg.AvgHR > 0 {
			sb.WriteString(fmt.Sprintf(", avg HR %.0f bpm", seg.AvgHR))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nMoments:\n")
	for i, m := range moments {
		payload, _ := json.Marshal(m.Context)
		sb.WriteString(fmt.Sprintf("%d. type=%s at %.0fs, magnitude=%.2f, surrounding window: %s\n", i+1, m.Type, m.TimeS, m.Value, payload))
	}
	return sb.String()
}

// parseNarrationResponse extracts the JSON array from the model output.
// Returns a non-empty reason when the batch must be rejected.
func parseNarrationResponse(raw string, want int) ([]string, string) {
	text := strings.TrimSpace(raw)
	// Models wrap JSON in markdown fences no matter how firmly told not to.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var items []string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, "unparseable_response"
	}
	if len(items) != want {
		return nil, fmt.Sprintf("count_mismatch_want_%d_got_%d", want, len(items))
	}
	return items, ""
}

// validateNarrative applies the per-item content rules. Returns an empty
// string when the sentence is acceptable, otherwise the rejection reason.
func validateNarrative(text string, momentType MomentType, cfg Config) string {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < cfg.NarrativeMinLength {
		return "too_short"
	}
	for _, term := range bannedJargon {
		if strings.Contains(trimmed, term) {
			return "banned_jargon"
		}
	}
	lower := strings.ToLower(trimmed)
	for _, phrase := range bannedBoilerplate {
		if strings.Contains(lower, phrase) {
			return "sycophantic_boilerplate"
		}
	}
	if !causalAllowed[momentType] {
		if strings.Contains(lower, "because") || strings.Contains(lower, "due to") {
			return "unsupported_causal_claim"
		}
	}
	return ""
}
