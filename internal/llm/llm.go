package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joescharf/mossy/internal/models"
	"github.com/joescharf/mossy/internal/scoring"
	"github.com/joescharf/mossy/internal/streaks"
)

// Reflection is the coach's read of a stretch of days.
type Reflection struct {
	Summary    string   `json:"summary"`
	Wins       []string `json:"wins"`
	Focus      []string `json:"focus"`
	Suggestion string   `json:"suggestion"`
}

// ReflectionInput is what the coach sees about a user.
type ReflectionInput struct {
	UserName string
	Catalog  models.Catalog
	History  []streaks.DayScore // oldest first
	Streaks  streaks.Result
}

// Client wraps the Anthropic API for coaching.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildReflectionPrompt constructs the system and user prompts for a weekly reflection.
func buildReflectionPrompt(in ReflectionInput) (system string, user string) {
	system = `You are a supportive habit coach. You get a person's habit list and their daily scores (0-100) with the breakdown of what they did. Return ONLY a JSON object with these fields:
- "summary": 2-3 sentences on how the period went overall
- "wins": array of short strings, concrete things that went well
- "focus": array of short strings, at most 3 habits or parts of the day to work on
- "suggestion": one small, specific action for tomorrow

Rules:
- Refer to habits by the names given, never by ids
- A malus is a bad habit; doing it lowers the score
- Days without data are not failures, do not scold
- Be warm and brief
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	if in.UserName != "" {
		fmt.Fprintf(&sb, "Person: %s\n\n", in.UserName)
	}

	sb.WriteString("Habits:\n")
	if len(in.Catalog.BaseActivities) > 0 {
		fmt.Fprintf(&sb, "- every day: %s\n", strings.Join(nonEmpty(in.Catalog.BaseActivities), ", "))
	}
	if s := in.Catalog.Sleep; s != nil {
		fmt.Fprintf(&sb, "- sleep: bed by %s, wake by %s\n", orDash(s.Bedtime), orDash(s.Wakeup))
	}
	for _, w := range in.Catalog.WeeklyActivities {
		if w == nil {
			continue
		}
		days := make([]string, len(w.Weekdays))
		for i, d := range w.Weekdays {
			days[i] = d.String()
		}
		fmt.Fprintf(&sb, "- weekly: %s on %s (%s", w.Name, strings.Join(days, "/"), w.PartOfDay)
		if w.RepeatEveryWeeks > 1 {
			fmt.Fprintf(&sb, ", every %d weeks", w.RepeatEveryWeeks)
		}
		sb.WriteString(")\n")
	}
	for _, m := range in.Catalog.Malus {
		if m.Name != "" {
			fmt.Fprintf(&sb, "- malus: %s\n", m.Name)
		}
	}

	sb.WriteString("\nDaily scores (oldest first):\n")
	for _, d := range in.History {
		fmt.Fprintf(&sb, "%s %3d %s", d.DayKey, d.Score, d.Band)
		if b := d.Breakdown; b != nil {
			fmt.Fprintf(&sb, " | base %d, sleep %d, morning %s, afternoon %s, malus %d",
				b.BaseDone, b.SleepDone, b.MorningStatus, b.AfternoonStatus, b.MalusDone)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nCurrent streak: %d days. Best streak: %d days.\n", in.Streaks.Current, in.Streaks.Best)

	user = sb.String()
	return
}

// Reflect asks the model for a reflection on the given days.
func (c *Client) Reflect(ctx context.Context, in ReflectionInput) (*Reflection, error) {
	if len(in.History) == 0 {
		return nil, fmt.Errorf("no days to reflect on")
	}
	systemPrompt, userPrompt := buildReflectionPrompt(in)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	return parseReflection(text)
}

func parseReflection(text string) (*Reflection, error) {
	text = stripFence(text)
	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}
	var r Reflection
	if err := json.Unmarshal([]byte(text), &r); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}
	return &r, nil
}

// stripFence removes a surrounding markdown code fence.
func stripFence(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

// Average is the mean score of days, 0 when there are none.
func Average(days []streaks.DayScore) int {
	if len(days) == 0 {
		return 0
	}
	sum := 0
	for _, d := range days {
		sum += d.Score
	}
	return sum / len(days)
}

// AverageBand is the band of the mean score.
func AverageBand(days []streaks.DayScore) scoring.Band {
	return scoring.ProgressBand(Average(days))
}

func nonEmpty(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

func orDash(s string) string {
	if s == "" {
		return "--:--"
	}
	return s
}
