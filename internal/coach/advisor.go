package coach

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bkovacev/runsight/internal/activities"
	"github.com/bkovacev/runsight/internal/plan"
	"github.com/bkovacev/runsight/internal/telemetry/tracing"

	openai "github.com/sashabaranov/go-openai"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// AdviceError marks a failure to get coaching advice from the model backend.
// Reported to the user, never retried, no impact on cached activity data.
type AdviceError struct {
	Err error
}

func (e *AdviceError) Error() string {
	return fmt.Sprintf("get coaching advice: %s", e.Err)
}

func (e *AdviceError) Unwrap() error {
	return e.Err
}

type completionClient interface {
	CreateChatCompletion(
		ctx context.Context,
		request openai.ChatCompletionRequest,
	) (openai.ChatCompletionResponse, error)
}

type datasetProvider interface {
	Dataset(ctx context.Context) (activities.Dataset, error)
}

type planProvider interface {
	Load(ctx context.Context) (plan.Plan, error)
}

// Advisor answers free-text questions with a bounded summary of recent
// activities and upcoming plan entries as context. Stateless, one completion
// call per question.
type Advisor struct {
	client        completionClient
	dataset       datasetProvider
	plans         planProvider
	model         string
	recentCount   int
	upcomingCount int

	now func() time.Time
}

func NewAdvisor(
	client completionClient,
	dataset datasetProvider,
	plans planProvider,
	model string,
	recentCount, upcomingCount int,
) *Advisor {
	return &Advisor{
		client:        client,
		dataset:       dataset,
		plans:         plans,
		model:         model,
		recentCount:   recentCount,
		upcomingCount: upcomingCount,
		now:           time.Now,
	}
}

// Ask builds the prompt from the current cache and plan, sends it to the
// model and returns the advice text.
func (a *Advisor) Ask(ctx context.Context, question string) (_ string, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "coachAdvisor.ask")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if question == "" {
		return "", errors.New("question is empty")
	}

	dataset, err := a.dataset.Dataset(ctx)
	if err != nil {
		return "", fmt.Errorf("get activities for advice: %w", err)
	}
	trainingPlan, err := a.plans.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("get plan for advice: %w", err)
	}

	recent := mostRecent(dataset.Activities, a.recentCount)
	upcoming := trainingPlan.Upcoming(a.now(), a.upcomingCount)
	prompt := BuildPrompt(question, recent, upcoming)
	span.SetAttributes(attribute.Int("prompt_size", len(prompt)))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &AdviceError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &AdviceError{Err: errors.New("empty completion response")}
	}

	advice := resp.Choices[0].Message.Content
	log.Debugf("coach: got %d chars of advice", len(advice))

	return advice, nil
}

func mostRecent(all []activities.Activity, limit int) []activities.Activity {
	recent := make([]activities.Activity, len(all))
	copy(recent, all)
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].StartDate().After(recent[j].StartDate())
	})
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent
}
