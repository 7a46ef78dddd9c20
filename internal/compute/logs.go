package compute

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
)

// Batch пишет логи контейнеров в эту группу.
const batchLogGroup = "/aws/batch/job"

// cwlAPI — подмножество клиента CloudWatch Logs, используемое пакетом.
type cwlAPI interface {
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// LogEvent — одна строка лога задачи.
type LogEvent struct {
	Timestamp time.Time
	Message   string
}

// LogFetcher выгружает логи задач из CloudWatch Logs.
type LogFetcher struct {
	client cwlAPI
}

// NewLogFetcher создаёт LogFetcher поверх готового клиента CloudWatch Logs.
func NewLogFetcher(client *cloudwatchlogs.Client) *LogFetcher {
	return &LogFetcher{client: client}
}

// Fetch возвращает все события лог-стрима задачи в хронологическом порядке.
//
// GetLogEvents пагинируется токеном: конец достигнут, когда токен
// перестаёт меняться, а не когда страница пуста.
func (f *LogFetcher) Fetch(ctx context.Context, logStreamName string) ([]LogEvent, error) {
	var (
		events []LogEvent
		token  *string
	)

	for {
		out, err := f.client.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
			LogGroupName:  aws.String(batchLogGroup),
			LogStreamName: aws.String(logStreamName),
			StartFromHead: aws.Bool(true),
			NextToken:     token,
		})
		if err != nil {
			return nil, fmt.Errorf("get log events for %s: %w", logStreamName, err)
		}

		for _, e := range out.Events {
			events = append(events, LogEvent{
				Timestamp: time.UnixMilli(aws.ToInt64(e.Timestamp)),
				Message:   aws.ToString(e.Message),
			})
		}

		if out.NextForwardToken == nil || (token != nil && *token == *out.NextForwardToken) {
			break
		}
		token = out.NextForwardToken
	}

	return events, nil
}
