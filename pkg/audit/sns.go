package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type snsAPI interface {
	Publish(
		ctx context.Context,
		params *sns.PublishInput,
		optFns ...func(*sns.Options),
	) (*sns.PublishOutput, error)
}

type SNSEmitterOptions struct {
	Subject string
}

type snsEmitter struct {
	client   snsAPI
	topicARN string
	subject  string
}

var _ Emitter = (*snsEmitter)(nil)

// NewSNSEmitter publishes audit events to an SNS topic as JSON messages.
func NewSNSEmitter(client snsAPI, topicARN string, opts SNSEmitterOptions) Emitter {
	return &snsEmitter{
		client:   client,
		topicARN: strings.TrimSpace(topicARN),
		subject:  strings.TrimSpace(opts.Subject),
	}
}

func (e *snsEmitter) Emit(ctx context.Context, event Event) error {
	if e == nil || e.client == nil {
		return errors.New("audit: sns emitter is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if e.topicARN == "" {
		return errors.New("audit: sns topic arn is empty")
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	subject := e.subject
	if subject == "" {
		subject = "guard audit: " + string(event.Type)
	}
	if len(subject) > 100 {
		subject = subject[:100]
	}

	message := string(body)
	if len(message) > 256*1024 {
		message = message[:256*1024]
	}

	_, err = e.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(e.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}
