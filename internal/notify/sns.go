package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// SNS rejects subjects longer than 100 characters or containing line breaks.
const maxSubjectLength = 100

// Publisher is the subset of the SNS client used to send alerts.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes alerts to an SNS topic.
type SNSNotifier struct {
	client   Publisher
	topicARN string
	logger   *zap.Logger
}

// NewSNS creates an SNSNotifier around an existing client.
func NewSNS(client Publisher, topicARN string, logger *zap.Logger) (*SNSNotifier, error) {
	if strings.TrimSpace(topicARN) == "" {
		return nil, ErrMissingTopic
	}
	return &SNSNotifier{
		client:   client,
		topicARN: topicARN,
		logger:   logger,
	}, nil
}

// NewSNSFromConfig loads AWS credentials from the default chain (environment,
// shared config, instance role) and creates an SNSNotifier for region.
func NewSNSFromConfig(ctx context.Context, region, topicARN string, logger *zap.Logger) (*SNSNotifier, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return NewSNS(sns.NewFromConfig(awsCfg), topicARN, logger)
}

// Notify implements Notifier.
func (n *SNSNotifier) Notify(ctx context.Context, subject, message string) error {
	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(sanitizeSubject(subject)),
		Message:  aws.String(message),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: %s: %s", ErrPublishFailed, apiErr.ErrorCode(), apiErr.ErrorMessage())
		}
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	n.logger.Info("alert published",
		zap.String("topic_arn", n.topicARN),
		zap.String("message_id", aws.ToString(out.MessageId)),
	)
	return nil
}

func sanitizeSubject(subject string) string {
	subject = strings.Join(strings.Fields(subject), " ")
	if utf8.RuneCountInString(subject) > maxSubjectLength {
		subject = string([]rune(subject)[:maxSubjectLength])
	}
	return subject
}
