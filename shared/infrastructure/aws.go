package infrastructure

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/pkg/errors"
)

// AWSOptions selects region and optional endpoint overrides (LocalStack)
type AWSOptions struct {
	Region      string
	EndpointSNS string
	EndpointSQS string
}

// LoadAWSConfig loads the default credential chain for the given region
func LoadAWSConfig(ctx context.Context, opts AWSOptions) (aws.Config, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return aws.Config{}, errors.Wrap(err, "failed to load AWS config")
	}

	return cfg, nil
}

// NewSNSClient creates an SNS client honoring the endpoint override
func NewSNSClient(cfg aws.Config, opts AWSOptions) *sns.Client {
	return sns.NewFromConfig(cfg, func(o *sns.Options) {
		if opts.EndpointSNS != "" {
			o.BaseEndpoint = aws.String(opts.EndpointSNS)
		}
	})
}

// NewSQSClient creates an SQS client honoring the endpoint override
func NewSQSClient(cfg aws.Config, opts AWSOptions) *sqs.Client {
	return sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		if opts.EndpointSQS != "" {
			o.BaseEndpoint = aws.String(opts.EndpointSQS)
		}
	})
}
