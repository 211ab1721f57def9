package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ZaguanLabs/treelai"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
)

// LambdaInvoker is the subset of *lambda.Client used by LambdaProvider.
type LambdaInvoker interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaConfig holds configuration for the Lambda provider.
type LambdaConfig struct {
	FunctionName string // Name or ARN of the translator function
	Region       string // AWS region (optional, default from the environment)
}

// LambdaProvider implements LeafTranslator by invoking a translator
// function on AWS Lambda, one leaf per invocation.
type LambdaProvider struct {
	client       LambdaInvoker
	functionName string
}

// LambdaTranslatorRequest is the payload sent to the translator function.
type LambdaTranslatorRequest struct {
	Chunks           [][]string `json:"chunks"`
	SourceLang       string     `json:"source_lang"`
	TargetLang       string     `json:"target_lang"`
	Formality        string     `json:"formality,omitempty"`
	Context          string     `json:"context,omitempty"`
	Model            string     `json:"model,omitempty"`
	ProtectedStrings []string   `json:"protected_strings,omitempty"`
}

// LambdaTranslatorResponse is the payload returned by the translator function.
type LambdaTranslatorResponse struct {
	Translations [][]string `json:"translations"`
	Error        string     `json:"error,omitempty"`
}

// NewLambdaProvider creates a Lambda provider from the default AWS config.
func NewLambdaProvider(ctx context.Context, cfg LambdaConfig) (*LambdaProvider, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewLambdaProviderWithClient(lambda.NewFromConfig(awsCfg), cfg.FunctionName), nil
}

// NewLambdaProviderWithClient creates a Lambda provider around an existing client.
func NewLambdaProviderWithClient(client LambdaInvoker, functionName string) *LambdaProvider {
	return &LambdaProvider{
		client:       client,
		functionName: functionName,
	}
}

// TranslateLeaf invokes the translator function for a single leaf.
func (p *LambdaProvider) TranslateLeaf(ctx context.Context, tc TranslationContext, protected []string) (string, error) {
	payload, err := json.Marshal(LambdaTranslatorRequest{
		Chunks:           [][]string{{tc.Text}},
		SourceLang:       tc.SourceLang,
		TargetLang:       tc.TargetLang,
		Formality:        string(tc.Formality),
		Context:          tc.Context,
		Model:            tc.ModelHint,
		ProtectedStrings: protected,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	result, err := p.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName: aws.String(p.functionName),
		Payload:      payload,
	})
	if err != nil {
		return "", &treelai.ProviderError{
			Message:   fmt.Sprintf("failed to invoke %s", p.functionName),
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if result.FunctionError != nil {
		return "", &treelai.ProviderError{
			Message: fmt.Sprintf("lambda error: %s", aws.ToString(result.FunctionError)),
		}
	}

	var resp LambdaTranslatorResponse
	if err := json.Unmarshal(result.Payload, &resp); err != nil {
		return "", &treelai.ProviderError{
			Message: "failed to parse translator response",
			Cause:   err,
		}
	}

	if resp.Error != "" {
		return "", &treelai.ProviderError{
			Message:   fmt.Sprintf("translator error: %s", resp.Error),
			Retryable: isRetryableError(errors.New(resp.Error)),
		}
	}

	if len(resp.Translations) != 1 || len(resp.Translations[0]) != 1 {
		return "", &treelai.ProviderError{
			Message: "translator returned an unexpected number of translations",
		}
	}

	return resp.Translations[0][0], nil
}

// Verify LambdaProvider implements LeafTranslator
var _ LeafTranslator = (*LambdaProvider)(nil)
