package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/haasonsaas/tonari/internal/mcp"
	"github.com/haasonsaas/tonari/pkg/models"
)

// BedrockConfig holds settings for the Bedrock provider.
type BedrockConfig struct {
	// Region is the AWS region (default: ap-northeast-1).
	Region string

	// ModelID selects the foundation model.
	ModelID string

	// AccessKeyID / SecretAccessKey / SessionToken supply explicit
	// credentials. When empty, the default credential chain is used
	// (environment, IAM role).
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// BedrockProvider implements Provider on the Bedrock ConverseStream API.
// Safe for concurrent use.
type BedrockProvider struct {
	client  *bedrockruntime.Client
	modelID string
	logger  *slog.Logger
}

// NewBedrockProvider creates a Bedrock-backed provider.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig, logger *slog.Logger) (*BedrockProvider, error) {
	if cfg.Region == "" {
		cfg.Region = "ap-northeast-1"
	}
	if cfg.ModelID == "" {
		return nil, fmt.Errorf("bedrock: model ID is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("bedrock: load AWS config: %w", err)
	}

	return &BedrockProvider{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
		logger:  logger.With("component", "bedrock"),
	}, nil
}

// Stream sends the request via ConverseStream and translates the SDK event
// union into the raw model event stream.
func (p *BedrockProvider) Stream(ctx context.Context, req *Request) (<-chan models.ModelEvent, error) {
	input := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(p.modelID),
		Messages: convertMessages(req.Messages),
	}
	if req.System != "" {
		input.System = []types.SystemContentBlock{
			&types.SystemContentBlockMemberText{Value: req.System},
		}
	}
	if req.MaxTokens > 0 {
		// #nosec G115 -- config-bounded
		input.InferenceConfig = &types.InferenceConfiguration{
			MaxTokens: aws.Int32(int32(req.MaxTokens)),
		}
	}
	if len(req.Tools) > 0 {
		input.ToolConfig = convertTools(req.Tools)
	}

	stream, err := p.client.ConverseStream(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock: converse stream: %w", err)
	}

	events := make(chan models.ModelEvent)
	go p.pump(ctx, stream, events)
	return events, nil
}

// pump drains the SDK event stream into the raw model event channel. Every
// send races context cancellation so an abandoned consumer never strands
// the goroutine or the underlying stream.
func (p *BedrockProvider) pump(ctx context.Context, stream *bedrockruntime.ConverseStreamOutput, out chan<- models.ModelEvent) {
	defer close(out)

	eventStream := stream.GetStream()
	defer eventStream.Close()

	send := func(ev models.ModelEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for {
		select {
		case <-ctx.Done():
			select {
			case out <- models.ModelEvent{Kind: models.ModelEventError, Err: ctx.Err()}:
			default:
			}
			return
		case event, ok := <-eventStream.Events():
			if !ok {
				if err := eventStream.Err(); err != nil {
					send(models.ModelEvent{Kind: models.ModelEventError, Err: fmt.Errorf("bedrock stream: %w", err)})
				} else {
					send(models.ModelEvent{Kind: models.ModelEventDone})
				}
				return
			}

			switch ev := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockStart:
				if toolUse, ok := ev.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
					if !send(models.ModelEvent{
						Kind:     models.ModelEventToolUse,
						ToolName: aws.ToString(toolUse.Value.Name),
					}) {
						return
					}
				}
			case *types.ConverseStreamOutputMemberContentBlockDelta:
				switch delta := ev.Value.Delta.(type) {
				case *types.ContentBlockDeltaMemberText:
					if !send(models.ModelEvent{Kind: models.ModelEventText, Text: delta.Value}) {
						return
					}
				case *types.ContentBlockDeltaMemberToolUse:
					// Tool input deltas are consumed by the gateway side;
					// the demultiplexer only needs the boundary.
					if !send(models.ModelEvent{Kind: models.ModelEventUnknown}) {
						return
					}
				default:
					if !send(models.ModelEvent{Kind: models.ModelEventUnknown}) {
						return
					}
				}
			case *types.ConverseStreamOutputMemberMessageStop:
				send(models.ModelEvent{Kind: models.ModelEventDone})
				return
			default:
				if !send(models.ModelEvent{Kind: models.ModelEventUnknown}) {
					return
				}
			}
		}
	}
}

// convertMessages maps conversation messages onto Converse content blocks.
func convertMessages(messages []Message) []types.Message {
	result := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		var content []types.ContentBlock
		if msg.Content.Multipart() {
			for _, part := range msg.Content.Parts {
				switch {
				case part.Image != nil:
					content = append(content, &types.ContentBlockMemberImage{
						Value: types.ImageBlock{
							Format: imageFormat(part.Image.Format),
							Source: &types.ImageSourceMemberBytes{Value: part.Image.Bytes},
						},
					})
				default:
					content = append(content, &types.ContentBlockMemberText{Value: part.Text})
				}
			}
		} else if msg.Content.Text != "" {
			content = append(content, &types.ContentBlockMemberText{Value: msg.Content.Text})
		}
		if len(content) == 0 {
			continue
		}

		role := types.ConversationRoleUser
		if msg.Role == "assistant" {
			role = types.ConversationRoleAssistant
		}
		result = append(result, types.Message{Role: role, Content: content})
	}
	return result
}

// convertTools maps discovered gateway tools onto the Converse tool config.
func convertTools(tools []mcp.Tool) *types.ToolConfiguration {
	specs := make([]types.Tool, 0, len(tools))
	for _, tool := range tools {
		var schema any
		if len(tool.InputSchema) > 0 {
			if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
				schema = map[string]any{"type": "object"}
			}
		} else {
			schema = map[string]any{"type": "object"}
		}
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(tool.Name),
				Description: aws.String(tool.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{
					Value: document.NewLazyDocument(schema),
				},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}
}

func imageFormat(format string) types.ImageFormat {
	switch format {
	case "png":
		return types.ImageFormatPng
	case "gif":
		return types.ImageFormatGif
	case "webp":
		return types.ImageFormatWebp
	default:
		return types.ImageFormatJpeg
	}
}
