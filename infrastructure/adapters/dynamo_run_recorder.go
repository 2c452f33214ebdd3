package adapters

import (
	"context"
	"encoding/json"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"

	"github.com/sirliboyev-uz/ai-video-agent/application/ports/outbound"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/domain"
)

type dynamoRunItem struct {
	RunID         string  `dynamodbav:"run_id"`
	Topic         string  `dynamodbav:"topic"`
	Status        string  `dynamodbav:"status"`
	StageMetadata string  `dynamodbav:"stage_metadata"`
	TotalCost     float64 `dynamodbav:"total_cost"`
	VideoURL      string  `dynamodbav:"video_url,omitempty"`
	ErrorMessage  string  `dynamodbav:"error_message,omitempty"`
	UpdatedAt     int64   `dynamodbav:"updated_at"`
}

type dynamoRunRecorder struct {
	logger       outbound.LoggerPort
	dynamoSvc    *dynamodb.DynamoDB
	dynamoConfig *config.DynamoConfig
}

func NewDynamoRunRecorder(logger outbound.LoggerPort, dynamoSvc *dynamodb.DynamoDB, dynamoConfig *config.DynamoConfig) outbound.RunRecorderPort {
	return &dynamoRunRecorder{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
	}
}

func (c *dynamoRunRecorder) Save(ctx context.Context, run *domain.PipelineRun) error {
	stageMetadata, err := json.Marshal(run.Stages)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to marshal run stages", map[string]interface{}{
			"runID": run.ID,
		})
		return err
	}

	item := dynamoRunItem{
		RunID:         run.ID,
		Topic:         run.Topic,
		Status:        string(run.Status),
		StageMetadata: string(stageMetadata),
		TotalCost:     run.TotalCost,
		VideoURL:      run.VideoURL,
		ErrorMessage:  run.ErrorMessage,
		UpdatedAt:     time.Now().Unix(),
	}
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to marshal run item", map[string]interface{}{
			"item": item,
		})
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(c.dynamoConfig.TableName),
	}

	_, err = c.dynamoSvc.PutItemWithContext(ctx, input)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to save run item", map[string]interface{}{
			"runID":  run.ID,
			"status": string(run.Status),
		})
		return err
	}

	return nil
}
