package main

import (
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog/log"

	"github.com/sirliboyev-uz/ai-video-agent/application/services"
	"github.com/sirliboyev-uz/ai-video-agent/config"
	"github.com/sirliboyev-uz/ai-video-agent/infrastructure/adapters"
	"github.com/sirliboyev-uz/ai-video-agent/infrastructure/gin_interface/controllers"
	"github.com/sirliboyev-uz/ai-video-agent/middleware"
	mockprovider "github.com/sirliboyev-uz/ai-video-agent/mockprovider"
)

func main() {
	// .env is only present in local runs.
	_ = godotenv.Load()

	soraConfig, err := config.GetSoraConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get sora config")
	}

	gptConfig, err := config.GetGptConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get gpt config")
	}

	elevenLabsConfig, err := config.GetElevenLabsConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get eleven labs config")
	}

	s3Config, err := config.GetS3Config()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get s3 config")
	}

	dynamoConfig, err := config.GetDynamoConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get dynamo config")
	}

	authConfig, err := config.GetAuthConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get auth config")
	}

	pipelineConfig, err := config.GetPipelineConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to get pipeline config")
	}

	zeroLogger := adapters.NewZerologWrapper(os.Getenv("LOG_LEVEL"))

	panicHandler := func(p interface{}) {
		zeroLogger.Error(fmt.Errorf("%v", p), "Panic in worker pool")
	}

	workerPool, err := ants.NewPool(120, ants.WithPanicHandler(panicHandler))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker pool")
	}
	defer workerPool.Release()

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))

	s3Client := s3.New(sess)
	dynamoClient := dynamodb.New(sess)

	contentFetcher := adapters.NewContentFetcher(zeroLogger)

	taskClient := adapters.NewSoraTaskClient(contentFetcher, soraConfig, zeroLogger)
	scriptGenerator := adapters.NewScriptGenerator(gptConfig, zeroLogger)
	scenePlanner := adapters.NewScenePlanner(contentFetcher, gptConfig, zeroLogger)
	narrationGenerator := adapters.NewNarrationGenerator(contentFetcher, elevenLabsConfig)
	videoAssembler := adapters.NewFFmpegAssembler(zeroLogger)
	mediaStore := adapters.NewS3MediaStore(s3Client, s3Config)
	videoPublisher := adapters.NewS3VideoPublisher(zeroLogger, s3Client, s3Config)
	runRecorder := adapters.NewDynamoRunRecorder(zeroLogger, dynamoClient, dynamoConfig)

	sceneBatchGenerator := services.NewSceneBatchGenerator(zeroLogger, taskClient, workerPool, pipelineConfig, soraConfig.RemoveWatermark)

	pipelineOrchestrator := services.NewPipelineOrchestrator(
		zeroLogger,
		scriptGenerator,
		scenePlanner,
		narrationGenerator,
		sceneBatchGenerator,
		taskClient,
		videoAssembler,
		mediaStore,
		runRecorder,
		videoPublisher,
		pipelineConfig,
	)

	progressEmitter := services.NewProgressEmitter(zeroLogger, pipelineOrchestrator, workerPool)

	videoController := controllers.NewVideoController(zeroLogger, pipelineOrchestrator, progressEmitter, pipelineConfig)

	router := gin.Default()

	err = router.SetTrustedProxies(nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set trusted proxies!")
	}

	authHandler, err := middleware.NewAuthHandler(authConfig.JwksUrl)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth handler!")
	}

	router.Use(authHandler.AuthMiddleware())

	mockprovider.Init(router, zeroLogger)

	videoController.RegisterRoutes(router)

	err = router.Run(":8080")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start server!")
	}
}
