package main

import (
	"context"
	"log"
	"time"
	_ "time/tzdata"

	"nutrilens/config"
	"nutrilens/controllers"
	"nutrilens/middlewares"
	"nutrilens/routes"
	"nutrilens/services"
	"nutrilens/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	gin.SetMode(cfg.GinMode)

	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	ctx := context.Background()
	cal := services.NewCalendar(time.Now, cfg.Location)

	completer, closeCompleter, err := newCompleter(ctx, cfg)
	if err != nil {
		log.Fatalf("completion backend: %v", err)
	}
	defer closeCompleter()

	var store services.ImageStore
	mediaRoot := ""
	switch cfg.Storage.Driver {
	case "s3":
		s3Store, err := services.NewS3ImageStore(ctx, cfg.Storage.S3Region, cfg.Storage.S3Bucket, cfg.Storage.CloudFrontURL)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		store = s3Store
	default:
		store = services.NewLocalImageStore(cfg.Storage.MediaRoot, cfg.Storage.MediaURL)
		mediaRoot = cfg.Storage.MediaRoot
	}

	var labeler services.ImageLabeler
	if cfg.RekognitionEnabled {
		rek, err := services.NewRekognitionService(ctx, cfg.AWSRegion)
		if err != nil {
			log.Printf("rekognition disabled: %v", err)
		} else {
			labeler = rek
		}
	}

	var mailer services.Mailer
	if cfg.SESEmail != "" {
		m, err := utils.NewSESMailer(ctx, cfg.AWSRegion, cfg.SESEmail)
		if err != nil {
			log.Printf("ses disabled: %v", err)
		} else {
			mailer = m
		}
	}

	rt := services.NewRealtimeHub()
	var (
		push   *services.PushService
		pusher services.Pusher
	)
	if cfg.SNSFCMArn != "" {
		push, err = services.NewPushService(ctx, db, cfg.AWSRegion, cfg.SNSFCMArn)
		if err != nil {
			log.Printf("push disabled: %v", err)
		} else {
			pusher = push
		}
	}
	bus := services.NewEventBus(rt, pusher)

	accounts := services.NewAccountService(db, mailer)
	intake := services.NewIntakeService(db, cal, store, labeler, bus)
	history := services.NewHistoryService(db)
	evaluation := services.NewEvaluationService(db, cal, intake, history, completer, bus)

	deps := routes.Deps{
		JWTSecret:       cfg.JWTSecret,
		MediaURL:        cfg.Storage.MediaURL,
		MediaRoot:       mediaRoot,
		Auth:            controllers.NewAuthController(accounts, cfg.JWTSecret, cfg.JWTTTL),
		User:            controllers.NewUserController(accounts),
		Intake:          controllers.NewIntakeController(intake, cal),
		Evaluation:      controllers.NewEvaluationController(evaluation),
		Analytics:       controllers.NewAnalyticsController(services.NewAnalyticsService(db, cal), cal),
		Realtime:        controllers.NewRealtimeController(rt),
		EvaluateLimiter: middlewares.NewUserRateLimiter(cfg.EvaluateRatePerMinute),
	}
	if push != nil {
		deps.Devices = controllers.NewDeviceController(push)
	}

	r := routes.SetupRouter(deps)
	log.Printf("listening on :%s (timezone %s, llm %s)", cfg.Port, cfg.Location, cfg.LLM.Provider)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// newCompleter builds the configured completion backend wrapped with the
// per-attempt timeout and single retry.
func newCompleter(ctx context.Context, cfg *config.Config) (services.Completer, func(), error) {
	switch cfg.LLM.Provider {
	case "vertex":
		v, err := services.NewVertexCompleter(ctx, cfg.LLM.VertexProject, cfg.LLM.VertexLocation, cfg.LLM.VertexModel, cfg.LLM.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := v.Close(); err != nil {
				log.Printf("vertex close: %v", err)
			}
		}
		return services.NewRetryingCompleter(v, cfg.LLM.Timeout), closer, nil
	default:
		if cfg.LLM.OpenAIKey == "" {
			log.Printf("OPENAI_API_KEY not set, evaluations will fail")
		}
		o := services.NewOpenAICompleter(cfg.LLM.OpenAIBaseURL, cfg.LLM.OpenAIKey, cfg.LLM.OpenAIModel)
		return services.NewRetryingCompleter(o, cfg.LLM.Timeout), func() {}, nil
	}
}
