package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"nutrilens/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awssns "github.com/aws/aws-sdk-go-v2/service/sns"
	"gorm.io/gorm"
)

type PushService struct {
	db             *gorm.DB
	sns            *awssns.Client
	fcmPlatformArn string
}

func NewPushService(ctx context.Context, db *gorm.DB, region, fcmPlatformArn string) (*PushService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &PushService{
		db:             db,
		sns:            awssns.NewFromConfig(cfg),
		fcmPlatformArn: fcmPlatformArn,
	}, nil
}

type RegisterDeviceReq struct {
	Platform string `json:"platform" binding:"required,oneof=android ios"`
	Token    string `json:"token" binding:"required"`
}

func tokenHash(tok string) string {
	h := sha256.Sum256([]byte(tok))
	return hex.EncodeToString(h[:])
}

// RegisterDevice creates (or refreshes) the SNS endpoint for a device token.
func (p *PushService) RegisterDevice(ctx context.Context, userID uint, platform, token string) (*models.UserDevice, error) {
	if p.fcmPlatformArn == "" {
		return nil, errors.New("SNS_FCM_ARN not set")
	}

	out, err := p.sns.CreatePlatformEndpoint(ctx, &awssns.CreatePlatformEndpointInput{
		PlatformApplicationArn: aws.String(p.fcmPlatformArn),
		Token:                  aws.String(token),
	})
	if err != nil {
		return nil, err
	}

	dev := models.UserDevice{
		UserID:      userID,
		Platform:    strings.ToLower(platform),
		TokenHash:   tokenHash(token),
		EndpointARN: aws.ToString(out.EndpointArn),
		Enabled:     true,
		UpdatedAt:   time.Now(),
	}
	err = p.db.WithContext(ctx).
		Where("user_id = ? AND token_hash = ?", userID, dev.TokenHash).
		Assign(models.UserDevice{EndpointARN: dev.EndpointARN, Platform: dev.Platform, Enabled: true}).
		FirstOrCreate(&dev).Error
	if err != nil {
		return nil, err
	}
	return &dev, nil
}

// PushToUser publishes to every enabled endpoint of userID. Failures are
// logged only.
func (p *PushService) PushToUser(ctx context.Context, userID uint, title, body string, data map[string]string) {
	var endpoints []models.UserDevice
	if err := p.db.WithContext(ctx).Where("user_id = ? AND enabled = ?", userID, true).Find(&endpoints).Error; err != nil {
		log.Printf("push: load devices for user %d: %v", userID, err)
		return
	}
	if len(endpoints) == 0 {
		return
	}

	gcm, _ := json.Marshal(map[string]any{
		"notification": map[string]string{"title": title, "body": body},
		"data":         data,
	})
	raw, _ := json.Marshal(map[string]string{
		"default": body,
		"GCM":     string(gcm),
	})
	for _, d := range endpoints {
		_, err := p.sns.Publish(ctx, &awssns.PublishInput{
			MessageStructure: aws.String("json"),
			Message:          aws.String(string(raw)),
			TargetArn:        aws.String(d.EndpointARN),
		})
		if err != nil {
			log.Printf("push: publish to device %d: %v", d.ID, err)
		}
	}
}

// SetEnabled toggles push delivery for all devices of userID.
func (p *PushService) SetEnabled(ctx context.Context, userID uint, enabled bool) error {
	return p.db.WithContext(ctx).Model(&models.UserDevice{}).
		Where("user_id = ?", userID).
		Update("enabled", enabled).Error
}
