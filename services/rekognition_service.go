package services

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// ImageLabeler names what an image shows, e.g. "Pizza" or "Salad".
type ImageLabeler interface {
	DetectLabels(ctx context.Context, image []byte) ([]string, error)
}

type RekognitionService struct {
	client *rekognition.Client
}

func NewRekognitionService(ctx context.Context, region string) (*RekognitionService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &RekognitionService{client: rekognition.NewFromConfig(cfg)}, nil
}

// DetectLabels returns up to five labels with at least 75% confidence.
func (r *RekognitionService) DetectLabels(ctx context.Context, image []byte) ([]string, error) {
	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(5),
		MinConfidence: aws.Float32(75),
	})
	if err != nil {
		return nil, err
	}

	labels := make([]string, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name != nil {
			labels = append(labels, *l.Name)
		}
	}
	return labels, nil
}
