package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	vision "cloud.google.com/go/vision/v2/apiv1"
	visionpb "cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

const visionTimeout = 60 * time.Second

// CloudVisionOCR returns a provider that opens a Cloud Vision client per image.
// Credentials come from the environment (GOOGLE_APPLICATION_CREDENTIALS) plus opts.
func CloudVisionOCR(opts ...option.ClientOption) OCRProvider {
	return func(ctx context.Context) (OCREngine, error) {
		client, err := vision.NewImageAnnotatorClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("vision client: %w", err)
		}
		return &visionEngine{client: client}, nil
	}
}

type visionEngine struct {
	client *vision.ImageAnnotatorClient
}

func (e *visionEngine) Recognize(ctx context.Context, imagePath string) (string, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if len(img) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, visionTimeout)
	defer cancel()

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{{
			Image:    &visionpb.Image{Content: img},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	}
	resp, err := e.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return "", fmt.Errorf("vision BatchAnnotateImages: %w", err)
	}
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return "", nil
	}
	r0 := resp.Responses[0]
	if r0.Error != nil && r0.Error.Message != "" {
		return "", fmt.Errorf("vision annotate error: %s", r0.Error.Message)
	}
	if r0.FullTextAnnotation == nil {
		return "", nil
	}
	return strings.TrimSpace(r0.FullTextAnnotation.Text), nil
}

func (e *visionEngine) Close() error {
	return e.client.Close()
}
