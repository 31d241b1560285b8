package agents

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultImageMIME = "image/png"

func illustrationPrompt(ideaTitle, description string) string {
	return fmt.Sprintf(`A minimalistic, modern, abstract 3D isometric digital art representation of a startup idea called "%s". Concept: %s. High quality, trending on dribbble, clean background.`, ideaTitle, description)
}

// GenerateIllustration renders an image for an idea and returns it as a data
// URI. Nothing escapes this call: errors and panics both become ("", false).
func (a *IdeaAgent) GenerateIllustration(ctx context.Context, ideaTitle, description string) (uri string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			a.logFailure(fmt.Errorf("panic: %v", r), zap.String("idea", ideaTitle))
			uri, ok = "", false
		}
	}()

	uri, err := a.generateIllustration(ctx, ideaTitle, description)
	if err != nil {
		a.logFailure(err, zap.String("idea", ideaTitle))
		return "", false
	}
	return uri, true
}

func (a *IdeaAgent) generateIllustration(ctx context.Context, ideaTitle, description string) (string, error) {
	const op = "generate illustration"

	resp, err := a.gen.GenerateContent(ctx, a.imageModel, genai.Text(illustrationPrompt(ideaTitle, description)), &genai.GenerateContentConfig{
		ResponseModalities: []string{string(genai.ModalityImage)},
	})
	if err != nil {
		return "", &GenerationError{Op: op, Err: fmt.Errorf("failed to call Gemini API: %w", err)}
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", &GenerationError{Op: op, Err: ErrEmptyResponse}
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
			continue
		}
		mime := part.InlineData.MIMEType
		if mime == "" {
			mime = defaultImageMIME
		}
		return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(part.InlineData.Data), nil
	}

	return "", &GenerationError{Op: op, Err: ErrNoImage}
}
