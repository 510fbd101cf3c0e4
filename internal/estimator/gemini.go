package estimator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"github.com/liftlab/posecheck/internal/pose"
	"github.com/liftlab/posecheck/internal/sampler"
)

// DefaultModelName is the default Gemini model for pose estimation.
// Can be overridden via configuration.
const DefaultModelName = "gemini-3-flash-preview"

// poseSystemInstruction primes the model as a single-body keypoint
// estimator with a strict JSON contract.
const poseSystemInstruction = `You are a precise human body-pose estimation system.
Given a single image you locate the joints of the most prominent person and
report normalized coordinates. You respond with JSON only — no prose, no
markdown fences.`

// GeminiEstimator implements Capability with the Gemini API. The client is
// constructed once and reused across frames; release it when the sequence
// is done by letting it go out of scope.
type GeminiEstimator struct {
	client *genai.Client
	model  string
}

// NewGeminiEstimator wraps an existing Gemini client as a pose-estimation
// capability. An empty model selects DefaultModelName.
func NewGeminiEstimator(client *genai.Client, model string) *GeminiEstimator {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiEstimator{client: client, model: model}
}

// NewGeminiClient creates a Gemini API client from an API key.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// EstimatePose sends one downscaled frame to Gemini and parses the JSON
// keypoint response into an Observation. Returns (nil, nil) when the model
// reports no detectable body.
func (g *GeminiEstimator) EstimatePose(ctx context.Context, frame sampler.Frame) (*Observation, error) {
	inline, err := downscaleForInline(frame.Data)
	if err != nil {
		return nil, err
	}

	parts := []*genai.Part{
		{InlineData: &genai.Blob{MIMEType: "image/jpeg", Data: inline}},
		{Text: buildPosePrompt()},
	}
	contents := []*genai.Content{{Role: "user", Parts: parts}}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: poseSystemInstruction}},
		},
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	elapsed := time.Since(start)
	if err != nil {
		log.Warn().Err(err).Int("frame", frame.Index).Dur("elapsed", elapsed).Msg("Gemini pose request failed")
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	raw := resp.Text()
	log.Debug().
		Int("frame", frame.Index).
		Dur("elapsed", elapsed).
		Int("response_length", len(raw)).
		Msg("Gemini pose response received")

	return parseObservation(raw)
}

// buildPosePrompt asks for the tracked joints by name with the normalized
// coordinate convention spelled out, since models default to top-left
// origins otherwise.
func buildPosePrompt() string {
	var sb strings.Builder
	sb.WriteString("Locate the most prominent person in the image and estimate these joints:\n")
	for _, name := range pose.TrackedJoints {
		sb.WriteString("- ")
		sb.WriteString(string(name))
		sb.WriteString("\n")
	}
	sb.WriteString("\nCoordinate convention: x and y are in [0,1] with the ORIGIN AT THE ")
	sb.WriteString("BOTTOM-LEFT of the image (y increases upward).\n\n")
	sb.WriteString("Respond with ONLY this JSON shape:\n")
	sb.WriteString(`{"detected": true, "confidence": 0.0, "joints": {"leftKnee": {"x": 0.0, "y": 0.0, "confidence": 0.0}}}`)
	sb.WriteString("\n\nOmit joints you cannot locate. Set confidence per joint in [0,1]. ")
	sb.WriteString(`If no person is visible, respond {"detected": false}.`)
	return sb.String()
}

// geminiPoseResponse is the JSON contract with the model.
type geminiPoseResponse struct {
	Detected   bool                      `json:"detected"`
	Confidence float64                   `json:"confidence"`
	Joints     map[string]geminiKeypoint `json:"joints"`
}

type geminiKeypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// parseObservation converts raw model output into an Observation, dropping
// landmarks outside the tracked vocabulary. A detected=false response maps
// to (nil, nil).
func parseObservation(raw string) (*Observation, error) {
	parsed, err := decodePoseReply(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pose response: %w", err)
	}
	if !parsed.Detected {
		return nil, nil
	}

	obs := &Observation{
		Points:     make(map[pose.JointName]Keypoint, len(parsed.Joints)),
		Confidence: parsed.Confidence,
	}
	for name, kp := range parsed.Joints {
		jointName := pose.JointName(name)
		if !pose.IsTracked(jointName) {
			log.Debug().Str("joint", name).Msg("Dropping untracked landmark from response")
			continue
		}
		obs.Points[jointName] = Keypoint{X: kp.X, Y: kp.Y, Confidence: kp.Confidence}
	}
	return obs, nil
}
