package googlecloud

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/artem13815/interview/pkg/speech"
)

// Client talks to the Google Cloud Speech-to-Text and Text-to-Speech REST
// APIs with API-key auth. Audio is LINEAR16 mono at 16 kHz on both paths.
type Client struct {
	APIKey     string
	SpeechBase string
	TTSBase    string
	httpDo     *http.Client
}

const (
	sampleRateHertz = 16000
	languageCode    = "en-US"

	voiceMale   = "en-US-Chirp3-HD-Charon"
	voiceFemale = "en-US-Chirp3-HD-Leda"
)

func New(apiKey, speechBase, ttsBase string) *Client {
	if speechBase == "" {
		speechBase = "https://speech.googleapis.com/v1"
	}
	if ttsBase == "" {
		ttsBase = "https://texttospeech.googleapis.com/v1"
	}
	return &Client{
		APIKey:     apiKey,
		SpeechBase: speechBase,
		TTSBase:    ttsBase,
		httpDo: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type recognizeRequest struct {
	Config struct {
		Encoding                   string `json:"encoding"`
		SampleRateHertz            int    `json:"sampleRateHertz"`
		LanguageCode               string `json:"languageCode"`
		EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
		Model                      string `json:"model"`
		UseEnhanced                bool   `json:"useEnhanced"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type recognizeResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe sends audio bytes to speech:recognize and concatenates the top
// alternative of every result.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if c.APIKey == "" {
		return "", errors.New("google api key is empty")
	}
	if len(audio) == 0 {
		return "", errors.New("audio content is empty")
	}

	var reqBody recognizeRequest
	reqBody.Config.Encoding = "LINEAR16"
	reqBody.Config.SampleRateHertz = sampleRateHertz
	reqBody.Config.LanguageCode = languageCode
	reqBody.Config.EnableAutomaticPunctuation = true
	reqBody.Config.Model = "latest_long"
	reqBody.Config.UseEnhanced = true
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(audio)

	var out recognizeResponse
	endpoint := fmt.Sprintf("%s/speech:recognize?key=%s", c.SpeechBase, c.APIKey)
	if err := c.post(ctx, endpoint, reqBody, &out); err != nil {
		return "", fmt.Errorf("transcription error: %w", err)
	}

	var b strings.Builder
	for _, r := range out.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		b.WriteString(r.Alternatives[0].Transcript)
	}
	return b.String(), nil
}

type synthesizeRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice struct {
		LanguageCode string `json:"languageCode"`
		Name         string `json:"name"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string   `json:"audioEncoding"`
		SpeakingRate  float64  `json:"speakingRate"`
		Pitch         float64  `json:"pitch"`
		VolumeGainDB  float64  `json:"volumeGainDb"`
		EffectsProfID []string `json:"effectsProfileId,omitempty"`
	} `json:"audioConfig"`
}

type synthesizeResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize renders text into LINEAR16 audio via text:synthesize.
func (c *Client) Synthesize(ctx context.Context, text string, voice speech.VoiceVariant) ([]byte, error) {
	if c.APIKey == "" {
		return nil, errors.New("google api key is empty")
	}

	// The models occasionally leak markdown markers into answers; strip them
	// before they are read aloud.
	text = strings.ReplaceAll(text, "asterisk", "")
	text = strings.ReplaceAll(text, "*", "")
	text = strings.ReplaceAll(text, "\n\n", " ")
	text = strings.ReplaceAll(text, "\n", " ")
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("text to synthesize is empty")
	}

	var reqBody synthesizeRequest
	reqBody.Input.Text = text
	reqBody.Voice.LanguageCode = languageCode
	reqBody.Voice.Name = voiceMale
	if voice == speech.VoiceFemale {
		reqBody.Voice.Name = voiceFemale
	}
	reqBody.AudioConfig.AudioEncoding = "LINEAR16"
	reqBody.AudioConfig.SpeakingRate = 0.98
	reqBody.AudioConfig.Pitch = 0.0
	reqBody.AudioConfig.VolumeGainDB = 1.0
	reqBody.AudioConfig.EffectsProfID = []string{"large-home-entertainment-class-device"}

	var out synthesizeResponse
	endpoint := fmt.Sprintf("%s/text:synthesize?key=%s", c.TTSBase, c.APIKey)
	if err := c.post(ctx, endpoint, reqBody, &out); err != nil {
		return nil, fmt.Errorf("speech generation error: %w", err)
	}

	audio, err := base64.StdEncoding.DecodeString(out.AudioContent)
	if err != nil {
		return nil, fmt.Errorf("decode audio content: %w", err)
	}
	return audio, nil
}

func (c *Client) post(ctx context.Context, endpoint string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpDo.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errMap map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&errMap)
		return fmt.Errorf("google api http %d: %v", resp.StatusCode, errMap)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
