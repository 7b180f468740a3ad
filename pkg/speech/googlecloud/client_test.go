package googlecloud

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/artem13815/interview/pkg/speech"
)

func TestTranscribeRequestShape(t *testing.T) {
	var got recognizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/speech:recognize", r.URL.Path)
		require.Equal(t, "test-key", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"hello "}]},{"alternatives":[{"transcript":"world"}]}]}`))
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, srv.URL)
	text, err := c.Transcribe(context.Background(), []byte("RIFFaudio"))
	require.NoError(t, err)
	require.Equal(t, "hello world", text)

	require.Equal(t, "LINEAR16", got.Config.Encoding)
	require.Equal(t, 16000, got.Config.SampleRateHertz)
	require.Equal(t, "en-US", got.Config.LanguageCode)
	decoded, err := base64.StdEncoding.DecodeString(got.Audio.Content)
	require.NoError(t, err)
	require.Equal(t, []byte("RIFFaudio"), decoded)
}

func TestTranscribeServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad audio"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, srv.URL)
	_, err := c.Transcribe(context.Background(), []byte("x"))
	require.Error(t, err)
}

func TestSynthesizeVoiceSelection(t *testing.T) {
	var got synthesizeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/text:synthesize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(synthesizeResponse{
			AudioContent: base64.StdEncoding.EncodeToString([]byte("wav-bytes")),
		})
	}))
	defer srv.Close()

	c := New("test-key", srv.URL, srv.URL)
	audio, err := c.Synthesize(context.Background(), "Tell me about *your* startup.\n\nGo on.", speech.VoiceFemale)
	require.NoError(t, err)
	require.Equal(t, []byte("wav-bytes"), audio)

	require.Equal(t, "en-US-Chirp3-HD-Leda", got.Voice.Name)
	// markdown markers and newlines are stripped before synthesis
	require.Equal(t, "Tell me about your startup. Go on.", got.Input.Text)
}

func TestSynthesizeEmptyText(t *testing.T) {
	c := New("test-key", "http://unused", "http://unused")
	_, err := c.Synthesize(context.Background(), "***", speech.VoiceMale)
	require.Error(t, err)
}
