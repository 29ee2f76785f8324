// Package tts synthesizes spoken replies through the OpenAI audio
// endpoint. Generated audio is cached on disk keyed by content hash, and
// per-call copies are published to a public directory that Twilio fetches
// over HTTP.
package tts

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/rileyzt/highiq-voiceagent/internal/models"
)

const (
	// DefaultModel is the speech synthesis model.
	DefaultModel = openai.SpeechModelTTS1
	// DefaultVoice is tuned for a warm phone-call register.
	DefaultVoice = openai.AudioSpeechNewParamsVoice("nova")
	// DefaultSpeed is slightly slower than real time for clarity on
	// narrowband phone audio.
	DefaultSpeed = 0.95

	// publicFileMaxAge is how long a published per-call audio file lives.
	publicFileMaxAge = 5 * time.Minute
	// cacheFileMaxAge is how long a cached synthesis result lives.
	cacheFileMaxAge = 24 * time.Hour

	dirPermissions = 0755
)

// Synthesizer is the speech surface the webhook handlers need.
type Synthesizer interface {
	// SpeakToURL synthesizes text and returns a public URL Twilio can play.
	SpeakToURL(ctx context.Context, text, callSID string) (string, error)
	// Healthy reports whether the service is configured and its
	// directories are writable.
	Healthy() error
}

// Opts holds configuration options for the TTS service.
type Opts struct {
	APIKey    string
	BaseURL   string
	Model     openai.SpeechModel
	Voice     openai.AudioSpeechNewParamsVoice
	CacheDir  string
	PublicDir string
	// ServerBaseURL is the externally reachable base URL of this server,
	// used to build audio links for Twilio.
	ServerBaseURL string
}

// Option configures the TTS service.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithBaseURL overrides the audio API endpoint.
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithModel overrides the speech model.
func WithModel(model openai.SpeechModel) Option {
	return func(o *Opts) { o.Model = model }
}

// WithVoice overrides the synthesis voice.
func WithVoice(voice openai.AudioSpeechNewParamsVoice) Option {
	return func(o *Opts) { o.Voice = voice }
}

// WithCacheDir sets the synthesis cache directory.
func WithCacheDir(dir string) Option {
	return func(o *Opts) { o.CacheDir = dir }
}

// WithPublicDir sets the public audio directory served under /audio/.
func WithPublicDir(dir string) Option {
	return func(o *Opts) { o.PublicDir = dir }
}

// WithServerBaseURL sets the externally reachable server base URL.
func WithServerBaseURL(url string) Option {
	return func(o *Opts) { o.ServerBaseURL = url }
}

// Service synthesizes and caches speech audio.
type Service struct {
	client        openai.Client
	model         openai.SpeechModel
	voice         openai.AudioSpeechNewParamsVoice
	cacheDir      string
	publicDir     string
	serverBaseURL string

	mu        sync.Mutex
	published map[string]time.Time
	cached    map[string]time.Time
	now       func() time.Time
}

// NewService creates the TTS service and its directories.
func NewService(opts ...Option) (*Service, error) {
	cfg := Opts{
		Model:         DefaultModel,
		Voice:         DefaultVoice,
		CacheDir:      "cache/tts",
		PublicDir:     "public/audio",
		ServerBaseURL: "http://localhost:8080",
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tts.NewService: API key not set")
	}
	for _, dir := range []string{cfg.CacheDir, cfg.PublicDir} {
		if err := os.MkdirAll(dir, dirPermissions); err != nil {
			return nil, fmt.Errorf("failed to create audio directory %s: %w", dir, err)
		}
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.BaseURL))
	}

	slog.Debug("tts.NewService: service ready", "model", cfg.Model, "voice", cfg.Voice,
		"cacheDir", cfg.CacheDir, "publicDir", cfg.PublicDir)
	return &Service{
		client:        openai.NewClient(clientOpts...),
		model:         cfg.Model,
		voice:         cfg.Voice,
		cacheDir:      cfg.CacheDir,
		publicDir:     cfg.PublicDir,
		serverBaseURL: strings.TrimRight(cfg.ServerBaseURL, "/"),
		published:     make(map[string]time.Time),
		cached:        make(map[string]time.Time),
		now:           time.Now,
	}, nil
}

// Synthesize returns MP3 audio for the text, serving repeats from the
// on-disk cache.
func (s *Service) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, models.ErrEmptySpeechText
	}
	clean := PreprocessText(text)
	key := s.cacheKey(clean)
	cachePath := filepath.Join(s.cacheDir, key+".mp3")

	if audio, err := os.ReadFile(cachePath); err == nil {
		slog.Debug("tts.Synthesize: cache hit", "key", key)
		return audio, nil
	}

	resp, err := s.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Model:          s.model,
		Input:          clean,
		Voice:          s.voice,
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
		Speed:          openai.Float(DefaultSpeed),
	})
	if err != nil {
		slog.Error("tts.Synthesize: speech request failed", "error", err)
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read speech audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("speech synthesis returned no audio")
	}

	if err := os.WriteFile(cachePath, audio, 0644); err != nil {
		slog.Warn("tts.Synthesize: failed to cache audio", "error", err, "key", key)
	} else {
		s.mu.Lock()
		s.cached[key] = s.now()
		s.mu.Unlock()
	}
	slog.Debug("tts.Synthesize: generated audio", "chars", len(clean), "bytes", len(audio))
	return audio, nil
}

// SpeakToURL synthesizes the text and publishes it as a per-call audio
// file, returning the URL Twilio plays. Published files are removed by the
// cleanup sweep after a few minutes.
func (s *Service) SpeakToURL(ctx context.Context, text, callSID string) (string, error) {
	audio, err := s.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}

	fileName := fmt.Sprintf("tts_%s_%s.mp3", callSID, uuid.NewString())
	filePath := filepath.Join(s.publicDir, fileName)
	if err := os.WriteFile(filePath, audio, 0644); err != nil {
		return "", fmt.Errorf("failed to publish audio file: %w", err)
	}

	s.mu.Lock()
	s.published[fileName] = s.now()
	s.mu.Unlock()

	url := fmt.Sprintf("%s/audio/%s", s.serverBaseURL, fileName)
	slog.Debug("tts.SpeakToURL: published audio", "url", url, "callSID", callSID)
	return url, nil
}

// CleanupStale removes published files past their lifetime and cache
// entries older than a day. It returns how many files were removed.
func (s *Service) CleanupStale(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for name, created := range s.published {
		if now.Sub(created) > publicFileMaxAge {
			if err := os.Remove(filepath.Join(s.publicDir, name)); err != nil && !os.IsNotExist(err) {
				slog.Warn("tts.CleanupStale: failed to remove published audio", "error", err, "file", name)
				continue
			}
			delete(s.published, name)
			removed++
		}
	}
	for key, created := range s.cached {
		if now.Sub(created) > cacheFileMaxAge {
			if err := os.Remove(filepath.Join(s.cacheDir, key+".mp3")); err != nil && !os.IsNotExist(err) {
				slog.Warn("tts.CleanupStale: failed to remove cached audio", "error", err, "key", key)
				continue
			}
			delete(s.cached, key)
			removed++
		}
	}
	if removed > 0 {
		slog.Info("tts.CleanupStale: sweep complete", "removed", removed)
	}
	return removed
}

// Healthy verifies the public directory is writable.
func (s *Service) Healthy() error {
	probe := filepath.Join(s.publicDir, ".healthcheck")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("tts public directory not writable: %w", err)
	}
	return os.Remove(probe)
}

func (s *Service) cacheKey(text string) string {
	sum := md5.Sum([]byte(text + "|" + string(s.model) + "|" + string(s.voice)))
	return hex.EncodeToString(sum[:])
}
