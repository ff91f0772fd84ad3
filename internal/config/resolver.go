package config

import (
	"errors"
	"strings"
	"sync"

	"github.com/lorehaven/recap/internal/errortypes"
	"github.com/lorehaven/recap/internal/logger"
	"github.com/lorehaven/recap/internal/providers"
	"github.com/lorehaven/recap/internal/transport"
)

// MinKeyLength is the shortest API key accepted by validation.
const MinKeyLength = 10

// Errors
var (
	ErrEmptyKey         = errors.New("api key is empty")
	ErrKeyTooShort      = errors.New("api key is too short")
	ErrEmptyURL         = errors.New("api url is empty")
	ErrCompanionPending = errors.New("companion app detection pending")
)

// ProviderConfig is the resolved configuration the engine dispatches with.
type ProviderConfig struct {
	Provider       string
	APIKey         string
	APIURL         string
	Model          string
	CachingEnabled bool
}

// ExternalSource lets the host supply provider configuration from its own
// storage. The resolver prefers it over the local settings when registered.
type ExternalSource interface {
	// TryLoadExternalConfig returns the host's provider configuration,
	// or false when the host has none to offer.
	TryLoadExternalConfig() (*ProviderConfig, bool)
}

// Resolver resolves and validates the active provider configuration.
type Resolver struct {
	settings     *Settings
	external     ExternalSource
	companionKey string
	log          *logger.Logger
	mu           sync.RWMutex
}

// NewResolver creates a resolver over the given settings. The external
// source may be nil when the host opts out of supplying configuration.
func NewResolver(settings *Settings, external ExternalSource) *Resolver {
	if settings == nil {
		settings = NewSettings()
	}
	return &Resolver{
		settings: settings,
		external: external,
		log:      logger.GetLogger("config"),
	}
}

// SetCompanionKey records a session key obtained from the local companion
// app. The next Resolve call will use it.
func (r *Resolver) SetCompanionKey(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companionKey = key
}

// CompanionBaseURL returns the companion app endpoint to probe.
func (r *Resolver) CompanionBaseURL() string {
	return r.settings.Player2.LocalBaseURL
}

// Resolve produces a validated ProviderConfig. The external source is
// consulted first; on opt-out or failure the local settings are used.
// For player2, a detected companion key routes to the local endpoint, a
// manually supplied key to the remote one, and otherwise resolution stays
// incomplete until detection finishes (ErrCompanionPending).
func (r *Resolver) Resolve() (*ProviderConfig, error) {
	if r.external != nil {
		if cfg, ok := r.external.TryLoadExternalConfig(); ok {
			if err := r.Validate(cfg); err == nil {
				r.log.Info("Using externally supplied provider configuration: %s", cfg.Provider)
				return cfg, nil
			} else {
				r.log.Warn("External configuration invalid, falling back to settings: %v", err)
			}
		}
	}

	cfg := &ProviderConfig{
		Provider:       r.settings.Provider.Name,
		APIKey:         r.settings.Provider.APIKey,
		APIURL:         r.settings.Provider.APIURL,
		Model:          r.settings.Provider.Model,
		CachingEnabled: r.settings.Provider.CachingEnabled,
	}

	if cfg.Provider == providers.ProviderPlayer2 {
		if err := r.resolvePlayer2(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.APIURL == "" {
		cfg.APIURL = providers.DefaultURL(cfg.Provider)
	}

	if err := r.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolvePlayer2 fills key and endpoint for the player2 variant.
func (r *Resolver) resolvePlayer2(cfg *ProviderConfig) error {
	r.mu.RLock()
	companionKey := r.companionKey
	r.mu.RUnlock()

	switch {
	case companionKey != "":
		base := r.settings.Player2.LocalBaseURL
		if base == "" {
			base = "http://127.0.0.1:4315"
		}
		cfg.APIKey = companionKey
		cfg.APIURL = strings.TrimRight(base, "/") + "/v1/chat/completions"
	case cfg.APIKey != "":
		// Manually supplied key: talk to the remote endpoint.
		if cfg.APIURL == "" {
			cfg.APIURL = providers.Player2APIURL
		}
	default:
		return errortypes.ConfigurationError(ErrCompanionPending, "player2 has no key yet")
	}

	return nil
}

// Validate applies the validation rules in order; the first hard failure
// short-circuits. An empty model is substituted with the provider default
// and only warned about, as is a suspicious key prefix.
func (r *Resolver) Validate(cfg *ProviderConfig) error {
	if cfg.APIKey == "" {
		return errortypes.ConfigurationError(ErrEmptyKey, "provider "+cfg.Provider)
	}
	if len(cfg.APIKey) < MinKeyLength {
		return errortypes.ConfigurationError(ErrKeyTooShort, "provider "+cfg.Provider).
			WithField("key", transport.SanitizeKey(cfg.APIKey))
	}
	if cfg.APIURL == "" {
		return errortypes.ConfigurationError(ErrEmptyURL, "provider "+cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = providers.DefaultModel(cfg.Provider)
		r.log.Warn("No model configured for %s, using default %s", cfg.Provider, cfg.Model)
	}

	switch cfg.Provider {
	case providers.ProviderOpenAI, providers.ProviderDeepSeek:
		if !strings.HasPrefix(cfg.APIKey, "sk-") {
			r.log.Warn("Key for %s does not look like an sk- key: %s",
				cfg.Provider, transport.SanitizeKey(cfg.APIKey))
		}
	}

	return nil
}
