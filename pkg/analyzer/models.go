package analyzer

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mostafa-hamdan/StegDetector-Project/pkg/config"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/detector"
	"github.com/mostafa-hamdan/StegDetector-Project/pkg/models"
)

// Model kinds held by a ModelStore.
const (
	ModelAudio = "audio"
	ModelVideo = "video"
)

// ModelLoader loads the model of one kind.
type ModelLoader func(kind string) (*detector.Model, error)

// ModelStore loads each model at most once per process and hands the same
// immutable *detector.Model to every caller. A failed load is not cached, so
// artifacts installed later are picked up on the next request.
type ModelStore struct {
	load ModelLoader
	log  zerolog.Logger

	mu     sync.Mutex
	loaded map[string]*detector.Model
}

// NewModelStore returns a store reading the artifacts named in cfg.
func NewModelStore(cfg *config.Config, log zerolog.Logger) *ModelStore {
	files := map[string]config.ModelFiles{
		ModelAudio: cfg.AudioModel,
		ModelVideo: cfg.VideoModel,
	}
	return NewModelStoreWithLoader(func(kind string) (*detector.Model, error) {
		f, ok := files[kind]
		if !ok {
			return nil, &models.ModelError{Err: fmt.Errorf("unknown model kind %q", kind)}
		}
		scaler, classifier := cfg.ModelPaths(f)
		return detector.LoadModel(scaler, classifier)
	}, log)
}

// NewModelStoreWithLoader returns a store backed by an arbitrary loader.
func NewModelStoreWithLoader(load ModelLoader, log zerolog.Logger) *ModelStore {
	return &ModelStore{
		load:   load,
		log:    log.With().Str("component", "models").Logger(),
		loaded: make(map[string]*detector.Model),
	}
}

// Get returns the model of the given kind, loading it on first use.
func (s *ModelStore) Get(kind string) (*detector.Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m, ok := s.loaded[kind]; ok {
		return m, nil
	}
	m, err := s.load(kind)
	if err != nil {
		s.log.Debug().Str("kind", kind).Err(err).Msg("model unavailable")
		return nil, err
	}
	if m == nil {
		return nil, &models.ModelError{Err: fmt.Errorf("no %s model", kind)}
	}
	s.log.Info().Str("kind", kind).Int("features", m.NumFeatures()).Msg("model loaded")
	s.loaded[kind] = m
	return m, nil
}

// Audio returns the audio model.
func (s *ModelStore) Audio() (*detector.Model, error) {
	return s.Get(ModelAudio)
}

// Video returns the video model.
func (s *ModelStore) Video() (*detector.Model, error) {
	return s.Get(ModelVideo)
}
