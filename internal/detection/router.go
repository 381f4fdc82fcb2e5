package detection

import (
	"context"
	"image"
	"os"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/rs/zerolog/log"

	"festival-cleanup-backend/internal/config"
)

// Router resolves one photo into a Summary. Analyze never returns an error:
// every failure mode degrades to a summary with unknown fields.
type Router struct {
	remote        *remoteClient
	local         Model
	remoteClasses map[string]struct{}
	localClasses  map[string]struct{}
}

// NewRouter builds a router from configuration. The remote backend is enabled
// only when both endpoint and credential are configured. local may be nil when
// no fallback model is available.
func NewRouter(cfg config.DetectionConfig, local Model) *Router {
	r := &Router{
		local:         local,
		remoteClasses: classSet(cfg.Remote.TrashClasses),
		localClasses:  classSet(cfg.Local.TrashClasses),
	}
	if cfg.Remote.URL != "" && cfg.Remote.APIKey != "" {
		r.remote = newRemoteClient(cfg.Remote)
	}
	return r
}

// Analyze runs trash detection on the image at imagePath. Remote inference is
// tried first, then the local model; with neither available the summary comes
// back with all nullable fields nil and Source "unknown".
func (r *Router) Analyze(ctx context.Context, imagePath string) Summary {
	summary := Summary{Source: SourceUnknown}
	summary.ImageWidth, summary.ImageHeight = imageDims(imagePath)

	if _, err := os.Stat(imagePath); err != nil {
		log.Info().Str("path", imagePath).Msg("Detection skipped, image not reachable")
		return summary
	}

	if r.remote != nil {
		detections, err := r.remote.Detect(ctx, imagePath)
		if err == nil {
			return r.summarize(summary, detections, SourceRemote, r.remoteClasses)
		}
		log.Warn().Err(err).Str("path", imagePath).Msg("Remote detection failed, falling back to local model")
	}

	if r.local != nil {
		detections, err := r.local.Detect(ctx, imagePath)
		if err == nil {
			return r.summarize(summary, detections, SourceLocal, r.localClasses)
		}
		log.Error().Err(err).Str("path", imagePath).Msg("Local detection failed")
	}

	log.Info().Str("path", imagePath).Msg("Detection skipped, no inference backend available")
	return summary
}

// summarize filters trash-relevant classes and fills the detection outcome.
// An empty allow-list means the backend's model is trash-specific and every
// detection counts.
func (r *Router) summarize(base Summary, detections []Detection, source string, classes map[string]struct{}) Summary {
	var candidates []Detection
	for _, det := range detections {
		if len(classes) == 0 {
			candidates = append(candidates, det)
			continue
		}
		if _, ok := classes[det.ClassName]; ok {
			candidates = append(candidates, det)
		}
	}

	hasTrash := len(candidates) > 0
	count := len(candidates)

	base.Source = source
	base.HasTrash = &hasTrash
	base.TrashCount = &count
	base.RawDetections = detections
	if hasTrash {
		maxConf := candidates[0].Confidence
		for _, det := range candidates[1:] {
			if det.Confidence > maxConf {
				maxConf = det.Confidence
			}
		}
		base.MaxConfidence = &maxConf
	}
	return base
}

// imageDims reads the image dimensions without decoding pixel data.
// Best-effort: unreadable or corrupt images yield nil dimensions.
func imageDims(imagePath string) (*int, *int) {
	file, err := os.Open(imagePath)
	if err != nil {
		return nil, nil
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, nil
	}
	return &cfg.Width, &cfg.Height
}

func classSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
