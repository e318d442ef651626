package postprocessors

import (
	"github.com/custodia-labs/sercha-voice/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-voice/internal/postprocessors/chunker"
	"github.com/custodia-labs/sercha-voice/internal/postprocessors/enrich"
	"github.com/custodia-labs/sercha-voice/internal/postprocessors/tokencap"
)

// RegisterDefaults registers all built-in processors with the registry.
// The tokenizer is shared by the chunker and the token cap so both
// measure chunks the same way.
func RegisterDefaults(r *Registry, tokenizer driven.Tokenizer) {
	r.Register("chunker", StageSplit, func(cfg map[string]any) (driven.PostProcessor, error) {
		return buildChunker(cfg, tokenizer)
	})
	r.Register("enrich", StageTransform, func(_ map[string]any) (driven.PostProcessor, error) {
		return enrich.New(), nil
	})
	r.Register("tokencap", StageCap, func(cfg map[string]any) (driven.PostProcessor, error) {
		return tokencap.New(tokenizer, getIntFromConfig(cfg, "max_tokens"))
	})
}

// buildChunker creates a chunker processor from generic config.
// Supported config keys:
//   - max_tokens (int): Token budget per chunk (default: 512)
func buildChunker(cfg map[string]any, tokenizer driven.Tokenizer) (driven.PostProcessor, error) {
	opts := []chunker.Option{chunker.WithTokenizer(tokenizer)}

	if size := getIntFromConfig(cfg, "max_tokens"); size > 0 {
		opts = append(opts, chunker.WithMaxTokens(size))
	}

	return chunker.New(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
