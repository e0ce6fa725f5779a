package plugins

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mochapipe/internal/services"
)

// Creator attribute keys.
const (
	AttrLayers               = "layers"
	AttrExporter             = "exporter"
	AttrLayerMode            = "layer_mode"
	AttrFrameTime            = "frame_time"
	AttrInvert               = "invert"
	AttrRemoveLensDistortion = "remove_lens_distortion"
)

// Layer modes.
const (
	LayerModeSelected = "selected"
	LayerModeAll      = "all"
)

func attrInts(attrs map[string]any, key string) ([]int, error) {
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return nil, nil
	}
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []int:
		return append([]int(nil), v...), nil
	default:
		items = []any{v}
	}
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := toInt(item)
		if err != nil {
			return nil, fmt.Errorf("%w: attribute %s: %w", services.ErrValidation, key, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func attrStrings(attrs map[string]any, key string) ([]string, error) {
	raw, ok := attrs[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case string:
		return []string{v}, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: attribute %s: %v is not a string", services.ErrValidation, key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: attribute %s: unexpected %T", services.ErrValidation, key, raw)
	}
}

func attrString(attrs map[string]any, key, fallback string) string {
	if s, ok := attrs[key].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func attrBool(attrs map[string]any, key string) (bool, error) {
	switch v := attrs[key].(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("%w: attribute %s: %w", services.ErrValidation, key, err)
		}
		return b, nil
	default:
		return false, fmt.Errorf("%w: attribute %s: unexpected %T", services.ErrValidation, key, v)
	}
}

func attrFloat(attrs map[string]any, key string) (float64, error) {
	switch v := attrs[key].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, fmt.Errorf("%w: attribute %s: %w", services.ErrValidation, key, err)
		}
		return f, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: attribute %s: %w", services.ErrValidation, key, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("%w: attribute %s: unexpected %T", services.ErrValidation, key, v)
	}
}

func toInt(value any) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%v is not an integer", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, err
		}
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(v))
	default:
		return 0, fmt.Errorf("unexpected %T", value)
	}
}
