package detection

import (
	"fmt"
	"strconv"
)

// parsePayload extracts a normalized detection list from a loosely-typed
// inference response. The detection list may sit under several top-level key
// names, or be nested one level deeper under "data" or "boxes". Detections
// without a usable bounding box are skipped.
func parsePayload(payload map[string]any) []Detection {
	var candidates []any
	for _, key := range []string{"detections", "predictions", "boxes"} {
		switch v := payload[key].(type) {
		case []any:
			candidates = v
		case map[string]any:
			if inner, ok := v["data"].([]any); ok {
				candidates = inner
			} else if inner, ok := v["boxes"].([]any); ok {
				candidates = inner
			}
		}
		if candidates != nil {
			break
		}
	}

	var parsed []Detection
	for _, raw := range candidates {
		det, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		bbox, ok := normalizeBBox(det)
		if !ok {
			continue
		}
		parsed = append(parsed, Detection{
			ClassID:    classIDOf(det),
			ClassName:  classNameOf(det),
			Confidence: confidenceOf(det),
			BBox:       bbox,
		})
	}
	return parsed
}

// normalizeBBox converts either corner-point (x1,y1,x2,y2) or center/size
// (x,y,w,h) encodings into corner-point form.
func normalizeBBox(det map[string]any) ([]float64, bool) {
	for _, key := range []string{"bbox", "box", "xyxy", "xyxy_list"} {
		if coords, ok := floatSlice(det[key]); ok {
			return coords[:4], true
		}
	}
	for _, key := range []string{"xywh", "xywh_list"} {
		if coords, ok := floatSlice(det[key]); ok {
			x, y, w, h := coords[0], coords[1], coords[2], coords[3]
			return []float64{x - w/2, y - h/2, x + w/2, y + h/2}, true
		}
	}
	// corner-point box as an object, e.g. {"x1":..,"y1":..,"x2":..,"y2":..}
	if obj, ok := det["box"].(map[string]any); ok {
		x1, ok1 := toFloat(obj["x1"])
		y1, ok2 := toFloat(obj["y1"])
		x2, ok3 := toFloat(obj["x2"])
		y2, ok4 := toFloat(obj["y2"])
		if ok1 && ok2 && ok3 && ok4 {
			return []float64{x1, y1, x2, y2}, true
		}
	}
	return nil, false
}

// classNameOf resolves the class label, falling back to the numeric class id
// as a string, then to a generic label.
func classNameOf(det map[string]any) string {
	for _, key := range []string{"class_name", "name", "label"} {
		if s, ok := det[key].(string); ok && s != "" {
			return s
		}
	}
	if id := classIDOf(det); id != nil {
		return strconv.Itoa(*id)
	}
	return "trash"
}

func classIDOf(det map[string]any) *int {
	for _, key := range []string{"class_id", "class", "cls"} {
		if f, ok := toFloat(det[key]); ok {
			id := int(f)
			return &id
		}
	}
	return nil
}

func confidenceOf(det map[string]any) float64 {
	for _, key := range []string{"confidence", "conf", "score"} {
		if f, ok := toFloat(det[key]); ok {
			return f
		}
	}
	return 0
}

func floatSlice(v any) ([]float64, bool) {
	raw, ok := v.([]any)
	if !ok || len(raw) < 4 {
		return nil, false
	}
	coords := make([]float64, 0, len(raw))
	for _, item := range raw {
		f, ok := toFloat(item)
		if !ok {
			return nil, false
		}
		coords = append(coords, f)
	}
	return coords, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case fmt.Stringer:
		f, err := strconv.ParseFloat(n.String(), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
