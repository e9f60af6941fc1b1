package db

import (
	"strconv"
	"strings"
	"time"

	"github.com/inkwell-labs/inkwell/internal/domain/search/result"
)

// KeyPrefix namespaces all entry keys in the store.
const KeyPrefix = "inkwell:entries:"

// Stored field names. Tags and numerics share the flat hash with the
// reserved double-underscore fields.
const (
	FieldContent   = "__content"
	FieldCreatedAt = "created_at"
	FieldThemes    = "themes"
	FieldEntities  = "entities"
	emotionPrefix  = "emotion_"
)

// ParseEntryFields converts a raw search entry into its domain parts:
// the entry id (key without prefix), content, timestamp and metadata.
func ParseEntryFields(key string, fields map[string]string) (string, string, time.Time, result.Metadata) {
	id := strings.TrimPrefix(key, KeyPrefix)

	var content string
	var createdAt time.Time
	meta := result.Metadata{}

	for k, v := range fields {
		switch {
		case k == FieldContent:
			content = v
		case k == FieldCreatedAt:
			if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
				createdAt = time.Unix(epoch, 0).UTC()
			}
		case k == FieldThemes:
			meta.Themes = splitTags(v)
		case k == FieldEntities:
			meta.Entities = splitTags(v)
		case strings.HasPrefix(k, emotionPrefix):
			if score, err := strconv.ParseFloat(v, 64); err == nil {
				if meta.Emotions == nil {
					meta.Emotions = make(map[string]float64)
				}
				meta.Emotions[strings.TrimPrefix(k, emotionPrefix)] = score
			}
		}
	}

	return id, content, createdAt, meta
}

func splitTags(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
