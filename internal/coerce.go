package internal

import (
	"github.com/sirupsen/logrus"
)

// StringList accepts a decoded JSON value that should be a list of strings.
// Any other shape yields an empty list; non-string elements are dropped. Both are logged.
func StringList(v any, field string) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				logrus.WithField("field", field).Warnf("Skipping non-string entry %v (%T)", item, item)
				continue
			}
			out = append(out, s)
		}
		return out
	case nil:
		logrus.WithField("field", field).Warn("Missing list, using empty list")
	default:
		logrus.WithField("field", field).Warnf("Expected a list, got %T", v)
	}
	return []string{}
}

// ContentMap accepts a decoded JSON object of file path to file content.
// Entries whose value is not a string are dropped.
func ContentMap(v any, field string) map[string]string {
	switch t := v.(type) {
	case map[string]string:
		return t
	case map[string]any:
		out := make(map[string]string, len(t))
		for k, item := range t {
			s, ok := item.(string)
			if !ok {
				logrus.WithFields(logrus.Fields{"field": field, "file": k}).Warnf("Skipping non-string content (%T)", item)
				continue
			}
			out[k] = s
		}
		return out
	case nil:
		logrus.WithField("field", field).Warn("Missing object, using empty map")
	default:
		logrus.WithField("field", field).Warnf("Expected an object, got %T", v)
	}
	return map[string]string{}
}

// FilterFiles is FilterFilesByPatterns for values straight off the wire.
func FilterFiles(files, patterns any) []string {
	return FilterFilesByPatterns(StringList(files, "files"), StringList(patterns, "patterns"))
}

// FindPatternMatches is FindPatternMatchesInFile for values straight off the wire.
func FindPatternMatches(content, patterns any) []MatchResult {
	s, ok := content.(string)
	if !ok {
		logrus.Warnf("Expected file content as string, got %T", content)
		return []MatchResult{}
	}
	return FindPatternMatchesInFile(s, StringList(patterns, "patterns"))
}
