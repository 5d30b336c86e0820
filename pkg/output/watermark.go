// Package output writes generated semantic model folders to disk. Generated
// files carry a watermark so regeneration can tell them apart from files a
// developer has taken over by hand.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// watermarkMarker identifies content this tool produced. Detection is a plain
// substring check so it survives reformatting.
const watermarkMarker = "semantic-model-generator"

// GenerateWatermarkTMDL returns a triple-slash header for TMDL files. An empty
// timestamp uses the current UTC time in RFC 3339.
func GenerateWatermarkTMDL(version, timestamp string) string {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf(
		"/// Auto-generated by %s v%s at %s\n/// DO NOT EDIT. Changes will be overwritten on the next generation run.\n",
		watermarkMarker, version, timestamp,
	)
}

// GenerateWatermarkJSON returns the watermark value used for the _comment
// field of JSON-format files.
func GenerateWatermarkJSON(version, timestamp string) string {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("Auto-generated by %s v%s at %s. DO NOT EDIT.", watermarkMarker, version, timestamp)
}

// AddWatermark returns content with a watermark applied according to the file
// extension. TMDL files get a triple-slash header. JSON-format files
// (.json, .pbism, .platform) get a _comment field injected as the first key.
// Unknown extensions fall back to the triple-slash header.
func AddWatermark(filename, content, version, timestamp string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json", ".pbism", ".platform":
		return injectJSONComment(content, GenerateWatermarkJSON(version, timestamp))
	default:
		return GenerateWatermarkTMDL(version, timestamp) + content, nil
	}
}

// injectJSONComment re-marshals the document with _comment first. Key order
// for the remaining fields follows Go's sorted map marshaling, which keeps
// output deterministic across runs.
func injectJSONComment(content, comment string) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return "", fmt.Errorf("parse json for watermark: %w", err)
	}

	commentValue, err := json.Marshal(comment)
	if err != nil {
		return "", fmt.Errorf("marshal watermark comment: %w", err)
	}
	doc["_comment"] = json.RawMessage(commentValue)

	// Marshal through an ordered rebuild so _comment lands first.
	rest := make([]string, 0, len(doc)-1)
	for key := range doc {
		if key != "_comment" {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)
	keys := append([]string{"_comment"}, rest...)

	var buf bytes.Buffer
	buf.WriteString("{\n")
	for i, key := range keys {
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return "", fmt.Errorf("marshal key %q: %w", key, err)
		}
		var valueBuf bytes.Buffer
		if err := json.Indent(&valueBuf, doc[key], "  ", "  "); err != nil {
			return "", fmt.Errorf("indent value for %q: %w", key, err)
		}
		buf.WriteString("  ")
		buf.Write(keyJSON)
		buf.WriteString(": ")
		buf.Write(valueBuf.Bytes())
		if i < len(keys)-1 {
			buf.WriteString(",")
		}
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	return buf.String(), nil
}

// IsAutoGenerated reports whether content carries the generation watermark.
func IsAutoGenerated(content string) bool {
	return strings.Contains(content, watermarkMarker)
}

// WriteFileAtomically writes content to path via a temp file and rename, so a
// crash mid-write never leaves a torn file. Parent directories are created as
// needed. Content is written as-is, UTF-8 with LF newlines.
func WriteFileAtomically(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file to %s: %w", path, err)
	}
	return nil
}
