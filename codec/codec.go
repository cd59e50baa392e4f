package codec

import (
	"encoding/json"
	"fmt"

	"github.com/kaptinlin/jsonrepair"
	"github.com/nodeflow-dev/nodeflow-core/graph"
)

// migrations maps a source schema version to the function that upgrades a
// raw document (decoded as a generic map so older fields survive even if a
// later Go struct no longer names them) to the next version. There are none
// yet since graph.SchemaVersion is still 1; the table exists so that a
// future version bump only adds an entry here.
var migrations = map[int]func(map[string]any) (map[string]any, error){}

// Marshal serializes a graph to its current-version JSON document form.
func Marshal(g *graph.Graph) ([]byte, error) {
	return json.Marshal(Encode(g))
}

// Unmarshal parses a JSON document, migrating it forward to the current
// schema version if needed, and decodes it into an in-memory graph.
//
// If the bytes do not parse as JSON outright, Unmarshal retries once after
// running them through jsonrepair — the same fallback
// leofalp-aigo/core/parse.ParseStringAs uses before giving up on content
// that an upstream producer emitted slightly malformed.
func Unmarshal(data []byte) (*graph.Graph, error) {
	raw, err := decodeRaw(data)
	if err != nil {
		return nil, err
	}

	version, err := rawVersion(raw)
	if err != nil {
		return nil, err
	}
	if version > graph.SchemaVersion {
		return nil, &DocumentError{Reason: ReasonUnsupportedVersion, Message: fmt.Sprintf("document version %d is newer than %d", version, graph.SchemaVersion)}
	}
	for version < graph.SchemaVersion {
		migrate, ok := migrations[version]
		if !ok {
			return nil, &DocumentError{Reason: ReasonUnsupportedVersion, Message: fmt.Sprintf("no migration registered from version %d", version)}
		}
		raw, err = migrate(raw)
		if err != nil {
			return nil, &DocumentError{Reason: ReasonMalformed, Message: fmt.Sprintf("migrating from version %d", version), Cause: err}
		}
		raw["version"] = float64(version + 1)
		version++
	}

	migrated, err := json.Marshal(raw)
	if err != nil {
		return nil, &DocumentError{Reason: ReasonMalformed, Message: "re-encoding migrated document", Cause: err}
	}
	var doc GraphDocument
	if err := json.Unmarshal(migrated, &doc); err != nil {
		return nil, &DocumentError{Reason: ReasonMalformed, Message: "decoding migrated document", Cause: err}
	}
	return Decode(&doc)
}

// decodeRaw parses data as a generic JSON object, attempting one
// jsonrepair-assisted retry on failure.
func decodeRaw(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err == nil {
		return raw, nil
	} else {
		repaired, repairErr := jsonrepair.JSONRepair(string(data))
		if repairErr != nil {
			return nil, &DocumentError{Reason: ReasonInvalidJSON, Message: "not valid JSON and could not be repaired", Cause: err}
		}
		if err := json.Unmarshal([]byte(repaired), &raw); err != nil {
			return nil, &DocumentError{Reason: ReasonInvalidJSON, Message: "not valid JSON even after repair", Cause: err}
		}
		return raw, nil
	}
}

func rawVersion(raw map[string]any) (int, error) {
	v, ok := raw["version"]
	if !ok {
		return 0, &DocumentError{Reason: ReasonMalformed, Message: "missing version field"}
	}
	n, ok := v.(float64)
	if !ok {
		return 0, &DocumentError{Reason: ReasonMalformed, Message: "version field is not a number"}
	}
	return int(n), nil
}
