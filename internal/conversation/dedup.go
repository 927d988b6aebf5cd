package conversation

// Deduplicate collapses records that share a create_time. The last record
// observed with a given key wins, but it keeps the position where the key
// was first seen, so the output stays in chronological discovery order.
// Records without a usable create_time are dropped entirely.
// Deduplicate is idempotent: running it over its own output is a no-op.
func Deduplicate(records []Record) []Record {
	out := make([]Record, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		if rec == nil {
			continue
		}
		key, ok := rec.CreateTime()
		if !ok {
			continue
		}
		if pos, seen := index[key]; seen {
			out[pos] = rec
			continue
		}
		index[key] = len(out)
		out = append(out, rec)
	}

	return out
}

// RemoveNulls strips every key whose value is exactly JSON null, at every
// nesting level. Other zero-ish values (empty strings, 0, false) survive.
func RemoveNulls(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, val := range node {
			if val == nil {
				continue
			}
			out[k] = RemoveNulls(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, item := range node {
			out[i] = RemoveNulls(item)
		}
		return out
	default:
		return v
	}
}

// minimizedMetadataKeys is the curated metadata subset a minimized record
// keeps under "other".
var minimizedMetadataKeys = []string{
	"search_result_groups",
	"model_slug",
	"image_results",
	"content_references",
	"citations",
}

// Normalize null-strips each record and, when minimize is set, reduces it to
// the privacy-preserving shape: role, real_author, content parts, and the
// curated metadata subset. Minimized mode drops raw identity and timestamp
// fields while keeping everything the statistics stage reads.
func Normalize(records []Record, minimize bool) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if minimize {
			rec = minimizeRecord(rec)
		}
		cleaned, _ := RemoveNulls(map[string]interface{}(rec)).(map[string]interface{})
		out = append(out, Record(cleaned))
	}
	return out
}

func minimizeRecord(rec Record) Record {
	min := map[string]interface{}{}

	if role := rec.Role(); role != "" {
		min["role"] = role
	}
	if author, ok := rec["author"].(map[string]interface{}); ok {
		if meta, ok := author["metadata"].(map[string]interface{}); ok {
			if real, ok := meta["real_author"]; ok && real != nil {
				min["real_author"] = real
			}
		}
	}
	if parts := rec.Parts(); parts != nil {
		min["parts"] = parts
	}

	other := map[string]interface{}{}
	if meta, ok := rec["metadata"].(map[string]interface{}); ok {
		for _, key := range minimizedMetadataKeys {
			if v, ok := meta[key]; ok && v != nil {
				other[key] = v
			}
		}
	}
	min["other"] = other

	// Tokenizer output survives minimization so token statistics still work.
	if c := rec.content(); c != nil {
		if tokens, ok := c["tokens"]; ok && tokens != nil {
			min["content"] = map[string]interface{}{"tokens": tokens}
		}
	}

	return Record(min)
}
