package extract

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"

	"github.com/kbukum/structured/errors"
	"github.com/kbukum/structured/jsonbuf"
)

// parseBuffer parses the best-effort completion of buf. It reports false
// when there is nothing to parse yet. On the final frame an unrecoverable
// completion falls back to repairing the raw text.
func parseBuffer(buf jsonbuf.Buffer, final bool) (any, bool, error) {
	if buf.IsEmpty() {
		return nil, false, nil
	}
	text := buf.Completed()
	if text == "" {
		if !final {
			return nil, false, nil
		}
		text = buf.Raw()
	}
	data, err := decodeJSON(text)
	if err != nil {
		return nil, true, errors.JSONParse(err)
	}
	return data, true, nil
}

// decodeJSON unmarshals text, repairing it with jsonrepair on syntax errors.
func decodeJSON(text string) (any, error) {
	var v any
	err := json.Unmarshal([]byte(text), &v)
	if err == nil {
		return v, nil
	}
	if _, ok := err.(*json.SyntaxError); !ok {
		return nil, err
	}
	fixed, rerr := jsonrepair.JSONRepair(text)
	if rerr != nil {
		return nil, err
	}
	v = nil
	if err := json.Unmarshal([]byte(fixed), &v); err != nil {
		return nil, err
	}
	return v, nil
}
