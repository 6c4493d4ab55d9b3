// Package anthropic adapts Anthropic Messages streams into
// llm.PartialResponse records.
//
// Tool mode forces the response model's tool; json and md_json modes rely on
// the schema instructions already in the system prompt, and json_schema mode
// adds them here because the Messages API has no native JSON output format.
package anthropic
