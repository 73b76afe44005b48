package outreach

import (
	"encoding/json"
	"fmt"
	"regexp"
)

// jsonBlockRe matches the first outermost {...} span, newlines included.
var jsonBlockRe = regexp.MustCompile(`(?s)(\{.*\})`)

// parsedReply is what the orchestrator needs out of an assistant reply.
type parsedReply struct {
	ProfileName string
	StatusMsg   string
	Brand       string
	ProfileURL  string
	Fields      map[string]any // full parsed object, forwarded to the webhook
	ParseErr    string         // non-fatal; annotated on the log row
}

// parseReply pulls a JSON object out of the assistant's free-text reply.
// The reply may be pure JSON, JSON wrapped in prose, or no JSON at all; the
// last case is still a successful send, only the extracted fields stay empty.
func parseReply(raw string) parsedReply {
	out := parsedReply{StatusMsg: "OK"}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		block := jsonBlockRe.FindString(raw)
		if block == "" {
			out.ParseErr = "No JSON object found in response"
			return out
		}
		if err := json.Unmarshal([]byte(block), &obj); err != nil {
			out.ParseErr = fmt.Sprintf("Regex found block but failed to parse: %v", err)
			return out
		}
	}
	if obj == nil {
		return out
	}

	out.Fields = obj
	out.ProfileName = str(obj["display_name"])
	if out.ProfileName == "" {
		// Older assistant configurations answered with profile_name.
		out.ProfileName = str(obj["profile_name"])
	}
	if v := str(obj["status"]); v != "" {
		out.StatusMsg = v
	}
	out.Brand = str(obj["brand"])
	out.ProfileURL = str(obj["profile_url"])
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}
