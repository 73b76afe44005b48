package outreach

import (
	"strings"
	"testing"
)

func TestParseReplyPureJSON(t *testing.T) {
	p := parseReply(`{"display_name":"Acme","status":"ok"}`)
	if p.ProfileName != "Acme" {
		t.Errorf("ProfileName = %q, want Acme", p.ProfileName)
	}
	if p.StatusMsg != "ok" {
		t.Errorf("StatusMsg = %q, want ok", p.StatusMsg)
	}
	if p.ParseErr != "" {
		t.Errorf("ParseErr = %q, want empty", p.ParseErr)
	}
}

func TestParseReplyEmbeddedJSON(t *testing.T) {
	p := parseReply(`Here you go: {"display_name":"Acme"} thanks`)
	if p.ProfileName != "Acme" {
		t.Errorf("ProfileName = %q, want Acme", p.ProfileName)
	}
	if p.StatusMsg != "OK" {
		t.Errorf("StatusMsg = %q, want OK default", p.StatusMsg)
	}
	if p.ParseErr != "" {
		t.Errorf("ParseErr = %q, want empty", p.ParseErr)
	}
}

func TestParseReplyMultilineEmbeddedJSON(t *testing.T) {
	p := parseReply("Result:\n{\n  \"display_name\": \"Acme\",\n  \"brand\": \"AcmeCo\"\n}\ndone")
	if p.ProfileName != "Acme" || p.Brand != "AcmeCo" {
		t.Errorf("parsed = %+v", p)
	}
}

func TestParseReplyNoJSON(t *testing.T) {
	p := parseReply("I could not find any structured data, sorry.")
	if p.ProfileName != "" || p.Fields != nil {
		t.Errorf("parsed = %+v, want empty fields", p)
	}
	if p.StatusMsg != "OK" {
		t.Errorf("StatusMsg = %q, want OK", p.StatusMsg)
	}
	if p.ParseErr != "No JSON object found in response" {
		t.Errorf("ParseErr = %q", p.ParseErr)
	}
}

func TestParseReplyBrokenBlock(t *testing.T) {
	p := parseReply(`prefix {not json at all} suffix`)
	if !strings.Contains(p.ParseErr, "failed to parse") {
		t.Errorf("ParseErr = %q, want parse failure annotation", p.ParseErr)
	}
	if p.Fields != nil {
		t.Errorf("Fields = %v, want nil", p.Fields)
	}
}

func TestParseReplyLegacyProfileNameKey(t *testing.T) {
	p := parseReply(`{"profile_name":"Acme Legacy"}`)
	if p.ProfileName != "Acme Legacy" {
		t.Errorf("ProfileName = %q, want fallback key value", p.ProfileName)
	}
}

func TestParseReplyExtractedURL(t *testing.T) {
	p := parseReply(`{"display_name":"Acme","profile_url":"https://example.com/acme","brand":"AcmeCo"}`)
	if p.ProfileURL != "https://example.com/acme" {
		t.Errorf("ProfileURL = %q", p.ProfileURL)
	}
	if p.Brand != "AcmeCo" {
		t.Errorf("Brand = %q", p.Brand)
	}
}
