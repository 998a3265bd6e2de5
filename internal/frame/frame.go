// Package frame implements the interaction state machine: a fixed set of
// routes, each a pure function of the prior action and its input, producing
// one rendered view plus the next allowed actions. No state survives a
// request except what is encoded in route params and echoed action values.
package frame

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
)

// ButtonAction is the wire action kind of a frame button.
type ButtonAction string

const (
	// ActionPost navigates to the target route.
	ActionPost ButtonAction = "post"
	// ActionTx asks the client wallet to sign the transaction built by the
	// target route, then posts the result to the button's PostURL.
	ActionTx ButtonAction = "tx"
	// ActionLink opens an external URL.
	ActionLink ButtonAction = "link"
)

// Button is one offered next action.
type Button struct {
	Label   string
	Action  ButtonAction
	Target  string
	PostURL string // tx buttons only: where the client posts after signing
	Value   string // echoed back through the frame state
}

// Frame is one rendered view plus its offered next actions.
type Frame struct {
	Title    string
	ImageURL string
	PostURL  string
	Input    string // input placeholder; empty means no text input
	Buttons  []Button
	NoCache  bool
}

// state is the per-frame continuation blob: the button values, echoed back by
// the client so the next request can resolve its pressed button's value.
type state struct {
	Values []string `json:"v,omitempty"`
}

const frameVersion = "vNext"

// WriteHTML serializes the frame as an OpenFrames/vNext meta-tag document.
func WriteHTML(w http.ResponseWriter, f *Frame) {
	var b strings.Builder

	title := f.Title
	if title == "" {
		title = "Frame"
	}

	b.WriteString("<!DOCTYPE html><html><head>\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(title))
	writeMeta(&b, "og:title", title)
	writeMeta(&b, "og:image", f.ImageURL)

	// OpenFrames accept tags, so chat clients pick the frame up too.
	writeMeta(&b, "of:accepts", frameVersion)
	writeMeta(&b, "of:accepts:xmtp", frameVersion)

	writeMeta(&b, "fc:frame", frameVersion)
	writeMeta(&b, "fc:frame:image", f.ImageURL)
	if f.PostURL != "" {
		writeMeta(&b, "fc:frame:post_url", f.PostURL)
	}
	if f.Input != "" {
		writeMeta(&b, "fc:frame:input:text", f.Input)
	}

	st := state{}
	for _, btn := range f.Buttons {
		st.Values = append(st.Values, btn.Value)
	}
	if hasValues(st.Values) {
		encoded, _ := json.Marshal(st)
		writeMeta(&b, "fc:frame:state", url.QueryEscape(string(encoded)))
	}

	for i, btn := range f.Buttons {
		n := i + 1
		writeMeta(&b, fmt.Sprintf("fc:frame:button:%d", n), btn.Label)
		writeMeta(&b, fmt.Sprintf("fc:frame:button:%d:action", n), string(btn.Action))
		if btn.Target != "" {
			writeMeta(&b, fmt.Sprintf("fc:frame:button:%d:target", n), btn.Target)
		}
		if btn.PostURL != "" {
			writeMeta(&b, fmt.Sprintf("fc:frame:button:%d:post_url", n), btn.PostURL)
		}
	}

	b.WriteString("</head><body></body></html>\n")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if f.NoCache {
		w.Header().Set("Cache-Control", "no-store, max-age=0")
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(b.String()))
}

func writeMeta(b *strings.Builder, property, content string) {
	fmt.Fprintf(b, "<meta property=%q content=%q />\n",
		html.EscapeString(property), html.EscapeString(content))
}

func hasValues(values []string) bool {
	for _, v := range values {
		if v != "" {
			return true
		}
	}
	return false
}

// TransactionParams is the chain-specific call the wallet signs.
type TransactionParams struct {
	ABI   []interface{} `json:"abi"`
	To    string        `json:"to"`
	Data  string        `json:"data,omitempty"`
	Value string        `json:"value,omitempty"`
}

// TransactionResponse is the payload returned by a tx route instead of a
// rendered view.
type TransactionResponse struct {
	ChainID     string            `json:"chainId"`
	Method      string            `json:"method"`
	Attribution *bool             `json:"attribution,omitempty"`
	Params      TransactionParams `json:"params"`
}

// StampAttribution marks the transaction as carrying no client attribution.
// Applied as an explicit post-processing step after the core handler has
// built the response, before it reaches the client.
func StampAttribution(resp *TransactionResponse) {
	attribution := false
	resp.Attribution = &attribution
}
