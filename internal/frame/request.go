package frame

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// SignaturePacket is the inbound interaction envelope. Only the fields this
// server reads are modeled; platform envelopes carry more.
type SignaturePacket struct {
	ClientProtocol string `json:"clientProtocol,omitempty"`
	UntrustedData  struct {
		FID           uint64 `json:"fid"`
		ButtonIndex   int    `json:"buttonIndex"`
		InputText     string `json:"inputText"`
		TransactionID string `json:"transactionId"`
		State         string `json:"state"`
		Address       string `json:"address"`
		URL           string `json:"url"`
	} `json:"untrustedData"`
	TrustedData struct {
		MessageBytes string `json:"messageBytes"`
	} `json:"trustedData"`
}

// Request is one decoded interaction: the prior action and its inputs.
type Request struct {
	InteractorFID uint64
	ButtonIndex   int
	ButtonValue   string // resolved from the echoed state by button index
	InputText     string
	TransactionID string
	Address       string
}

const maxBodyBytes = 1 << 20

// DecodeRequest decodes the interaction envelope from r. Malformed bodies
// yield an empty request, mirroring the classifier's tolerance.
func DecodeRequest(r *http.Request) *Request {
	req := &Request{}
	if r.Body == nil {
		return req
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return req
	}

	var packet SignaturePacket
	if err := json.Unmarshal(body, &packet); err != nil {
		return req
	}

	req.InteractorFID = packet.UntrustedData.FID
	req.ButtonIndex = packet.UntrustedData.ButtonIndex
	req.InputText = packet.UntrustedData.InputText
	req.TransactionID = packet.UntrustedData.TransactionID
	req.Address = packet.UntrustedData.Address
	req.ButtonValue = resolveButtonValue(packet.UntrustedData.State, packet.UntrustedData.ButtonIndex)
	return req
}

// resolveButtonValue picks the pressed button's echoed value out of the
// state blob emitted with the prior frame.
func resolveButtonValue(rawState string, buttonIndex int) string {
	if rawState == "" || buttonIndex < 1 {
		return ""
	}
	decoded, err := url.QueryUnescape(rawState)
	if err != nil {
		decoded = rawState
	}

	var st state
	if err := json.Unmarshal([]byte(decoded), &st); err != nil {
		return ""
	}
	if buttonIndex > len(st.Values) {
		return ""
	}
	return st.Values[buttonIndex-1]
}
