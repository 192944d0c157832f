package handler

import (
	"strings"

	dErrors "scangate/pkg/domain-errors"
)

// maxPayloadLength bounds the raw QR payload. School IDs and internal UUIDs
// are both far shorter; anything past this is a hostile or corrupted code.
const maxPayloadLength = 256

// ScanRequest is the HTTP request body for POST /v1/scan.
type ScanRequest struct {
	Payload string `json:"payload"`
}

// Validate bounds the payload size. Blank payloads pass through: the
// resolver classifies them as a scan outcome the kiosk renders, not as a
// transport-level rejection.
func (r *ScanRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Payload) > maxPayloadLength {
		return dErrors.New(dErrors.CodeInvalidInput, "payload exceeds maximum length")
	}
	r.Payload = strings.ToValidUTF8(r.Payload, "")
	return nil
}
