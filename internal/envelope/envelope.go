// Package envelope models the SNS delivery wrapper around a lifecycle event
// and owns the two trust checks that apply to it: structural decoding and
// signature verification.
//
// Decoding has two modes. The strict mode rejects unknown fields and is the
// primary parse; the lenient mode tolerates them and exists only so a
// malformed request can still be reported back to the control plane.
package envelope

import (
	"bytes"
	"encoding/json"

	"tfbridge/pkg/domainerrors"
)

// Notification is the outermost SNS event shape as delivered to subscribers.
type Notification struct {
	Records []Record `json:"Records"`
}

// Record wraps one SNS message.
type Record struct {
	EventSource          string  `json:"EventSource"`
	EventVersion         string  `json:"EventVersion"`
	EventSubscriptionArn string  `json:"EventSubscriptionArn"`
	Sns                  Content `json:"Sns"`
}

// Content is the signed SNS message body. The embedded lifecycle event lives
// in Message as a JSON string.
type Content struct {
	Type              string               `json:"Type"`
	MessageID         string               `json:"MessageId"`
	TopicARN          string               `json:"TopicArn"`
	Subject           *string              `json:"Subject,omitempty"`
	Message           string               `json:"Message"`
	Timestamp         string               `json:"Timestamp"`
	Signature         string               `json:"Signature"`
	SignatureVersion  string               `json:"SignatureVersion"`
	SigningCertURL    string               `json:"SigningCertURL"`
	UnsubscribeURL    string               `json:"UnsubscribeURL"`
	MessageAttributes map[string]Attribute `json:"MessageAttributes"`
}

// Attribute is an SNS message attribute value.
type Attribute struct {
	Type  string `json:"Type"`
	Value string `json:"Value"`
}

// Attribute returns the named message attribute value, reporting whether it
// was present.
func (c *Content) Attribute(name string) (string, bool) {
	attr, ok := c.MessageAttributes[name]
	if !ok {
		return "", false
	}
	return attr.Value, true
}

// Decode parses the raw delivery into the first record's content. Unknown
// fields are rejected unless lenient is set. Note that encoding/json matches
// keys case-insensitively, so the SigningCertUrl/SigningCertURL spelling
// difference between SNS-to-Lambda and SNS-to-HTTPS deliveries needs no
// special handling.
func Decode(raw []byte, lenient bool) (*Content, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if !lenient {
		dec.DisallowUnknownFields()
	}

	var notification Notification
	if err := dec.Decode(&notification); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeMalformedInput, "decode sns notification")
	}
	if len(notification.Records) == 0 {
		return nil, domainerrors.New(domainerrors.CodeMalformedInput, "unexpected SNS input message format")
	}
	return &notification.Records[0].Sns, nil
}
