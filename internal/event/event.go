// Package event models the CloudFormation custom-resource lifecycle request
// embedded in an SNS delivery.
package event

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"tfbridge/pkg/arn"
	"tfbridge/pkg/domainerrors"
)

// RequestType is the lifecycle operation kind.
type RequestType string

const (
	RequestTypeCreate RequestType = "Create"
	RequestTypeUpdate RequestType = "Update"
	RequestTypeDelete RequestType = "Delete"
)

// UnmarshalJSON rejects unknown operation kinds in both decode modes; an
// unrecognized RequestType is never recoverable.
func (r *RequestType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch RequestType(raw) {
	case RequestTypeCreate, RequestTypeUpdate, RequestTypeDelete:
		*r = RequestType(raw)
		return nil
	}
	return fmt.Errorf("unknown RequestType %q", raw)
}

// Request is one lifecycle event. Field names are fixed by the control plane.
type Request struct {
	ServiceToken       string      `json:"ServiceToken"`
	RequestType        RequestType `json:"RequestType"`
	ResponseURL        string      `json:"ResponseURL"`
	StackID            string      `json:"StackId"`
	RequestID          string      `json:"RequestId"`
	ResourceType       string      `json:"ResourceType"`
	LogicalResourceID  string      `json:"LogicalResourceId"`
	PhysicalResourceID string      `json:"PhysicalResourceId,omitempty"`
	Properties         *Properties `json:"ResourceProperties"`
	OldProperties      *Properties `json:"OldResourceProperties,omitempty"`
}

// Decode parses the serialized request. Strict mode rejects unknown fields and
// enforces required ones; lenient mode extracts whatever it can so a failure
// callback can still be attempted. The physical resource id is derived from
// the stack id when absent, and the derivation is stable across redeliveries.
func Decode(message []byte, lenient bool) (*Request, error) {
	dec := json.NewDecoder(bytes.NewReader(message))
	if !lenient {
		dec.DisallowUnknownFields()
	}

	var req Request
	if err := dec.Decode(&req); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeMalformedInput, "decode custom resource request")
	}

	if !lenient {
		if err := req.requireFields(); err != nil {
			return nil, err
		}
	}

	if req.PhysicalResourceID == "" {
		derived, err := DerivePhysicalResourceID(req.StackID, req.LogicalResourceID)
		if err != nil {
			if !lenient {
				return nil, err
			}
		} else {
			req.PhysicalResourceID = derived
		}
	}
	return &req, nil
}

// DerivePhysicalResourceID builds the stable target identifier
// <stackName>-<logicalResourceId>-<stackUuid> used when the control plane did
// not supply one.
func DerivePhysicalResourceID(stackID, logicalResourceID string) (string, error) {
	relative, err := arn.RelativeID(stackID)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeMalformedInput, "derive physical resource id")
	}
	parts := strings.Split(relative, "/")
	if len(parts) < 3 {
		return "", domainerrors.New(domainerrors.CodeMalformedInput,
			"stack id %q has no stack name and uuid", stackID)
	}
	return fmt.Sprintf("%s-%s-%s", parts[1], logicalResourceID, parts[2]), nil
}

func (r *Request) requireFields() error {
	required := []struct {
		name  string
		value string
	}{
		{"ServiceToken", r.ServiceToken},
		{"RequestType", string(r.RequestType)},
		{"ResponseURL", r.ResponseURL},
		{"StackId", r.StackID},
		{"RequestId", r.RequestID},
		{"ResourceType", r.ResourceType},
		{"LogicalResourceId", r.LogicalResourceID},
	}
	for _, field := range required {
		if field.value == "" {
			return domainerrors.New(domainerrors.CodeMalformedInput, "field %s is required", field.name)
		}
	}
	if r.Properties == nil {
		return domainerrors.New(domainerrors.CodeMalformedInput, "field ResourceProperties is required")
	}
	return nil
}

// Marshal serializes the request with the control plane's field names, used
// when embedding the event in the fulfillment command line.
func Marshal(r *Request) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", domainerrors.Wrap(err, domainerrors.CodeInternal, "marshal custom resource request")
	}
	return string(data), nil
}
