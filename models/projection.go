package models

import (
	"bytes"
	"encoding/json"
	"fmt"

	"apidocs-admin/apierrors"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// EndpointFields is the set of record fields the api_endpoints table accepts.
// Anything else sent by the admin panel is dropped, since the table may lag
// behind the panel's record shape.
var EndpointFields = []string{
	"name",
	"endpoint",
	"description",
	"category",
	"purpose",
	"methods",
	"status",
	"rank",
	"requestSchema",
	"responseSchema",
	"sampleRequest",
	"sampleResponse",
	"sampleResponses",
	"errorResponses",
	"curlExample",
	"validationNotes",
	"fieldTable",
	"products",
}

var endpointFieldSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(EndpointFields))
	for _, f := range EndpointFields {
		m[f] = struct{}{}
	}
	return m
}()

// ProjectFields keeps only the keys listed in EndpointFields.
func ProjectFields(data map[string]json.RawMessage) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(EndpointFields))
	for k, v := range data {
		if _, ok := endpointFieldSet[k]; ok {
			out[k] = v
		}
	}
	return out
}

// endpointInput mirrors the accepted fields with their wire types.
type endpointInput struct {
	Name            string          `json:"name"`
	Endpoint        string          `json:"endpoint"`
	Description     string          `json:"description"`
	Category        string          `json:"category"`
	Purpose         string          `json:"purpose"`
	Methods         []string        `json:"methods"`
	Status          string          `json:"status"`
	Rank            int             `json:"rank"`
	RequestSchema   json.RawMessage `json:"requestSchema"`
	ResponseSchema  json.RawMessage `json:"responseSchema"`
	SampleRequest   json.RawMessage `json:"sampleRequest"`
	SampleResponse  json.RawMessage `json:"sampleResponse"`
	SampleResponses json.RawMessage `json:"sampleResponses"`
	ErrorResponses  json.RawMessage `json:"errorResponses"`
	CurlExample     json.RawMessage `json:"curlExample"`
	ValidationNotes json.RawMessage `json:"validationNotes"`
	FieldTable      json.RawMessage `json:"fieldTable"`
	Products        []string        `json:"products"`
}

// NewEndpoint builds the stored form of a record from the admin panel's
// field map. The id always comes from the caller, never from data.
func NewEndpoint(id string, data map[string]json.RawMessage) (*Endpoint, error) {
	projected, err := json.Marshal(ProjectFields(data))
	if err != nil {
		return nil, &apierrors.ValidationError{Message: "Invalid endpoint data", Details: err.Error()}
	}

	var in endpointInput
	if err := json.Unmarshal(projected, &in); err != nil {
		return nil, &apierrors.ValidationError{Message: "Invalid endpoint data", Details: err.Error()}
	}

	curl, err := wrapCurl(in.CurlExample)
	if err != nil {
		return nil, &apierrors.ValidationError{Message: "Invalid endpoint data", Details: err.Error()}
	}

	e := &Endpoint{
		Id:              id,
		Name:            in.Name,
		Endpoint:        in.Endpoint,
		Description:     in.Description,
		Category:        in.Category,
		Purpose:         in.Purpose,
		Methods:         pq.StringArray(in.Methods),
		Status:          in.Status,
		Rank:            in.Rank,
		RequestSchema:   datatypes.JSON(in.RequestSchema),
		ResponseSchema:  datatypes.JSON(in.ResponseSchema),
		SampleRequest:   datatypes.JSON(in.SampleRequest),
		SampleResponse:  datatypes.JSON(in.SampleResponse),
		SampleResponses: datatypes.JSON(in.SampleResponses),
		ErrorResponses:  datatypes.JSON(in.ErrorResponses),
		CurlExample:     curl,
		ValidationNotes: datatypes.JSON(in.ValidationNotes),
		FieldTable:      datatypes.JSON(in.FieldTable),
		Products:        pq.StringArray(in.Products),
	}
	return e, nil
}

// wrapCurl stores a bare command string as {"curl": "..."}. Objects are kept
// as sent so already-wrapped records survive a re-save.
func wrapCurl(raw json.RawMessage) (datatypes.JSON, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return nil, nil
	}
	switch trimmed[0] {
	case '"':
		var cmd string
		if err := json.Unmarshal(trimmed, &cmd); err != nil {
			return nil, err
		}
		wrapped, err := json.Marshal(map[string]string{"curl": cmd})
		if err != nil {
			return nil, err
		}
		return datatypes.JSON(wrapped), nil
	case '{':
		return datatypes.JSON(trimmed), nil
	default:
		return nil, fmt.Errorf("curlExample must be a string or an object")
	}
}
