package models

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Endpoint is one documented API operation shown in the admin panel.
// Id is chosen by the caller (usually a slug) and never regenerated.
type Endpoint struct {
	Id              string         `json:"id" gorm:"primaryKey"`
	Name            string         `json:"name" gorm:"not null"`
	Endpoint        string         `json:"endpoint" gorm:"not null"`
	Description     string         `json:"description" gorm:"not null"`
	Category        string         `json:"category" gorm:"not null"`
	Purpose         string         `json:"purpose" gorm:"not null"`
	Methods         pq.StringArray `json:"methods" gorm:"type:text[];not null"`
	Status          string         `json:"status" gorm:"not null"`
	Rank            int            `json:"rank" gorm:"not null"`
	RequestSchema   datatypes.JSON `json:"requestSchema" gorm:"type:jsonb"`
	ResponseSchema  datatypes.JSON `json:"responseSchema" gorm:"type:jsonb"`
	SampleRequest   datatypes.JSON `json:"sampleRequest" gorm:"type:jsonb"`
	SampleResponse  datatypes.JSON `json:"sampleResponse" gorm:"type:jsonb"`
	SampleResponses datatypes.JSON `json:"sampleResponses" gorm:"type:jsonb"`
	ErrorResponses  datatypes.JSON `json:"errorResponses" gorm:"type:jsonb"`
	CurlExample     datatypes.JSON `json:"curlExample" gorm:"type:jsonb"`
	ValidationNotes datatypes.JSON `json:"validationNotes" gorm:"type:jsonb"`
	FieldTable      datatypes.JSON `json:"fieldTable" gorm:"type:jsonb"`
	Products        pq.StringArray `json:"products" gorm:"type:text[];not null"`
}

func (Endpoint) TableName() string {
	return "api_endpoints"
}

// Empty JSON values written in place of absent fields. Columns are never NULL.
const (
	EmptyObject = `{}`
	EmptyList   = `[]`
)

// FillDefaults replaces absent structured fields with their empty values.
func (e *Endpoint) FillDefaults() {
	if e.Methods == nil {
		e.Methods = pq.StringArray{}
	}
	if e.Products == nil {
		e.Products = pq.StringArray{}
	}
	for _, f := range []*datatypes.JSON{
		&e.RequestSchema, &e.ResponseSchema, &e.SampleRequest, &e.SampleResponse,
		&e.CurlExample, &e.ValidationNotes, &e.FieldTable,
	} {
		if isAbsent(*f) {
			*f = datatypes.JSON(EmptyObject)
		}
	}
	for _, f := range []*datatypes.JSON{&e.SampleResponses, &e.ErrorResponses} {
		if isAbsent(*f) {
			*f = datatypes.JSON(EmptyList)
		}
	}
}

func (e *Endpoint) BeforeSave(tx *gorm.DB) (err error) {
	e.FillDefaults()
	return
}

func isAbsent(j datatypes.JSON) bool {
	return len(j) == 0 || string(j) == "null"
}
