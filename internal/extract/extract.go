// Package extract defines the structured records produced by the external
// document-intelligence and face-identification collaborators, plus the client
// interfaces the boarding flow consumes them through.
package extract

import "context"

// Identity field names as reported by the ID document analyzer.
const (
	FieldFirstName        = "FirstName"
	FieldLastName         = "LastName"
	FieldDocumentNumber   = "DocumentNumber"
	FieldDateOfBirth      = "DateOfBirth"
	FieldDateOfExpiration = "DateOfExpiration"
	FieldSex              = "Sex"
	FieldAddress          = "Address"
	FieldCountryRegion    = "CountryRegion"
	FieldRegion           = "Region"
)

// Boarding pass field names as reported by the custom document model.
const (
	FieldFlightNo    = "Flight_No"
	FieldSeat        = "Seat"
	FieldOrigin      = "Origin"
	FieldDestination = "Destination"
	FieldBPFirstName = "First Name"
	FieldBPLastName  = "Last Name"
)

// Field is a single extracted value with the analyzer's confidence in it.
type Field struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Document is one analyzed document's field map. Fields the analyzer could not
// read are simply absent; lookups on a missing field yield a zero Field.
type Document struct {
	Fields map[string]Field `json:"fields"`
}

// Field returns the named field, or a zero Field when it is absent.
func (d Document) Field(name string) Field {
	if d.Fields == nil {
		return Field{}
	}
	return d.Fields[name]
}

// Identity is the ID document analyzer output. Validation only consults
// document index 0, matching the upstream analyzer's single-ID contract.
type Identity struct {
	Documents []Document `json:"documents"`
}

// First returns document 0, or an empty document when nothing was extracted.
func (id Identity) First() Document {
	if len(id.Documents) == 0 {
		return Document{}
	}
	return id.Documents[0]
}

// BoardingPass is the boarding pass analyzer output.
type BoardingPass struct {
	Documents []Document `json:"documents"`
}

// First returns document 0, or an empty document when nothing was extracted.
func (bp BoardingPass) First() Document {
	if len(bp.Documents) == 0 {
		return Document{}
	}
	return bp.Documents[0]
}

// Candidate is one person the face service considers a possible match.
type Candidate struct {
	PersonID   string  `json:"personId"`
	Confidence float64 `json:"confidence"`
}

// FaceMatch is one detected face with its ranked match candidates.
type FaceMatch struct {
	FaceID     string      `json:"faceId"`
	Candidates []Candidate `json:"candidates"`
}

// IdentityExtractor analyzes a scanned ID document.
type IdentityExtractor interface {
	AnalyzeID(ctx context.Context, image []byte) (*Identity, error)
}

// BoardingPassExtractor analyzes a boarding pass image.
type BoardingPassExtractor interface {
	AnalyzeBoardingPass(ctx context.Context, image []byte) (*BoardingPass, error)
}

// FaceMatcher compares the ID portrait against faces seen in the passenger
// video and returns match candidates. An empty result means no match found.
type FaceMatcher interface {
	IdentifyFaces(ctx context.Context, idImage, video []byte) ([]FaceMatch, error)
}
