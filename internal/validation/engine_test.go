package validation

import (
	"testing"

	"go.uber.org/zap"

	"github.com/example/board-check/internal/extract"
	"github.com/example/board-check/internal/manifest"
)

func identityWith(fields map[string]string) *extract.Identity {
	doc := extract.Document{Fields: map[string]extract.Field{}}
	for name, value := range fields {
		doc.Fields[name] = extract.Field{Value: value, Confidence: 0.99}
	}
	return &extract.Identity{Documents: []extract.Document{doc}}
}

func boardingPassWith(fields map[string]string) *extract.BoardingPass {
	doc := extract.Document{Fields: map[string]extract.Field{}}
	for name, value := range fields {
		doc.Fields[name] = extract.Field{Value: value, Confidence: 0.99}
	}
	return &extract.BoardingPass{Documents: []extract.Document{doc}}
}

func janeIdentity() *extract.Identity {
	return identityWith(map[string]string{
		extract.FieldFirstName:   "Jane Q",
		extract.FieldLastName:    "Public",
		extract.FieldDateOfBirth: "1985-06-01",
	})
}

func janeBoardingPass() *extract.BoardingPass {
	return boardingPassWith(map[string]string{
		extract.FieldBPFirstName: "Jane",
		extract.FieldBPLastName:  "Public",
		extract.FieldFlightNo:    "AB123",
		extract.FieldSeat:        "14C",
		extract.FieldOrigin:      "JFK",
		extract.FieldDestination: "LHR",
	})
}

func janeRow() manifest.Row {
	return manifest.Row{
		FirstName:    "Jane",
		LastName:     "Public",
		DateOfBirth:  "1985-06-01",
		FlightNo:     "AB123",
		Seat:         "14C",
		From:         "JFK",
		To:           "LHR",
		BoardingTime: "10:30",
	}
}

func faceResults(confidence float64) []extract.FaceMatch {
	return []extract.FaceMatch{{
		FaceID:     "face-1",
		Candidates: []extract.Candidate{{PersonID: "person-1", Confidence: confidence}},
	}}
}

func newTestEngine() *Engine {
	return NewEngine(zap.NewNop())
}

func TestCheckNameToleratesMiddleNamesAndCase(t *testing.T) {
	e := newTestEngine()

	identity := identityWith(map[string]string{
		extract.FieldFirstName: "john michael",
		extract.FieldLastName:  "smith",
	})
	pass := boardingPassWith(map[string]string{
		extract.FieldBPFirstName: "John",
		extract.FieldBPLastName:  "Smith",
	})
	row := manifest.Row{FirstName: "John", LastName: "Smith"}

	if !e.CheckName(identity, pass, row) {
		t.Fatal("expected multi-word, case-folded name to match")
	}
}

func TestCheckNameRejectsMismatch(t *testing.T) {
	e := newTestEngine()

	identity := identityWith(map[string]string{
		extract.FieldFirstName: "JANE",
		extract.FieldLastName:  "doe",
	})
	pass := boardingPassWith(map[string]string{
		extract.FieldBPFirstName: "Jane",
		extract.FieldBPLastName:  "Doe",
	})
	row := manifest.Row{FirstName: "Jane", LastName: "Doewrong"}

	if e.CheckName(identity, pass, row) {
		t.Fatal("expected last name mismatch to fail")
	}
}

func TestCheckNameRequiresAllThreeSources(t *testing.T) {
	e := newTestEngine()

	identity := janeIdentity()
	pass := boardingPassWith(map[string]string{
		extract.FieldBPFirstName: "Janet",
		extract.FieldBPLastName:  "Public",
	})

	if e.CheckName(identity, pass, janeRow()) {
		t.Fatal("expected boarding pass name mismatch to fail even when ID matches")
	}
}

func TestCheckNameMissingValuesFailGracefully(t *testing.T) {
	e := newTestEngine()

	cases := map[string]struct {
		identity *extract.Identity
		pass     *extract.BoardingPass
		row      manifest.Row
	}{
		"empty identity":      {&extract.Identity{}, janeBoardingPass(), janeRow()},
		"empty boarding pass": {janeIdentity(), &extract.BoardingPass{}, janeRow()},
		"blank first name": {
			identityWith(map[string]string{extract.FieldFirstName: "   ", extract.FieldLastName: "Public"}),
			janeBoardingPass(),
			janeRow(),
		},
		"blank manifest row": {janeIdentity(), janeBoardingPass(), manifest.Row{}},
	}

	for name, tc := range cases {
		if e.CheckName(tc.identity, tc.pass, tc.row) {
			t.Fatalf("%s: expected missing value to be a non-match", name)
		}
	}
}

func TestCheckDateOfBirthFormatVariance(t *testing.T) {
	e := newTestEngine()

	identity := identityWith(map[string]string{extract.FieldDateOfBirth: "03/15/1990"})
	row := manifest.Row{DateOfBirth: "1990-03-15"}

	if !e.CheckDateOfBirth(identity, row) {
		t.Fatal("expected same calendar date in different formats to match")
	}
}

func TestCheckDateOfBirthMismatch(t *testing.T) {
	e := newTestEngine()

	identity := identityWith(map[string]string{extract.FieldDateOfBirth: "1990-03-16"})
	row := manifest.Row{DateOfBirth: "1990-03-15"}

	if e.CheckDateOfBirth(identity, row) {
		t.Fatal("expected different dates to mismatch")
	}
}

func TestCheckDateOfBirthUnparseableIsFalse(t *testing.T) {
	e := newTestEngine()

	cases := map[string]struct {
		idDOB       string
		manifestDOB string
	}{
		"garbage id dob":       {"not-a-date", "1990-03-15"},
		"garbage manifest dob": {"1990-03-15", "someday"},
		"missing id dob":       {"", "1990-03-15"},
		"missing manifest dob": {"1990-03-15", ""},
	}

	for name, tc := range cases {
		identity := identityWith(map[string]string{extract.FieldDateOfBirth: tc.idDOB})
		row := manifest.Row{DateOfBirth: tc.manifestDOB}
		if e.CheckDateOfBirth(identity, row) {
			t.Fatalf("%s: expected parse failure to be a validation failure", name)
		}
	}
}

func TestCheckBoardingPassAllOrNothing(t *testing.T) {
	e := newTestEngine()
	row := janeRow()

	if !e.CheckBoardingPass(janeBoardingPass(), row) {
		t.Fatal("expected all six matching fields to pass")
	}

	for _, field := range []string{
		extract.FieldFlightNo,
		extract.FieldSeat,
		extract.FieldOrigin,
		extract.FieldDestination,
		extract.FieldBPFirstName,
		extract.FieldBPLastName,
	} {
		pass := janeBoardingPass()
		pass.Documents[0].Fields[field] = extract.Field{Value: "WRONG", Confidence: 0.99}
		if e.CheckBoardingPass(pass, row) {
			t.Fatalf("expected mismatch on %s to fail the whole check", field)
		}
	}
}

func TestCheckBoardingPassIgnoresCaseAndWhitespace(t *testing.T) {
	e := newTestEngine()

	pass := boardingPassWith(map[string]string{
		extract.FieldBPFirstName: "  jane ",
		extract.FieldBPLastName:  "public",
		extract.FieldFlightNo:    "ab123",
		extract.FieldSeat:        " 14c",
		extract.FieldOrigin:      "jfk ",
		extract.FieldDestination: "lhr",
	})

	if !e.CheckBoardingPass(pass, janeRow()) {
		t.Fatal("expected trimmed, case-folded values to match")
	}
}

func TestCheckPersonIdentityThresholdBoundary(t *testing.T) {
	e := newTestEngine()

	cases := []struct {
		confidence float64
		want       bool
	}{
		{0.649999, false},
		{0.65, true},
		{0.650001, true},
		{0.9, true},
	}
	for _, tc := range cases {
		if got := e.CheckPersonIdentity(faceResults(tc.confidence)); got != tc.want {
			t.Fatalf("confidence %f: expected %v, got %v", tc.confidence, tc.want, got)
		}
	}

	if e.CheckPersonIdentity(nil) {
		t.Fatal("expected absent face results to fail")
	}
	if e.CheckPersonIdentity([]extract.FaceMatch{{FaceID: "face-1"}}) {
		t.Fatal("expected face with no candidates to fail")
	}
}

func TestCheckLuggageIsAlwaysFalse(t *testing.T) {
	if newTestEngine().CheckLuggage() {
		t.Fatal("luggage check is a stub and must report false")
	}
}

func TestValidateEndToEndOutcomeBits(t *testing.T) {
	e := newTestEngine()
	rows := []manifest.Row{janeRow()}

	decision := e.Validate(janeIdentity(), janeBoardingPass(), faceResults(0.9), rows)
	if decision == nil {
		t.Fatal("expected a decision")
	}

	want := manifest.Outcome{Name: true, DateOfBirth: true, BoardingPass: true, Person: true, Luggage: false}
	if decision.Outcome != want {
		t.Fatalf("unexpected outcome bits: %+v", decision.Outcome)
	}
	if !decision.Validated {
		t.Fatal("expected decision to be validated")
	}
	if decision.FlightNo != "AB123" || decision.Seat != "14C" || decision.BoardingTime != "10:30" {
		t.Fatalf("decision did not capture the row: %+v", decision)
	}
	if rows[0].Outcome != want {
		t.Fatalf("expected outcome to be written back onto the row, got %+v", rows[0].Outcome)
	}
}

func TestValidateReturnsFirstMatchAndStopsScanning(t *testing.T) {
	e := newTestEngine()

	failing := janeRow()
	failing.FirstName = "Somebody"
	failing.LastName = "Else"
	failing.DateOfBirth = "1970-01-01"

	rows := []manifest.Row{failing, janeRow(), janeRow()}

	decision := e.Validate(janeIdentity(), janeBoardingPass(), faceResults(0.9), rows)
	if decision == nil {
		t.Fatal("expected a decision")
	}
	if decision.RowIndex != 1 {
		t.Fatalf("expected first passing row (index 1), got %d", decision.RowIndex)
	}
	if rows[0].Outcome.Validated() {
		t.Fatal("expected row 0 to fail quorum")
	}
	if rows[2].Outcome != (manifest.Outcome{}) {
		t.Fatalf("expected scan to stop before row 2, but it was mutated: %+v", rows[2].Outcome)
	}
}

func TestValidateNoQuorumReturnsNil(t *testing.T) {
	e := newTestEngine()

	stranger := janeRow()
	stranger.FirstName = "Somebody"
	stranger.LastName = "Else"

	rows := []manifest.Row{stranger}
	if decision := e.Validate(janeIdentity(), janeBoardingPass(), faceResults(0.9), rows); decision != nil {
		t.Fatalf("expected no decision, got %+v", decision)
	}
}
