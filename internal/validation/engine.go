// Package validation implements the boarding decision engine: five
// independent checks per manifest row, a quorum rule over their results, and
// first-match row resolution.
package validation

import (
	"fmt"
	"strings"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"

	"github.com/example/board-check/internal/extract"
	"github.com/example/board-check/internal/manifest"
)

// FaceMatchThreshold is the minimum candidate confidence accepted as a person
// identity match. Candidates below it are ignored.
const FaceMatchThreshold = 0.65

// Decision is an immutable snapshot of the first manifest row that reached
// quorum, captured at the moment it passed. It is what the message renderer
// consumes; it is never written back to the roster.
type Decision struct {
	FirstName    string
	LastName     string
	FlightNo     string
	BoardingTime string
	From         string
	To           string
	Seat         string

	Outcome   manifest.Outcome
	Validated bool
	RowIndex  int
}

// Engine runs validation passes over a roster. It holds no configuration,
// only a logger; all inputs arrive fully fetched. Rows are mutated in place,
// so two passes over the same slice must not run concurrently.
type Engine struct {
	logger *zap.Logger
}

// NewEngine constructs a validation engine.
func NewEngine(logger *zap.Logger) *Engine {
	return &Engine{logger: logger.Named("validation")}
}

// Validate runs the five checks against every row in manifest order, records
// each row's outcome, and returns a Decision for the first row that reaches
// quorum. Rows after the matching one are left untouched. A nil return means
// no row reached quorum; that is an outcome, not an error.
func (e *Engine) Validate(identity *extract.Identity, pass *extract.BoardingPass, faces []extract.FaceMatch, rows []manifest.Row) *Decision {
	e.logger.Info("starting validation pass", zap.Int("rows", len(rows)))

	for i := range rows {
		row := &rows[i]
		row.Outcome = manifest.Outcome{
			Name:         e.CheckName(identity, pass, *row),
			DateOfBirth:  e.CheckDateOfBirth(identity, *row),
			BoardingPass: e.CheckBoardingPass(pass, *row),
			Person:       e.CheckPersonIdentity(faces),
			Luggage:      e.CheckLuggage(),
		}

		if row.Outcome.Validated() {
			e.logger.Info("row reached quorum",
				zap.Int("row", i),
				zap.Int("checks_passed", row.Outcome.PassedCount()))
			return &Decision{
				FirstName:    row.FirstName,
				LastName:     row.LastName,
				FlightNo:     row.FlightNo,
				BoardingTime: row.BoardingTime,
				From:         row.From,
				To:           row.To,
				Seat:         row.Seat,
				Outcome:      row.Outcome,
				Validated:    true,
				RowIndex:     i,
			}
		}
	}

	e.logger.Info("no row reached quorum")
	return nil
}

// CheckName performs the 3-way name comparison between ID, boarding pass, and
// manifest row. The first token of the first name and the last token of the
// last name are compared case-insensitively, which tolerates middle names and
// multi-word surname fields. A missing value on any side is a non-match.
func (e *Engine) CheckName(identity *extract.Identity, pass *extract.BoardingPass, row manifest.Row) bool {
	idDoc := identity.First()
	idFirst := firstToken(idDoc.Field(extract.FieldFirstName).Value)
	idLast := lastToken(idDoc.Field(extract.FieldLastName).Value)

	bpDoc := pass.First()
	bpFirst := firstToken(bpDoc.Field(extract.FieldBPFirstName).Value)
	bpLast := lastToken(bpDoc.Field(extract.FieldBPLastName).Value)

	manifestFirst := firstToken(row.FirstName)
	manifestLast := lastToken(row.LastName)

	if manifestFirst == "" || manifestLast == "" || idFirst == "" || idLast == "" || bpFirst == "" || bpLast == "" {
		e.logger.Info("name check failed: missing name value")
		return false
	}

	if manifestFirst == idFirst && manifestLast == idLast &&
		manifestFirst == bpFirst && manifestLast == bpLast {
		e.logger.Info("name matched",
			zap.String("first_name", manifestFirst),
			zap.String("last_name", manifestLast))
		return true
	}

	e.logger.Info("name mismatch",
		zap.String("id_name", idFirst+" "+idLast),
		zap.String("boarding_pass_name", bpFirst+" "+bpLast),
		zap.String("manifest_name", manifestFirst+" "+manifestLast))
	return false
}

// CheckDateOfBirth normalizes both the extracted and the manifest date of
// birth to YYYY-MM-DD and compares them. An unparseable date on either side is
// a validation failure, never an engine failure.
func (e *Engine) CheckDateOfBirth(identity *extract.Identity, row manifest.Row) bool {
	idDOB, err := normalizeDate(identity.First().Field(extract.FieldDateOfBirth).Value)
	if err != nil {
		e.logger.Warn("could not parse ID date of birth", zap.Error(err))
		return false
	}

	manifestDOB, err := normalizeDate(row.DateOfBirth)
	if err != nil {
		e.logger.Warn("could not parse manifest date of birth", zap.Error(err))
		return false
	}

	if idDOB == manifestDOB {
		e.logger.Info("date of birth matched", zap.String("dob", idDOB))
		return true
	}
	e.logger.Info("date of birth mismatch",
		zap.String("id_dob", idDOB),
		zap.String("manifest_dob", manifestDOB))
	return false
}

// boardingPassColumns fixes the order in which boarding pass fields are
// compared against manifest columns. The check short-circuits on the first
// mismatch.
var boardingPassColumns = []struct {
	passField string
	rowValue  func(manifest.Row) string
}{
	{extract.FieldFlightNo, func(r manifest.Row) string { return r.FlightNo }},
	{extract.FieldSeat, func(r manifest.Row) string { return r.Seat }},
	{extract.FieldOrigin, func(r manifest.Row) string { return r.From }},
	{extract.FieldDestination, func(r manifest.Row) string { return r.To }},
	{extract.FieldBPFirstName, func(r manifest.Row) string { return r.FirstName }},
	{extract.FieldBPLastName, func(r manifest.Row) string { return r.LastName }},
}

// CheckBoardingPass compares the six boarding pass fields against the manifest
// row, all-or-nothing.
func (e *Engine) CheckBoardingPass(pass *extract.BoardingPass, row manifest.Row) bool {
	doc := pass.First()
	for _, column := range boardingPassColumns {
		passValue := normalizeField(doc.Field(column.passField).Value)
		manifestValue := normalizeField(column.rowValue(row))
		if passValue != manifestValue {
			e.logger.Info("boarding pass mismatch",
				zap.String("field", column.passField),
				zap.String("boarding_pass_value", passValue),
				zap.String("manifest_value", manifestValue))
			return false
		}
	}
	e.logger.Info("boarding pass matched")
	return true
}

// CheckPersonIdentity reports whether any face candidate meets the match
// threshold. The upstream face service's confidence scores are trusted as-is;
// this is an existence check, not a re-ranking.
func (e *Engine) CheckPersonIdentity(faces []extract.FaceMatch) bool {
	for _, face := range faces {
		for _, candidate := range face.Candidates {
			if candidate.Confidence >= FaceMatchThreshold {
				e.logger.Info("face matched",
					zap.String("person_id", candidate.PersonID),
					zap.Float64("confidence", candidate.Confidence))
				return true
			}
		}
	}
	e.logger.Info("face not matched")
	return false
}

// CheckLuggage is a stub: there is no luggage inspection feed yet, so the
// check always fails. The quorum policy counts on the bit being present, so
// it must not be removed when the result is known.
func (e *Engine) CheckLuggage() bool {
	return false
}

func firstToken(value string) string {
	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return ""
	}
	return strings.ToUpper(tokens[0])
}

func lastToken(value string) string {
	tokens := strings.Fields(value)
	if len(tokens) == 0 {
		return ""
	}
	return strings.ToUpper(tokens[len(tokens)-1])
}

func normalizeField(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

func normalizeDate(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("empty date value")
	}
	parsed, err := dateparse.ParseAny(trimmed)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", trimmed, err)
	}
	return parsed.Format("2006-01-02"), nil
}
