// Package message renders a boarding decision into one of the canned
// passenger-facing narratives.
package message

import (
	"fmt"
	"strings"

	"github.com/example/board-check/internal/validation"
)

// Style selects the line-break convention for the rendered message.
type Style string

const (
	// StyleConsole joins lines with a plain newline.
	StyleConsole Style = "console"
	// StyleWeb joins lines with an HTML break for kiosk web views.
	StyleWeb Style = "web"
)

func (s Style) lineBreak() string {
	if s == StyleWeb {
		return "<br>"
	}
	return "\n"
}

// Render maps a decision (or its absence) to the passenger message. A nil
// decision means no manifest row reached quorum.
func Render(decision *validation.Decision, style Style) string {
	newline := style.lineBreak()

	if decision == nil {
		return strings.Join([]string{
			"Some of the information provided does not match our records or your identity could not be verified.",
			"Please see a customer service representative.",
		}, newline)
	}

	outcome := decision.Outcome
	switch {
	case outcome.Name && outcome.DateOfBirth && outcome.BoardingPass && outcome.Person && outcome.Luggage:
		return strings.Join([]string{
			greeting(decision),
			welcomeLine(decision),
			seatLine(decision),
			"We did not find a prohibited item (lighter) in your carry-on baggage.",
			"Your identity is verified, please board the plane.",
		}, newline)

	case outcome.Name && outcome.DateOfBirth && outcome.BoardingPass && outcome.Person && !outcome.Luggage:
		return strings.Join([]string{
			greeting(decision),
			welcomeLine(decision),
			seatLine(decision),
			"We have found a prohibited item in your carry-on baggage, and it is flagged for removal.",
			"Your identity is verified. However, your baggage verification failed, so please see a customer service representative.",
		}, newline)

	case outcome.Name && outcome.DateOfBirth && outcome.BoardingPass && !outcome.Person && outcome.Luggage:
		return strings.Join([]string{
			greeting(decision),
			welcomeLine(decision),
			seatLine(decision),
			"We did not find a prohibited item (lighter) in your carry-on baggage.",
			"However, your identity could not be verified. Please see a customer service representative.",
		}, newline)

	case !outcome.Name || !outcome.DateOfBirth:
		return strings.Join([]string{
			"Dear Sir/Madam,",
			"Some of the information on your ID card does not match the flight manifest data, so you cannot board the plane.",
			"Please see a customer service representative.",
		}, newline)

	case !outcome.BoardingPass:
		return strings.Join([]string{
			"Dear Sir/Madam,",
			"Some of the information in your boarding pass does not match the flight manifest data, so you cannot board the plane.",
			"Please see a customer service representative.",
		}, newline)

	default:
		// Covers name+dob+boarding pass matching while neither the person nor
		// the luggage check passed, and any other combination without a
		// dedicated narrative.
		return strings.Join([]string{
			"Some of the information provided does not match our records or your identity could not be verified.",
			"Please see a customer service representative.",
		}, newline)
	}
}

func greeting(decision *validation.Decision) string {
	return fmt.Sprintf("Dear %s %s,", decision.FirstName, decision.LastName)
}

func welcomeLine(decision *validation.Decision) string {
	return fmt.Sprintf("You are welcome to flight #%s leaving at %s.", decision.FlightNo, decision.BoardingTime)
}

func seatLine(decision *validation.Decision) string {
	return fmt.Sprintf("From %s to %s, your seat number is %s, and it is confirmed.", decision.From, decision.To, decision.Seat)
}
