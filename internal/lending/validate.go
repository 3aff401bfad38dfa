package lending

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
)

//go:embed reservation.schema.json
var reservationSchemaJSON []byte

const reservationSchemaURL = "https://kitlend.local/schemas/reservation.json"

var reservationSchema = mustCompile(reservationSchemaURL, reservationSchemaJSON)

func mustCompile(url string, src []byte) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid schema %s: %v", url, err))
	}
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		panic(fmt.Sprintf("invalid schema %s: %v", url, err))
	}
	return c.MustCompile(url)
}

// ValidationError lists the problems of a rejected reservation by field
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	slices.Sort(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], "; "))
	}
	return "invalid reservation: " + strings.Join(parts, ", ")
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// ValidateReservation checks a booking request before it is stored.
// It returns a *ValidationError when the request is rejected.
func ValidateReservation(r Reservation) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}

	verr := &ValidationError{}
	// Empty strings stand for absent fields.
	if obj, ok := inst.(map[string]any); ok {
		for key, value := range obj {
			if value == "" {
				delete(obj, key)
			}
		}
	}
	if err := reservationSchema.Validate(inst); err != nil {
		var schemaErr *jsonschema.ValidationError
		if !errors.As(err, &schemaErr) {
			return err
		}
		collect(verr, schemaErr)
	}
	if r.StartDate != "" && r.EndDate != "" && r.EndDate < r.StartDate {
		verr.add("endDate", "must not be before startDate")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func collect(verr *ValidationError, e *jsonschema.ValidationError) {
	if len(e.Causes) > 0 {
		for _, cause := range e.Causes {
			collect(verr, cause)
		}
		return
	}
	if required, ok := e.ErrorKind.(*kind.Required); ok {
		for _, name := range required.Missing {
			verr.add(name, "is required")
		}
		return
	}
	field := strings.Join(e.InstanceLocation, ".")
	msg := e.ErrorKind.KeywordPath()[0]
	if out := e.BasicOutput(); out.Error != nil {
		msg = out.Error.String()
	}
	verr.add(field, msg)
}
