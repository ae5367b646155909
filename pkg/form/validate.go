package form

import "regexp"

// Rule names the check that produced a Failure.
type Rule string

const (
	RuleRequired Rule = "required"
	RuleEmail    Rule = "email"
	RuleFileSize Rule = "fileSize"
)

const bytesPerMiB = 1024 * 1024

// notSpaceOrAt matches one character that is neither "@" nor whitespace in
// the ECMAScript sense, which adds \v, the Unicode space separators and the
// BOM to Go's ASCII \s.
const notSpaceOrAt = `[^\s\x0B\p{Z}\x{FEFF}@]`

var emailPattern = regexp.MustCompile(`^` + notSpaceOrAt + `+@` + notSpaceOrAt + `+\.` + notSpaceOrAt + `+$`)

// Failure records one failed check.
type Failure struct {
	Key     string
	Field   string
	Rule    Rule
	Message string
}

// Result is the outcome of a validation pass. It is produced fresh on every
// call.
type Result struct {
	OK       bool
	First    *Failure
	Failures []Failure
}

// FirstErrorMessage returns the message of the first failure, or "" when the
// form is valid.
func (r Result) FirstErrorMessage() string {
	if r.First == nil {
		return ""
	}
	return r.First.Message
}

// ErrorCount reports how many checks failed.
func (r Result) ErrorCount() int {
	return len(r.Failures)
}

// Validate runs the field checks over every control in document order, then
// the file-size checks over file inputs. Every failing check is counted; the
// first one is reported as First.
func Validate(snapshot Snapshot) Result {
	var failures []Failure
	for _, field := range snapshot.Fields {
		failures = append(failures, CheckField(field)...)
	}
	for _, field := range snapshot.FileFields() {
		if failure, ok := CheckFileSize(field); ok {
			failures = append(failures, failure)
		}
	}

	result := Result{OK: len(failures) == 0, Failures: failures}
	if len(failures) > 0 {
		first := failures[0]
		result.First = &first
	}
	return result
}

// CheckField applies the required and email rules to a single field. A
// required, empty email field fails both.
func CheckField(field Field) []Failure {
	c := field.Constraint()
	if !c.Required {
		return nil
	}

	var out []Failure
	if missing(field, c) {
		out = append(out, failure(field, c, RuleRequired))
	}
	if c.Kind == KindEmail && !ValidEmail(field.Value) {
		out = append(out, failure(field, c, RuleEmail))
	}
	return out
}

// CheckFileSize fails when the first selected file exceeds the declared
// maximum. Fields without files or without a parseable maximum pass.
func CheckFileSize(field Field) (Failure, bool) {
	if len(field.Files) == 0 {
		return Failure{}, false
	}
	c := field.Constraint()
	if !c.HasMaxSize {
		return Failure{}, false
	}
	sizeMB := float64(field.Files[0].Size()) / bytesPerMiB
	if sizeMB > c.MaxFileSizeMB {
		return failure(field, c, RuleFileSize), true
	}
	return Failure{}, false
}

// ValidEmail reports whether value has a local@domain.tld shape.
func ValidEmail(value string) bool {
	return emailPattern.MatchString(value)
}

func missing(field Field, c Constraint) bool {
	if c.Kind == KindCheckbox {
		return !field.Checked
	}
	return field.Value == ""
}

func failure(field Field, c Constraint, rule Rule) Failure {
	return Failure{
		Key:     field.Key,
		Field:   field.Name,
		Rule:    rule,
		Message: c.ErrorMessage,
	}
}
