// Package validation checks raw chat queries before any processing happens.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Ayash-Bera/nlchat/internal/apperr"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

const (
	MinQuestionLength = 1
	MaxQuestionLength = 1000
)

// RawQuery is a query as received from a transport. Question is untyped on
// purpose: decoding JSON into it keeps non-string questions detectable.
type RawQuery struct {
	Question interface{} `json:"question"`
	Context  interface{} `json:"context,omitempty"`
}

// QueryContext is the only accepted shape for RawQuery.Context.
type QueryContext struct {
	Results   []interface{} `json:"results,omitempty"`
	UserID    string        `json:"user_id,omitempty" validate:"omitempty,max=128"`
	SessionID string        `json:"session_id,omitempty" validate:"omitempty,max=128"`
}

// Validated is the result of a successful Check.
type Validated struct {
	Question string
	Context  *QueryContext
}

type unsafePattern struct {
	class string
	re    *regexp.Regexp
}

// htmlTags lists the elements treated as markup. A tag only counts when
// the name follows "<" directly, so comparisons like "a < b" pass.
const htmlTags = `a|abbr|audio|b|base|body|br|button|code|details|div|em|embed|form|frame|frameset|` +
	`h[1-6]|head|hr|html|i|iframe|img|input|link|li|marquee|math|meta|object|ol|option|p|pre|` +
	`select|source|span|strong|style|svg|table|td|textarea|th|title|tr|u|ul|video`

// eventHandlers lists DOM event attribute names. Matching a closed list
// keeps words like "online" or "once" out.
const eventHandlers = `abort|afterprint|animation(end|iteration|start)|beforeprint|beforeunload|begin|blur|` +
	`canplay|change|click|contextmenu|copy|cut|dblclick|drag|dragend|dragenter|dragleave|dragover|` +
	`dragstart|drop|end|ended|error|focus|focusin|focusout|hashchange|input|invalid|keydown|` +
	`keypress|keyup|load|loadeddata|loadstart|message|mousedown|mouseenter|mouseleave|mousemove|` +
	`mouseout|mouseover|mouseup|paste|pause|play|playing|pointer(down|enter|leave|move|out|over|up)|` +
	`popstate|progress|reset|resize|scroll|search|select|show|submit|toggle|touch(cancel|end|move|start)|` +
	`transition(end|run|start)|unload|wheel`

var unsafePatterns = []unsafePattern{
	{"markup", regexp.MustCompile(`(?i)</?script`)},
	{"markup", regexp.MustCompile(`(?i)<(` + htmlTags + `)\b(\s*/?>|\s+[a-z][a-z0-9:-]*\s*=)`)},
	{"markup", regexp.MustCompile(`(?i)</(` + htmlTags + `)\s*>`)},
	{"script_uri", regexp.MustCompile(`(?i)\b(javascript|vbscript)\s*:`)},
	{"script_uri", regexp.MustCompile(`(?i)\bdata\s*:\s*text/html`)},
	{"event_handler", regexp.MustCompile(`(?i)\bon(` + eventHandlers + `)\s*=`)},
	{"code_execution", regexp.MustCompile(`(?i)\b(eval|exec|execfile)\s*\(`)},
	{"code_execution", regexp.MustCompile(`(?i)\b(system|popen|spawn)\(\s*["'` + "`" + `]`)},
	{"code_execution", regexp.MustCompile(`(?i)\bnew\s+Function\s*\(`)},
	{"code_execution", regexp.MustCompile(`(?i)\bset(Timeout|Interval)\s*\(\s*["'` + "`" + `]`)},
}

type Validator struct {
	structs *validator.Validate
	logger  *logrus.Logger
}

func NewValidator(logger *logrus.Logger) *Validator {
	return &Validator{
		structs: validator.New(),
		logger:  logger,
	}
}

// Validate returns the trimmed question or an apperr validation error.
func (v *Validator) Validate(q RawQuery) (string, error) {
	res, err := v.Check(q)
	if err != nil {
		return "", err
	}
	return res.Question, nil
}

// Check is Validate that also returns the decoded context.
func (v *Validator) Check(q RawQuery) (Validated, error) {
	question, inputLength, err := v.check(q)
	var qc *QueryContext
	if err == nil {
		qc, err = v.checkContext(q.Context)
	}
	v.audit(inputLength, err)
	if err != nil {
		return Validated{}, err
	}

	return Validated{Question: question, Context: qc}, nil
}

func (v *Validator) check(q RawQuery) (string, int, error) {
	raw, ok := q.Question.(string)
	if !ok {
		return "", 0, apperr.Validation(apperr.RuleType, "question must be a string")
	}

	question := strings.TrimSpace(raw)
	length := utf8.RuneCountInString(question)
	if length < MinQuestionLength {
		return "", length, apperr.Validation(apperr.RuleLength, "question cannot be empty")
	}
	if length > MaxQuestionLength {
		return "", length, apperr.Validation(apperr.RuleLength,
			fmt.Sprintf("question too long (max %d characters)", MaxQuestionLength))
	}

	for _, p := range unsafePatterns {
		if p.re.MatchString(question) {
			v.logger.WithFields(logrus.Fields{
				"event":        "query_validation",
				"security":     true,
				"pattern":      p.class,
				"input_length": length,
			}).Warn("Unsafe content detected in query")
			return "", length, apperr.Validation(apperr.RuleUnsafeContent, "question contains potentially unsafe content")
		}
	}

	return question, length, nil
}

func (v *Validator) checkContext(raw interface{}) (*QueryContext, error) {
	if raw == nil {
		return nil, nil
	}

	var qc QueryContext
	switch c := raw.(type) {
	case QueryContext:
		qc = c
	case *QueryContext:
		if c == nil {
			return nil, nil
		}
		qc = *c
	default:
		data, err := json.Marshal(raw)
		if err != nil || !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
			return nil, apperr.Validation(apperr.RuleContext, "context must be an object")
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&qc); err != nil {
			return nil, apperr.Validation(apperr.RuleContext, "context has an unsupported shape")
		}
	}

	if err := v.structs.Struct(qc); err != nil {
		return nil, apperr.Validation(apperr.RuleContext, "context field exceeds allowed length")
	}
	return &qc, nil
}

// audit never records the question itself.
func (v *Validator) audit(inputLength int, err error) {
	fields := logrus.Fields{
		"event":        "query_validation",
		"valid":        err == nil,
		"input_length": inputLength,
	}
	if e, ok := apperr.As(err); ok {
		fields["rule"] = e.Rule
	}
	v.logger.WithFields(fields).Info("Query validation")
}
